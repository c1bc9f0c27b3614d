package scraper

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"auctionpipe/identity"
	"auctionpipe/models"
	"auctionpipe/pagesource"
)

const minAddressLen = 10

// addressSelectors is the priority order for locating the address on a lot
// page. Headings come after the dedicated classes so a "Lot 42" heading does
// not shadow a proper address block.
var addressSelectors = []string{
	".lot-address",
	".address",
	".property-address",
	"[class*='address']",
	"h1", "h2", "h3", "h4", "h5",
	".lot-title",
	".property-title",
	".lot-description",
	".property-description",
}

var (
	lotNumberTextRe = regexp.MustCompile(`(?i)lot\s+(?:number\s+)?(\d+[A-Za-z]*)`)
	lotURLRe        = regexp.MustCompile(`/lot/([^/?]+)`)
	digitsRe        = regexp.MustCompile(`(\d+)`)
	bodyPriceRe     = regexp.MustCompile(`(?i)sold\s+for\s+£[\d,]+`)
	bodyStatusRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sold\s+prior\s+to\s+auction\s+for\s+an\s+undisclosed\s+amount\.?`),
		regexp.MustCompile(`(?i)withdrawn\s+prior\.?`),
		regexp.MustCompile(`(?i)sold\s+prior\.?`),
		regexp.MustCompile(`(?i)reserved\.?`),
		regexp.MustCompile(`(?i)withdrawn\.?`),
		regexp.MustCompile(`(?i)\bsold\b\.?`),
	}
)

// ExtractLot pulls one lot from a captured detail page, reconciling its
// identifier and outcome against the auction's results table. Every field
// is best-effort through an ordered fallback chain; synthetic placeholders
// win over failing the lot. Returns ErrSessionExpired when the page is
// actually login chrome.
func ExtractLot(snap *pagesource.Snapshot, fallbackNumber int, results map[string]string) (*models.Lot, error) {
	doc, err := snap.Doc()
	if err != nil {
		return nil, err
	}

	if pagesource.SessionExpired(snap) {
		return nil, ErrSessionExpired
	}

	address, found := extractAddress(doc, snap)
	if !found {
		address = fmt.Sprintf("Unknown Address - Lot %d", fallbackNumber)
		log.Printf("No address found on %s, using placeholder", snap.URL)
	}
	if pagesource.LooksLikeLoginText(address) {
		return nil, ErrSessionExpired
	}

	lot := &models.Lot{
		Address:   address,
		SourceURL: snap.URL,
	}
	if pc, ok := identity.ExtractPostcode(address); ok {
		lot.Postcode = identity.NormalizePostcode(pc)
	} else if parts := strings.Fields(address); len(parts) >= 2 {
		lot.Postcode = parts[len(parts)-1]
	}

	lot.LotNumber, lot.NumberConfidence = resolveLotNumber(snap, address, fallbackNumber, results)

	outcome, ok := resolveOutcome(doc, snap, lot.LotNumber, results)
	if ok {
		lot.Outcome = outcome
		lot.PriceBought = outcome.DisplayPrice()
	} else {
		lot.Outcome = models.Outcome{Kind: models.OutcomeUnknown}
	}

	return lot, nil
}

// extractAddress walks the selector priority list, then the page title,
// then a postcode scan over the body text.
func extractAddress(doc *goquery.Document, snap *pagesource.Snapshot) (string, bool) {
	for _, selector := range addressSelectors {
		var addr string
		doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if len(text) > minAddressLen {
				addr = text
				return false
			}
			return true
		})
		if addr != "" {
			return squashSpace(addr), true
		}
	}

	// title form: "Lot 12 - 1 Example Road, Town, AB1 2CD"
	if title := snap.Title; strings.Contains(strings.ToLower(title), "lot") {
		parts := strings.Split(title, " - ")
		if len(parts) > 1 {
			candidate := strings.TrimSpace(parts[len(parts)-1])
			if len(candidate) > 5 {
				return candidate, true
			}
		}
	}

	// last resort: find a postcode in the body and take the preceding line
	body := snap.BodyText()
	if pc, ok := identity.FindPostcode(body); ok {
		idx := strings.Index(body, pc)
		if idx > 0 {
			before := body[max(0, idx-100):idx]
			lines := strings.Split(before, "\n")
			for i := len(lines) - 1; i >= 0; i-- {
				line := strings.TrimSpace(lines[i])
				if len(line) > minAddressLen && strings.Contains(line, ",") {
					return squashSpace(line) + ", " + pc, true
				}
			}
		}
	}

	return "", false
}

func resolveLotNumber(snap *pagesource.Snapshot, address string, fallback int, results map[string]string) (string, models.NumberConfidence) {
	if num, ok := MatchLotByAddress(address, results); ok {
		log.Printf("Matched lot %s from results table for %.50q", num, address)
		return num, models.NumberFromResults
	}

	if m := lotNumberTextRe.FindStringSubmatch(snap.BodyText()); m != nil {
		return m[1], models.NumberFromText
	}

	if m := lotURLRe.FindStringSubmatch(snap.URL); m != nil {
		if n := digitsRe.FindStringSubmatch(m[1]); n != nil {
			return n[1], models.NumberFromURL
		}
	}

	return fmt.Sprintf("%d", fallback), models.NumberSequential
}

// MatchLotByAddress reconciles an address against the results table: if any
// of the first three significant words (length > 3) of the lowercased
// address appears in a row's outcome text, that row's lot identifier is
// adopted. First match wins over sorted keys. This is a deliberately
// imperfect heuristic — similar addresses in one auction can collide — so
// callers receive an explicit confidence marker instead of a silent guess.
func MatchLotByAddress(address string, results map[string]string) (string, bool) {
	if len(results) == 0 {
		return "", false
	}

	var words []string
	for _, w := range strings.Fields(strings.ToLower(address)) {
		if len(w) > 3 {
			words = append(words, w)
		}
		if len(words) == 3 {
			break
		}
	}
	if len(words) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		text := strings.ToLower(results[key])
		for _, w := range words {
			if strings.Contains(text, w) {
				return key, true
			}
		}
	}
	return "", false
}

// resolveOutcome prefers the auction-level results table; when the
// reconciled identifier is absent it falls back to result tables on the lot
// page itself, then to scanning the body text for price/status patterns.
func resolveOutcome(doc *goquery.Document, snap *pagesource.Snapshot, lotNumber string, results map[string]string) (models.Outcome, bool) {
	if text, ok := results[lotNumber]; ok {
		return models.ParseOutcome(text), true
	}

	if text, ok := outcomeFromPageTables(doc, lotNumber); ok {
		return models.ParseOutcome(text), true
	}

	body := snap.BodyText()
	if m := bodyPriceRe.FindString(body); m != "" {
		return models.ParseOutcome(m), true
	}
	for _, re := range bodyStatusRes {
		if m := re.FindString(body); m != "" {
			return models.ParseOutcome(m), true
		}
	}

	return models.Outcome{}, false
}

func outcomeFromPageTables(doc *goquery.Document, lotNumber string) (string, bool) {
	var outcome string
	doc.Find("table").EachWithBreak(func(ti int, table *goquery.Selection) bool {
		resultCol := -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			if resultCol < 0 && strings.Contains(strings.ToLower(cell.Text()), "result") {
				resultCol = i
			}
		})
		if resultCol < 0 {
			return true
		}

		table.Find("tr").EachWithBreak(func(ri int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() <= resultCol {
				return true
			}
			first := strings.TrimSpace(cells.Eq(0).Text())
			if first == lotNumber || strings.Contains(first, "Lot "+lotNumber) {
				outcome = strings.TrimSpace(cells.Eq(resultCol).Text())
				return false
			}
			return true
		})
		return outcome == ""
	})
	return outcome, outcome != ""
}

func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
