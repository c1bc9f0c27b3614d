package prices

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"auctionpipe/config"
	"auctionpipe/identity"
	"auctionpipe/models"
	"auctionpipe/pagesource"
)

const maxNavAttempts = 3

var (
	saleDateRe  = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`)
	salePriceRe = regexp.MustCompile(`£([\d,]+)`)

	browserHeaders = map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
)

// Matcher looks up verified sale records for an address on the external
// price-history site. Lookups are throttled and retried; a WAF challenge is
// handled as a throttling signal, never an error.
type Matcher struct {
	cfg    *config.PriceHistoryConfig
	source pagesource.Capturer
	window int // acceptance window in whole months

	now func() time.Time
}

func NewMatcher(cfg *config.PriceHistoryConfig, source pagesource.Capturer, windowMonths int) *Matcher {
	return &Matcher{
		cfg:    cfg,
		source: source,
		window: windowMonths,
		now:    time.Now,
	}
}

// Match queries the price-history source by the address's postcode and
// returns a found match only when a confidently matched row has a sale date
// inside the acceptance window. Every miss — no postcode, navigation
// failure, WAF block, no row, stale date — is reported as not-found, not as
// an error.
func (m *Matcher) Match(ctx context.Context, address string) (models.PriceHistoryMatch, error) {
	notFound := models.PriceHistoryMatch{}

	pc, ok := identity.ExtractPostcode(address)
	if !ok {
		log.Printf("No postcode in address %q, skipping price lookup", address)
		return notFound, nil
	}
	pc = identity.NormalizePostcode(pc)

	pagesource.HumanDelay(m.cfg.QueryDelay)

	queryURL := fmt.Sprintf(m.cfg.ResultsURL, url.QueryEscape(pc))
	snap, err := m.navigate(ctx, queryURL)
	if err != nil {
		if ctx.Err() != nil {
			return notFound, ctx.Err()
		}
		log.Printf("Price lookup navigation failed for %s: %v", pc, err)
		return notFound, nil
	}

	if pagesource.Blocked(snap) {
		log.Printf("Price source blocked lookup for %s (title %q), backing off", pc, snap.Title)
		time.Sleep(m.cfg.BlockBackoff)
		return notFound, nil
	}
	if !titleLooksRight(snap.Title) {
		log.Printf("Unexpected price-source page title %q for %s", snap.Title, pc)
		return notFound, nil
	}

	doc, err := snap.Doc()
	if err != nil {
		return notFound, err
	}

	rowText, ok := FindAddressRow(doc, address)
	if !ok {
		log.Printf("Address %q not found in price-history results", address)
		return notFound, nil
	}

	saleDate, salePrice, ok := ParseSaleRow(rowText)
	if !ok {
		return notFound, nil
	}
	if !m.AcceptSaleDate(saleDate) {
		log.Printf("Sale date %s for %q outside acceptance window", saleDate, address)
		return notFound, nil
	}

	return models.PriceHistoryMatch{
		Postcode:  pc,
		SaleDate:  saleDate,
		SalePrice: salePrice,
		Found:     true,
	}, nil
}

func (m *Matcher) navigate(ctx context.Context, queryURL string) (*pagesource.Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= maxNavAttempts; attempt++ {
		snap, err := m.source.Capture(ctx, queryURL, pagesource.CaptureOptions{
			Timeout:         30 * time.Second,
			WaitNetworkIdle: true,
			ExtraHeaders:    browserHeaders,
		})
		if err == nil {
			return snap, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxNavAttempts {
			backoff := time.Duration(attempt) * m.cfg.RetryBackoff // 5s, 10s
			log.Printf("Navigation attempt %d/%d failed, retrying in %s: %v",
				attempt, maxNavAttempts, backoff, err)
			time.Sleep(backoff)
		}
	}
	return nil, lastErr
}

// AcceptSaleDate applies the recency rule: only DD/MM/YYYY dates within the
// last window months, and never in the future, qualify. A date exactly at
// the window boundary is rejected.
func (m *Matcher) AcceptSaleDate(saleDate string) bool {
	sold, err := time.Parse("2/1/2006", saleDate)
	if err != nil {
		if sold, err = time.Parse("02/01/2006", saleDate); err != nil {
			return false
		}
	}
	months, _ := models.MonthsBetween(m.now(), sold)
	return months >= 0 && months < m.window
}

// FindAddressRow scans result-table rows for a first cell equal to the
// target address (case-insensitive), falling back to a row whose first cell
// starts with the target's street portion. Returns the full row text.
func FindAddressRow(doc *goquery.Document, address string) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(address))
	street := strings.ToLower(strings.TrimSpace(strings.Split(address, ",")[0]))

	var exact, partial string
	doc.Find("table tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return true
		}
		cellText := strings.ToLower(strings.TrimSpace(cell.Text()))
		if cellText == "" {
			return true
		}
		if cellText == target {
			exact = strings.TrimSpace(row.Text())
			return false
		}
		if partial == "" && street != "" && strings.HasPrefix(cellText, street) {
			partial = strings.TrimSpace(row.Text())
		}
		return true
	})

	if exact != "" {
		return exact, true
	}
	if partial != "" {
		return partial, true
	}
	return "", false
}

// ParseSaleRow pulls the DD/MM/YYYY sale date and the £-prefixed sale price
// out of a matched row's text.
func ParseSaleRow(rowText string) (saleDate, salePrice string, ok bool) {
	dm := saleDateRe.FindStringSubmatch(rowText)
	pm := salePriceRe.FindStringSubmatch(rowText)
	if dm == nil || pm == nil {
		return "", "", false
	}
	return dm[1], "£" + pm[1], true
}

func titleLooksRight(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(title, "EHP") || strings.Contains(t, "house prices")
}
