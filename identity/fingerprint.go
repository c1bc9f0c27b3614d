package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"auctionpipe/models"
)

var (
	streetReplacements = map[string]string{
		"street":    "st",
		"road":      "rd",
		"avenue":    "ave",
		"lane":      "ln",
		"close":     "cl",
		"court":     "ct",
		"crescent":  "cres",
		"drive":     "dr",
		"gardens":   "gdns",
		"grove":     "gr",
		"place":     "pl",
		"square":    "sq",
		"terrace":   "ter",
		"apartment": "apt",
		"house":     "hse",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)

	// Outward code, optional space, inward code, anchored to the end of the
	// address. Same shape the auction pages publish (e.g. "CT9 3EJ",
	// "WD180ES").
	postcodeRegex    = regexp.MustCompile(`(?i)([A-Z]{1,2}\d{1,2}\s?\d[A-Z]{2})$`)
	postcodeAnyRegex = regexp.MustCompile(`(?i)([A-Z]{1,2}\d{1,2}\s?\d[A-Z]{2})`)
)

// Fingerprint derives a stable identifier for a persisted record, used for
// external deduplication across overlapping scrape windows. The store itself
// offers no uniqueness guarantee.
func Fingerprint(rec *models.PropertyRecord) string {
	input := fmt.Sprintf("%s|%s|%s",
		NormalizeAddress(rec.Address),
		strings.ToLower(strings.TrimSpace(rec.LotNumber)),
		rec.AuctionDate,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress lowercases, strips punctuation and abbreviates common UK
// street designations so near-identical addresses hash alike.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	for full, abbrev := range streetReplacements {
		addr = strings.ReplaceAll(addr, full, abbrev)
	}
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}

// ExtractPostcode pulls a UK postcode off the tail of an address.
func ExtractPostcode(address string) (string, bool) {
	m := postcodeRegex.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// FindPostcode scans arbitrary text for the first postcode-shaped token.
func FindPostcode(text string) (string, bool) {
	m := postcodeAnyRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// NormalizePostcode inserts the space before the three-character inward code
// when it is missing ("CT93EJ" -> "CT9 3EJ"). Already-spaced postcodes pass
// through unchanged.
func NormalizePostcode(pc string) string {
	pc = strings.ToUpper(strings.TrimSpace(pc))
	if pc == "" || strings.Contains(pc, " ") || len(pc) < 5 {
		return pc
	}
	return pc[:len(pc)-3] + " " + pc[len(pc)-3:]
}
