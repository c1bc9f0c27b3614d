package prices

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"auctionpipe/config"
	"auctionpipe/pagesource"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func fixtureDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(loadFixture(t, name)))
	if err != nil {
		t.Fatalf("parse fixture %s: %v", name, err)
	}
	return doc
}

// stubCapturer serves one canned snapshot for every navigation.
type stubCapturer struct {
	snap *pagesource.Snapshot
	err  error
	urls []string
}

func (s *stubCapturer) Capture(ctx context.Context, url string, opts pagesource.CaptureOptions) (*pagesource.Snapshot, error) {
	s.urls = append(s.urls, url)
	return s.snap, s.err
}

func testConfig() *config.PriceHistoryConfig {
	return &config.PriceHistoryConfig{
		ResultsURL: "https://prices.example.com/results.aspx?postcode=%s",
	}
}

func fixedMatcher(source pagesource.Capturer) *Matcher {
	m := NewMatcher(testConfig(), source, 6)
	m.now = func() time.Time {
		return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	}
	return m
}

func TestMatchFound(t *testing.T) {
	stub := &stubCapturer{snap: &pagesource.Snapshot{
		Title: "EHP - House Prices for CT9 3EJ",
		URL:   "https://prices.example.com/results.aspx?postcode=CT9+3EJ",
		HTML:  loadFixture(t, "results_page.html"),
	}}
	m := fixedMatcher(stub)

	match, err := m.Match(context.Background(), "4 High Street, Margate, CT93EJ")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !match.Found {
		t.Fatal("expected a match")
	}
	if match.Postcode != "CT9 3EJ" {
		t.Fatalf("postcode: got %q", match.Postcode)
	}
	if match.SaleDate != "12/03/2026" || match.SalePrice != "£98,000" {
		t.Fatalf("got %q at %q", match.SalePrice, match.SaleDate)
	}
	if len(stub.urls) != 1 || !strings.Contains(stub.urls[0], "CT9+3EJ") {
		t.Fatalf("unexpected navigation %v", stub.urls)
	}
}

func TestMatchStaleSaleRejected(t *testing.T) {
	stub := &stubCapturer{snap: &pagesource.Snapshot{
		Title: "EHP - House Prices for CT9 3EJ",
		HTML:  loadFixture(t, "results_page.html"),
	}}
	m := fixedMatcher(stub)

	// Exact-address row for number 6 sold in 2019, outside the window.
	match, err := m.Match(context.Background(), "6 High Street, Margate, CT9 3EJ")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if match.Found {
		t.Fatalf("stale sale must not match, got %+v", match)
	}
}

func TestMatchNoPostcode(t *testing.T) {
	stub := &stubCapturer{}
	m := fixedMatcher(stub)

	match, err := m.Match(context.Background(), "Land adjacent to the church")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if match.Found {
		t.Fatal("expected no match")
	}
	if len(stub.urls) != 0 {
		t.Fatal("should not navigate without a postcode")
	}
}

func TestMatchWrongPage(t *testing.T) {
	stub := &stubCapturer{snap: &pagesource.Snapshot{
		Title: "Something else entirely",
		HTML:  "<html><body></body></html>",
	}}
	m := fixedMatcher(stub)

	match, err := m.Match(context.Background(), "4 High Street, Margate, CT9 3EJ")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if match.Found {
		t.Fatal("expected no match on an unrecognized page")
	}
}

func TestFindAddressRow(t *testing.T) {
	doc := fixtureDoc(t, "results_page.html")

	// Exact match wins even though an earlier row shares the street.
	row, ok := FindAddressRow(doc, "4 High Street, Margate, CT9 3EJ")
	if !ok {
		t.Fatal("expected a row")
	}
	if !strings.Contains(row, "£98,000") {
		t.Fatalf("wrong row: %q", row)
	}

	// Street-prefix fallback picks the first row on the street.
	row, ok = FindAddressRow(doc, "2 High Street, Thanet")
	if !ok {
		t.Fatal("expected a partial match")
	}
	if !strings.Contains(row, "£150,000") {
		t.Fatalf("wrong row: %q", row)
	}

	if _, ok := FindAddressRow(doc, "99 Nowhere Road, Leeds"); ok {
		t.Fatal("expected no row")
	}
}

func TestParseSaleRow(t *testing.T) {
	date, price, ok := ParseSaleRow("4 High Street, Margate, CT9 3EJ 12/03/2026 £98,000")
	if !ok || date != "12/03/2026" || price != "£98,000" {
		t.Fatalf("got (%q, %q, %v)", date, price, ok)
	}

	if _, _, ok := ParseSaleRow("no structured data here"); ok {
		t.Fatal("expected failure")
	}
}

func TestAcceptSaleDate(t *testing.T) {
	m := fixedMatcher(nil) // now = 2026-05-01, window 6 months

	cases := []struct {
		date string
		want bool
	}{
		{"01/05/2026", true},  // today
		{"02/11/2025", true},  // just inside
		{"01/11/2025", false}, // exactly six months: rejected
		{"30/06/2025", false}, // stale
		{"01/06/2026", false}, // future
		{"garbage", false},
	}
	for _, tc := range cases {
		if got := m.AcceptSaleDate(tc.date); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.date, got, tc.want)
		}
	}
}
