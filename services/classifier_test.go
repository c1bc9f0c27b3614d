package services

import (
	"testing"
	"time"

	"auctionpipe/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyAge(t *testing.T) {
	now := date(2026, 6, 15)

	cases := []struct {
		name    string
		auction time.Time
		want    AgeBand
	}{
		{"yesterday", date(2026, 6, 14), BandNewer},
		{"two months ago", date(2026, 4, 15), BandNewer},
		{"one day short of three months", date(2026, 3, 16), BandNewer},
		{"exactly three months", date(2026, 3, 15), BandOlder},
		{"eleven months", date(2025, 7, 15), BandOlder},
		{"exactly twelve months", date(2025, 6, 15), BandOlder},
		{"twelve months and a day", date(2025, 6, 14), BandSkip},
		{"two years ago", date(2024, 6, 15), BandSkip},
		{"future auction", date(2026, 7, 1), BandSkip},
	}

	for _, tc := range cases {
		if got := ClassifyAge(now, tc.auction); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestMeetsPriceCriteria(t *testing.T) {
	now := date(2026, 6, 15)

	cases := []struct {
		name     string
		price    string
		soldDate string
		want     bool
	}{
		{"recent disclosed sale", "£306,000", "14/05/2026", true},
		{"five months old", "£98,000", "2026-01-16", true},
		{"exactly six months", "£98,000", "2025-12-15", false},
		{"stale sale", "£98,000", "01/01/2025", false},
		{"no price", "", "14/05/2026", false},
		{"not found placeholder", "Not found", "14/05/2026", false},
		{"no sold date", "£306,000", "", false},
		{"garbage sold date", "£306,000", "soon", false},
		{"future sold date", "£306,000", "01/07/2026", false},
	}

	for _, tc := range cases {
		rec := &models.PropertyRecord{PurchasePrice: tc.price, SoldDate: tc.soldDate}
		if got := MeetsPriceCriteria(rec, now, 6); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRoute(t *testing.T) {
	cases := []struct {
		band  AgeBand
		meets bool
		want  models.RouteDecision
	}{
		{BandNewer, true, models.RoutePermanent},
		{BandNewer, false, models.RouteStaging},
		{BandOlder, true, models.RoutePermanent},
		{BandOlder, false, models.RouteStaging},
		{BandSkip, true, models.RouteDiscard},
		{BandSkip, false, models.RouteDiscard},
	}
	for _, tc := range cases {
		if got := Route(tc.band, tc.meets); got != tc.want {
			t.Fatalf("%s/%v: got %s, want %s", tc.band, tc.meets, got, tc.want)
		}
	}
}

func TestIsTestRecord(t *testing.T) {
	cases := []struct {
		address string
		want    bool
	}{
		{"Test Property, London", true},
		{"123 DEBUG ROW", true},
		{"Dummy entry", true},
		{"12 Testerton Road, London", false},
		{"4 High Street, Margate", false},
	}
	for _, tc := range cases {
		rec := &models.PropertyRecord{Address: tc.address}
		if got := IsTestRecord(rec); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.address, got, tc.want)
		}
	}

	byName := &models.PropertyRecord{Address: "4 High Street", AuctionName: "test auction"}
	if !IsTestRecord(byName) {
		t.Fatal("marker in auction name should flag the record")
	}
}
