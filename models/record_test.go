package models

import (
	"testing"
	"time"
)

func sampleAuction() AuctionEvent {
	return AuctionEvent{
		Name:      "Auction House London",
		Date:      date(2026, 5, 14),
		DetailURL: "https://auctions.example.co.uk/auction/2026-05-14",
	}
}

func sampleLot() *Lot {
	return &Lot{
		LotNumber: "156A",
		Address:   "25 Addiscombe Avenue, Croydon, CR0 7JT",
		Postcode:  "CR0 7JT",
		Outcome:   ParseOutcome("Sold for £306,000"),
		SourceURL: "https://auctions.example.co.uk/lot/156a",
	}
}

func TestNewPropertyRecordWithMatch(t *testing.T) {
	match := PriceHistoryMatch{
		Postcode:  "CR0 7JT",
		SaleDate:  "14/05/2026",
		SalePrice: "£306,000",
		Found:     true,
	}
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	rec := NewPropertyRecord(sampleAuction(), sampleLot(), match, now)

	if rec.AuctionDate != "2026-05-14" {
		t.Fatalf("auction date: got %q", rec.AuctionDate)
	}
	if rec.SoldDate != "14/05/2026" {
		t.Fatalf("sold date: got %q", rec.SoldDate)
	}
	if rec.PurchasePrice != "£306,000" {
		t.Fatalf("purchase price: got %q", rec.PurchasePrice)
	}
	if rec.IngestedAt != "2026-06-01T09:00:00Z" {
		t.Fatalf("ingested at: got %q", rec.IngestedAt)
	}
}

func TestNewPropertyRecordNoMatch(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	rec := NewPropertyRecord(sampleAuction(), sampleLot(), PriceHistoryMatch{}, now)

	if rec.SoldDate != "" {
		t.Fatalf("sold date should be empty, got %q", rec.SoldDate)
	}
	// No match: the lot's own postcode survives.
	if rec.Postcode != "CR0 7JT" {
		t.Fatalf("postcode: got %q", rec.Postcode)
	}
}

func TestNewPropertyRecordMatchDoesNotClobberPrice(t *testing.T) {
	lot := sampleLot()
	lot.PriceBought = "£300,000"
	match := PriceHistoryMatch{SalePrice: "£306,000", SaleDate: "14/05/2026", Found: true}

	rec := NewPropertyRecord(sampleAuction(), lot, match, time.Now())
	if rec.PurchasePrice != "£300,000" {
		t.Fatalf("auction price should win, got %q", rec.PurchasePrice)
	}
}

func TestRecordRowRoundTrip(t *testing.T) {
	rec := NewPropertyRecord(sampleAuction(), sampleLot(), PriceHistoryMatch{}, time.Now())
	rec.QAStatus = QAPendingEnrichment
	rec.AddedToStaging = "2026-06-01T09:00:00Z"

	got := RecordFromRow(rec.ToRow())
	if *got != *rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestToRowOmitsStagingKeyWhenUnset(t *testing.T) {
	rec := NewPropertyRecord(sampleAuction(), sampleLot(), PriceHistoryMatch{}, time.Now())
	row := rec.ToRow()
	if _, ok := row["added_to_potential_trades"]; ok {
		t.Fatal("permanent rows must not carry the staging timestamp column")
	}
}

func TestHasPurchasePrice(t *testing.T) {
	cases := []struct {
		price string
		want  bool
	}{
		{"£306,000", true},
		{"Sold prior", true},
		{"", false},
		{"   ", false},
		{"Not found", false},
		{"not found", false},
	}
	for _, tc := range cases {
		rec := &PropertyRecord{PurchasePrice: tc.price}
		if rec.HasPurchasePrice() != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.price, !tc.want, tc.want)
		}
	}
}
