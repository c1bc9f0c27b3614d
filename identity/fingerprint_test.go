package identity

import (
	"testing"

	"auctionpipe/models"
)

func TestExtractPostcode(t *testing.T) {
	cases := []struct {
		address string
		want    string
		ok      bool
	}{
		{"25 Addiscombe Avenue, Croydon, CR0 7JT", "CR0 7JT", true},
		{"Flat 3, 12 High Street, Margate, CT9 3EJ", "CT9 3EJ", true},
		{"1 Example Road, Watford, WD180ES", "WD180ES", true},
		{"10 Downing Street, London, SW1A 2AA", "SW1A 2AA", true},
		{"CR0 7JT is in the middle of this text", "", false},
		{"No postcode here", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ExtractPostcode(tc.address)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%q: got (%q, %v), want (%q, %v)", tc.address, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFindPostcode(t *testing.T) {
	got, ok := FindPostcode("The property at ct9 3ej sold last year")
	if !ok || got != "CT9 3EJ" {
		t.Fatalf("got (%q, %v)", got, ok)
	}

	if _, ok := FindPostcode("nothing postcode shaped"); ok {
		t.Fatal("expected no match")
	}
}

func TestNormalizePostcode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"CT93EJ", "CT9 3EJ"},
		{"CT9 3EJ", "CT9 3EJ"},
		{"ct93ej", "CT9 3EJ"},
		{"WD180ES", "WD18 0ES"},
		{"SW1A2AA", "SW1A 2AA"},
		{"", ""},
		{"E1", "E1"},
	}
	for _, tc := range cases {
		if got := NormalizePostcode(tc.in); got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}

	// Idempotent.
	if got := NormalizePostcode(NormalizePostcode("CT93EJ")); got != "CT9 3EJ" {
		t.Fatalf("double normalize: got %q", got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	a := NormalizeAddress("25 Addiscombe Avenue, Croydon")
	b := NormalizeAddress("25 ADDISCOMBE AVE CROYDON")
	if a != b {
		t.Fatalf("equivalent addresses normalize differently: %q vs %q", a, b)
	}
}

func TestFingerprintStable(t *testing.T) {
	rec := &models.PropertyRecord{
		Address:     "25 Addiscombe Avenue, Croydon, CR0 7JT",
		LotNumber:   "156A",
		AuctionDate: "2026-05-14",
	}
	variant := &models.PropertyRecord{
		Address:     "25 Addiscombe Ave, Croydon, CR0 7JT",
		LotNumber:   "156a",
		AuctionDate: "2026-05-14",
	}
	other := &models.PropertyRecord{
		Address:     "26 Addiscombe Avenue, Croydon, CR0 7JT",
		LotNumber:   "156A",
		AuctionDate: "2026-05-14",
	}

	if Fingerprint(rec) != Fingerprint(variant) {
		t.Fatal("abbreviation and case should not change the fingerprint")
	}
	if Fingerprint(rec) == Fingerprint(other) {
		t.Fatal("different addresses must not collide")
	}
	if len(Fingerprint(rec)) != 32 {
		t.Fatalf("unexpected fingerprint length %d", len(Fingerprint(rec)))
	}
}
