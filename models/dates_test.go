package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	cases := []struct {
		name       string
		now, then  time.Time
		months     int
		days       int
	}{
		{"same day", date(2026, 6, 15), date(2026, 6, 15), 0, 0},
		{"one day", date(2026, 6, 16), date(2026, 6, 15), 0, 1},
		{"exactly three months", date(2026, 6, 15), date(2026, 3, 15), 3, 0},
		{"three months less a day", date(2026, 6, 14), date(2026, 3, 15), 2, 30},
		{"exactly twelve months", date(2026, 6, 15), date(2025, 6, 15), 12, 0},
		{"twelve months and a day", date(2026, 6, 16), date(2025, 6, 15), 12, 1},
		{"future date", date(2026, 6, 15), date(2026, 7, 1), -1, 14},
		{"across year end", date(2026, 1, 10), date(2025, 11, 20), 1, 21},
		{"end of month clamp", date(2026, 3, 1), date(2026, 1, 31), 1, 1},
	}

	for _, tc := range cases {
		months, days := MonthsBetween(tc.now, tc.then)
		if months != tc.months || days != tc.days {
			t.Fatalf("%s: got %d months %d days, want %d months %d days",
				tc.name, months, days, tc.months, tc.days)
		}
	}
}

func TestParseRecordDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-02-14", date(2026, 2, 14)},
		{"2026-02-14T00:00:00", date(2026, 2, 14)},
		{"14/02/2026", date(2026, 2, 14)},
		{"5/3/2026", date(2026, 3, 5)},
		{"14 February 2026", date(2026, 2, 14)},
		{"  2026-02-14  ", date(2026, 2, 14)},
	}

	for _, tc := range cases {
		got, err := ParseRecordDate(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q: got %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseRecordDate("not a date"); err == nil {
		t.Fatal("expected error for junk input")
	}
	if _, err := ParseRecordDate(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2026-05-01T10:30:00Z")
	if err != nil {
		t.Fatalf("parse RFC3339: %v", err)
	}
	if got.Hour() != 10 || got.Day() != 1 {
		t.Fatalf("unexpected parse result: %s", got)
	}

	got, err = ParseTimestamp("2026-05-01T10:30:00")
	if err != nil {
		t.Fatalf("parse zoneless: %v", err)
	}
	if got.Minute() != 30 {
		t.Fatalf("unexpected parse result: %s", got)
	}
}
