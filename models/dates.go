package models

import (
	"strings"
	"time"
)

// MonthsBetween returns the number of whole calendar months from then to
// now, plus leftover days. A then after now yields negative months. The
// whole-month semantics matter for the classification boundaries: a date
// exactly N months ago is N months old with zero leftover days; one day
// earlier is still N months old but with a nonzero remainder.
func MonthsBetween(now, then time.Time) (months, days int) {
	y1, m1, _ := then.Date()
	y2, m2, _ := now.Date()
	now = midnight(now)
	then = midnight(then)

	months = (y2-y1)*12 + int(m2) - int(m1)
	if addMonthsClamped(then, months).After(now) {
		months--
	}
	anchor := addMonthsClamped(then, months)
	days = int(now.Sub(anchor).Hours() / 24)
	return months, days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped shifts by whole months, clamping to the last day of the
// target month. Jan 31 plus one month is Feb 28, not Mar 3.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

var recordDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"2 January 2006",
}

// ParseRecordDate parses the date formats that appear in scraped pages and
// persisted rows: ISO dates (with or without a time suffix), UK DD/MM/YYYY
// and spelled-out "2 January 2006".
func ParseRecordDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	var lastErr error
	for _, layout := range recordDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseTimestamp parses the RFC3339-ish timestamps stamped into
// added_to_potential_trades and ingested_at.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// web-app cells sometimes come back without a zone
	return time.Parse("2006-01-02T15:04:05", s)
}
