package services

import (
	"strings"
	"time"

	"auctionpipe/models"
)

// AgeBand buckets an auction by how long ago it ran.
type AgeBand string

const (
	BandNewer AgeBand = "NEWER" // under 3 months old
	BandOlder AgeBand = "OLDER" // 3 to 12 months old, inclusive of both ends
	BandSkip  AgeBand = "SKIP"  // outside the window, or in the future
)

// ClassifyAge buckets auctionDate relative to now using whole calendar
// months. A date exactly 3 months old is OLDER, exactly 12 months old is
// still OLDER, and one day past 12 months is SKIP. Future dates are SKIP.
func ClassifyAge(now, auctionDate time.Time) AgeBand {
	months, days := models.MonthsBetween(now, auctionDate)
	switch {
	case months < 0:
		return BandSkip
	case months < 3:
		return BandNewer
	case months < 12:
		return BandOlder
	case months == 12 && days == 0:
		return BandOlder
	default:
		return BandSkip
	}
}

// MeetsPriceCriteria reports whether a record has a disclosed purchase
// price whose sale date falls strictly inside the given window. An
// unparseable or missing sold date fails the check.
func MeetsPriceCriteria(rec *models.PropertyRecord, now time.Time, windowMonths int) bool {
	if !rec.HasPurchasePrice() {
		return false
	}
	soldDate, err := models.ParseRecordDate(rec.SoldDate)
	if err != nil {
		return false
	}
	months, _ := models.MonthsBetween(now, soldDate)
	return months >= 0 && months < windowMonths
}

// Route maps an age band and price-criteria result to a destination.
// Lots that miss the criteria wait in staging for reprocessing, whatever
// their band; only SKIP lots are dropped outright.
func Route(band AgeBand, meetsCriteria bool) models.RouteDecision {
	switch band {
	case BandNewer, BandOlder:
		if meetsCriteria {
			return models.RoutePermanent
		}
		return models.RouteStaging
	default:
		return models.RouteDiscard
	}
}

var testMarkers = []string{"test", "debug", "dummy"}

// IsTestRecord flags rows that operators insert while exercising the
// sheet. Matches whole tokens so "Testerton Road" survives.
func IsTestRecord(rec *models.PropertyRecord) bool {
	for _, field := range []string{rec.Address, rec.AuctionName} {
		lower := strings.ToLower(field)
		for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		}) {
			for _, marker := range testMarkers {
				if word == marker {
					return true
				}
			}
		}
	}
	return false
}
