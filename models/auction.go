package models

import (
	"time"
)

// AuctionEvent is a single auction sale discovered on the results listing.
// The listing row carries summary stats as free text; they are kept verbatim
// for audit and never parsed downstream.
type AuctionEvent struct {
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue"`
	LotsOffered string    `json:"lots_offered"`
	LotsSold    string    `json:"lots_sold"`
	PercentSold string    `json:"percent_sold"`
	TotalRaised string    `json:"total_raised"`
	DetailURL   string    `json:"detail_url"`
	SourceURL   string    `json:"source_url"`
}

// DateString returns the auction date in the YYYY-MM-DD form used in
// persisted rows.
func (a AuctionEvent) DateString() string {
	if a.Date.IsZero() {
		return ""
	}
	return a.Date.Format("2006-01-02")
}
