package models

import (
	"strings"
	"time"
)

// QA status values carried in the qa_status column.
const (
	QAPendingEnrichment = "pending_enrichment"
	QAEnriched          = "enriched"
	QADirectImport      = "direct_import"
	QACategorized       = "categorized"
	QAEnrichmentFailed  = "enrichment_failed"
	// QAAwaitingRemoval marks a staging row whose copy has been promoted to
	// the permanent table. The store has no delete action, so removal is a
	// tracked manual follow-up.
	QAAwaitingRemoval = "awaiting_removal"
)

// RouteDecision is the terminal routing outcome for one record.
type RouteDecision string

const (
	RoutePermanent RouteDecision = "permanent"
	RouteStaging   RouteDecision = "staging"
	RouteDiscard   RouteDecision = "discard"
)

// PropertyRecord is the persisted unit written to the record store. Field
// names mirror the flat row shape of the web-app tables; everything is a
// string on the wire because the store coerces cell values.
type PropertyRecord struct {
	AuctionName   string `json:"auction_name"`
	AuctionDate   string `json:"auction_date"`
	Address       string `json:"address"`
	AuctionSale   string `json:"auction_sale"`
	LotNumber     string `json:"lot_number"`
	Postcode      string `json:"postcode"`
	PurchasePrice string `json:"purchase_price"`
	SoldDate      string `json:"sold_date"`
	Owner         string `json:"owner"`
	GuidePrice    string `json:"guide_price"`
	AuctionURL    string `json:"auction_url"`
	SourceURL     string `json:"source_url"`
	QAStatus      string `json:"qa_status"`
	IngestedAt    string `json:"ingested_at"`

	// AddedToStaging is only present on staging-table rows.
	AddedToStaging string `json:"added_to_potential_trades,omitempty"`
}

// NewPropertyRecord builds a record from an extracted lot, its auction and
// an optional price-history match.
func NewPropertyRecord(auction AuctionEvent, lot *Lot, match PriceHistoryMatch, now time.Time) *PropertyRecord {
	rec := &PropertyRecord{
		AuctionName:   auction.Name,
		AuctionDate:   auction.DateString(),
		Address:       lot.Address,
		AuctionSale:   lot.Outcome.Raw,
		LotNumber:     lot.LotNumber,
		Postcode:      lot.Postcode,
		PurchasePrice: lot.PriceBought,
		AuctionURL:    auction.DetailURL,
		SourceURL:     lot.SourceURL,
		IngestedAt:    now.Format(time.RFC3339),
	}
	if match.Found {
		rec.Postcode = match.Postcode
		rec.SoldDate = match.SaleDate
		if rec.PurchasePrice == "" {
			rec.PurchasePrice = match.SalePrice
		}
	}
	return rec
}

// ToRow flattens the record into the store's row shape. Staging-only keys
// are included only when set so permanent rows keep their narrower shape.
func (r *PropertyRecord) ToRow() map[string]string {
	row := map[string]string{
		"auction_name":   r.AuctionName,
		"auction_date":   r.AuctionDate,
		"address":        r.Address,
		"auction_sale":   r.AuctionSale,
		"lot_number":     r.LotNumber,
		"postcode":       r.Postcode,
		"purchase_price": r.PurchasePrice,
		"sold_date":      r.SoldDate,
		"owner":          r.Owner,
		"guide_price":    r.GuidePrice,
		"auction_url":    r.AuctionURL,
		"source_url":     r.SourceURL,
		"qa_status":      r.QAStatus,
		"ingested_at":    r.IngestedAt,
	}
	if r.AddedToStaging != "" {
		row["added_to_potential_trades"] = r.AddedToStaging
	}
	return row
}

// RecordFromRow rebuilds a record from a row read back from the store.
func RecordFromRow(row map[string]string) *PropertyRecord {
	return &PropertyRecord{
		AuctionName:    row["auction_name"],
		AuctionDate:    row["auction_date"],
		Address:        row["address"],
		AuctionSale:    row["auction_sale"],
		LotNumber:      row["lot_number"],
		Postcode:       row["postcode"],
		PurchasePrice:  row["purchase_price"],
		SoldDate:       row["sold_date"],
		Owner:          row["owner"],
		GuidePrice:     row["guide_price"],
		AuctionURL:     row["auction_url"],
		SourceURL:      row["source_url"],
		QAStatus:       row["qa_status"],
		IngestedAt:     row["ingested_at"],
		AddedToStaging: row["added_to_potential_trades"],
	}
}

// HasPurchasePrice reports whether the purchase_price column carries a real
// value. The store backfills "Not found" for failed lookups.
func (r *PropertyRecord) HasPurchasePrice() bool {
	p := strings.TrimSpace(r.PurchasePrice)
	return p != "" && !strings.EqualFold(p, "not found")
}
