package models

// NumberConfidence records how a lot identifier was resolved. Word-overlap
// reconciliation against the results table can silently pick the wrong key
// for similar addresses, so callers get the provenance instead of a silent
// best guess.
type NumberConfidence string

const (
	NumberFromResults NumberConfidence = "matched_results"
	NumberFromText    NumberConfidence = "page_text"
	NumberFromURL     NumberConfidence = "url"
	NumberSequential  NumberConfidence = "sequential"
)

// Lot is one property extracted from an auction detail page. Address is
// best-effort but always populated (a synthetic placeholder in the worst
// case). PriceBought holds the raw bought-price or status text from the
// results table; Outcome is its parsed form.
type Lot struct {
	LotNumber        string           `json:"lot_number"`
	Address          string           `json:"address"`
	Postcode         string           `json:"postcode"`
	PriceBought      string           `json:"price_bought"`
	Outcome          Outcome          `json:"outcome"`
	SourceURL        string           `json:"source_url"`
	NumberConfidence NumberConfidence `json:"number_confidence"`
}

// PriceHistoryMatch is the transient result of a price-history lookup for
// one address. SaleDate is DD/MM/YYYY as published by the source.
type PriceHistoryMatch struct {
	Postcode  string `json:"postcode"`
	SaleDate  string `json:"sale_date"`
	SalePrice string `json:"sale_price"`
	Found     bool   `json:"found"`
}

// GuideData is what the guide-price enrichment lookup recovers from an
// external listing page.
type GuideData struct {
	GuidePrice string `json:"guide_price"`
	SourceURL  string `json:"source_url"`
}
