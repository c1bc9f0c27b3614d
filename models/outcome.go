package models

import (
	"regexp"
	"strings"
)

// OutcomeKind classifies the free-text result column of an auction results
// table. The raw text is always preserved alongside the parsed form.
type OutcomeKind string

const (
	OutcomeSold      OutcomeKind = "sold"
	OutcomeSoldPrior OutcomeKind = "sold_prior"
	OutcomeWithdrawn OutcomeKind = "withdrawn"
	OutcomeReserved  OutcomeKind = "reserved"
	OutcomeUnknown   OutcomeKind = "unknown"
)

// Outcome is the tagged form of a result-column entry. Price is only set for
// OutcomeSold ("Sold for £X").
type Outcome struct {
	Kind  OutcomeKind `json:"kind"`
	Price string      `json:"price,omitempty"`
	Raw   string      `json:"raw"`
}

var (
	soldForRe   = regexp.MustCompile(`(?i)sold\s+for\s+£([\d,]+)`)
	soldPriorRe = regexp.MustCompile(`(?i)sold\s+prior`)
	withdrawnRe = regexp.MustCompile(`(?i)withdrawn`)
	reservedRe  = regexp.MustCompile(`(?i)reserved`)
	soldRe      = regexp.MustCompile(`(?i)\bsold\b`)
)

// ParseOutcome maps a raw result cell to its tagged variant. Order matters:
// "Sold prior to auction for an undisclosed amount" must not be read as a
// plain sale.
func ParseOutcome(raw string) Outcome {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Outcome{Kind: OutcomeUnknown, Raw: text}
	}
	if m := soldForRe.FindStringSubmatch(text); m != nil {
		return Outcome{Kind: OutcomeSold, Price: "£" + m[1], Raw: text}
	}
	if soldPriorRe.MatchString(text) {
		return Outcome{Kind: OutcomeSoldPrior, Raw: text}
	}
	if withdrawnRe.MatchString(text) {
		return Outcome{Kind: OutcomeWithdrawn, Raw: text}
	}
	if reservedRe.MatchString(text) {
		return Outcome{Kind: OutcomeReserved, Raw: text}
	}
	if soldRe.MatchString(text) {
		// Sold with no disclosed figure
		return Outcome{Kind: OutcomeSold, Raw: text}
	}
	return Outcome{Kind: OutcomeUnknown, Raw: text}
}

// DisplayPrice returns the value persisted in the purchase_price column:
// the parsed figure for disclosed sales, otherwise the status text verbatim.
func (o Outcome) DisplayPrice() string {
	if o.Kind == OutcomeSold && o.Price != "" {
		return o.Price
	}
	return o.Raw
}
