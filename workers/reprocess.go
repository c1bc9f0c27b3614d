package workers

import (
	"context"
	"log"
	"time"

	"auctionpipe/config"
	"auctionpipe/models"
	"auctionpipe/services"
	"auctionpipe/storage"
)

// PriceMatcher looks up a sold price for an address in the public price
// history records.
type PriceMatcher interface {
	Match(ctx context.Context, address string) (models.PriceHistoryMatch, error)
}

// Reprocessor revisits staged records after the registration delay.
// Sold prices take around three months to appear in the public record,
// so a record that had no match at ingest time may have one now.
type Reprocessor struct {
	cfg      *config.Config
	store    *storage.RecordStore
	enricher services.GuideEnricher
	matcher  PriceMatcher
	trigger  chan struct{}

	now func() time.Time
}

func NewReprocessor(cfg *config.Config, store *storage.RecordStore, enricher services.GuideEnricher, matcher PriceMatcher) *Reprocessor {
	return &Reprocessor{
		cfg:      cfg,
		store:    store,
		enricher: enricher,
		matcher:  matcher,
		trigger:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Trigger requests an immediate reprocessing pass. Non-blocking; a pass
// already pending absorbs the request.
func (r *Reprocessor) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run reprocesses on the given interval until the context ends.
func (r *Reprocessor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[reprocess] stopping")
			return
		case <-ticker.C:
		case <-r.trigger:
		}

		promoted, err := r.Reprocess(ctx)
		if err != nil {
			log.Printf("[reprocess] pass failed: %v", err)
			continue
		}
		log.Printf("[reprocess] pass complete, promoted %d records", promoted)
	}
}

// Reprocess walks the staging sheet once and promotes every eligible
// record to the permanent sheet. Promoted rows are marked awaiting_removal
// in place; the web app offers no delete action, so actual removal is a
// manual step against the marked rows.
func (r *Reprocessor) Reprocess(ctx context.Context) (int, error) {
	rows, err := r.store.Read(ctx, r.cfg.RecordStore.StagingSheet)
	if err != nil {
		return 0, err
	}
	log.Printf("[reprocess] scanning %d staged records", len(rows))

	now := r.now()
	promoted := 0

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return promoted, err
		}

		rec := models.RecordFromRow(row)
		if rec.QAStatus == models.QAAwaitingRemoval {
			continue
		}
		if !r.eligible(rec, now) {
			continue
		}

		if !rec.HasPurchasePrice() && r.matcher != nil {
			match, err := r.matcher.Match(ctx, rec.Address)
			if err != nil {
				log.Printf("[reprocess] price lookup failed for %s: %v", rec.Address, err)
			} else if match.Found {
				rec.PurchasePrice = match.SalePrice
				rec.SoldDate = match.SaleDate
				if match.Postcode != "" {
					rec.Postcode = match.Postcode
				}
			}
		}

		if !services.MeetsPriceCriteria(rec, now, r.cfg.Pipeline.PriceWindowMonths) {
			continue
		}

		r.enrichGuide(ctx, rec)

		permanent := rec.ToRow()
		delete(permanent, "added_to_potential_trades")
		if err := r.store.Append(ctx, r.cfg.RecordStore.PermanentSheet, []map[string]string{permanent}); err != nil {
			log.Printf("[reprocess] promote failed for %s: %v", rec.Address, err)
			continue
		}

		rec.QAStatus = models.QAAwaitingRemoval
		if err := r.store.UpdateRow(ctx, r.cfg.RecordStore.StagingSheet, i, rec.ToRow()); err != nil {
			// The record is now in both sheets; the marker write must be
			// retried by the next pass or cleaned up by hand.
			log.Printf("[reprocess] mark failed for %s at row %d: %v", rec.Address, i, err)
			continue
		}

		log.Printf("[reprocess] promoted %s", rec.Address)
		promoted++
	}

	return promoted, nil
}

// Cleanup walks the staging sheet once and normalizes row state: test
// records are marked awaiting_removal and rows with no qa_status get
// pending_enrichment so the next reprocessing pass picks them up.
// Returns the number of rows changed.
func (r *Reprocessor) Cleanup(ctx context.Context) (int, error) {
	rows, err := r.store.Read(ctx, r.cfg.RecordStore.StagingSheet)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		rec := models.RecordFromRow(row)
		switch {
		case rec.QAStatus == models.QAAwaitingRemoval:
			continue
		case services.IsTestRecord(rec):
			rec.QAStatus = models.QAAwaitingRemoval
			log.Printf("[reprocess] cleanup: flagging test record %s", rec.Address)
		case rec.QAStatus == "":
			rec.QAStatus = models.QAPendingEnrichment
		default:
			continue
		}

		if err := r.store.UpdateRow(ctx, r.cfg.RecordStore.StagingSheet, i, rec.ToRow()); err != nil {
			log.Printf("[reprocess] cleanup write failed at row %d: %v", i, err)
			continue
		}
		changed++
	}
	return changed, nil
}

// eligible reports whether the record has sat in staging long enough.
// Records without a staging timestamp are left alone; they predate the
// pipeline and need manual review.
func (r *Reprocessor) eligible(rec *models.PropertyRecord, now time.Time) bool {
	if rec.AddedToStaging == "" {
		return false
	}
	added, err := models.ParseTimestamp(rec.AddedToStaging)
	if err != nil {
		log.Printf("[reprocess] bad staging timestamp %q for %s", rec.AddedToStaging, rec.Address)
		return false
	}
	months, _ := models.MonthsBetween(now, added)
	return months >= r.cfg.Pipeline.StagingDelayMonths
}

func (r *Reprocessor) enrichGuide(ctx context.Context, rec *models.PropertyRecord) {
	if rec.GuidePrice != "" {
		rec.QAStatus = models.QAEnriched
		return
	}
	if r.enricher == nil {
		return
	}
	guide, err := r.enricher.Enrich(ctx, rec)
	if err != nil || guide == nil {
		rec.QAStatus = models.QAEnrichmentFailed
		return
	}
	if guide.GuidePrice != "" {
		rec.GuidePrice = guide.GuidePrice
	}
	rec.QAStatus = models.QAEnriched
}
