package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"auctionpipe/config"
	"auctionpipe/identity"
	"auctionpipe/models"
	"auctionpipe/storage"
)

// GuideEnricher fetches guide price data for a record from its lot page.
type GuideEnricher interface {
	Enrich(ctx context.Context, rec *models.PropertyRecord) (*models.GuideData, error)
}

// ImportResult reports where a record went.
type ImportResult struct {
	Route     models.RouteDecision
	Duplicate bool
}

// Importer classifies a record and routes it to the permanent sheet, the
// staging sheet, or nowhere. Older records headed for the permanent sheet
// get guide price enrichment first; newer ones are imported as-is and
// enriched later by the staging reprocessor if they miss the criteria.
type Importer struct {
	cfg      *config.Config
	store    *storage.RecordStore
	ops      *storage.OpsStore
	archive  *storage.ArchiveStore
	enricher GuideEnricher
	runID    *int64

	now func() time.Time
}

func NewImporter(cfg *config.Config, store *storage.RecordStore, ops *storage.OpsStore, archive *storage.ArchiveStore, enricher GuideEnricher) *Importer {
	return &Importer{
		cfg:      cfg,
		store:    store,
		ops:      ops,
		archive:  archive,
		enricher: enricher,
		now:      time.Now,
	}
}

// SetRunID tags subsequent backups and logs with an ingest run.
func (im *Importer) SetRunID(id int64) {
	im.runID = &id
}

// SetNow overrides the clock used for age classification.
func (im *Importer) SetNow(fn func() time.Time) {
	im.now = fn
}

func (im *Importer) Process(ctx context.Context, rec *models.PropertyRecord) (ImportResult, error) {
	if IsTestRecord(rec) {
		log.Printf("[importer] discarding test record: %s", rec.Address)
		return ImportResult{Route: models.RouteDiscard}, nil
	}

	auctionDate, err := models.ParseRecordDate(rec.AuctionDate)
	if err != nil {
		log.Printf("[importer] discarding %s: unparseable auction date %q", rec.Address, rec.AuctionDate)
		return ImportResult{Route: models.RouteDiscard}, nil
	}

	now := im.now()
	band := ClassifyAge(now, auctionDate)
	meets := MeetsPriceCriteria(rec, now, im.cfg.Pipeline.PriceWindowMonths)
	route := Route(band, meets)

	if route == models.RouteDiscard {
		log.Printf("[importer] discarding %s (band=%s, criteria=%v)", rec.Address, band, meets)
		return ImportResult{Route: route}, nil
	}

	fingerprint := identity.Fingerprint(rec)
	if im.ops != nil {
		seen, err := im.ops.SeenFingerprint(fingerprint)
		if err != nil {
			log.Printf("[importer] fingerprint lookup failed: %v", err)
		} else if seen {
			log.Printf("[importer] already imported, skipping: %s", rec.Address)
			return ImportResult{Route: route, Duplicate: true}, nil
		}
	}

	switch route {
	case models.RoutePermanent:
		if band == BandOlder {
			im.enrich(ctx, rec)
		} else {
			rec.QAStatus = models.QADirectImport
		}
		if err := im.push(ctx, im.cfg.RecordStore.PermanentSheet, rec, fingerprint, route); err != nil {
			return ImportResult{Route: route}, err
		}

	case models.RouteStaging:
		rec.QAStatus = models.QAPendingEnrichment
		rec.AddedToStaging = now.Format(time.RFC3339)
		if err := im.push(ctx, im.cfg.RecordStore.StagingSheet, rec, fingerprint, route); err != nil {
			return ImportResult{Route: route}, err
		}
	}

	return ImportResult{Route: route}, nil
}

// enrich fills in guide price data, downgrading the QA status rather than
// failing the import when the lot page cannot be read.
func (im *Importer) enrich(ctx context.Context, rec *models.PropertyRecord) {
	if im.enricher == nil {
		rec.QAStatus = models.QAEnrichmentFailed
		return
	}
	guide, err := im.enricher.Enrich(ctx, rec)
	if err != nil || guide == nil {
		log.Printf("[importer] enrichment failed for %s: %v", rec.Address, err)
		rec.QAStatus = models.QAEnrichmentFailed
		return
	}
	if guide.GuidePrice != "" {
		rec.GuidePrice = guide.GuidePrice
	}
	if guide.SourceURL != "" && rec.AuctionURL == "" {
		rec.AuctionURL = guide.SourceURL
	}
	rec.QAStatus = models.QAEnriched
}

func (im *Importer) push(ctx context.Context, sheet string, rec *models.PropertyRecord, fingerprint string, route models.RouteDecision) error {
	row := rec.ToRow()
	if err := im.store.Append(ctx, sheet, []map[string]string{row}); err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}

	if im.ops != nil {
		if err := im.ops.BackupRow(fingerprint, sheet, row, im.runID); err != nil {
			log.Printf("[importer] backup failed: %v", err)
		}
	}
	if im.archive != nil {
		if err := im.archive.InsertRecord(ctx, rec, route); err != nil {
			log.Printf("[importer] archive insert failed: %v", err)
		}
	}
	return nil
}
