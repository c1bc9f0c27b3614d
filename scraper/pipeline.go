package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"auctionpipe/config"
	"auctionpipe/models"
	"auctionpipe/pagesource"
	"auctionpipe/services"
	"auctionpipe/storage"
)

// PriceMatcher looks up a sold price for an address.
type PriceMatcher interface {
	Match(ctx context.Context, address string) (models.PriceHistoryMatch, error)
}

// Triggerable requests an immediate pass from a background worker.
type Triggerable interface {
	Trigger()
}

// Pipeline drives one ingest: discover auctions in a date window, walk
// each auction's lots, match prices and hand every record to the importer.
type Pipeline struct {
	cfg       *config.Config
	source    pagesource.Capturer
	matcher   PriceMatcher
	importer  *services.Importer
	ops       *storage.OpsStore
	reprocess Triggerable
}

func NewPipeline(cfg *config.Config, source pagesource.Capturer, matcher PriceMatcher, importer *services.Importer, ops *storage.OpsStore) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		matcher:  matcher,
		importer: importer,
		ops:      ops,
	}
}

// SetReprocessor wires the staging reprocessor so full workflow runs can
// trigger a pass after ingesting.
func (p *Pipeline) SetReprocessor(t Triggerable) {
	p.reprocess = t
}

// Run ingests every configured auctioneer over [start, end] inclusive.
func (p *Pipeline) Run(ctx context.Context, start, end time.Time) (*models.Summary, error) {
	run := &models.IngestRun{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if p.ops != nil {
		if id, err := p.ops.CreateRun(run); err != nil {
			log.Printf("[pipeline] run bookkeeping failed: %v", err)
		} else {
			run.ID = id
			p.importer.SetRunID(id)
		}
	}

	var runErr error
	for _, auc := range p.cfg.Auctioneers {
		if err := p.runAuctioneer(ctx, auc, start, end, run); err != nil {
			runErr = err
			break
		}
	}

	p.finishRun(run, runErr)
	summary := &models.Summary{
		Status:         string(run.Status),
		TotalImported:  run.Imported,
		TotalSkipped:   run.Skipped,
		TotalLotsFound: run.LotsFound,
		Message:        run.Message,
	}
	return summary, runErr
}

func (p *Pipeline) runAuctioneer(ctx context.Context, auc *config.AuctioneerConfig, start, end time.Time, run *models.IngestRun) error {
	log.Printf("[pipeline] %s: discovering auctions %s to %s",
		auc.ID, start.Format("2006-01-02"), end.Format("2006-01-02"))

	snap, err := p.source.Capture(ctx, auc.ResultsURL, pagesource.CaptureOptions{WaitNetworkIdle: true})
	if err != nil {
		// An unreachable listing page yields an empty run for this
		// auctioneer, not a failed run.
		log.Printf("[pipeline] %s: results page unavailable: %v", auc.ID, err)
		p.logRun(run, models.LogLevelWarn, fmt.Sprintf("%s: results page unavailable: %v", auc.ID, err))
		return nil
	}

	discovery := NewDiscovery(auc)
	events, err := discovery.Discover(snap, start, end)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			log.Printf("[pipeline] %s: source unavailable, skipping", auc.ID)
			p.logRun(run, models.LogLevelWarn, fmt.Sprintf("%s: source unavailable", auc.ID))
			return nil
		}
		return fmt.Errorf("%s: discover: %w", auc.ID, err)
	}
	run.AuctionsFound += len(events)
	log.Printf("[pipeline] %s: %d auctions in window", auc.ID, len(events))

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		pagesource.HumanDelay(p.cfg.Pipeline.AuctionDelay)

		if err := p.runAuction(ctx, discovery, event, run); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if errors.Is(err, ErrSourceUnavailable) {
				log.Printf("[pipeline] %s: source went away mid-run, stopping this auctioneer", auc.ID)
				p.logRun(run, models.LogLevelWarn, fmt.Sprintf("%s: source unavailable at auction %s", auc.ID, event.Name))
				return nil
			}
			// One bad auction page should not sink the run.
			log.Printf("[pipeline] %s: auction %s failed: %v", auc.ID, event.Name, err)
			p.logRun(run, models.LogLevelError, fmt.Sprintf("auction %s: %v", event.Name, err))
		}
	}
	return nil
}

func (p *Pipeline) runAuction(ctx context.Context, discovery *Discovery, event models.AuctionEvent, run *models.IngestRun) error {
	snap, err := p.source.Capture(ctx, event.DetailURL, pagesource.CaptureOptions{WaitNetworkIdle: true})
	if err != nil {
		return fmt.Errorf("capture auction page: %w", err)
	}

	doc, err := snap.Doc()
	if err != nil {
		return fmt.Errorf("parse auction page: %w", err)
	}
	results := ExtractResultTable(doc)

	lotURLs, err := discovery.ExtractLotURLs(snap)
	if err != nil {
		return fmt.Errorf("extract lot links: %w", err)
	}
	run.LotsFound += len(lotURLs)
	log.Printf("[pipeline] %s: %d lots, %d result rows", event.Name, len(lotURLs), len(results))

	for i, lotURL := range lotURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		pagesource.HumanDelay(p.cfg.Pipeline.LotDelay)

		if err := p.runLot(ctx, event, lotURL, i+1, results, run); err != nil {
			log.Printf("[pipeline] lot %s failed: %v", lotURL, err)
			p.logRun(run, models.LogLevelWarn, fmt.Sprintf("lot %s: %v", lotURL, err))
			run.Skipped++
		}
	}
	return nil
}

func (p *Pipeline) runLot(ctx context.Context, event models.AuctionEvent, lotURL string, ordinal int, results map[string]string, run *models.IngestRun) error {
	snap, err := p.source.Capture(ctx, lotURL, pagesource.CaptureOptions{})
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	lot, err := ExtractLot(snap, ordinal, results)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			// The lot page bounced to a login screen. Skip it; subsequent
			// pages may still be served from cache.
			return fmt.Errorf("session expired: %w", err)
		}
		return fmt.Errorf("extract: %w", err)
	}

	match := models.PriceHistoryMatch{}
	if p.matcher != nil {
		match, err = p.matcher.Match(ctx, lot.Address)
		if err != nil {
			return fmt.Errorf("price match: %w", err)
		}
	}

	rec := models.NewPropertyRecord(event, lot, match, time.Now())
	result, err := p.importer.Process(ctx, rec)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	switch {
	case result.Duplicate:
		run.Skipped++
	case result.Route == models.RouteDiscard:
		run.Discarded++
	default:
		run.Imported++
	}
	return nil
}

// RunFullWorkflow ingests the newer window, then the older window, then
// triggers a staging reprocessing pass. This is the scheduled entrypoint.
func (p *Pipeline) RunFullWorkflow(ctx context.Context) (*models.Summary, error) {
	now := time.Now()

	newerStart := now.AddDate(0, -p.cfg.Pipeline.NewerMonths, 0)
	summary, err := p.Run(ctx, newerStart, now)
	if err != nil {
		return summary, err
	}

	olderStart := now.AddDate(0, -p.cfg.Pipeline.OlderMonths, 0)
	olderEnd := newerStart.AddDate(0, 0, -1)
	older, err := p.Run(ctx, olderStart, olderEnd)
	if older != nil {
		summary.TotalImported += older.TotalImported
		summary.TotalSkipped += older.TotalSkipped
		summary.TotalLotsFound += older.TotalLotsFound
		summary.Status = older.Status
	}
	if err != nil {
		return summary, err
	}

	if p.reprocess != nil {
		p.reprocess.Trigger()
	}
	return summary, nil
}

func (p *Pipeline) finishRun(run *models.IngestRun, runErr error) {
	now := time.Now()
	run.FinishedAt = &now
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Message = runErr.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}
	if p.ops != nil {
		if err := p.ops.UpdateRun(run); err != nil {
			log.Printf("[pipeline] run update failed: %v", err)
		}
	}
}

func (p *Pipeline) logRun(run *models.IngestRun, level models.LogLevel, message string) {
	if p.ops == nil {
		return
	}
	id := run.ID
	_ = p.ops.Log(&id, level, message)
}
