package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"auctionpipe/config"
	"auctionpipe/scraper"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

type Scheduler struct {
	cfg      *config.Config
	pipeline *scraper.Pipeline
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}

	reprocessor Triggerable
}

func New(cfg *config.Config, pipeline *scraper.Pipeline) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		pipeline: pipeline,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

// SetReprocessor registers the staging reprocessor for manual triggering.
func (s *Scheduler) SetReprocessor(r Triggerable) {
	s.reprocessor = r
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runOnce(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runOnce(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only run the reprocessor")
	}

	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	summary, err := s.pipeline.RunFullWorkflow(ctx)
	if err != nil {
		log.Printf("Scheduled run error: %v", err)
		return
	}
	log.Printf("Scheduled run complete: %d imported, %d skipped of %d lots",
		summary.TotalImported, summary.TotalSkipped, summary.TotalLotsFound)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerReprocess requests an immediate staging pass.
func (s *Scheduler) TriggerReprocess() {
	if s.reprocessor != nil {
		s.reprocessor.Trigger()
	}
}

func (s *Scheduler) TriggerNow(ctx context.Context) error {
	_, err := s.pipeline.RunFullWorkflow(ctx)
	return err
}
