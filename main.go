package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auctionpipe/config"
	"auctionpipe/httputil"
	"auctionpipe/logging"
	"auctionpipe/models"
	"auctionpipe/pagesource"
	"auctionpipe/prices"
	"auctionpipe/scheduler"
	"auctionpipe/scraper"
	"auctionpipe/services"
	"auctionpipe/storage"
	"auctionpipe/workers"
)

var (
	startFlag     = flag.String("start", "", "Window start date (YYYY-MM-DD), runs once and exits")
	endFlag       = flag.String("end", "", "Window end date (YYYY-MM-DD)")
	fullFlag      = flag.Bool("full", false, "Run the full workflow once and exit")
	reprocessFlag = flag.Bool("reprocess", false, "Run a staging reprocessing pass and exit")
	cleanupFlag   = flag.Bool("cleanup", false, "Run a staging cleanup pass and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("pipeline.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting auctionpipe...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d auctioneer configs", len(cfg.Auctioneers))
	for id, auc := range cfg.Auctioneers {
		log.Printf("  - %s (%s)", auc.Name, id)
	}

	clients := httputil.NewClients(&cfg.Proxy)

	ctx := context.Background()

	opsStore, err := storage.NewOpsStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer opsStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	var archive *storage.ArchiveStore
	if cfg.Archive.DBURL != "" {
		archive, err = storage.NewArchiveStore(ctx, cfg.Archive.DBURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres archive: %v", err)
		}
		defer archive.Close()
		log.Printf("Connected to archive: %s", maskConnectionString(cfg.Archive.DBURL))
	}

	recordStore := storage.NewRecordStore(&cfg.RecordStore, clients.Store)

	source := pagesource.New(&cfg.Session, cfg.SessionPath())
	if err := source.Open(); err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer source.Close()

	matcher := prices.NewMatcher(&cfg.PriceHistory, source, cfg.Pipeline.PriceWindowMonths)
	enricher := workers.NewEnricher(clients.Scraping)
	importer := services.NewImporter(cfg, recordStore, opsStore, archive, enricher)
	pipeline := scraper.NewPipeline(cfg, source, matcher, importer, opsStore)

	reprocessor := workers.NewReprocessor(cfg, recordStore, enricher, matcher)
	pipeline.SetReprocessor(reprocessor)

	// One-shot modes
	switch {
	case *reprocessFlag:
		promoted, err := reprocessor.Reprocess(ctx)
		if err != nil {
			log.Fatalf("Reprocess failed: %v", err)
		}
		log.Printf("Reprocess complete, promoted %d records", promoted)
		return

	case *cleanupFlag:
		changed, err := reprocessor.Cleanup(ctx)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		log.Printf("Cleanup complete, %d rows changed", changed)
		return

	case *startFlag != "":
		start, end, err := parseWindow(*startFlag, *endFlag)
		if err != nil {
			log.Fatalf("Bad date window: %v", err)
		}
		summary, err := pipeline.Run(ctx, start, end)
		printSummary(summary)
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}
		return

	case *fullFlag:
		summary, err := pipeline.RunFullWorkflow(ctx)
		printSummary(summary)
		if err != nil {
			log.Fatalf("Full workflow failed: %v", err)
		}
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, pipeline)
	sched.SetReprocessor(reprocessor)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go reprocessor.Run(ctx, cfg.Scheduler.ReprocessInterval)
	log.Println("Reprocessor started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end := time.Now()
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s", endStr, startStr)
	}
	return start, end, nil
}

func printSummary(summary *models.Summary) {
	if summary == nil {
		return
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
