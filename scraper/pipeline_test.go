package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auctionpipe/config"
	"auctionpipe/models"
	"auctionpipe/pagesource"
	"auctionpipe/services"
	"auctionpipe/storage"
)

// mapCapturer serves canned snapshots keyed by URL.
type mapCapturer struct {
	pages map[string]*pagesource.Snapshot
}

func (m *mapCapturer) Capture(ctx context.Context, url string, opts pagesource.CaptureOptions) (*pagesource.Snapshot, error) {
	snap, ok := m.pages[url]
	if !ok {
		return nil, fmt.Errorf("no snapshot for %s", url)
	}
	return snap, nil
}

type mapMatcher struct {
	matches map[string]models.PriceHistoryMatch
}

func (m *mapMatcher) Match(ctx context.Context, address string) (models.PriceHistoryMatch, error) {
	return m.matches[address], nil
}

func lotSnapshot(url, lotLabel, address string) *pagesource.Snapshot {
	return &pagesource.Snapshot{
		Title: lotLabel + " - " + address,
		URL:   url,
		HTML: fmt.Sprintf(
			`<html><body><h1 class="lot-address">%s</h1><p>%s</p></body></html>`,
			address, lotLabel),
	}
}

func pipelineConfig(storeURL string) *config.Config {
	return &config.Config{
		RecordStore: config.RecordStoreConfig{
			WebAppURL:      storeURL,
			Token:          "secret",
			PermanentSheet: "AUCTION_MASTER",
			StagingSheet:   "POTENTIAL_TRADES",
		},
		Pipeline: config.PipelineConfig{
			NewerMonths:       3,
			OlderMonths:       12,
			PriceWindowMonths: 6,
		},
		Auctioneers: map[string]*config.AuctioneerConfig{
			"ahl": {
				ID:         "ahl",
				Name:       "Auction House London",
				BaseURL:    "https://auctions.example.co.uk",
				ResultsURL: "https://auctions.example.co.uk/results",
			},
		},
	}
}

func TestPipelineRun(t *testing.T) {
	var appended []struct {
		Sheet string
		Row   map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action    string              `json:"action"`
			SheetName string              `json:"sheet_name"`
			Rows      []map[string]string `json:"rows"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		for _, row := range req.Rows {
			appended = append(appended, struct {
				Sheet string
				Row   map[string]string
			}{req.SheetName, row})
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	base := "https://auctions.example.co.uk"
	source := &mapCapturer{pages: map[string]*pagesource.Snapshot{
		base + "/results": {
			Title: "Auction Results - EIG",
			URL:   base + "/results",
			HTML:  loadFixture(t, "auction_list.html"),
		},
		base + "/auction/2026-05-14": {
			Title: "Auction 14 May 2026",
			URL:   base + "/auction/2026-05-14",
			HTML:  loadFixture(t, "auction_detail.html"),
		},
		base + "/lot/12-example-road": fixtureSnapshot(t, "lot_full.html",
			"Lot 12 - 12 Example Road, Croydon, CR0 7JT", base+"/lot/12-example-road"),
		base + "/lot/156a-high-street": lotSnapshot(base+"/lot/156a-high-street",
			"Lot 156A", "4 High Street, Margate, CT9 3EJ"),
		base + "/lot/157-station-parade": lotSnapshot(base+"/lot/157-station-parade",
			"Lot 157", "9 Station Parade, Watford, WD18 0ES"),
		base + "/lot/158-mill-lane": lotSnapshot(base+"/lot/158-mill-lane",
			"Lot 158", "2 Mill Lane, Dover, CT16 1AB"),
	}}

	matcher := &mapMatcher{matches: map[string]models.PriceHistoryMatch{
		"4 High Street, Margate, CT9 3EJ": {
			Postcode:  "CT9 3EJ",
			SaleDate:  "14/05/2026",
			SalePrice: "£98,000",
			Found:     true,
		},
	}}

	cfg := pipelineConfig(srv.URL)
	importer := services.NewImporter(cfg, storage.NewRecordStore(&cfg.RecordStore, nil), nil, nil, nil)
	importer.SetNow(func() time.Time {
		return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	p := NewPipeline(cfg, source, matcher, importer, nil)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	summary, err := p.Run(context.Background(), start, end)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if summary.Status != string(models.RunStatusCompleted) {
		t.Fatalf("status: got %s", summary.Status)
	}
	if summary.TotalLotsFound != 4 {
		t.Fatalf("lots found: got %d", summary.TotalLotsFound)
	}
	if summary.TotalImported != 4 {
		t.Fatalf("imported: got %d", summary.TotalImported)
	}

	var permanent, staging int
	for _, a := range appended {
		switch a.Sheet {
		case "AUCTION_MASTER":
			permanent++
			if a.Row["address"] != "4 High Street, Margate, CT9 3EJ" {
				t.Fatalf("wrong record promoted: %q", a.Row["address"])
			}
			if a.Row["sold_date"] != "14/05/2026" {
				t.Fatalf("sold_date: got %q", a.Row["sold_date"])
			}
			if a.Row["qa_status"] != models.QADirectImport {
				t.Fatalf("qa_status: got %q", a.Row["qa_status"])
			}
		case "POTENTIAL_TRADES":
			staging++
			if a.Row["added_to_potential_trades"] == "" {
				t.Fatalf("staging row missing timestamp: %v", a.Row)
			}
		}
	}
	// One lot had a fresh sale on record; the other three wait in staging.
	if permanent != 1 || staging != 3 {
		t.Fatalf("got %d permanent, %d staging", permanent, staging)
	}
}

func TestPipelineRunSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	source := &mapCapturer{pages: map[string]*pagesource.Snapshot{
		"https://auctions.example.co.uk/results": {
			Title: "Login - Essential Information Group",
			URL:   "https://auctions.example.co.uk/login",
			HTML:  loadFixture(t, "login.html"),
		},
	}}

	cfg := pipelineConfig(srv.URL)
	importer := services.NewImporter(cfg, storage.NewRecordStore(&cfg.RecordStore, nil), nil, nil, nil)
	p := NewPipeline(cfg, source, nil, importer, nil)

	summary, err := p.Run(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("a login redirect must not fail the run: %v", err)
	}
	if summary.Status != string(models.RunStatusCompleted) {
		t.Fatalf("status: got %s", summary.Status)
	}
	if summary.TotalImported != 0 || summary.TotalLotsFound != 0 {
		t.Fatalf("expected an empty run, got %+v", summary)
	}
}
