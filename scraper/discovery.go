package scraper

import (
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"auctionpipe/config"
	"auctionpipe/models"
	"auctionpipe/pagesource"
)

// Discovery finds auction events on a results listing page.
type Discovery struct {
	cfg *config.AuctioneerConfig
}

func NewDiscovery(cfg *config.AuctioneerConfig) *Discovery {
	return &Discovery{cfg: cfg}
}

var auctionDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2 January 2006",
	"02 January 2006",
}

// Discover parses the results listing snapshot and returns the auctions
// whose date falls inside [start, end]. Rows with unparseable dates are
// logged and skipped. A login redirect yields ErrSourceUnavailable.
func (d *Discovery) Discover(snap *pagesource.Snapshot, start, end time.Time) ([]models.AuctionEvent, error) {
	if pagesource.SessionExpired(snap) {
		return nil, ErrSourceUnavailable
	}

	doc, err := snap.Doc()
	if err != nil {
		return nil, err
	}

	var auctions []models.AuctionEvent
	doc.Find("table").Each(func(ti int, table *goquery.Selection) {
		table.Find("tr").Each(func(ri int, row *goquery.Selection) {
			if ri == 0 {
				return // header
			}
			cells := row.Find("td, th")
			if cells.Length() < 6 {
				return
			}

			dateText := strings.TrimSpace(cells.Eq(0).Text())
			date, ok := parseAuctionDate(dateText)
			if !ok {
				if dateText != "" {
					log.Printf("Skipping row with unparseable date %q", dateText)
				}
				return
			}
			if date.Before(start) || date.After(end) {
				return
			}

			event := models.AuctionEvent{
				Name:        d.cfg.Name,
				Date:        date,
				Venue:       strings.TrimSpace(cells.Eq(1).Text()),
				LotsOffered: strings.TrimSpace(cells.Eq(2).Text()),
				LotsSold:    strings.TrimSpace(cells.Eq(3).Text()),
				PercentSold: strings.TrimSpace(cells.Eq(4).Text()),
				TotalRaised: strings.TrimSpace(cells.Eq(5).Text()),
				SourceURL:   snap.URL,
			}

			if href, exists := row.Find("a").First().Attr("href"); exists {
				event.DetailURL = d.absolutize(href)
			}

			auctions = append(auctions, event)
		})
	})

	log.Printf("Discovered %d auctions in %s .. %s",
		len(auctions), start.Format("2006-01-02"), end.Format("2006-01-02"))
	return auctions, nil
}

// ExtractLotURLs collects the per-lot detail links from an auction page, in
// page order. Lots are later processed and imported in exactly this order.
func (d *Discovery) ExtractLotURLs(snap *pagesource.Snapshot) ([]string, error) {
	doc, err := snap.Doc()
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/lot/']").Each(func(i int, link *goquery.Selection) {
		href, exists := link.Attr("href")
		if !exists || !strings.Contains(href, "/lot/") {
			return
		}
		full := d.absolutize(href)
		if !seen[full] {
			seen[full] = true
			urls = append(urls, full)
		}
	})
	return urls, nil
}

func (d *Discovery) absolutize(href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(d.cfg.BaseURL, "/") + href
	}
	return href
}

func parseAuctionDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range auctionDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
