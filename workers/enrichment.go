package workers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"auctionpipe/models"
)

// Enricher fetches lot pages over plain HTTP and extracts guide price
// data. Lot detail pages render server-side, so no browser is needed here.
type Enricher struct {
	httpClient *http.Client
}

func NewEnricher(client *http.Client) *Enricher {
	return &Enricher{httpClient: client}
}

var (
	guidePriceRe = regexp.MustCompile(`(?i)guide\s*price[:\s]*£?([\d,]+(?:\s*[-–]\s*£?[\d,]+)?(?:\s*\+)?)`)
	guideRangeRe = regexp.MustCompile(`£[\d,]+(?:\s*[-–]\s*£[\d,]+)?\+?`)
)

// Enrich fetches the record's lot page and extracts the guide price plus
// the page's canonical URL.
func (e *Enricher) Enrich(ctx context.Context, rec *models.PropertyRecord) (*models.GuideData, error) {
	pageURL := rec.AuctionURL
	if pageURL == "" {
		pageURL = rec.SourceURL
	}
	if pageURL == "" {
		return nil, fmt.Errorf("no lot URL for %s", rec.Address)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return e.ParseHTML(resp.Body, pageURL)
}

// ParseHTML extracts guide data from a lot page body.
func (e *Enricher) ParseHTML(r io.Reader, pageURL string) (*models.GuideData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	data := &models.GuideData{SourceURL: pageURL}

	if canonical, ok := doc.Find("link[rel='canonical']").Attr("href"); ok && canonical != "" {
		data.SourceURL = canonical
	} else if og, ok := doc.Find("meta[property='og:url']").Attr("content"); ok && og != "" {
		data.SourceURL = og
	}

	data.GuidePrice = extractGuidePrice(doc)
	if data.GuidePrice == "" {
		return data, fmt.Errorf("no guide price on page")
	}
	return data, nil
}

// extractGuidePrice tries the labelled price elements first, then falls
// back to scanning body text for a "Guide Price" phrase. Ranges like
// "£90,000 - £100,000" and open figures like "£50,000+" are kept verbatim.
func extractGuidePrice(doc *goquery.Document) string {
	selectors := []string{
		".guide-price", ".lot-guide-price", "[class*='guide']",
		".price", ".lot-price",
	}
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if m := guideRangeRe.FindString(text); m != "" {
			return m
		}
	}

	body := doc.Find("body").Text()
	if m := guidePriceRe.FindStringSubmatch(body); len(m) > 1 {
		figure := strings.TrimSpace(m[1])
		if !strings.HasPrefix(figure, "£") {
			figure = "£" + figure
		}
		return figure
	}
	return ""
}
