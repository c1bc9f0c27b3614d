package pagesource

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a captured rendering of one page: title, final URL and the
// rendered HTML. Extraction code operates on snapshots only, so it stays
// pure and testable against fixture files.
type Snapshot struct {
	Title      string
	URL        string
	HTML       string
	CapturedAt time.Time

	doc  *goquery.Document
	body string
}

// Doc parses the snapshot HTML once and caches the document.
func (s *Snapshot) Doc() (*goquery.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return doc, nil
}

// BodyText returns the visible text of the page body.
func (s *Snapshot) BodyText() string {
	if s.body != "" {
		return s.body
	}
	doc, err := s.Doc()
	if err != nil {
		return ""
	}
	s.body = doc.Find("body").Text()
	return s.body
}

// CaptureOptions control one navigation.
type CaptureOptions struct {
	Timeout         time.Duration
	WaitNetworkIdle bool
	SettleDelay     time.Duration
	ExtraHeaders    map[string]string
}

// Capturer is the navigation capability consumed by the extraction pipeline.
// *Source implements it over a real browser; tests substitute fixtures.
type Capturer interface {
	Capture(ctx context.Context, url string, opts CaptureOptions) (*Snapshot, error)
}
