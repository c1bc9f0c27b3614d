package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"auctionpipe/pagesource"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func fixtureSnapshot(t *testing.T, name, title, url string) *pagesource.Snapshot {
	t.Helper()
	return &pagesource.Snapshot{
		Title: title,
		URL:   url,
		HTML:  loadFixture(t, name),
	}
}
