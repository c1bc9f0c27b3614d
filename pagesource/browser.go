package pagesource

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"auctionpipe/config"
)

// Source is a single authenticated browser session. It is shared by every
// pipeline stage and used by at most one operation at a time.
type Source struct {
	cfg         *config.SessionConfig
	sessionPath string

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	page        playwright.Page
	initialized bool
}

func New(cfg *config.SessionConfig, sessionPath string) *Source {
	return &Source{cfg: cfg, sessionPath: sessionPath}
}

// Open launches the browser and restores the persisted session state when a
// snapshot file exists.
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		s.pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	s.browser = browser

	ctxOpts := playwright.BrowserNewContextOptions{}
	if _, err := os.Stat(s.sessionPath); err == nil {
		log.Printf("Restoring browser session from %s", s.sessionPath)
		ctxOpts.StorageStatePath = playwright.String(s.sessionPath)
	} else {
		log.Printf("No session file at %s, starting unauthenticated", s.sessionPath)
	}

	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		s.browser.Close()
		s.pw.Stop()
		return fmt.Errorf("create context: %w", err)
	}
	s.context = bctx

	page, err := bctx.NewPage()
	if err != nil {
		s.context.Close()
		s.browser.Close()
		s.pw.Stop()
		return fmt.Errorf("create page: %w", err)
	}
	s.page = page

	s.initialized = true
	return nil
}

func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	if s.context != nil {
		s.context.Close()
		s.context = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		s.pw.Stop()
		s.pw = nil
	}
	s.initialized = false
}

// Capture navigates to url and returns the rendered page. Cancellation is
// honored at the call boundary only; an in-flight navigation is allowed to
// finish.
func (s *Source) Capture(ctx context.Context, url string, opts CaptureOptions) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Open(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(opts.ExtraHeaders) > 0 {
		if err := s.page.SetExtraHTTPHeaders(opts.ExtraHeaders); err != nil {
			log.Printf("Warning: failed to set headers: %v", err)
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	gotoOpts := playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}
	if opts.WaitNetworkIdle {
		gotoOpts.WaitUntil = playwright.WaitUntilStateNetworkidle
	}

	if _, err := s.page.Goto(url, gotoOpts); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	settle := opts.SettleDelay
	if settle == 0 {
		settle = 3 * time.Second
	}
	s.page.WaitForTimeout(float64(settle.Milliseconds()))

	title, _ := s.page.Title()
	html, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return &Snapshot{
		Title:      title,
		URL:        s.page.URL(),
		HTML:       html,
		CapturedAt: time.Now(),
	}, nil
}

// SaveSession persists the current storage state so later runs start
// authenticated.
func (s *Source) SaveSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.context == nil {
		return fmt.Errorf("no active browser context")
	}
	if dir := s.cfg.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	_, err := s.context.StorageState(s.sessionPath)
	return err
}

// HumanDelay sleeps a randomized interval inside the given range. The pacing
// is deliberate: burst rates trigger hard blocks on the scraped sites.
func HumanDelay(r config.DelayRange) {
	if r.Max <= r.Min {
		if r.Min > 0 {
			time.Sleep(r.Min)
		}
		return
	}
	d := r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)))
	time.Sleep(d)
}
