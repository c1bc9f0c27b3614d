package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RecordStore  RecordStoreConfig
	PriceHistory PriceHistoryConfig
	Session      SessionConfig
	Archive      ArchiveConfig
	Proxy        ProxyConfig
	Scheduler    SchedulerConfig
	Pipeline     PipelineConfig
	DBPath       string
	LogLevel     string
	Auctioneers  map[string]*AuctioneerConfig
}

// RecordStoreConfig addresses the tabular web-app store. Two logical tables
// share one endpoint, selected by sheet name.
type RecordStoreConfig struct {
	WebAppURL      string
	Token          string
	PermanentSheet string
	StagingSheet   string
}

// PriceHistoryConfig points at the external sold-price source. ResultsURL is
// a format string taking one URL-escaped postcode.
type PriceHistoryConfig struct {
	ResultsURL   string
	QueryDelay   DelayRange
	RetryBackoff time.Duration
	BlockBackoff time.Duration
}

// SessionConfig locates the persisted browser session used to authenticate
// against the auction source.
type SessionConfig struct {
	Dir      string
	File     string
	Headless bool
}

// ArchiveConfig enables the optional Postgres mirror of imported records.
type ArchiveConfig struct {
	DBURL string
}

type ProxyConfig struct {
	URL string
}

type SchedulerConfig struct {
	Cron              string
	Interval          time.Duration
	ReprocessInterval time.Duration
}

// DelayRange is a randomized pacing window between external requests.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// PipelineConfig carries the time-window business rules and the pacing
// between requests. Pacing is correctness-adjacent: aggressive rates trigger
// hard WAF blocks on both sources.
type PipelineConfig struct {
	NewerMonths        int
	OlderMonths        int
	PriceWindowMonths  int
	StagingDelayMonths int
	LotDelay           DelayRange
	AuctionDelay       DelayRange
}

// AuctioneerConfig describes one auction source, loaded from
// config/auctioneers/*.yaml.
type AuctioneerConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	ResultsURL string `yaml:"results_url"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RecordStore: RecordStoreConfig{
			WebAppURL:      os.Getenv("RECORDSTORE_WEBAPP_URL"),
			Token:          os.Getenv("RECORDSTORE_TOKEN"),
			PermanentSheet: getEnv("RECORDSTORE_PERMANENT_SHEET", "AUCTION_MASTER"),
			StagingSheet:   getEnv("RECORDSTORE_STAGING_SHEET", "POTENTIAL_TRADES"),
		},
		PriceHistory: PriceHistoryConfig{
			ResultsURL:   getEnv("PRICE_HISTORY_URL", "https://www.englishhouseprices.com/results.aspx?postcode=%s"),
			QueryDelay:   DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
			RetryBackoff: 5 * time.Second,
			BlockBackoff: 30 * time.Second,
		},
		Session: SessionConfig{
			Dir:      getEnv("SESSION_DIR", "sessions"),
			File:     getEnv("SESSION_FILE", "auction_source.json"),
			Headless: getEnv("BROWSER_HEADLESS", "true") == "true",
		},
		Archive: ArchiveConfig{
			DBURL: os.Getenv("ARCHIVE_DB_URL"),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron:              os.Getenv("PIPELINE_CRON"),
			ReprocessInterval: getEnvDuration("REPROCESS_INTERVAL", 24*time.Hour),
		},
		Pipeline: PipelineConfig{
			NewerMonths:        getEnvInt("NEWER_AUCTION_MONTHS", 3),
			OlderMonths:        getEnvInt("OLDER_AUCTION_MONTHS", 12),
			PriceWindowMonths:  getEnvInt("PRICE_WINDOW_MONTHS", 6),
			StagingDelayMonths: getEnvInt("STAGING_DELAY_MONTHS", 3),
			LotDelay:           DelayRange{Min: 500 * time.Millisecond, Max: 3 * time.Second},
			AuctionDelay:       DelayRange{Min: 3 * time.Second, Max: 8 * time.Second},
		},
		DBPath:      getEnv("DB_PATH", "pipeline.db"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Auctioneers: make(map[string]*AuctioneerConfig),
	}

	if interval := os.Getenv("PIPELINE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadAuctioneerConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SessionPath is the storage-state snapshot restored into the browser
// context at startup.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Session.Dir, c.Session.File)
}

func (c *Config) loadAuctioneerConfigs() error {
	configDir := "config/auctioneers"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(configDir, entry.Name()))
		if err != nil {
			return err
		}

		var ac AuctioneerConfig
		if err := yaml.Unmarshal(data, &ac); err != nil {
			return err
		}

		c.Auctioneers[ac.ID] = &ac
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
