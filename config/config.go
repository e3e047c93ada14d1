package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// External source configurations
	IndexSource IndexSourceConfig
	MarketData  MarketDataConfig

	// Reference builder policy
	Reference ReferenceConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// IndexSourceConfig holds the index constituent source configuration
type IndexSourceConfig struct {
	BaseURL   string
	Indexes   []string // index page paths relative to BaseURL
	UserAgent string
}

// MarketDataConfig holds the price/valuation data source configuration
type MarketDataConfig struct {
	BaseURL      string
	SymbolSuffix string // exchange suffix appended to symbols (e.g. ".NS")
}

// ReferenceConfig holds the valuation reference builder policy
type ReferenceConfig struct {
	DiscountThresholdPct float64 // minimum discount to classify as discounted
	WindowYears          int     // trailing window for the average P/E
	MinValidPeriods      int     // below this many valid data points a symbol is skipped
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               string
	RequestTimeoutSec  int
	CORSAllowedOrigins string
}

// defaultIndexes mirrors the broad-based index pages the collector scrapes
// when SCREENER_INDEXES is not set.
var defaultIndexes = []string{
	"/indices/equity/broad-based-indices/NIFTY--50",
	"/indices/equity/broad-based-indices/nifty-next-50",
	"/indices/equity/broad-based-indices/nifty-100",
	"/indices/equity/broad-based-indices/nifty200",
	"/indices/equity/broad-based-indices/nifty500",
	"/indices/equity/broad-based-indices/NiftyMidcap100",
	"/indices/equity/broad-based-indices/niftySmallcap100",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		IndexSource: IndexSourceConfig{
			BaseURL:   getEnvString("INDEX_SOURCE_BASE_URL", "https://www.niftyindices.com"),
			Indexes:   getEnvList("SCREENER_INDEXES", defaultIndexes),
			UserAgent: getEnvString("INDEX_SOURCE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		},
		MarketData: MarketDataConfig{
			BaseURL:      getEnvString("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			SymbolSuffix: getEnvString("MARKET_DATA_SYMBOL_SUFFIX", ".NS"),
		},
		Reference: ReferenceConfig{
			DiscountThresholdPct: getEnvFloat("REFERENCE_DISCOUNT_THRESHOLD_PCT", 30.0),
			WindowYears:          getEnvInt("REFERENCE_WINDOW_YEARS", 5),
			MinValidPeriods:      getEnvInt("REFERENCE_MIN_VALID_PERIODS", 12),
		},
		HTTP: HTTPConfig{
			Port:               getEnvString("HTTP_PORT", "8080"),
			RequestTimeoutSec:  getEnvInt("HTTP_REQUEST_TIMEOUT_SEC", 600),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Reference.DiscountThresholdPct <= 0 || c.Reference.DiscountThresholdPct >= 100 {
		return fmt.Errorf("REFERENCE_DISCOUNT_THRESHOLD_PCT must be between 0 and 100, got %.2f",
			c.Reference.DiscountThresholdPct)
	}
	if c.Reference.WindowYears <= 0 {
		return fmt.Errorf("REFERENCE_WINDOW_YEARS must be positive, got %d", c.Reference.WindowYears)
	}
	if c.Reference.MinValidPeriods <= 0 {
		return fmt.Errorf("REFERENCE_MIN_VALID_PERIODS must be positive, got %d", c.Reference.MinValidPeriods)
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT_SEC must be positive, got %d", c.HTTP.RequestTimeoutSec)
	}
	if len(c.IndexSource.Indexes) == 0 {
		return fmt.Errorf("SCREENER_INDEXES must list at least one index page path")
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		IndexSource: IndexSourceConfig{
			BaseURL:   "https://www.niftyindices.com",
			Indexes:   defaultIndexes,
			UserAgent: "test-agent",
		},
		MarketData: MarketDataConfig{
			BaseURL:      "https://query1.finance.yahoo.com",
			SymbolSuffix: ".NS",
		},
		Reference: ReferenceConfig{
			DiscountThresholdPct: 30.0,
			WindowYears:          5,
			MinValidPeriods:      12,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeoutSec:  600,
			CORSAllowedOrigins: "*",
		},
	}
}
