package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime settings for the flood monitoring tools.
type AppConfig struct {
	// APIRootURL is the base URL of the flood monitoring API.
	APIRootURL string

	// ItemLimit is the maximum number of readings requested per call.
	// The API caps responses server-side; the lookback limit is derived
	// from it so a full window fits in one response.
	ItemLimit int

	StationIDsFile string
	PlotsDir       string
	DataDir        string

	HTTPTimeout time.Duration
	MaxRetries  int

	// Server-mode settings.
	Port            string
	RefreshInterval time.Duration
	CacheMaxAge     time.Duration
}

// LookbackDaysLimit returns the maximum allowed days-back window. Stations
// report roughly 100 readings per day across their measures, so limit/100
// days keeps a full window under the per-request item cap.
func (c *AppConfig) LookbackDaysLimit() int {
	limit := c.ItemLimit / 100
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.APIRootURL = getenvDefault("FLOOD_API_ROOT_URL", "https://environment.data.gov.uk/flood-monitoring")

	cfg.ItemLimit = getenvInt("RETURNED_ITEMS_LIMIT", 1400)
	if cfg.ItemLimit <= 0 {
		return nil, fmt.Errorf("RETURNED_ITEMS_LIMIT must be positive")
	}

	cfg.StationIDsFile = getenvDefault("STATION_IDS_FILE", "data/station_ids.txt")
	cfg.PlotsDir = getenvDefault("PLOTS_DIR", "plots")
	cfg.DataDir = getenvDefault("DATA_DIR", "data")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.MaxRetries = getenvInt("HTTP_MAX_RETRIES", 3)
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("HTTP_MAX_RETRIES must not be negative")
	}

	cfg.Port = getenvDefault("PORT", "8080")

	refreshStr := getenvDefault("REGISTRY_REFRESH_INTERVAL", "24h")
	refresh, err := time.ParseDuration(refreshStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REGISTRY_REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = refresh

	maxAgeStr := getenvDefault("CACHE_MAX_AGE", "15m")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}
	cfg.CacheMaxAge = maxAge

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
