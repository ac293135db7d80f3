package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	GRPC      GRPCConfig      `json:"grpc" yaml:"grpc"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Log       log.Config      `json:"log" yaml:"log"`
}

// StorageConfig selects and tunes the history store.
type StorageConfig struct {
	// Backend is pebble, sqlite or memory.
	Backend string `json:"backend" yaml:"backend"`
	// DataDir defaults to DefaultDataDir().
	DataDir   string `json:"dataDir" yaml:"dataDir"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
	// QuotaBytes caps the total stored bytes across all widgets; 0 disables it.
	QuotaBytes int64 `json:"quotaBytes" yaml:"quotaBytes"`
	// Fsync is always, interval or never (pebble only).
	Fsync string `json:"fsync" yaml:"fsync"`
}

// HistoryConfig holds widget history defaults.
type HistoryConfig struct {
	DefaultLimitKB float64 `json:"defaultLimitKB" yaml:"defaultLimitKB"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// RateLimitPerSec limits message dispatch and history writes; 0 disables it.
	RateLimitPerSec float64 `json:"rateLimitPerSec" yaml:"rateLimitPerSec"`
	RateBurst       int     `json:"rateBurst" yaml:"rateBurst"`
}

// GRPCConfig configures the gRPC API.
type GRPCConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// DashboardConfig points at the saved dashboard layout.
type DashboardConfig struct {
	// File is loaded at start when it exists and saved on shutdown.
	File string `json:"file" yaml:"file"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:    string(logstore.BackendPebble),
			KeyPrefix:  "myriad_log_",
			QuotaBytes: 5 << 20,
			Fsync:      "always",
		},
		History: HistoryConfig{DefaultLimitKB: 50},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RateLimitPerSec: 200,
			RateBurst:       400,
		},
		GRPC: GRPCConfig{Addr: ":9090"},
		Log:  log.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults. Fields missing from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if _, err := logstore.ParseBackend(c.Storage.Backend); err != nil {
		return err
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quotaBytes must not be negative")
	}
	if c.History.DefaultLimitKB <= 0 {
		return fmt.Errorf("history.defaultLimitKB must be positive")
	}
	if c.HTTP.RateLimitPerSec < 0 || c.HTTP.RateBurst < 0 {
		return fmt.Errorf("http rate limits must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
