package config

import (
	"os"
	"strconv"
)

// FromEnv overlays MYRIAD_* environment variables onto cfg. Malformed
// numbers are ignored.
func FromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str("MYRIAD_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("MYRIAD_DATA_DIR", &cfg.Storage.DataDir)
	str("MYRIAD_KEY_PREFIX", &cfg.Storage.KeyPrefix)
	str("MYRIAD_FSYNC", &cfg.Storage.Fsync)
	str("MYRIAD_HTTP_ADDR", &cfg.HTTP.Addr)
	str("MYRIAD_GRPC_ADDR", &cfg.GRPC.Addr)
	str("MYRIAD_DASHBOARD_FILE", &cfg.Dashboard.File)
	str("MYRIAD_LOG_LEVEL", &cfg.Log.Level)
	str("MYRIAD_LOG_FORMAT", &cfg.Log.Format)
	str("MYRIAD_LOG_FILE", &cfg.Log.File)

	if v := os.Getenv("MYRIAD_QUOTA_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.QuotaBytes = n
		}
	}
	if v := os.Getenv("MYRIAD_DEFAULT_LIMIT_KB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.History.DefaultLimitKB = f
		}
	}
	if v := os.Getenv("MYRIAD_HTTP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HTTP.RateLimitPerSec = f
		}
	}
	if v := os.Getenv("MYRIAD_HTTP_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateBurst = n
		}
	}
}
