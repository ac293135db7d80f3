package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir returns where Myriad keeps widget histories when
// storage.dataDir is not set: the per-user application data directory of the
// host OS, or ./data when no home directory is known.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return dataDirFor(runtime.GOOS, home, os.Getenv)
}

// dataDirFor resolves the data directory for goos. XDG_DATA_HOME wins on
// every OS so tests and containers can pin the location.
func dataDirFor(goos, home string, getenv func(string) string) string {
	if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "myriad")
	}
	switch goos {
	case "windows":
		if local := getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Myriad")
		}
		if home != "" {
			return filepath.Join(home, "AppData", "Local", "Myriad")
		}
	case "darwin":
		if home != "" {
			return filepath.Join(home, "Library", "Application Support", "Myriad")
		}
	default:
		if home != "" {
			return filepath.Join(home, ".local", "share", "myriad")
		}
	}
	return "./data"
}
