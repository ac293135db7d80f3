package logstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pebblestore "github.com/rzbill/myriad/internal/storage/pebble"
)

var (
	// ErrQuotaExceeded is returned by Write when the new value would push the
	// store past its byte quota. The previous value is left untouched.
	ErrQuotaExceeded = errors.New("logstore: quota exceeded")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("logstore: store closed")
)

// Store is a durable string key/value store. Values are whole serialized
// widget histories; a Write replaces the previous value atomically.
type Store interface {
	// Read returns the value for key and whether it exists.
	Read(key string) (string, bool, error)
	// Write replaces the value for key.
	Write(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Size returns the length in bytes of the stored value, 0 when absent.
	Size(key string) (int, error)
	// Keys lists keys with the given prefix in ascending order.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendPebble Backend = "pebble"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name. The empty string selects Pebble.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendPebble:
		return BackendPebble, nil
	case BackendSQLite, BackendMemory:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("logstore: unknown backend %q (use pebble|sqlite|memory)", s)
	}
}

// Options configures Open.
type Options struct {
	Backend Backend
	// DataDir holds the Pebble directory or the SQLite file. Ignored for memory.
	DataDir string
	// Fsync applies to the Pebble backend.
	Fsync pebblestore.FsyncMode
	// QuotaBytes caps the total bytes across all keys. Zero disables the quota.
	QuotaBytes int64
	// Metrics observes Pebble reads and writes. Optional.
	Metrics pebblestore.MetricsHook
}

// Open creates the configured store, wrapped in a QuotaStore when a quota is set.
func Open(opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendMemory:
		s = NewMemoryStore()
	case BackendSQLite:
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		s, err = OpenSQLite(filepath.Join(opts.DataDir, "history.db"))
	case BackendPebble, "":
		var db *pebblestore.DB
		db, err = pebblestore.Open(pebblestore.Options{
			DataDir: opts.DataDir,
			Fsync:   opts.Fsync,
			Metrics: opts.Metrics,
		})
		if err == nil {
			s = NewPebbleStore(db, true)
		}
	default:
		return nil, fmt.Errorf("logstore: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	if opts.QuotaBytes > 0 {
		q, err := NewQuotaStore(s, opts.QuotaBytes)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		return q, nil
	}
	return s, nil
}
