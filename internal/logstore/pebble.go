package logstore

import (
	"errors"

	pebblestore "github.com/rzbill/myriad/internal/storage/pebble"
)

// PebbleStore stores each key as a single Pebble entry.
type PebbleStore struct {
	db   *pebblestore.DB
	owns bool
}

// NewPebbleStore wraps db. When owns is true Close also closes db.
func NewPebbleStore(db *pebblestore.DB, owns bool) *PebbleStore {
	return &PebbleStore{db: db, owns: owns}
}

func (p *PebbleStore) Read(key string) (string, bool, error) {
	v, err := p.db.Get([]byte(key))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (p *PebbleStore) Write(key, value string) error {
	return p.db.Set([]byte(key), []byte(value))
}

func (p *PebbleStore) Remove(key string) error {
	return p.db.Delete([]byte(key))
}

func (p *PebbleStore) Size(key string) (int, error) {
	v, ok, err := p.Read(key)
	if err != nil || !ok {
		return 0, err
	}
	return len(v), nil
}

func (p *PebbleStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := p.db.ScanPrefix([]byte(prefix), func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	return keys, err
}

// Ping reports whether the underlying database is usable.
func (p *PebbleStore) Ping() error { return p.db.Ping() }

func (p *PebbleStore) Close() error {
	if !p.owns {
		return nil
	}
	return p.db.Close()
}
