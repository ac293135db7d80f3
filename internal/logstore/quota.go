package logstore

import (
	"fmt"
	"sync"
)

// QuotaStore enforces a byte quota over the sum of len(key)+len(value) for
// every key in the wrapped store.
type QuotaStore struct {
	inner Store
	quota int64

	mu    sync.Mutex
	used  int64
	sizes map[string]int64
}

// NewQuotaStore wraps inner, counting what it already holds against quota.
func NewQuotaStore(inner Store, quota int64) (*QuotaStore, error) {
	q := &QuotaStore{inner: inner, quota: quota, sizes: make(map[string]int64)}
	keys, err := inner.Keys("")
	if err != nil {
		return nil, fmt.Errorf("scan existing keys: %w", err)
	}
	for _, k := range keys {
		n, err := inner.Size(k)
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", k, err)
		}
		sz := int64(len(k) + n)
		q.sizes[k] = sz
		q.used += sz
	}
	return q, nil
}

// Used returns the bytes currently counted against the quota.
func (q *QuotaStore) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}

// Quota returns the configured limit in bytes.
func (q *QuotaStore) Quota() int64 { return q.quota }

func (q *QuotaStore) Read(key string) (string, bool, error) { return q.inner.Read(key) }

func (q *QuotaStore) Write(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	sz := int64(len(key) + len(value))
	next := q.used - q.sizes[key] + sz
	if next > q.quota {
		return fmt.Errorf("%w: write of %d bytes to %q needs %d of %d", ErrQuotaExceeded, len(value), key, next, q.quota)
	}
	if err := q.inner.Write(key, value); err != nil {
		return err
	}
	q.used = next
	q.sizes[key] = sz
	return nil
}

func (q *QuotaStore) Remove(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.inner.Remove(key); err != nil {
		return err
	}
	q.used -= q.sizes[key]
	delete(q.sizes, key)
	return nil
}

func (q *QuotaStore) Size(key string) (int, error)         { return q.inner.Size(key) }
func (q *QuotaStore) Keys(prefix string) ([]string, error) { return q.inner.Keys(prefix) }

// Ping forwards to the wrapped store when it supports health checks.
func (q *QuotaStore) Ping() error {
	if p, ok := q.inner.(interface{ Ping() error }); ok {
		return p.Ping()
	}
	return nil
}

func (q *QuotaStore) Close() error { return q.inner.Close() }
