// Package logstore provides the persistent key/value stores that hold widget
// histories.
//
// Every widget history is a single value under its own key, so a Store only
// needs whole-value Read/Write/Remove plus Size for usage reporting. Backends:
//
//   - MemoryStore: process-local map, used in tests and with backend=memory.
//   - PebbleStore: the durable default, on top of internal/storage/pebble.
//   - SQLiteStore: a single kv table in a SQLite file.
//   - QuotaStore: wraps any Store with a total byte quota, rejecting writes
//     with ErrQuotaExceeded the way browser storage does when full.
package logstore
