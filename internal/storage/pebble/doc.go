// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// prefix scans, and minimal metrics hooks. It backs the durable widget
// history store.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("myriad_log_w1"), []byte(`[]`))
//	v, _ := db.Get([]byte("myriad_log_w1"))
//	_ = db.ScanPrefix([]byte("myriad_log_"), func(k, v []byte) bool { return true })
package pebblestore
