package datalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/pkg/log"
)

const (
	// DefaultKeyPrefix is prepended to the widget id to form the storage key.
	DefaultKeyPrefix = "myriad_log_"
	// DefaultLimitKB is the budget used when a widget does not configure one.
	DefaultLimitKB = 50
)

// Metrics receives history events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordLogged(widgetID string)
	RecordsEvicted(widgetID string, n int)
	PersistFailed(widgetID string)
	LoadCorrupt(widgetID string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLogged(string)        {}
func (noopMetrics) RecordsEvicted(string, int) {}
func (noopMetrics) PersistFailed(string)       {}
func (noopMetrics) LoadCorrupt(string)         {}

// Option configures a Logger.
type Option func(*Logger)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg log.Logger) Option {
	return func(l *Logger) { l.log = lg }
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(l *Logger) { l.prefix = prefix }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// Logger is the bounded history of one widget. It is safe for concurrent use;
// all operations on one Logger are serialized.
type Logger struct {
	store    logstore.Store
	widgetID string
	prefix   string
	key      string
	now      func() time.Time
	log      log.Logger
	metrics  Metrics

	mu         sync.Mutex
	limitBytes int64
	records    []Record
	sizes      []int64 // encoded size of each record, parallel to records
	payload    int64   // sum of sizes
}

// New returns the Logger for widgetID with a budget of limitKB kilobytes,
// loading any history already in store. It panics if store is nil.
func New(store logstore.Store, widgetID string, limitKB float64, opts ...Option) *Logger {
	if store == nil {
		panic("datalog: nil store")
	}
	l := &Logger{
		store:    store,
		widgetID: widgetID,
		prefix:   DefaultKeyPrefix,
		now:      time.Now,
		log:      log.NewNopLogger(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.key = l.prefix + widgetID
	l.log = l.log.With(log.Component("datalog"), log.Widget(widgetID))
	l.limitBytes = limitBytes(limitKB)
	l.load()
	return l
}

// limitBytes converts a KB budget to bytes. Non-positive and NaN budgets
// clamp to zero, which evicts everything.
func limitBytes(limitKB float64) int64 {
	switch {
	case math.IsNaN(limitKB) || limitKB <= 0:
		return 0
	case limitKB*1024 >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(limitKB * 1024)
	}
}

// WidgetID returns the id this Logger was created for.
func (l *Logger) WidgetID() string { return l.widgetID }

// Key returns the storage key holding the history.
func (l *Logger) Key() string { return l.key }

// LimitBytes returns the current budget in bytes.
func (l *Logger) LimitBytes() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitBytes
}

func (l *Logger) load() {
	raw, ok, err := l.store.Read(l.key)
	if err != nil {
		l.log.Warn("read history failed; starting empty", log.Err(err))
		return
	}
	if !ok {
		return
	}
	var recs []Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		l.log.Warn("corrupt history; starting empty", log.Err(err), log.Int("bytes", len(raw)))
		l.metrics.LoadCorrupt(l.widgetID)
		return
	}
	for _, r := range recs {
		l.push(r)
	}
	l.log.Debug("history loaded", log.Int("records", len(recs)))
}

func (l *Logger) push(r Record) {
	sz := encodedSize(r)
	l.records = append(l.records, r)
	l.sizes = append(l.sizes, sz)
	l.payload += sz
}

// size is the serialized length of the current sequence: brackets, records
// and the commas between them.
func (l *Logger) size() int64 {
	n := int64(len(l.records))
	if n == 0 {
		return 2
	}
	return 2 + l.payload + n - 1
}

// enforceLimit drops records from the front until the sequence fits.
func (l *Logger) enforceLimit() {
	evicted := 0
	for l.size() > l.limitBytes && evicted < len(l.records) {
		l.payload -= l.sizes[evicted]
		evicted++
	}
	if evicted == 0 {
		return
	}
	l.records = append([]Record(nil), l.records[evicted:]...)
	l.sizes = append([]int64(nil), l.sizes[evicted:]...)
	l.metrics.RecordsEvicted(l.widgetID, evicted)
	l.log.Debug("evicted records", log.Int("evicted", evicted), log.Int("remaining", len(l.records)))
}

func (l *Logger) save() {
	b, err := marshalJSON(normalize(l.records))
	if err == nil {
		err = l.store.Write(l.key, string(b))
	}
	if err != nil {
		l.metrics.PersistFailed(l.widgetID)
		l.log.Error("persist history failed", log.Err(err), log.Int("records", len(l.records)))
	}
}

// Log appends payload stamped with the current time, evicts the oldest
// records until the budget holds, and persists the sequence. Invalid UTF-8
// is replaced with U+FFFD so the record reads back unchanged.
func (l *Logger) Log(payload string) {
	payload = strings.ToValidUTF8(payload, "\uFFFD")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.push(Record{TS: l.now().UnixMilli(), Payload: payload})
	l.metrics.RecordLogged(l.widgetID)
	l.enforceLimit()
	l.save()
}

// Logs returns a copy of the history, oldest first.
func (l *Logger) Logs() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// Len returns the number of records held.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// SerializedSize returns the byte length of the in-memory sequence's JSON form.
func (l *Logger) SerializedSize() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size()
}

// Usage returns the size of the persisted value in KB, rounded to two
// decimals. It reflects the last successful write, not memory.
func (l *Logger) Usage() float64 {
	return math.Round(l.usageKB()*100) / 100
}

// UsageString formats Usage with exactly two decimals, e.g. "0.00".
func (l *Logger) UsageString() string {
	return strconv.FormatFloat(l.usageKB(), 'f', 2, 64)
}

func (l *Logger) usageKB() float64 {
	n, err := l.store.Size(l.key)
	if err != nil {
		l.log.Warn("read history size failed", log.Err(err))
		return 0
	}
	return float64(n) / 1024
}

// Clear empties the history and removes it from the store.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.sizes = nil
	l.payload = 0
	if err := l.store.Remove(l.key); err != nil {
		l.log.Error("remove history failed", log.Err(err))
	}
}

// SetLimit changes the budget, evicts down to it, and persists.
func (l *Logger) SetLimit(limitKB float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limitBytes = limitBytes(limitKB)
	l.enforceLimit()
	l.save()
}
