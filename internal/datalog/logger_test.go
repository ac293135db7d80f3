package datalog

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/pkg/log"
)

// fixedClock returns a clock that advances by one millisecond per call.
func fixedClock(startMs int64) func() time.Time {
	ms := startMs
	return func() time.Time {
		t := time.UnixMilli(ms)
		ms++
		return t
	}
}

func payloads(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Payload
	}
	return out
}

func TestLogOrder(t *testing.T) {
	store := logstore.NewMemoryStore()
	l := New(store, "w1", 50, WithClock(fixedClock(1000)))
	l.Log("1")
	l.Log("2")
	l.Log("3")
	got := l.Logs()
	if strings.Join(payloads(got), ",") != "1,2,3" {
		t.Fatalf("unexpected order: %v", payloads(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TS < got[i-1].TS {
			t.Fatalf("timestamps decrease: %v", got)
		}
	}
	raw, ok, _ := store.Read("myriad_log_w1")
	want := `[{"ts":1000,"payload":"1"},{"ts":1001,"payload":"2"},{"ts":1002,"payload":"3"}]`
	if !ok || raw != want {
		t.Fatalf("persisted form:\n got %s\nwant %s", raw, want)
	}
}

func TestCapacityInvariantAndFIFO(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	l := New(logstore.NewMemoryStore(), "w1", 1, WithClock(fixedClock(0)))
	var all []string
	for i := 0; i < 500; i++ {
		p := fmt.Sprintf("%d:%s", i, strings.Repeat("x", rng.Intn(120)))
		all = append(all, p)
		l.Log(p)

		got := l.Logs()
		if sz := SerializedSize(got); sz > 1024 {
			t.Fatalf("after log %d size %d exceeds budget", i, sz)
		}
		if sz := l.SerializedSize(); sz != SerializedSize(got) {
			t.Fatalf("tracked size %d != actual %d", sz, SerializedSize(got))
		}
		// Survivors are a contiguous tail of everything logged.
		tail := all[len(all)-len(got):]
		if strings.Join(payloads(got), "|") != strings.Join(tail, "|") {
			t.Fatalf("survivors are not a contiguous tail at %d", i)
		}
	}
}

func TestTrackedSizeMatchesEncoding(t *testing.T) {
	l := New(logstore.NewMemoryStore(), "w1", 50, WithClock(fixedClock(1700000000000)))
	for _, p := range []string{`{"a":1}`, "<b>&amp;</b>", "ñandú ☃", "line\nbreak\t\"q\"", " ", ""} {
		l.Log(p)
		if got, want := l.SerializedSize(), SerializedSize(l.Logs()); got != want {
			t.Fatalf("payload %q: tracked %d want %d", p, got, want)
		}
	}
}

func TestIdempotentRefetch(t *testing.T) {
	l := New(logstore.NewMemoryStore(), "w1", 50)
	l.Log("a")
	l.Log("b")
	first, second := l.Logs(), l.Logs()
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("refetch differs: %v vs %v", first, second)
	}
	// Snapshot is detached from later mutations.
	first[0].Payload = "mutated"
	l.Log("c")
	if l.Logs()[0].Payload != "a" || len(second) != 2 {
		t.Fatalf("snapshot aliasing detected")
	}
}

func TestClearResetsFully(t *testing.T) {
	store := logstore.NewMemoryStore()
	l := New(store, "w1", 50)
	l.Log("a")
	if l.Usage() == 0 {
		t.Fatalf("usage should be non-zero after a write")
	}
	l.Clear()
	if len(l.Logs()) != 0 {
		t.Fatalf("logs not empty after clear")
	}
	if l.UsageString() != "0.00" || l.Usage() != 0 {
		t.Fatalf("usage after clear: %s", l.UsageString())
	}
	if _, ok, _ := store.Read(l.Key()); ok {
		t.Fatalf("stored key should be removed")
	}
	if l.SerializedSize() != 2 {
		t.Fatalf("empty sequence should serialize to []")
	}
}

func TestLimitShrinkTriggersEviction(t *testing.T) {
	l := New(logstore.NewMemoryStore(), "w1", 10)
	for l.SerializedSize() < 9*1024 {
		l.Log(strings.Repeat("p", 100))
	}
	before := l.Len()
	l.SetLimit(1)
	if sz := SerializedSize(l.Logs()); sz > 1024 {
		t.Fatalf("size %d exceeds 1KB after shrink", sz)
	}
	if l.Len() >= before || l.Len() == 0 {
		t.Fatalf("expected partial eviction, had %d now %d", before, l.Len())
	}
	if l.LimitBytes() != 1024 {
		t.Fatalf("limit bytes: %d", l.LimitBytes())
	}
}

func TestZeroAndInvalidLimitsEvictEverything(t *testing.T) {
	for _, kb := range []float64{0, -5, math.NaN(), 0.01} {
		l := New(logstore.NewMemoryStore(), "w1", kb)
		l.Log("x")
		if n := l.Len(); n != 0 {
			t.Fatalf("limit %v: expected empty history, got %d records", kb, n)
		}
	}
}

func TestOversizedRecordIsEvicted(t *testing.T) {
	l := New(logstore.NewMemoryStore(), "w1", 1)
	l.Log("small")
	l.Log(strings.Repeat("z", 2048))
	if l.Len() != 0 {
		t.Fatalf("oversized record should leave the history empty, got %v", payloads(l.Logs()))
	}
}

func TestSecondHandleSeesPersistedHistory(t *testing.T) {
	store := logstore.NewMemoryStore()
	a := New(store, "w1", 50)
	a.Log("v1")
	b := New(store, "w1", 50)
	if got := payloads(b.Logs()); len(got) != 1 || got[0] != "v1" {
		t.Fatalf("second handle: %v", got)
	}
	if New(store, "w2", 50).Len() != 0 {
		t.Fatalf("histories must be isolated per widget")
	}
}

func TestCorruptHistoryStartsEmpty(t *testing.T) {
	for _, raw := range []string{"{not json", `{"ts":1}`, `[{"ts":"x","payload":"y"}]`, `[{"ts":1,"payload":5}]`} {
		store := logstore.NewMemoryStore()
		_ = store.Write("myriad_log_w1", raw)
		var buf bytes.Buffer
		lg := log.NewLogger(log.WithFormatter(&log.TextFormatter{}), log.WithOutput(log.NewWriterOutput(&buf)))
		l := New(store, "w1", 50, WithLogger(lg))
		if l.Len() != 0 {
			t.Fatalf("%q: expected empty history", raw)
		}
		if !strings.Contains(buf.String(), "corrupt history") {
			t.Fatalf("%q: expected a warning, got %q", raw, buf.String())
		}
		l.Log("fresh")
		if got, _, _ := store.Read("myriad_log_w1"); !strings.Contains(got, "fresh") {
			t.Fatalf("history should be rewritten, got %q", got)
		}
	}
}

type failingStore struct {
	*logstore.MemoryStore
	readErr, writeErr error
}

func (f *failingStore) Read(key string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	return f.MemoryStore.Read(key)
}

func (f *failingStore) Write(key, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStore.Write(key, value)
}

func TestReadFailureStartsEmpty(t *testing.T) {
	fs := &failingStore{MemoryStore: logstore.NewMemoryStore(), readErr: errors.New("disk gone")}
	_ = fs.MemoryStore.Write("myriad_log_w1", `[{"ts":1,"payload":"a"}]`)
	if New(fs, "w1", 50).Len() != 0 {
		t.Fatalf("read failure should yield empty history")
	}
}

func TestWriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	inner := logstore.NewMemoryStore()
	quota, err := logstore.NewQuotaStore(inner, 100)
	if err != nil {
		t.Fatalf("quota: %v", err)
	}
	m := &countingMetrics{}
	l := New(quota, "w1", 50, WithMetrics(m))
	l.Log("a")
	durable := l.UsageString()
	l.Log(strings.Repeat("b", 200))

	if got := payloads(l.Logs()); len(got) != 2 {
		t.Fatalf("memory should hold both records, got %v", got)
	}
	if l.UsageString() != durable {
		t.Fatalf("usage should reflect the last durable write: %s vs %s", l.UsageString(), durable)
	}
	if m.persistFailed != 1 || m.logged != 2 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestUsageRounding(t *testing.T) {
	store := logstore.NewMemoryStore()
	l := New(store, "w1", 50)
	_ = store.Write(l.Key(), strings.Repeat("x", 1536))
	if l.Usage() != 1.5 || l.UsageString() != "1.50" {
		t.Fatalf("usage: %v %s", l.Usage(), l.UsageString())
	}
	_ = store.Write(l.Key(), strings.Repeat("x", 1000))
	if l.Usage() != 0.98 || l.UsageString() != "0.98" {
		t.Fatalf("usage: %v %s", l.Usage(), l.UsageString())
	}
}

func TestKeyPrefixOption(t *testing.T) {
	store := logstore.NewMemoryStore()
	l := New(store, "w1", 50, WithKeyPrefix("test_"))
	l.Log("a")
	if _, ok, _ := store.Read("test_w1"); !ok {
		t.Fatalf("expected value under custom prefix")
	}
}

func TestNilStorePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(nil, "w1", 50)
}

type countingMetrics struct {
	logged, evicted, persistFailed, corrupt int
}

func (c *countingMetrics) RecordLogged(string)            { c.logged++ }
func (c *countingMetrics) RecordsEvicted(_ string, n int) { c.evicted += n }
func (c *countingMetrics) PersistFailed(string)           { c.persistFailed++ }
func (c *countingMetrics) LoadCorrupt(string)             { c.corrupt++ }

func TestInvalidUTF8RoundTrips(t *testing.T) {
	store := logstore.NewMemoryStore()
	a := New(store, "w1", 50, WithClock(fixedClock(1000)))
	a.Log("a\xffb")
	a.Log("ok")

	b := New(store, "w1", 50)
	live, reloaded := a.Logs(), b.Logs()
	if len(live) != 2 || len(reloaded) != 2 {
		t.Fatalf("lengths: %d %d", len(live), len(reloaded))
	}
	for i := range live {
		if live[i] != reloaded[i] {
			t.Fatalf("record %d changed on reload: %+v vs %+v", i, live[i], reloaded[i])
		}
	}
	if live[0].Payload != "a�b" {
		t.Fatalf("payload not sanitized: %q", live[0].Payload)
	}
	if a.SerializedSize() != b.SerializedSize() {
		t.Fatalf("sizes differ: %d %d", a.SerializedSize(), b.SerializedSize())
	}
}
