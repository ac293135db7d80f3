package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/rzbill/myriad/internal/logstore"
)

func newRegistry(t *testing.T) (*Registry, *logstore.MemoryStore) {
	t.Helper()
	store := logstore.NewMemoryStore()
	return New(Options{Store: store}), store
}

func TestSingletonPerWidget(t *testing.T) {
	r, _ := newRegistry(t)
	a := r.GetOrCreateWithLimit("w1", 50)
	b := r.GetOrCreateWithLimit("w1", 50)
	if a != b {
		t.Fatalf("expected the same instance")
	}
	a.Log("from-a")
	if got := b.Logs(); len(got) != 1 || got[0].Payload != "from-a" {
		t.Fatalf("b should observe a's write: %v", got)
	}
	if r.GetOrCreate("w2") == a {
		t.Fatalf("different widgets must not share a logger")
	}
}

func TestSecondHandleSeesV1(t *testing.T) {
	r, _ := newRegistry(t)
	r.GetOrCreate("w1").Log("v1")
	if got := r.GetOrCreate("w1").Logs(); len(got) != 1 || got[0].Payload != "v1" {
		t.Fatalf("got %v", got)
	}
}

func TestLoadsPersistedHistoryOnCreate(t *testing.T) {
	store := logstore.NewMemoryStore()
	_ = store.Write("myriad_log_w1", `[{"ts":1,"payload":"old"}]`)
	r := New(Options{Store: store})
	if got := r.GetOrCreate("w1").Logs(); len(got) != 1 || got[0].Payload != "old" {
		t.Fatalf("expected persisted history, got %v", got)
	}
}

func TestExplicitLimitAppliesToExistingInstance(t *testing.T) {
	r, _ := newRegistry(t)
	l := r.GetOrCreate("w1")
	if l.LimitBytes() != 50*1024 {
		t.Fatalf("default limit: %d", l.LimitBytes())
	}
	for i := 0; i < 40; i++ {
		l.Log(strings.Repeat("x", 100))
	}
	r.GetOrCreateWithLimit("w1", 1)
	if l.LimitBytes() != 1024 {
		t.Fatalf("limit not applied to shared instance: %d", l.LimitBytes())
	}
	if l.SerializedSize() > 1024 {
		t.Fatalf("shared holder should observe eviction, size %d", l.SerializedSize())
	}
	// Plain GetOrCreate leaves the limit alone.
	r.GetOrCreate("w1")
	if l.LimitBytes() != 1024 {
		t.Fatalf("GetOrCreate must not reset the limit")
	}
}

func TestClearKeepsEntry(t *testing.T) {
	r, store := newRegistry(t)
	l := r.GetOrCreate("w1")
	l.Log("a")
	l.Clear()
	again := r.GetOrCreate("w1")
	if again != l || again.Len() != 0 {
		t.Fatalf("re-enable should resume with the same cleared instance")
	}
	if _, ok, _ := store.Read("myriad_log_w1"); ok {
		t.Fatalf("storage should be empty after clear")
	}
}

func TestLookupAndIDs(t *testing.T) {
	r, _ := newRegistry(t)
	if _, ok := r.Lookup("w1"); ok {
		t.Fatalf("lookup must not create")
	}
	r.GetOrCreate("b")
	r.GetOrCreate("a")
	if ids := r.IDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids: %v", ids)
	}
}

func TestFreshRegistriesAreIndependent(t *testing.T) {
	r1, _ := newRegistry(t)
	r2, _ := newRegistry(t)
	r1.GetOrCreate("w1").Log("x")
	if r2.GetOrCreate("w1").Len() != 0 {
		t.Fatalf("registries with separate stores must not share state")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	r, _ := newRegistry(t)
	var wg sync.WaitGroup
	got := make(chan any, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := r.GetOrCreate("w1")
			l.Log("p")
			got <- l
		}()
	}
	wg.Wait()
	close(got)
	var first any
	for l := range got {
		if first == nil {
			first = l
		} else if l != first {
			t.Fatalf("concurrent callers received different instances")
		}
	}
	if n, _ := r.Lookup("w1"); n.Len() != 16 {
		t.Fatalf("expected 16 records, got %d", n.Len())
	}
}

func TestKeyPrefix(t *testing.T) {
	store := logstore.NewMemoryStore()
	if got := New(Options{Store: store}).KeyPrefix(); got != "myriad_log_" {
		t.Fatalf("default prefix: %q", got)
	}
	r := New(Options{Store: store, KeyPrefix: "dash1_"})
	r.GetOrCreate("w").Log("x")
	if keys, _ := store.Keys(r.KeyPrefix()); len(keys) != 1 || keys[0] != "dash1_w" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
