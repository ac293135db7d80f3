package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/internal/registry"
	"github.com/rzbill/myriad/internal/widget"
)

type sink struct{ sent []string }

func (s *sink) Publish(topic, payload string) error {
	s.sent = append(s.sent, topic+"="+payload)
	return nil
}

func newDashboard(t *testing.T, store logstore.Store) (*Dashboard, *sink) {
	t.Helper()
	s := &sink{}
	reg := registry.New(registry.Options{Store: store})
	return New(widget.Deps{Registry: reg, Publisher: s}), s
}

func TestDispatchRoutesByTopicFilter(t *testing.T) {
	d, _ := newDashboard(t, logstore.NewMemoryStore())
	exact, _ := d.Add("text", "exact", widget.Options{Topic: "home/kitchen/temp"})
	wild, _ := d.Add("log", "wild", widget.Options{Topic: "home/+/temp"})
	other, _ := d.Add("text", "other", widget.Options{Topic: "garage/#"})

	if n := d.Dispatch("home/kitchen/temp", []byte("21")); n != 2 {
		t.Fatalf("delivered to %d widgets, want 2", n)
	}
	if exact.State().Display["text"] != "21" {
		t.Fatalf("exact widget not updated")
	}
	if lines := wild.State().Display["lines"].([]widget.LogLine); len(lines) != 1 {
		t.Fatalf("wildcard widget not updated")
	}
	if other.State().Display["text"] != "--" {
		t.Fatalf("unrelated widget updated")
	}
}

func TestAddGeneratesIDAndRejectsDuplicates(t *testing.T) {
	d, _ := newDashboard(t, logstore.NewMemoryStore())
	w, err := d.Add("gauge", "", widget.Options{})
	if err != nil || len(w.ID()) != 36 {
		t.Fatalf("generated id: %q %v", w.ID(), err)
	}
	if _, err := d.Add("gauge", w.ID(), widget.Options{}); !errors.Is(err, ErrWidgetExists) {
		t.Fatalf("want ErrWidgetExists, got %v", err)
	}
	if _, err := d.Add("map", "", widget.Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("want ErrUnknownKind, got %v", err)
	}
	if err := d.Remove("missing"); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("want ErrWidgetNotFound, got %v", err)
	}
}

func TestConfigureMergesPatch(t *testing.T) {
	d, _ := newDashboard(t, logstore.NewMemoryStore())
	if _, err := d.Add("slider", "s", widget.Options{Topic: "dim", Max: ptr(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.Configure("s", json.RawMessage(`{"loggingEnabled":true,"loggingLimit":2}`)); err != nil {
		t.Fatalf("configure: %v", err)
	}
	w, _ := d.Get("s")
	o := w.Options()
	if o.Topic != "dim" || *o.Max != 10 || !o.LoggingEnabled || o.LoggingLimit != 2 {
		t.Fatalf("merged options: %+v", o)
	}
	if w.History() == nil || w.History().LimitBytes() != 2048 {
		t.Fatalf("logging not enabled with limit")
	}
	if err := d.Configure("s", json.RawMessage(`{"max":-1}`)); !errors.Is(err, widget.ErrInvalidOptions) {
		t.Fatalf("want ErrInvalidOptions, got %v", err)
	}
	if err := d.Configure("s", json.RawMessage(`[1]`)); !errors.Is(err, widget.ErrInvalidOptions) {
		t.Fatalf("want ErrInvalidOptions for non-object patch, got %v", err)
	}
}

func TestInteractPublishes(t *testing.T) {
	d, s := newDashboard(t, logstore.NewMemoryStore())
	_, _ = d.Add("switch", "sw", widget.Options{Topic: "lamp"})
	if p, err := d.Interact("sw", widget.Action{Type: "toggle"}); err != nil || p != "1" {
		t.Fatalf("interact: %q %v", p, err)
	}
	if len(s.sent) != 1 || s.sent[0] != "lamp=1" {
		t.Fatalf("sent: %v", s.sent)
	}
	if _, err := d.Interact("nope", widget.Action{Type: "toggle"}); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("want ErrWidgetNotFound, got %v", err)
	}
}

func TestHubReceivesUpdates(t *testing.T) {
	d, _ := newDashboard(t, logstore.NewMemoryStore())
	ch, unsub := d.Hub().Subscribe(8)
	defer unsub()
	_, _ = d.Add("text", "t", widget.Options{Topic: "a"})
	d.Dispatch("a", []byte("hello"))
	_ = d.Remove("t")

	var got []Update
	timeout := time.After(time.Second)
	for len(got) < 3 {
		select {
		case u := <-ch:
			got = append(got, u)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[1].Widget.Display["text"] != "hello" || got[2].Type != "removed" {
		t.Fatalf("updates: %+v", got)
	}
	unsub()
	unsub()
	if d.Hub().Subscribers() != 0 {
		t.Fatalf("unsubscribe should be idempotent and remove the subscriber")
	}
}

func TestSaveLoadReplaysHistory(t *testing.T) {
	store := logstore.NewMemoryStore()
	d, _ := newDashboard(t, store)
	_, _ = d.Add("text", "t", widget.Options{Topic: "a", LoggingEnabled: true})
	_, _ = d.Add("stepper", "st", widget.Options{Topic: "b", Max: ptr(5)})
	d.Dispatch("a", []byte("persisted"))

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh dashboard on the same store, as after a restart.
	d2, _ := newDashboard(t, store)
	if err := d2.Load(&buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	states := d2.List()
	if len(states) != 2 || states[0].ID != "t" || states[1].ID != "st" {
		t.Fatalf("layout order: %+v", states)
	}
	if states[0].Display["text"] != "persisted" || states[0].Records != 1 {
		t.Fatalf("history not replayed: %+v", states[0])
	}
	w, _ := d2.Get("st")
	if *w.Options().Max != 5 {
		t.Fatalf("options lost: %+v", w.Options())
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	d, _ := newDashboard(t, logstore.NewMemoryStore())
	_, _ = d.Add("gauge", "g", widget.Options{Topic: "x"})
	path := filepath.Join(t.TempDir(), "sub", "dashboard.json")
	if err := d.SaveFile(path); err != nil {
		t.Fatalf("save file: %v", err)
	}
	d2, _ := newDashboard(t, logstore.NewMemoryStore())
	if err := d2.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if _, err := d2.Get("g"); err != nil {
		t.Fatalf("widget missing after load: %v", err)
	}
	if err := d2.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("missing layout file should be ignored: %v", err)
	}
}

func ptr(f float64) *float64 { return &f }
