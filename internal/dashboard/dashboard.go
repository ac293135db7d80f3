// Package dashboard hosts a set of widgets: it routes incoming messages to
// widgets by topic filter, applies configuration and user actions, saves and
// loads the layout, and fans widget updates out through a Hub.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rzbill/myriad/internal/widget"
	"github.com/rzbill/myriad/pkg/log"
)

var (
	ErrWidgetNotFound = errors.New("dashboard: widget not found")
	ErrWidgetExists   = errors.New("dashboard: widget already exists")
	ErrUnknownKind    = errors.New("dashboard: unknown widget kind")
)

// Dashboard is safe for concurrent use.
type Dashboard struct {
	deps widget.Deps
	log  log.Logger
	hub  *Hub

	mu      sync.RWMutex
	widgets map[string]*widget.Widget
	order   []string
}

// New creates an empty dashboard whose widgets share deps.
func New(deps widget.Deps) *Dashboard {
	if deps.Logger == nil {
		deps.Logger = log.NewNopLogger()
	}
	return &Dashboard{
		deps:    deps,
		log:     deps.Logger.WithComponent("dashboard"),
		hub:     NewHub(),
		widgets: make(map[string]*widget.Widget),
	}
}

// Hub returns the update fan-out.
func (d *Dashboard) Hub() *Hub { return d.hub }

// Add creates a widget. An empty id is replaced with a random UUID.
func (d *Dashboard) Add(kind, id string, opts widget.Options) (*widget.Widget, error) {
	k, err := widget.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if id == "" {
		id = uuid.NewString()
	}
	d.mu.Lock()
	if _, ok := d.widgets[id]; ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWidgetExists, id)
	}
	w, err := widget.New(k, id, d.deps, opts)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.widgets[id] = w
	d.order = append(d.order, id)
	d.mu.Unlock()

	d.log.Info("widget added", log.Widget(id), log.Str("kind", kind), log.Str("topic", w.Options().Topic))
	d.notify(w)
	return w, nil
}

// Remove deletes a widget from the dashboard. Its stored history is kept.
func (d *Dashboard) Remove(id string) error {
	d.mu.Lock()
	if _, ok := d.widgets[id]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	delete(d.widgets, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	d.log.Info("widget removed", log.Widget(id))
	d.hub.publish(Update{Type: "removed", ID: id})
	return nil
}

// Get returns the widget with id.
func (d *Dashboard) Get(id string) (*widget.Widget, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.widgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return w, nil
}

// List returns the state of every widget in the order they were added.
func (d *Dashboard) List() []widget.State {
	ws := d.snapshot()
	out := make([]widget.State, len(ws))
	for i, w := range ws {
		out[i] = w.State()
	}
	return out
}

func (d *Dashboard) snapshot() []*widget.Widget {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ws := make([]*widget.Widget, 0, len(d.order))
	for _, id := range d.order {
		ws = append(ws, d.widgets[id])
	}
	return ws
}

// Configure merges patch, a partial JSON options object, into the widget's
// current options and applies the result.
func (d *Dashboard) Configure(id string, patch json.RawMessage) error {
	w, err := d.Get(id)
	if err != nil {
		return err
	}
	merged, err := mergeOptions(w.Options(), patch)
	if err != nil {
		return err
	}
	if err := w.Configure(merged); err != nil {
		return err
	}
	d.log.Info("widget configured", log.Widget(id), log.Bool("logging", merged.LoggingEnabled))
	d.notify(w)
	return nil
}

func mergeOptions(cur widget.Options, patch json.RawMessage) (widget.Options, error) {
	if len(patch) == 0 {
		return cur, nil
	}
	base, err := json.Marshal(cur)
	if err != nil {
		return cur, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return cur, err
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return cur, fmt.Errorf("%w: options patch: %v", widget.ErrInvalidOptions, err)
	}
	for k, v := range overlay {
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return cur, err
	}
	var out widget.Options
	if err := json.Unmarshal(b, &out); err != nil {
		return cur, fmt.Errorf("%w: %v", widget.ErrInvalidOptions, err)
	}
	return out, nil
}

// Dispatch delivers a received message to every widget whose topic filter
// matches and returns how many widgets received it.
func (d *Dashboard) Dispatch(topic string, payload []byte) int {
	n := 0
	for _, w := range d.snapshot() {
		if !TopicMatches(w.Options().Topic, topic) {
			continue
		}
		w.OnMessage(topic, payload)
		d.notify(w)
		n++
	}
	d.log.Debug("message dispatched", log.Str("topic", topic), log.Int("widgets", n), log.Int("bytes", len(payload)))
	return n
}

// Interact performs a user action on a widget and returns what it published.
func (d *Dashboard) Interact(id string, a widget.Action) (string, error) {
	w, err := d.Get(id)
	if err != nil {
		return "", err
	}
	payload, err := w.Interact(a)
	if err != nil {
		return payload, err
	}
	d.notify(w)
	return payload, nil
}

func (d *Dashboard) notify(w *widget.Widget) {
	st := w.State()
	d.hub.publish(Update{Type: "state", ID: st.ID, Widget: &st})
}
