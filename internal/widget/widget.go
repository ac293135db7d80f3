package widget

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/myriad/internal/datalog"
	"github.com/rzbill/myriad/internal/registry"
	"github.com/rzbill/myriad/pkg/log"
)

// ErrUnsupportedAction is returned by Interact for actions a kind does not handle.
var ErrUnsupportedAction = errors.New("widget: unsupported action")

// Publisher sends a payload on a topic. The messaging transport behind it is
// provided by the host.
type Publisher interface {
	Publish(topic, payload string) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(topic, payload string) error

func (f PublisherFunc) Publish(topic, payload string) error { return f(topic, payload) }

// Message is one payload as seen by a Display.
type Message struct {
	Topic string
	// Text is the raw payload.
	Text string
	// Value is Text decoded with the widget's JSON path.
	Value any
	// TS is when the message arrived; for replayed records, when it was logged.
	TS time.Time
}

// Display is the kind-specific display state of a widget.
type Display interface {
	// Update applies a live message.
	Update(m Message)
	// Restore replays stored history, oldest first.
	Restore(history []Message)
	// Snapshot returns the current display state.
	Snapshot(now time.Time) map[string]any
}

// Action is a user interaction with a publishing widget.
type Action struct {
	// Type is one of toggle, set, press, increment, decrement.
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Interactor is implemented by displays of publishing kinds. Interact updates
// the display and returns the payload to publish.
type Interactor interface {
	Interact(a Action) (string, error)
}

// Deps are the collaborators shared by all widgets of a dashboard.
type Deps struct {
	Registry  *registry.Registry
	Publisher Publisher
	Logger    log.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Widget binds a Display to a topic and to its history.
type Widget struct {
	id   string
	kind Kind
	deps Deps
	log  log.Logger

	mu         sync.Mutex
	opts       Options
	display    Display
	filter     expr
	history    *datalog.Logger
	lastUpdate time.Time
}

// New creates a widget of kind and applies opts.
func New(kind Kind, id string, deps Deps, opts Options) (*Widget, error) {
	if deps.Registry == nil {
		return nil, errors.New("widget: registry is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = PublisherFunc(func(string, string) error { return nil })
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	w := &Widget{
		id:   id,
		kind: kind,
		deps: deps,
		log:  deps.Logger.With(log.Component("widget"), log.Widget(id), log.Str("kind", string(kind))),
	}
	if err := w.Configure(opts); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Widget) ID() string { return w.id }
func (w *Widget) Kind() Kind { return w.kind }

// Options returns the applied options.
func (w *Widget) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

// Configure applies opts, rebuilds the display and, when logging is enabled,
// replays the stored history. Disabling logging clears the history.
func (w *Widget) Configure(opts Options) error {
	opts = opts.withDefaults(w.kind)
	if err := opts.validate(w.kind); err != nil {
		return err
	}
	filter, err := compileExpr(opts.LogFilter)
	if err != nil {
		return fmt.Errorf("logFilter: %w", err)
	}
	display, err := newDisplay(w.kind, opts)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts = opts
	w.filter = filter
	w.display = display

	if !opts.LoggingEnabled {
		if w.history != nil {
			w.history.Clear()
			w.history = nil
			w.log.Info("logging disabled; history cleared")
		}
		return nil
	}
	w.history = w.deps.Registry.GetOrCreateWithLimit(w.id, opts.LoggingLimit)
	w.replayLocked()
	return nil
}

// replayLocked feeds the stored history through the display, oldest first.
func (w *Widget) replayLocked() {
	recs := w.history.Logs()
	if len(recs) == 0 {
		return
	}
	msgs := make([]Message, len(recs))
	for i, r := range recs {
		msgs[i] = Message{
			Topic: w.opts.Topic,
			Text:  r.Payload,
			Value: Decode(r.Payload, w.opts.JSONPath),
			TS:    time.UnixMilli(r.TS),
		}
	}
	w.display.Restore(msgs)
	w.lastUpdate = msgs[len(msgs)-1].TS
	w.log.Debug("history replayed", log.Int("records", len(msgs)))
}

// OnMessage handles a payload received on topic: it is recorded when logging
// is enabled and the log filter passes, then shown.
func (w *Widget) OnMessage(topic string, payload []byte) {
	now := w.deps.Clock()
	w.mu.Lock()
	defer w.mu.Unlock()
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	m := Message{Topic: topic, Text: text, Value: Decode(text, w.opts.JSONPath), TS: now}
	w.recordLocked(m, now)
	w.display.Update(m)
	w.lastUpdate = now
}

func (w *Widget) recordLocked(m Message, now time.Time) {
	if w.history == nil || !w.opts.LoggingEnabled {
		return
	}
	if !w.filter.Eval(m, now) {
		return
	}
	w.history.Log(m.Text)
}

// Interact performs a user action on a publishing widget: the display is
// updated, the resulting payload is published on the widget's topic and
// recorded when logging is enabled.
func (w *Widget) Interact(a Action) (string, error) {
	now := w.deps.Clock()
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.display.(Interactor)
	if !ok {
		return "", fmt.Errorf("%w: %s widgets do not publish", ErrUnsupportedAction, w.kind)
	}
	payload, err := in.Interact(a)
	if err != nil {
		return "", err
	}
	w.lastUpdate = now
	if err := w.deps.Publisher.Publish(w.opts.Topic, payload); err != nil {
		w.log.Warn("publish failed", log.Err(err), log.Str("topic", w.opts.Topic))
		return payload, fmt.Errorf("publish: %w", err)
	}
	w.recordLocked(Message{Topic: w.opts.Topic, Text: payload, Value: Decode(payload, ""), TS: now}, now)
	return payload, nil
}

// Usage returns the history size in KB with two decimals, "0.00" when
// logging is off.
func (w *Widget) Usage() string {
	w.mu.Lock()
	h := w.history
	w.mu.Unlock()
	if h == nil {
		return "0.00"
	}
	return h.UsageString()
}

// History returns the widget's logger, or nil when logging is off.
func (w *Widget) History() *datalog.Logger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history
}

// State is a point-in-time view of a widget.
type State struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	Topic          string         `json:"topic"`
	LoggingEnabled bool           `json:"loggingEnabled"`
	Usage          string         `json:"usageKB"`
	Records        int            `json:"records"`
	LastUpdateMs   int64          `json:"lastUpdateMs,omitempty"`
	Display        map[string]any `json:"display"`
}

// State snapshots the widget.
func (w *Widget) State() State {
	now := w.deps.Clock()
	w.mu.Lock()
	defer w.mu.Unlock()
	st := State{
		ID:             w.id,
		Kind:           w.kind,
		Topic:          w.opts.Topic,
		LoggingEnabled: w.opts.LoggingEnabled,
		Usage:          "0.00",
		Display:        w.display.Snapshot(now),
	}
	if w.history != nil {
		st.Usage = w.history.UsageString()
		st.Records = w.history.Len()
	}
	if !w.lastUpdate.IsZero() {
		st.LastUpdateMs = w.lastUpdate.UnixMilli()
	}
	return st
}

// CSV exports the display as CSV for kinds that support it.
func (w *Widget) CSV() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	exp, ok := w.display.(interface{ CSV() ([]byte, error) })
	if !ok {
		return nil, fmt.Errorf("%w: %s widgets have no CSV export", ErrUnsupportedAction, w.kind)
	}
	return exp.CSV()
}

func newDisplay(kind Kind, o Options) (Display, error) {
	switch kind {
	case KindText:
		return &textDisplay{}, nil
	case KindLog:
		return &logDisplay{maxLines: o.MaxLines}, nil
	case KindTimestamp:
		return &timestampDisplay{}, nil
	case KindGauge:
		return &gaugeDisplay{min: *o.Min, max: *o.Max}, nil
	case KindStatus:
		return newStatusDisplay(o)
	case KindSwitch:
		return &switchDisplay{onMsg: o.OnMsg, offMsg: o.OffMsg, label: o.Label}, nil
	case KindButton:
		return &buttonDisplay{onMsg: o.OnMsg, offMsg: o.OffMsg, onText: o.OnText, offText: o.OffText}, nil
	case KindSlider:
		return &sliderDisplay{min: *o.Min, max: *o.Max, step: *o.Step, value: *o.Min}, nil
	case KindStepper:
		return &stepperDisplay{sliderDisplay{min: *o.Min, max: *o.Max, step: *o.Step, value: *o.Min}}, nil
	case KindTable:
		return &tableDisplay{columns: splitList(o.Columns), title: o.Title}, nil
	case KindBarChart:
		labels := splitList(o.Labels)
		return &barChartDisplay{labels: labels, values: make([]float64, len(labels)), title: o.Title}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidOptions, kind)
	}
}
