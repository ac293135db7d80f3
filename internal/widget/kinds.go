package widget

import (
	"fmt"
	"time"
)

// last returns the final message of a replay, which decides current state.
func last(history []Message) (Message, bool) {
	if len(history) == 0 {
		return Message{}, false
	}
	return history[len(history)-1], true
}

type textDisplay struct {
	text string
	set  bool
}

func (d *textDisplay) Update(m Message) {
	d.set = true
	if m.Value == nil {
		d.text = "--"
		return
	}
	d.text = Stringify(m.Value)
}

func (d *textDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.Update(m)
	}
}

func (d *textDisplay) Snapshot(time.Time) map[string]any {
	if !d.set {
		return map[string]any{"text": "--"}
	}
	return map[string]any{"text": d.text}
}

// LogLine is one entry of a log widget.
type LogLine struct {
	TS   int64  `json:"ts"`
	Time string `json:"time"`
	Text string `json:"text"`
}

type logDisplay struct {
	maxLines int
	lines    []LogLine
}

func (d *logDisplay) Update(m Message) {
	d.lines = append(d.lines, LogLine{
		TS:   m.TS.UnixMilli(),
		Time: m.TS.Format("15:04:05"),
		Text: Stringify(m.Value),
	})
	if over := len(d.lines) - d.maxLines; over > 0 {
		d.lines = append([]LogLine(nil), d.lines[over:]...)
	}
}

// Restore appends every record with its own timestamp.
func (d *logDisplay) Restore(history []Message) {
	for _, m := range history {
		d.Update(m)
	}
}

func (d *logDisplay) Snapshot(time.Time) map[string]any {
	return map[string]any{"lines": append([]LogLine(nil), d.lines...), "maxLines": d.maxLines}
}

type timestampDisplay struct {
	last time.Time
}

func (d *timestampDisplay) Update(m Message) { d.last = m.TS }

func (d *timestampDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.Update(m)
	}
}

func (d *timestampDisplay) Snapshot(now time.Time) map[string]any {
	if d.last.IsZero() {
		return map[string]any{"ago": "Never"}
	}
	return map[string]any{"lastMessageMs": d.last.UnixMilli(), "ago": sinceText(now.Sub(d.last))}
}

// sinceText renders an elapsed time the way the timestamp widget shows it.
func sinceText(d time.Duration) string {
	s := int64(d / time.Second)
	switch {
	case s < 2:
		return "Just now"
	case s < 60:
		return fmt.Sprintf("%ds ago", s)
	case s < 3600:
		return fmt.Sprintf("%dm ago", s/60)
	default:
		return fmt.Sprintf("> %dh ago", s/3600)
	}
}

type gaugeDisplay struct {
	min, max float64
	value    float64
}

func (d *gaugeDisplay) Update(m Message) {
	v, _ := toFloat(m.Value)
	d.value = clamp(v, d.min, d.max)
}

func (d *gaugeDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.Update(m)
	}
}

func (d *gaugeDisplay) Snapshot(time.Time) map[string]any {
	pct := 0.0
	if d.max > d.min {
		pct = (d.value - d.min) / (d.max - d.min) * 100
	}
	return map[string]any{"value": d.value, "min": d.min, "max": d.max, "percent": pct}
}

type compiledState struct {
	StatusState
	when expr
}

type statusDisplay struct {
	states       []compiledState
	defaultLabel string
	value        string
	matched      int
	seen         bool
}

func newStatusDisplay(o Options) (*statusDisplay, error) {
	d := &statusDisplay{defaultLabel: o.DefaultState, matched: -1}
	if d.defaultLabel == "" {
		d.defaultLabel = "unknown"
	}
	for i, s := range o.States {
		e, err := compileExpr(s.When)
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		d.states = append(d.states, compiledState{StatusState: s, when: e})
	}
	return d, nil
}

// Update selects the first state whose value equals the displayed value
// exactly, or whose when expression holds.
func (d *statusDisplay) Update(m Message) {
	d.seen = true
	d.value = Stringify(m.Value)
	d.matched = -1
	for i, s := range d.states {
		if s.When != "" {
			if s.when.Eval(m, m.TS) {
				d.matched = i
				return
			}
			continue
		}
		if s.Value == d.value {
			d.matched = i
			return
		}
	}
}

func (d *statusDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.Update(m)
	}
}

func (d *statusDisplay) Snapshot(time.Time) map[string]any {
	label := d.defaultLabel
	if d.matched >= 0 {
		label = d.states[d.matched].Label
	}
	snap := map[string]any{"state": label, "matched": d.matched >= 0}
	if d.seen {
		snap["value"] = d.value
	}
	return snap
}
