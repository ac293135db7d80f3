package widget

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type switchDisplay struct {
	onMsg, offMsg, label string
	on                   bool
}

func (d *switchDisplay) Update(m Message) { d.on = Stringify(m.Value) == d.onMsg }

// Restore compares the raw payload of the last record, which is what the
// switch itself published. JSONPath is not applied here, so a switch fed
// JSON by other publishers may restore differently from its live state.
func (d *switchDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.on = m.Text == d.onMsg
	}
}

func (d *switchDisplay) Snapshot(time.Time) map[string]any {
	return map[string]any{"on": d.on, "label": d.label}
}

func (d *switchDisplay) Interact(a Action) (string, error) {
	switch a.Type {
	case "toggle":
		d.on = !d.on
	case "set":
		on, err := strconv.ParseBool(a.Value)
		if err != nil {
			return "", fmt.Errorf("%w: set needs true or false", ErrUnsupportedAction)
		}
		d.on = on
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, a.Type)
	}
	if d.on {
		return d.onMsg, nil
	}
	return d.offMsg, nil
}

type buttonDisplay struct {
	onMsg, offMsg, onText, offText string
	on                             bool
}

func (d *buttonDisplay) Update(m Message) { d.on = Stringify(m.Value) == d.onMsg }

// Restore matches the raw payload of the last record, without JSONPath.
func (d *buttonDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.on = m.Text == d.onMsg
	}
}

func (d *buttonDisplay) Snapshot(time.Time) map[string]any {
	text := d.offText
	if d.on {
		text = d.onText
	}
	return map[string]any{"on": d.on, "text": text}
}

func (d *buttonDisplay) Interact(a Action) (string, error) {
	if a.Type != "press" && a.Type != "toggle" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, a.Type)
	}
	d.on = !d.on
	if d.on {
		return d.onMsg, nil
	}
	return d.offMsg, nil
}

type sliderDisplay struct {
	min, max, step float64
	value          float64
}

// setValue takes a numeric value; non-numeric values leave the display as is.
func (d *sliderDisplay) setValue(v any) {
	if f, ok := toFloat(v); ok {
		d.value = f
	}
}

func (d *sliderDisplay) Update(m Message) { d.setValue(m.Value) }

// Restore takes the raw payload of the last record, which is the value the
// slider published. JSONPath is not applied, so a record holding a JSON
// object from another publisher restores as no value.
func (d *sliderDisplay) Restore(history []Message) {
	if m, ok := last(history); ok {
		d.setValue(m.Text)
	}
}

func (d *sliderDisplay) Snapshot(time.Time) map[string]any {
	return map[string]any{"value": d.value, "min": d.min, "max": d.max, "step": d.step}
}

// snap rounds v to the nearest step from min and clamps it to the range.
func (d *sliderDisplay) snap(v float64) float64 {
	v = d.min + math.Round((v-d.min)/d.step)*d.step
	return clamp(v, d.min, d.max)
}

func (d *sliderDisplay) Interact(a Action) (string, error) {
	if a.Type != "set" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, a.Type)
	}
	f, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return "", fmt.Errorf("%w: set needs a number", ErrUnsupportedAction)
	}
	d.value = d.snap(f)
	return formatNumber(d.value), nil
}

type stepperDisplay struct {
	sliderDisplay
}

func (d *stepperDisplay) Interact(a Action) (string, error) {
	switch a.Type {
	case "increment":
		d.value = clamp(d.value+d.step, d.min, d.max)
	case "decrement":
		d.value = clamp(d.value-d.step, d.min, d.max)
	case "set":
		return d.sliderDisplay.Interact(a)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, a.Type)
	}
	return formatNumber(d.value), nil
}
