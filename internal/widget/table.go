package widget

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"sort"
	"time"
)

type tableDisplay struct {
	columns []string
	title   string
	rows    []any
}

// Update replaces the rows with an array payload or appends an object,
// keeping at most tableMaxRows.
func (d *tableDisplay) Update(m Message) {
	switch v := m.Value.(type) {
	case []any:
		d.rows = append([]any(nil), v...)
	case map[string]any:
		d.rows = append(d.rows, v)
	default:
		return
	}
	d.trim()
}

// Restore rebuilds the rows from every record, flattening arrays. Records
// that are not JSON are skipped.
func (d *tableDisplay) Restore(history []Message) {
	var rows []any
	for _, m := range history {
		if !json.Valid([]byte(m.Text)) {
			continue
		}
		v := Decode(m.Text, "")
		if arr, ok := v.([]any); ok {
			rows = append(rows, arr...)
			continue
		}
		rows = append(rows, v)
	}
	d.rows = rows
	d.trim()
}

func (d *tableDisplay) trim() {
	if over := len(d.rows) - tableMaxRows; over > 0 {
		d.rows = append([]any(nil), d.rows[over:]...)
	}
}

// headers returns the configured columns or, when none are set, the keys of
// the first row in sorted order.
func (d *tableDisplay) headers() []string {
	if len(d.columns) > 0 || len(d.rows) == 0 {
		return d.columns
	}
	first, ok := d.rows[0].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *tableDisplay) Snapshot(time.Time) map[string]any {
	return map[string]any{"title": d.title, "columns": d.headers(), "rows": append([]any(nil), d.rows...)}
}

// CSV renders the rows under the table headers. Missing cells are empty.
func (d *tableDisplay) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	headers := d.headers()
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, r := range d.rows {
		obj, _ := r.(map[string]any)
		rec := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := obj[h]; ok {
				rec[i] = Stringify(v)
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type barChartDisplay struct {
	labels []string
	values []float64
	title  string
}

// apply sets the bar of every label present in obj.
func (d *barChartDisplay) apply(obj map[string]any, zeroInvalid bool) {
	for i, l := range d.labels {
		raw, ok := obj[l]
		if !ok {
			continue
		}
		if f, ok := toFloat(raw); ok {
			d.values[i] = f
		} else if zeroInvalid {
			d.values[i] = 0
		}
	}
}

func (d *barChartDisplay) Update(m Message) {
	if obj, ok := m.Value.(map[string]any); ok {
		d.apply(obj, false)
	}
}

// Restore applies the last record only; labels it does not carry keep zero.
func (d *barChartDisplay) Restore(history []Message) {
	m, ok := last(history)
	if !ok {
		return
	}
	if obj, ok := Decode(m.Text, "").(map[string]any); ok {
		d.apply(obj, true)
	}
}

func (d *barChartDisplay) Snapshot(time.Time) map[string]any {
	return map[string]any{"title": d.title, "labels": append([]string(nil), d.labels...), "values": append([]float64(nil), d.values...)}
}
