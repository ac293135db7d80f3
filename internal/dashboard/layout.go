package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rzbill/myriad/internal/widget"
	"github.com/rzbill/myriad/pkg/log"
)

// Layout is the saved form of a dashboard.
type Layout struct {
	Widgets []WidgetSpec `json:"widgets"`
}

// WidgetSpec describes one saved widget.
type WidgetSpec struct {
	ID      string         `json:"id"`
	Kind    string         `json:"kind"`
	Options widget.Options `json:"options"`
}

// Layout returns the current layout.
func (d *Dashboard) Layout() Layout {
	ws := d.snapshot()
	l := Layout{Widgets: make([]WidgetSpec, 0, len(ws))}
	for _, w := range ws {
		l.Widgets = append(l.Widgets, WidgetSpec{ID: w.ID(), Kind: string(w.Kind()), Options: w.Options()})
	}
	return l
}

// Save writes the layout as indented JSON.
func (d *Dashboard) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.Layout())
}

// Load adds every widget of a saved layout, replacing widgets with the same
// id. Widgets with logging enabled replay their stored history.
func (d *Dashboard) Load(r io.Reader) error {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	for _, spec := range l.Widgets {
		if spec.ID != "" {
			if err := d.Remove(spec.ID); err != nil && !errors.Is(err, ErrWidgetNotFound) {
				return err
			}
		}
		if _, err := d.Add(spec.Kind, spec.ID, spec.Options); err != nil {
			return fmt.Errorf("load widget %q: %w", spec.ID, err)
		}
	}
	d.log.Info("layout loaded", log.Int("widgets", len(l.Widgets)))
	return nil
}

// LoadFile loads a layout from path. A missing file is not an error.
func (d *Dashboard) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return d.Load(f)
}

// SaveFile writes the layout to path atomically.
func (d *Dashboard) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := d.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
