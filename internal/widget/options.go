package widget

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions reports options a widget cannot apply.
var ErrInvalidOptions = errors.New("widget: invalid options")

// Kind names a widget type.
type Kind string

const (
	KindText      Kind = "text"
	KindLog       Kind = "log"
	KindSwitch    Kind = "switch"
	KindButton    Kind = "button"
	KindSlider    Kind = "slider"
	KindStepper   Kind = "stepper"
	KindGauge     Kind = "gauge"
	KindStatus    Kind = "status"
	KindTable     Kind = "table"
	KindBarChart  Kind = "barchart"
	KindTimestamp Kind = "timestamp"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindText, KindLog, KindSwitch, KindButton, KindSlider, KindStepper, KindGauge, KindStatus, KindTable, KindBarChart, KindTimestamp}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidOptions, s)
}

const (
	defaultTopic   = "no/topic/defined"
	defaultLimitKB = 50
	// tableMaxRows caps the rows a table keeps.
	tableMaxRows = 500
)

// StatusState maps a message to a label. A state matches when the displayed
// value equals Value exactly, or when the CEL expression When is true.
type StatusState struct {
	Value string `json:"value,omitempty"`
	When  string `json:"when,omitempty"`
	Label string `json:"label"`
}

// Options is the persisted configuration of a widget. Fields not used by a
// kind are ignored.
type Options struct {
	Topic          string  `json:"topic"`
	JSONPath       string  `json:"jsonPath"`
	LoggingEnabled bool    `json:"loggingEnabled"`
	LoggingLimit   float64 `json:"loggingLimit"`
	// LogFilter is a CEL expression; when it evaluates false the message is
	// shown but not recorded.
	LogFilter string `json:"logFilter,omitempty"`

	Label        string        `json:"label,omitempty"`
	Title        string        `json:"title,omitempty"`
	MaxLines     int           `json:"maxLines,omitempty"`
	OnMsg        string        `json:"onMsg,omitempty"`
	OffMsg       string        `json:"offMsg,omitempty"`
	OnText       string        `json:"onText,omitempty"`
	OffText      string        `json:"offText,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	Step         *float64      `json:"step,omitempty"`
	States       []StatusState `json:"states,omitempty"`
	DefaultState string        `json:"defaultState,omitempty"`
	Columns      string        `json:"columns,omitempty"`
	Labels       string        `json:"labels,omitempty"`
}

func floatPtr(f float64) *float64 { return &f }

// withDefaults fills unset fields with the defaults of kind.
func (o Options) withDefaults(kind Kind) Options {
	if strings.TrimSpace(o.Topic) == "" {
		o.Topic = defaultTopic
	}
	if o.LoggingLimit <= 0 {
		o.LoggingLimit = defaultLimitKB
	}
	switch kind {
	case KindLog:
		if o.MaxLines <= 0 {
			o.MaxLines = 50
		}
	case KindSwitch, KindButton:
		if o.OnMsg == "" {
			o.OnMsg = "1"
		}
		if o.OffMsg == "" {
			o.OffMsg = "0"
		}
		if kind == KindSwitch && o.Label == "" {
			o.Label = "Switch"
		}
		if kind == KindButton {
			if o.OnText == "" {
				o.OnText = "ON"
			}
			if o.OffText == "" {
				o.OffText = "OFF"
			}
		}
	case KindSlider, KindStepper, KindGauge:
		if o.Min == nil {
			o.Min = floatPtr(0)
		}
		if o.Max == nil {
			o.Max = floatPtr(100)
		}
		if o.Step == nil && kind != KindGauge {
			o.Step = floatPtr(1)
		}
	case KindBarChart:
		if o.Labels == "" {
			o.Labels = "Label 1,Label 2,Label 3"
		}
	}
	return o
}

// validate checks kind-specific constraints on defaulted options.
func (o Options) validate(kind Kind) error {
	if o.Min != nil && o.Max != nil && *o.Max < *o.Min {
		return fmt.Errorf("%w: max %v below min %v", ErrInvalidOptions, *o.Max, *o.Min)
	}
	if o.Step != nil && *o.Step <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidOptions)
	}
	if kind == KindStatus {
		for i, s := range o.States {
			if s.Value == "" && s.When == "" {
				return fmt.Errorf("%w: state %d needs a value or a when expression", ErrInvalidOptions, i)
			}
		}
	}
	return nil
}

// splitList splits a comma separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
