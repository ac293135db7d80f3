package transports

import "context"

// Record is one stored history entry.
type Record struct {
	TS      int64  `json:"ts"`
	Payload string `json:"payload"`
}

// History is a widget history with its usage.
type History struct {
	Widget  string   `json:"widget"`
	Records []Record `json:"records"`
	UsageKB string   `json:"usageKB"`
	LimitKB float64  `json:"limitKB"`
}

// Summary describes a history after a write.
type Summary struct {
	Widget  string  `json:"widget"`
	Records int     `json:"records"`
	UsageKB string  `json:"usageKB"`
	LimitKB float64 `json:"limitKB"`
}

// Usage reports the stored size of a widget history.
type Usage struct {
	Widget  string  `json:"widget"`
	UsageKB string  `json:"usageKB"`
	Bytes   int     `json:"bytes"`
	LimitKB float64 `json:"limitKB"`
}

// HistoryTransport abstracts the transport used by the history commands.
type HistoryTransport interface {
	Logs(ctx context.Context, widget string) (History, error)
	Log(ctx context.Context, widget, payload string) (Summary, error)
	Usage(ctx context.Context, widget string) (Usage, error)
	Clear(ctx context.Context, widget string) error
	SetLimit(ctx context.Context, widget string, limitKB float64) (Summary, error)
}
