package controllers

import (
	"encoding/json"

	"github.com/rzbill/myriad/internal/datalog"
	"github.com/rzbill/myriad/internal/widget"
)

// Common request/response types for HTTP controllers

// historyReq names a widget history; Payload and LimitKB are used by log and
// limit respectively.
type historyReq struct {
	Widget  string   `json:"widget"`
	Payload string   `json:"payload"`
	LimitKB *float64 `json:"limitKB"`
}

// historyResp is a widget history with its usage.
type historyResp struct {
	Widget  string           `json:"widget"`
	Records []datalog.Record `json:"records"`
	UsageKB string           `json:"usageKB"`
	LimitKB float64          `json:"limitKB"`
}

// usageResp reports storage used by one widget history.
type usageResp struct {
	Widget  string  `json:"widget"`
	UsageKB string  `json:"usageKB"`
	Bytes   int     `json:"bytes"`
	LimitKB float64 `json:"limitKB"`
}

// createWidgetReq represents a request to add a widget to the dashboard.
type createWidgetReq struct {
	Kind    string         `json:"kind"`
	ID      string         `json:"id"`
	Options widget.Options `json:"options"`
}

// configureWidgetReq carries a partial options document merged over the
// widget's current options.
type configureWidgetReq struct {
	ID      string          `json:"id"`
	Options json.RawMessage `json:"options"`
}

// widgetIDReq names a widget.
type widgetIDReq struct {
	ID string `json:"id"`
}

// interactReq represents a user action on a widget.
type interactReq struct {
	ID     string        `json:"id"`
	Action widget.Action `json:"action"`
}

// interactResp reports what the action published.
type interactResp struct {
	Published string       `json:"published"`
	Widget    widget.State `json:"widget"`
}

// dispatchReq represents an incoming message on a topic.
type dispatchReq struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}
