package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HttpTransport implements HistoryTransport over the REST API. It also
// carries the widget and dispatch calls that only exist over HTTP.
type HttpTransport struct {
	base   func() string
	client *http.Client
}

// NewHttpTransport constructs a transport against the base URL returned by base.
func NewHttpTransport(base func() string) *HttpTransport {
	return &HttpTransport{base: base, client: &http.Client{Timeout: 30 * time.Second}}
}

// Do sends body (JSON-encoded when not nil) and decodes a JSON response into
// out. Non-2xx responses become errors carrying the server's message.
func (t *HttpTransport) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(t.base(), "/")+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err = io.Copy(w, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func widgetQuery(widget string) string { return "?widget=" + url.QueryEscape(widget) }

// Logs returns a widget's records oldest first.
func (t *HttpTransport) Logs(ctx context.Context, widget string) (History, error) {
	var h History
	err := t.Do(ctx, http.MethodGet, "/v1/history"+widgetQuery(widget), nil, &h)
	return h, err
}

// Log appends a payload to a widget history.
func (t *HttpTransport) Log(ctx context.Context, widget, payload string) (Summary, error) {
	var h History
	if err := t.Do(ctx, http.MethodPost, "/v1/history/log", map[string]any{"widget": widget, "payload": payload}, &h); err != nil {
		return Summary{}, err
	}
	return summarize(h), nil
}

// Usage reports a widget history's stored size.
func (t *HttpTransport) Usage(ctx context.Context, widget string) (Usage, error) {
	var u Usage
	err := t.Do(ctx, http.MethodGet, "/v1/history/usage"+widgetQuery(widget), nil, &u)
	return u, err
}

// Clear empties a widget history.
func (t *HttpTransport) Clear(ctx context.Context, widget string) error {
	return t.Do(ctx, http.MethodPost, "/v1/history/clear", map[string]any{"widget": widget}, nil)
}

// SetLimit changes a widget history's budget.
func (t *HttpTransport) SetLimit(ctx context.Context, widget string, limitKB float64) (Summary, error) {
	var h History
	if err := t.Do(ctx, http.MethodPost, "/v1/history/limit", map[string]any{"widget": widget, "limitKB": limitKB}, &h); err != nil {
		return Summary{}, err
	}
	return summarize(h), nil
}

// Widgets lists widget ids that have a stored or loaded history.
func (t *HttpTransport) Widgets(ctx context.Context) ([]string, error) {
	var out struct {
		Widgets []string `json:"widgets"`
	}
	err := t.Do(ctx, http.MethodGet, "/v1/history/widgets", nil, &out)
	return out.Widgets, err
}

func summarize(h History) Summary {
	return Summary{Widget: h.Widget, Records: len(h.Records), UsageKB: h.UsageKB, LimitKB: h.LimitKB}
}
