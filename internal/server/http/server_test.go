package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	cfgpkg "github.com/rzbill/myriad/internal/config"
	"github.com/rzbill/myriad/internal/dashboard"
	"github.com/rzbill/myriad/internal/runtime"
	logpkg "github.com/rzbill/myriad/pkg/log"
)

func newTestServer(t *testing.T, mutate func(*cfgpkg.Config)) (*runtime.Runtime, *Server) {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text", Quiet: true})
	return rt, New(rt, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthHandler(t *testing.T) {
	_, s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestHistoryLogAndEviction(t *testing.T) {
	_, s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/v1/history/limit", `{"widget":"w1","limitKB":0.05}`)
	if w.Code != http.StatusOK {
		t.Fatalf("limit status: %d %s", w.Code, w.Body.String())
	}
	for i := 0; i < 5; i++ {
		w = do(t, s, http.MethodPost, "/v1/history/log", `{"widget":"w1","payload":"0123456789"}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("log status: %d", w.Code)
		}
	}
	var resp struct {
		Records []struct {
			TS      int64  `json:"ts"`
			Payload string `json:"payload"`
		} `json:"records"`
		UsageKB string `json:"usageKB"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/history?widget=w1", ""), &resp)
	// 51 byte budget; one record with a 13 digit timestamp is 43 bytes.
	if len(resp.Records) != 1 {
		t.Fatalf("expected eviction down to 1 record, got %d", len(resp.Records))
	}
	if resp.UsageKB != "0.04" {
		t.Fatalf("usage: %s", resp.UsageKB)
	}

	var usage struct {
		Bytes int `json:"bytes"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/history/usage?widget=w1", ""), &usage)
	if usage.Bytes != 45 {
		t.Fatalf("stored bytes: %d", usage.Bytes)
	}
}

func TestHistoryClearAndWidgets(t *testing.T) {
	rt, s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/v1/history/log", `{"widget":"b","payload":"x"}`)
	do(t, s, http.MethodPost, "/v1/history/log", `{"widget":"a","payload":"y"}`)
	// persisted but never loaded in this process
	_ = rt.Store().Write("myriad_log_c", `[]`)

	var list struct {
		Widgets []string `json:"widgets"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/history/widgets", ""), &list)
	if strings.Join(list.Widgets, ",") != "a,b,c" {
		t.Fatalf("widgets: %v", list.Widgets)
	}

	if w := do(t, s, http.MethodPost, "/v1/history/clear", `{"widget":"a"}`); w.Code != http.StatusNoContent {
		t.Fatalf("clear status: %d", w.Code)
	}
	if _, ok, _ := rt.Store().Read("myriad_log_a"); ok {
		t.Fatalf("clear should remove the stored key")
	}
}

func TestHistoryValidation(t *testing.T) {
	_, s := newTestServer(t, nil)
	if w := do(t, s, http.MethodGet, "/v1/history", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing widget: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/history/limit", `{"widget":"w"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing limit: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/history/log", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/history/log", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", w.Code)
	}
}

func TestWidgetLifecycle(t *testing.T) {
	_, s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/v1/widgets/create",
		`{"kind":"text","id":"temp","options":{"topic":"home/+/temp","loggingEnabled":true}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/v1/widgets/create", `{"kind":"text","id":"temp"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/widgets/create", `{"kind":"hologram"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: %d", w.Code)
	}

	var disp map[string]int
	decode(t, do(t, s, http.MethodPost, "/v1/messages/dispatch", `{"topic":"home/kitchen/temp","payload":"21.5"}`), &disp)
	if disp["delivered"] != 1 {
		t.Fatalf("dispatch: %v", disp)
	}

	var st struct {
		Records int            `json:"records"`
		Display map[string]any `json:"display"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/widgets/state?id=temp", ""), &st)
	if st.Records != 1 || st.Display["text"] != "21.5" {
		t.Fatalf("state: %+v", st)
	}

	if w := do(t, s, http.MethodPost, "/v1/widgets/configure", `{"id":"temp","options":{"loggingEnabled":false}}`); w.Code != http.StatusOK {
		t.Fatalf("configure: %d %s", w.Code, w.Body.String())
	}
	decode(t, do(t, s, http.MethodGet, "/v1/widgets/state?id=temp", ""), &st)
	if st.Records != 0 {
		t.Fatalf("disabling logging should clear history")
	}

	if w := do(t, s, http.MethodPost, "/v1/widgets/delete", `{"id":"temp"}`); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/widgets/state?id=temp", ""); w.Code != http.StatusNotFound {
		t.Fatalf("state after delete: %d", w.Code)
	}
}

func TestInteractAndCSV(t *testing.T) {
	_, s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/v1/widgets/create", `{"kind":"switch","id":"lamp","options":{"topic":"lamp/set","onMsg":"ON","offMsg":"OFF"}}`)
	var resp struct {
		Published string `json:"published"`
	}
	decode(t, do(t, s, http.MethodPost, "/v1/widgets/interact", `{"id":"lamp","action":{"type":"toggle"}}`), &resp)
	if resp.Published != "ON" {
		t.Fatalf("published: %q", resp.Published)
	}
	if w := do(t, s, http.MethodPost, "/v1/widgets/interact", `{"id":"lamp","action":{"type":"explode"}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unsupported action: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/widgets/export.csv?id=lamp", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("csv on switch: %d", w.Code)
	}

	do(t, s, http.MethodPost, "/v1/widgets/create", `{"kind":"table","id":"t","options":{"topic":"rows"}}`)
	do(t, s, http.MethodPost, "/v1/messages/dispatch", `{"topic":"rows","payload":"{\"a\":1,\"b\":\"x\"}"}`)
	w := do(t, s, http.MethodGet, "/v1/widgets/export.csv?id=t", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("csv: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "a,b\r\n1,x\r\n") {
		t.Fatalf("csv body: %q", w.Body.String())
	}
}

func TestDispatchRateLimited(t *testing.T) {
	_, s := newTestServer(t, func(c *cfgpkg.Config) {
		c.HTTP.RateLimitPerSec = 0.001
		c.HTTP.RateBurst = 2
	})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, s, http.MethodPost, "/v1/messages/dispatch", `{"topic":"a","payload":"1"}`).Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: %v", codes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/v1/history/log", `{"widget":"w","payload":"x"}`)
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"myriad_history_records_logged_total 1", `myriad_http_requests_total{method="POST",path="/v1/history/log",status="202"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestLiveWebsocket(t *testing.T) {
	rt, s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/v1/widgets/create", `{"kind":"text","id":"t","options":{"topic":"a"}}`)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/live", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var u dashboard.Update
	if err := conn.ReadJSON(&u); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if u.Type != "state" || u.ID != "t" {
		t.Fatalf("snapshot: %+v", u)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rt.Dashboard().Hub().Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rt.Dispatch("a", []byte("hello"))
	if err := conn.ReadJSON(&u); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if u.Widget == nil || u.Widget.Display["text"] != "hello" {
		t.Fatalf("update: %+v", u)
	}
}
