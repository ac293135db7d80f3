package controllers

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/rzbill/myriad/internal/datalog"
	"github.com/rzbill/myriad/internal/runtime"
	"github.com/rzbill/myriad/pkg/log"
)

// HistoryController exposes per-widget histories directly, without going
// through a dashboard widget.
type HistoryController struct {
	rt      *runtime.Runtime
	log     log.Logger
	limiter *rate.Limiter
}

// NewHistoryController creates a new history controller. A nil limiter
// disables rate limiting of appends.
func NewHistoryController(rt *runtime.Runtime, logger log.Logger, limiter *rate.Limiter) *HistoryController {
	return &HistoryController{rt: rt, log: logger.WithComponent("http.history"), limiter: limiter}
}

// RegisterRoutes registers history routes with the given mux.
func (c *HistoryController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/history", c.handleLogs)
	mux.HandleFunc("/v1/history/log", c.handleLog)
	mux.HandleFunc("/v1/history/usage", c.handleUsage)
	mux.HandleFunc("/v1/history/clear", c.handleClear)
	mux.HandleFunc("/v1/history/limit", c.handleLimit)
	mux.HandleFunc("/v1/history/widgets", c.handleWidgets)
}

func (c *HistoryController) logger(id string) *datalog.Logger {
	return c.rt.Registry().GetOrCreate(id)
}

func (c *HistoryController) snapshot(l *datalog.Logger) historyResp {
	recs := l.Logs()
	if recs == nil {
		recs = []datalog.Record{}
	}
	return historyResp{
		Widget:  l.WidgetID(),
		Records: recs,
		UsageKB: l.UsageString(),
		LimitKB: float64(l.LimitBytes()) / 1024,
	}
}

// handleLogs returns the records of ?widget= oldest first.
func (c *HistoryController) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := r.URL.Query().Get("widget")
	if id == "" {
		writeError(w, http.StatusBadRequest, "widget is required")
		return
	}
	writeJSON(w, c.snapshot(c.logger(id)))
}

// handleLog appends a payload to a widget history.
func (c *HistoryController) handleLog(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	var req historyReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Widget == "" {
		writeError(w, http.StatusBadRequest, "widget is required")
		return
	}
	l := c.logger(req.Widget)
	l.Log(req.Payload)
	writeJSONStatus(w, http.StatusAccepted, c.snapshot(l))
}

// handleUsage reports the stored size of a widget history.
func (c *HistoryController) handleUsage(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := r.URL.Query().Get("widget")
	if id == "" {
		writeError(w, http.StatusBadRequest, "widget is required")
		return
	}
	l := c.logger(id)
	n, err := c.rt.Store().Size(l.Key())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, usageResp{
		Widget:  id,
		UsageKB: l.UsageString(),
		Bytes:   n,
		LimitKB: float64(l.LimitBytes()) / 1024,
	})
}

// handleClear empties a widget history and removes it from the store.
func (c *HistoryController) handleClear(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req historyReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Widget == "" {
		writeError(w, http.StatusBadRequest, "widget is required")
		return
	}
	c.logger(req.Widget).Clear()
	c.log.Info("history cleared", log.Widget(req.Widget))
	writeNoContent(w)
}

// handleLimit changes the budget of a widget history, evicting as needed.
func (c *HistoryController) handleLimit(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req historyReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Widget == "" || req.LimitKB == nil {
		writeError(w, http.StatusBadRequest, "widget and limitKB are required")
		return
	}
	l := c.rt.Registry().GetOrCreateWithLimit(req.Widget, *req.LimitKB)
	writeJSON(w, c.snapshot(l))
}

// handleWidgets lists widget ids with a history, loaded or only persisted.
func (c *HistoryController) handleWidgets(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	seen := make(map[string]struct{})
	for _, id := range c.rt.Registry().IDs() {
		seen[id] = struct{}{}
	}
	prefix := c.rt.Registry().KeyPrefix()
	keys, err := c.rt.Store().Keys(prefix)
	if err != nil {
		writeErr(w, err)
		return
	}
	for _, k := range keys {
		seen[strings.TrimPrefix(k, prefix)] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	writeJSON(w, map[string]any{"widgets": ids})
}
