package controllers

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/rzbill/myriad/internal/runtime"
	"github.com/rzbill/myriad/pkg/log"
)

// WidgetsController manages dashboard widgets and message dispatch.
type WidgetsController struct {
	rt      *runtime.Runtime
	log     log.Logger
	limiter *rate.Limiter
}

// NewWidgetsController creates a new widgets controller. A nil limiter
// disables rate limiting of dispatch.
func NewWidgetsController(rt *runtime.Runtime, logger log.Logger, limiter *rate.Limiter) *WidgetsController {
	return &WidgetsController{rt: rt, log: logger.WithComponent("http.widgets"), limiter: limiter}
}

// RegisterRoutes registers widget and message routes with the given mux.
func (c *WidgetsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/widgets", c.handleList)
	mux.HandleFunc("/v1/widgets/create", c.handleCreate)
	mux.HandleFunc("/v1/widgets/configure", c.handleConfigure)
	mux.HandleFunc("/v1/widgets/delete", c.handleDelete)
	mux.HandleFunc("/v1/widgets/state", c.handleState)
	mux.HandleFunc("/v1/widgets/interact", c.handleInteract)
	mux.HandleFunc("/v1/widgets/export.csv", c.handleExportCSV)
	mux.HandleFunc("/v1/messages/dispatch", c.handleDispatch)
}

func (c *WidgetsController) handleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, map[string]any{"widgets": c.rt.Dashboard().List()})
}

// handleCreate adds a widget. An omitted id is generated.
func (c *WidgetsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req createWidgetReq
	if !decodeBody(w, r, &req) {
		return
	}
	wd, err := c.rt.Dashboard().Add(req.Kind, req.ID, req.Options)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, wd.State())
}

// handleConfigure merges options over the widget's current options.
func (c *WidgetsController) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req configureWidgetReq
	if !decodeBody(w, r, &req) {
		return
	}
	if err := c.rt.Dashboard().Configure(req.ID, req.Options); err != nil {
		writeErr(w, err)
		return
	}
	c.writeState(w, req.ID)
}

// handleDelete removes a widget from the dashboard. Its history stays stored.
func (c *WidgetsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req widgetIDReq
	if !decodeBody(w, r, &req) {
		return
	}
	if err := c.rt.Dashboard().Remove(req.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

func (c *WidgetsController) handleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	c.writeState(w, r.URL.Query().Get("id"))
}

func (c *WidgetsController) writeState(w http.ResponseWriter, id string) {
	wd, err := c.rt.Dashboard().Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, wd.State())
}

// handleInteract performs a user action. A failed publish is reported as 502
// and nothing is recorded.
func (c *WidgetsController) handleInteract(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req interactReq
	if !decodeBody(w, r, &req) {
		return
	}
	published, err := c.rt.Dashboard().Interact(req.ID, req.Action)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.log.Warn("interact failed", log.Widget(req.ID), log.Str("action", req.Action.Type), log.Err(err))
		writeError(w, status, err.Error())
		return
	}
	wd, err := c.rt.Dashboard().Get(req.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, interactResp{Published: published, Widget: wd.State()})
}

func (c *WidgetsController) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := r.URL.Query().Get("id")
	wd, err := c.rt.Dashboard().Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	data, err := wd.CSV()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)
	_, _ = w.Write(data)
}

// handleDispatch delivers a message to every widget whose topic matches.
func (c *WidgetsController) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	var req dispatchReq
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	n := c.rt.Dispatch(req.Topic, []byte(req.Payload))
	writeJSONStatus(w, http.StatusAccepted, map[string]int{"delivered": n})
}

