package controllers

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/rzbill/myriad/internal/runtime"
	"github.com/rzbill/myriad/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	history *HistoryController
	widgets *WidgetsController
	live    *LiveController
}

// NewControllerRegistry creates a new controller registry. Ingest routes
// (history appends and message dispatch) share one token bucket sized by
// the runtime's HTTP config.
func NewControllerRegistry(rt *runtime.Runtime, logger log.Logger) *ControllerRegistry {
	limiter := newLimiter(rt.Config().HTTP.RateLimitPerSec, rt.Config().HTTP.RateBurst)
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		history: NewHistoryController(rt, logger, limiter),
		widgets: NewWidgetsController(rt, logger, limiter),
		live:    NewLiveController(rt, logger),
	}
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(perSec)
		if burst < 1 {
			burst = 1
		}
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.history.RegisterRoutes(mux)
	r.widgets.RegisterRoutes(mux)
	r.live.RegisterRoutes(mux)
}
