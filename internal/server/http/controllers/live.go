package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/myriad/internal/dashboard"
	"github.com/rzbill/myriad/internal/runtime"
	"github.com/rzbill/myriad/pkg/log"
)

const (
	liveWriteTimeout = 5 * time.Second
	liveReadTimeout  = 60 * time.Second
	livePingPeriod   = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveController streams widget updates over a websocket. A new connection
// first receives the state of every widget, then each update as it happens.
type LiveController struct {
	rt  *runtime.Runtime
	log log.Logger
}

// NewLiveController creates a new live update controller.
func NewLiveController(rt *runtime.Runtime, logger log.Logger) *LiveController {
	return &LiveController{rt: rt, log: logger.WithComponent("http.live")}
}

// RegisterRoutes registers the websocket route with the given mux.
func (c *LiveController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/live", c.handleLive)
}

func (c *LiveController) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	hub := c.rt.Dashboard().Hub()
	updates, unsub := hub.Subscribe(0)
	defer unsub()

	for _, st := range c.rt.Dashboard().List() {
		st := st
		if err := c.write(conn, dashboard.Update{Type: "state", ID: st.ID, Widget: &st}); err != nil {
			return
		}
	}

	closed := make(chan struct{})
	go c.readPump(conn, closed)

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := c.write(conn, u); err != nil {
				c.log.Debug("live write failed", log.Err(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *LiveController) write(conn *websocket.Conn, u dashboard.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(u)
}

// readPump discards client messages and closes done when the peer goes away.
func (c *LiveController) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("live connection closed", log.Err(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	}
}
