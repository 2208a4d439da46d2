package http

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/tourmap/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// WebSocketHandler upgrades to a live exploration session. The client drives
// the explorer with ClientMessage frames and receives drawing instructions.
//
//	{"type":"map_ready"}
//	{"type":"set_category","category":"food"}
//	{"type":"locate"} -> {"type":"locate","request_id":"...","options":{...}}
//	{"type":"position","request_id":"...","lat":15.5,"lon":73.8}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	var active atomic.Int64

	return func(c *websocket.Conn) {
		defer c.Close()
		log := deps.logger()

		if n := active.Add(1); deps.MaxWSSessions > 0 && n > int64(deps.MaxWSSessions) {
			active.Add(-1)
			_ = c.WriteJSON(ServerMessage{Type: MsgError, Error: "too many sessions"})
			return
		}
		defer active.Add(-1)

		sess, err := NewSession(c, SessionOptions{
			Engine:   deps.Engine,
			Explorer: deps.Explorer,
			Events:   deps.Events,
			Logger:   log,
		})
		if err != nil {
			log.Error("ws session init failed", "error", err)
			_ = c.WriteJSON(ServerMessage{Type: MsgError, Error: "session unavailable"})
			return
		}

		metrics.ActiveSessions.Inc()
		remoteAddr := c.RemoteAddr().String()
		log.Info("ws session opened", "session_id", sess.ID(), "remote", remoteAddr)

		// Keep-alive ping shares the session write lock.
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := sess.ping(c); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		sess.Open()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			sess.Handle(msg)
		}

		close(done)
		sess.Close()
		metrics.ActiveSessions.Dec()
		log.Info("ws session closed", "session_id", sess.ID(), "remote", remoteAddr)
	}
}

func (s *Session) ping(c *websocket.Conn) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return c.WriteMessage(websocket.PingMessage, nil)
}
