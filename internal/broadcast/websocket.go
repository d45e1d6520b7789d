package broadcast

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cyberguard/backend/internal/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// WebSocketObserver streams the traffic feed to dashboard clients. Each
// connection gets its own subscription; a slow client only loses its own
// events.
type WebSocketObserver struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewWebSocketObserver accepts upgrades from allowedOrigin. "*" accepts
// any origin. Requests without an Origin header are always accepted.
func NewWebSocketObserver(hub *Hub, allowedOrigin string) *WebSocketObserver {
	return &WebSocketObserver{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// ServeHTTP upgrades the connection and pumps events until the client
// goes away.
func (o *WebSocketObserver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.Component("stream").WithField("remote", r.RemoteAddr)

	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := o.hub.Subscribe("websocket")
	defer sub.Close()
	log.Info("dashboard connected")

	done := make(chan struct{})
	go readLoop(conn, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Info("dashboard disconnected")
			return
		case evt, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages; it exists to process control frames
// and to notice when the peer closes.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
