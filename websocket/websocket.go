package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/cameroncuttingedge/place/auth"
	"github.com/cameroncuttingedge/place/events"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Allow connections from any origin
}

// connSink writes draw messages to a gorilla connection.
type connSink struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func (c *connSink) Send(msg events.Message) error {
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(msg)
}

func (c *connSink) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}

// Handler serves the live draw stream. The token travels in a cookie
// because browsers cannot set headers on a websocket handshake.
type Handler struct {
	Hub          *Hub
	Verifier     auth.Verifier
	CookieName   string
	WriteTimeout time.Duration
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade error")
		return
	}

	user, err := h.Verifier.Verify(auth.CookieToken(r, h.CookieName))
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejecting websocket without a valid token")
		closeWith(conn, websocket.ClosePolicyViolation, "invalid token")
		return
	}

	sink := &connSink{conn: conn, writeTimeout: h.WriteTimeout}
	sub, err := h.Hub.Subscribe(user, sink)
	if err != nil {
		closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer h.Hub.Unsubscribe(sub)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("subscriber", sub.ID).Msg("WebSocket closed unexpectedly")
			}
			return
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()
}
