package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"menuops/internal/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// feedConn pushes dashboard snapshots to one websocket client
type feedConn struct {
	conn *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// handleDashboardFeed upgrades the request and streams every new snapshot,
// starting with the latest one
func (s *Server) handleDashboardFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	fc := &feedConn{
		conn: conn,
		send: make(chan []byte, 16),
		log:  s.log,
	}
	unsubscribe := s.dashboard.Subscribe(fc.push)
	fc.push(s.dashboard.Latest())

	go fc.writePump()
	go func() {
		fc.readPump()
		unsubscribe()
		fc.close()
	}()
}

func (fc *feedConn) push(snap dashboard.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		fc.log.Error().Err(err).Msg("error marshaling snapshot")
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.closed {
		return
	}
	select {
	case fc.send <- data:
	default:
		fc.log.Warn().Msg("websocket buffer full, dropping snapshot")
	}
}

func (fc *feedConn) close() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if !fc.closed {
		fc.closed = true
		close(fc.send)
	}
}

// readPump only drains control frames; clients do not send commands
func (fc *feedConn) readPump() {
	defer fc.conn.Close()

	fc.conn.SetReadLimit(4096)
	fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	fc.conn.SetPongHandler(func(string) error {
		fc.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := fc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fc.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}
	}
}

func (fc *feedConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		fc.conn.Close()
	}()

	for {
		select {
		case message, ok := <-fc.send:
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				fc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := fc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := fc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
