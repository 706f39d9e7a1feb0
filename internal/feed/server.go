package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/gmanldn/pokertool/internal/advisor"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	clientBuffer = 16
)

// Server pushes advice updates to connected GUI clients. Clients are
// consumers only; nothing they send changes analytics state.
type Server struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a push server.
func NewServer(logger *log.Logger) *Server {
	return &Server{
		logger: logger.WithPrefix("feed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local GUI collaborator only; no cross-origin clients.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP mux: the WebSocket feed on /feed and a liveness
// probe on /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.serveFeed)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", conn.RemoteAddr())

	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

// readPump discards client input; it exists to notice disconnects and answer
// pings.
func (s *Server) readPump(c *client) {
	defer func() {
		s.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("read error", "err", err)
			}
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Publish pushes one advice update to every connected client. A client whose
// buffer is full is dropped rather than allowed to stall the rest.
func (s *Server) Publish(u advisor.Update) {
	msg, err := json.Marshal(wireUpdate(u))
	if err != nil {
		s.logger.Error("marshal update", "err", err)
		return
	}

	s.mu.Lock()
	var stalled []*client
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	for _, c := range stalled {
		s.logger.Warn("dropping stalled client", "remote", c.conn.RemoteAddr())
		_ = c.conn.Close()
	}
}

// Consume publishes every update from the pipeline until the channel closes
// or ctx is cancelled.
func (s *Server) Consume(ctx context.Context, updates <-chan advisor.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			s.Publish(u)
		}
	}
}
