// Package wsoverlay renders focus highlights by broadcasting them to
// websocket clients. An overlay window (a browser page, a compositor
// plugin) connects to /highlight and draws whatever rectangle it last
// received; a null rectangle means the highlight is cleared.
package wsoverlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-narrator/core/a11y"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type highlightMessage struct {
	Type string     `json:"type"`
	Rect *a11y.Rect `json:"rect"`
}

type clientMessage struct {
	Type string `json:"type"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Overlays are local processes, usually served from file:// pages.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is an overlay renderer backed by connected websocket clients.
type Server struct {
	mu      sync.Mutex
	clients map[*overlayClient]struct{}
	last    []byte
	closed  bool

	onClose func()
}

type ServerOption func(*Server)

// WithCloseCallback registers callback to run when an overlay client
// reports that the user closed it.
func WithCloseCallback(callback func()) ServerOption {
	return func(s *Server) { s.onClose = callback }
}

func NewServer(opts ...ServerOption) *Server {
	server := &Server{clients: map[*overlayClient]struct{}{}}
	for _, opt := range opts {
		opt(server)
	}

	server.last, _ = json.Marshal(highlightMessage{Type: "highlight"})
	return server
}

// Send broadcasts rect to every connected client. Slow clients only ever
// receive the latest rectangle.
func (s *Server) Send(rect *a11y.Rect) {
	payload, err := json.Marshal(highlightMessage{Type: "highlight", Rect: rect})
	if err != nil {
		logger.Warn("failed to encode highlight", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.last = payload
	for client := range s.clients {
		client.push(payload)
	}
}

// Handler serves the /highlight websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/highlight", s.serveWebSocket)
	return otelhttp.NewHandler(mux, "overlay")
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("overlay server failed: %w", err)
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Close disconnects every client. Later calls to Send are ignored.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := s.clients
	s.clients = map[*overlayClient]struct{}{}
	s.mu.Unlock()

	for client := range clients {
		client.close()
	}
}

// ClientCount reports how many overlays are connected.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("overlay websocket upgrade failed", "error", err)
		return
	}

	client := newOverlayClient(conn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		client.close()
		return
	}
	s.clients[client] = struct{}{}
	client.push(s.last)
	s.mu.Unlock()

	go client.writeLoop()
	s.readLoop(client)

	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
	client.close()
}

func (s *Server) readLoop(client *overlayClient) {
	for {
		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "close" {
			logger.Info("overlay closed by user")
			if s.onClose != nil {
				s.onClose()
			}
			return
		}
	}
}

type overlayClient struct {
	conn *websocket.Conn
	// send holds at most the latest undelivered payload.
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newOverlayClient(conn *websocket.Conn) *overlayClient {
	return &overlayClient{
		conn: conn,
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}
}

func (c *overlayClient) push(payload []byte) {
	for {
		select {
		case c.send <- payload:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func (c *overlayClient) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("overlay write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *overlayClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
