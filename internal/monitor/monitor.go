// Package monitor is the live diagnostic push server: it broadcasts
// every parameter the façade decodes to connected WebSocket clients, so
// a browser (or another process) can watch the bus in real time. This
// is the "documentation rendering / terminal UI" concern spec.md places
// outside the protocol core; it consumes internal/facade only through
// RunForever's callback interface.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MackanT/NibeTester/internal/registry"
	"github.com/MackanT/NibeTester/internal/store"
)

// Frame is the JSON structure pushed to every connected client.
type Frame struct {
	Index   byte              `json:"index"`
	Name    string            `json:"name,omitempty"`
	Scalar  *registry.Decoded `json:"scalar,omitempty"`
	Fields  []registry.Field  `json:"fields,omitempty"`
	Warning string            `json:"warning,omitempty"`
	Stamp   int64             `json:"stamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Server is a minimal websocket broadcast server. Zero value is not
// usable; construct with New.
type Server struct {
	listenAddr string
	upgrader   websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}
}

// New builds a Server that will listen on listenAddr once Run starts.
func New(listenAddr string) *Server {
	return &Server{
		listenAddr: listenAddr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{Addr: s.listenAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[monitor] listening on %s", s.listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Callback returns a func(store.Entry) suitable for
// facade.Controller.RunForever, closing over a name resolver so
// broadcast frames carry the parameter's declared name.
func (s *Server) Callback(name func(idx byte) string) func(store.Entry) {
	return func(e store.Entry) {
		s.Broadcast(Frame{
			Index:   e.Index,
			Name:    name(e.Index),
			Scalar:  e.Scalar,
			Fields:  e.Fields,
			Warning: e.Warning,
			Stamp:   time.Now().UnixMilli(),
		})
	}
}

// Broadcast sends frame to every connected client, dropping it for any
// client whose send buffer is full rather than blocking the caller.
func (s *Server) Broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] upgrade error: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	n := len(s.clients)
	s.clientsMu.Unlock()
	log.Printf("[monitor] client connected (%d total)", n)

	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			n := len(s.clients)
			s.clientsMu.Unlock()
			close(client.send)
			log.Printf("[monitor] client disconnected (%d total)", n)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
