package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local preview only
	},
}

// reloadMessage tells connected viewers to re-fetch the current page.
type reloadMessage struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// connectionSet tracks live viewer connections for reload broadcasts.
type connectionSet struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newConnectionSet() *connectionSet {
	return &connectionSet{conns: make(map[*websocket.Conn]bool)}
}

func (cs *connectionSet) add(conn *websocket.Conn) {
	cs.mu.Lock()
	cs.conns[conn] = true
	cs.mu.Unlock()
}

func (cs *connectionSet) remove(conn *websocket.Conn) {
	cs.mu.Lock()
	delete(cs.conns, conn)
	cs.mu.Unlock()
	conn.Close()
}

// broadcastReload notifies every connected viewer. Dead connections are
// dropped as they fail.
func (cs *connectionSet) broadcastReload(path string) {
	msg := reloadMessage{Type: "reload", Path: path}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	for conn := range cs.conns {
		if err := conn.WriteJSON(msg); err != nil {
			delete(cs.conns, conn)
			conn.Close()
		}
	}
}

func (cs *connectionSet) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.conns)
}

// handleWebSocket upgrades the connection and parks it until the client
// disconnects. The server only pushes; incoming frames are drained and
// discarded.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[serve] websocket upgrade failed: %v", err)
		return
	}

	s.connections.add(conn)
	if s.cfg.Serve.Debug {
		log.Printf("[serve] viewer connected (%d active)", s.connections.len())
	}

	go func() {
		defer s.connections.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
