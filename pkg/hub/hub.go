package hub

import (
	"sync"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/gridgames/gridlock/pkg/messages"
)

// Conn is the subset of a real-time connection the hub needs. Implementations
// must serialize their own writes; the hub may push from the actor loop while
// the read loop answers errors on the same connection.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Hub tracks the live connections attached to each session and fans out
// committed state snapshots to all of them. Sends are best-effort: a
// connection that cannot take a write is skipped, never retried, and never
// fails the broadcast for the rest.
type Hub struct {
	lock     sync.RWMutex
	sessions map[string]map[Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[Conn]bool),
	}
}

// Register adds a connection to the session's live set and immediately
// pushes the current snapshot, so new viewers are never left blank.
func (h *Hub) Register(sessionID string, conn Conn, state *gametypes.SessionState) {
	h.lock.Lock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[Conn]bool)
	}
	h.sessions[sessionID][conn] = true
	h.lock.Unlock()

	if state == nil {
		return
	}
	msg, err := messages.NewServerState(state)
	if err != nil {
		log.Error("Failed to build state push for session %s: %v", sessionID, err)
		return
	}
	h.push(sessionID, conn, msg)
}

// Unregister removes a connection from the session's live set. It never
// errors if the connection is already absent.
func (h *Hub) Unregister(sessionID string, conn Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	conns := h.sessions[sessionID]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Broadcast pushes the snapshot to every connection registered for the
// session.
func (h *Hub) Broadcast(sessionID string, state *gametypes.SessionState) {
	msg, err := messages.NewServerState(state)
	if err != nil {
		log.Error("Failed to build state push for session %s: %v", sessionID, err)
		return
	}

	h.lock.RLock()
	conns := make([]Conn, 0, len(h.sessions[sessionID]))
	for conn := range h.sessions[sessionID] {
		conns = append(conns, conn)
	}
	h.lock.RUnlock()

	for _, conn := range conns {
		h.push(sessionID, conn, msg)
	}
}

func (h *Hub) push(sessionID string, conn Conn, msg *messages.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug("Dropping state push for session %s: %v", sessionID, err)
	}
}
