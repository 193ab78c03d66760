package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/gridgames/gridlock/pkg/hub"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/gridgames/gridlock/pkg/messages"
	"github.com/gridgames/gridlock/pkg/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn serializes writes to a gorilla connection, which does not allow
// concurrent writers. Broadcast pushes and error replies share it.
type wsConn struct {
	lock sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn.WriteJSON(v)
}

// handleWebSocket attaches a live connection to a session: it registers the
// connection for state pushes and reads tagged envelopes, dispatching them
// into the same serialized actor path as the request-driven entry points.
func handleWebSocket(directory *session.Directory, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		actor, err := directory.Resolve(r.Context(), sessionID)
		if err != nil {
			log.Error("failed to resolve session %s: %v", sessionID, err)
			http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		defer conn.Close()
		log.Debug("New WebSocket connection for session %s from %s", sessionID, conn.RemoteAddr().String())

		client := &wsConn{conn: conn}
		state, err := actor.State()
		if err != nil {
			state = nil
		}
		h.Register(sessionID, client, state)
		defer h.Unregister(sessionID, client)

		for {
			var msg messages.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Debug("WebSocket read error for session %s: %v", sessionID, err)
				}
				return
			}
			dispatchMessage(r.Context(), actor, client, &msg)
		}
	}
}

// dispatchMessage routes an inbound envelope to the actor operation with the
// same semantics as the HTTP entry point. Rejections answer only the sending
// connection; successful mutations broadcast through the actor's commit path.
func dispatchMessage(ctx context.Context, actor *session.Actor, client *wsConn, msg *messages.Message) {
	switch msg.Type {
	case messages.MessageTypeClientMove:
		var move messages.ClientMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			writeError(client, "malformed move payload")
			return
		}
		if _, err := actor.Move(ctx, move.Index, move.PlayerID); err != nil {
			writeError(client, err.Error())
		}
	case messages.MessageTypeClientReset:
		if err := actor.Reset(ctx); err != nil {
			writeError(client, err.Error())
		}
	default:
		writeError(client, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func writeError(client *wsConn, text string) {
	msg, err := messages.NewServerError(text)
	if err != nil {
		log.Error("Failed to build error reply: %v", err)
		return
	}
	if err := client.WriteJSON(msg); err != nil {
		log.Debug("Failed to write error reply: %v", err)
	}
}
