package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/gridgames/gridlock/pkg/session"
)

type moveRequest struct {
	Index    int    `json:"index"`
	PlayerID string `json:"playerId"`
}

// handleCreateSession mints a fresh session id and eagerly initializes its
// actor, so clients can never race an uninitialized session.
func handleCreateSession(directory *session.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		if _, err := directory.Resolve(r.Context(), id); err != nil {
			log.Error("failed to initialize session %s: %v", id, err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]string{"gameId": id})
	}
}

func handleJoinSession(directory *session.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resolveSession(w, r, directory)
		if err != nil {
			return
		}
		playerID, err := actor.Join(r.Context())
		if err != nil {
			if session.IsSessionFull(err) {
				http.Error(w, "Game full", http.StatusForbidden)
				return
			}
			log.Error("failed to join session %s: %v", actor.ID(), err)
			http.Error(w, "Failed to join session", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]string{"playerId": playerID})
	}
}

func handleMove(directory *session.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resolveSession(w, r, directory)
		if err != nil {
			return
		}
		var move moveRequest
		if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		state, err := actor.Move(r.Context(), move.Index, move.PlayerID)
		if err != nil {
			if session.IsInvalidMove(err) {
				log.Debug("rejected move on session %s: %v", actor.ID(), err)
				http.Error(w, "Invalid move", http.StatusBadRequest)
				return
			}
			log.Error("failed to apply move on session %s: %v", actor.ID(), err)
			http.Error(w, "Failed to apply move", http.StatusInternalServerError)
			return
		}
		respondJSON(w, state)
	}
}

func handleReset(directory *session.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resolveSession(w, r, directory)
		if err != nil {
			return
		}
		if err := actor.Reset(r.Context()); err != nil {
			log.Error("failed to reset session %s: %v", actor.ID(), err)
			http.Error(w, "Failed to reset session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Reset"))
	}
}

func handleGetState(directory *session.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := resolveSession(w, r, directory)
		if err != nil {
			return
		}
		state, err := actor.State()
		if err != nil {
			log.Error("failed to read session %s: %v", actor.ID(), err)
			http.Error(w, "Failed to read session", http.StatusInternalServerError)
			return
		}
		respondJSON(w, state)
	}
}

// resolveSession resolves the actor for the request's session id, writing
// the error response itself when resolution fails.
func resolveSession(w http.ResponseWriter, r *http.Request, directory *session.Directory) (*session.Actor, error) {
	sessionID := mux.Vars(r)["sessionID"]
	actor, err := directory.Resolve(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to resolve session %s: %v", sessionID, err)
		http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
		return nil, err
	}
	return actor, nil
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
