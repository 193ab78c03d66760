package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gridgames/gridlock/pkg/hub"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/gridgames/gridlock/pkg/session"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port      int
	TLS       *TLSConfig
	Directory *session.Directory
	Hub       *hub.Hub
}

// NewAPIServer creates a new http.Server exposing the session boundary:
// create/join/state/move/reset plus the real-time websocket channel.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: newRouter(opts.Directory, opts.Hub),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

func newRouter(directory *session.Directory, h *hub.Hub) http.Handler {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.HandleFunc("/create", handleCreateSession(directory)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/join/{sessionID}", handleJoinSession(directory)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/move/{sessionID}", handleMove(directory)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/reset/{sessionID}", handleReset(directory)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/state/{sessionID}", handleGetState(directory)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/ws/{sessionID}", handleWebSocket(directory, h)).Methods(http.MethodGet)
	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
