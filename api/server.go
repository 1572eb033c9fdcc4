// Package api is the HTTP transport over the session manager. It owns wire
// types, routing, and the mapping from core error kinds to status codes;
// all generation logic lives below it.
package api

import (
	"log/slog"
	"net/http"

	"github.com/cmmiller26/ai-fun-token-wheel/config"
	"github.com/cmmiller26/ai-fun-token-wheel/model"
	"github.com/cmmiller26/ai-fun-token-wheel/session"
)

// Server is the HTTP API server for the token wheel.
type Server struct {
	manager    *session.Manager
	model      model.Model
	thresholds config.ThresholdConfig
	addr       string
}

// NewServer creates a new API server. thresholds are the defaults applied
// to start requests that do not carry their own.
func NewServer(mgr *session.Manager, mdl model.Model, thresholds config.ThresholdConfig, addr string) *Server {
	return &Server{
		manager:    mgr,
		model:      mdl,
		thresholds: thresholds,
		addr:       addr,
	}
}

// Handler returns the server's routed handler, wrapped with CORS for the
// browser-based wheel frontend.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, s)
	return withCORS(mux)
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	slog.Info("starting token wheel API server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS allows cross-origin requests from the frontend during
// development.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
