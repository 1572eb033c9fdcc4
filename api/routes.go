package api

import "net/http"

// RegisterRoutes wires up the API endpoints on the given ServeMux.
func RegisterRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/spin", s.handleSpin)
	mux.HandleFunc("POST /api/land", s.handleLand)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleDeleteSession)
}
