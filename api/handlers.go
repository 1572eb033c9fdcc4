package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmmiller26/ai-fun-token-wheel/wheel"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError maps a core error to its status code and writes the error
// envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), ErrorResponse{Error: err.Error()})
}

// statusForError translates the core error taxonomy into HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, wheel.ErrInvalidConfiguration), errors.Is(err, wheel.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, wheel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wheel.ErrInvalidState), errors.Is(err, wheel.ErrSessionTerminated):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		VocabSize: s.model.VocabSize(),
		Sessions:  s.manager.Sessions(),
	})
}

// handleStart handles POST /api/start: create a session and return the
// initial distribution listing.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "prompt is required"})
		return
	}

	primary := req.PrimaryThreshold
	secondary := req.SecondaryThreshold
	if primary == 0 {
		primary = s.thresholds.Primary
	}
	if secondary == 0 {
		secondary = s.thresholds.Secondary
	}

	started, err := s.manager.CreateSession(req.Prompt, primary, secondary)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

// handleSpin handles POST /api/spin: probabilistically sample a token from
// the session's current wheel. The session does not advance; the client
// confirms through /api/select.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	var req SpinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "session_id is required"})
		return
	}

	res, err := s.manager.SampleCurrent(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLand handles POST /api/land: resolve a wheel landing angle to a
// token. Does not advance the session.
func (s *Server) handleLand(w http.ResponseWriter, r *http.Request) {
	var req LandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "session_id is required"})
		return
	}
	if req.Angle == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "angle is required"})
		return
	}

	res, err := s.manager.SelectAngle(req.SessionID, *req.Angle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSelect handles POST /api/select: accept a token and advance the
// session one step.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "session_id is required"})
		return
	}
	if req.TokenID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token_id is required"})
		return
	}

	res, err := s.manager.Advance(req.SessionID, *req.TokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetSession handles GET /api/session/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.GetSession(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSession handles DELETE /api/session/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteSession(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "session deleted"})
}
