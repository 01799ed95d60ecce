package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/marketd/marketd/pkg/market"
)

// handleCreateSession provisions a session with a freshly seeded store. The
// body is optional; a requested id that already exists joins that session
// and returns it with a 200 instead of a 201.
// POST /sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, &market.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}

	info, report, err := s.sessions.Create(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if report == nil {
		status = http.StatusOK
	}
	writeJSON(w, status, SessionResponse{
		SessionID: info.ID,
		CreatedAt: info.CreatedAt,
		Seed:      report,
	})
}

// handleListSessions lists every live session.
// GET /sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.sessions.List()
	resp := SessionListResponse{
		Sessions: make([]SessionSummary, 0, len(infos)),
		Count:    len(infos),
	}
	for _, info := range infos {
		resp.Sessions = append(resp.Sessions, SessionSummary{
			SessionID:      info.ID,
			CreatedAt:      info.CreatedAt,
			LastAccessedAt: info.LastUsed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetSession returns one session's metadata without touching its
// idle clock.
// GET /sessions/{sessionId}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.Get(r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionSummary{
		SessionID:      info.ID,
		CreatedAt:      info.CreatedAt,
		LastAccessedAt: info.LastUsed,
	})
}

// handleDestroySession drops a session and its store.
// DELETE /sessions/{sessionId}
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.PathValue("sessionId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
