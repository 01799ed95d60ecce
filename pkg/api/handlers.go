package api

import "net/http"

// handleHealth reports liveness plus the live session count.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Uptime:   s.Uptime(),
		Sessions: s.sessions.Count(),
	})
}
