package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marketd/marketd/pkg/market"
)

// HeaderSessionID carries the session id on listing, search, and test
// routes.
const HeaderSessionID = "X-Session-ID"

// withMiddleware wraps the mux in the standard chain: access logging
// outermost, then CORS.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	return s.loggingMiddleware(corsMiddleware(h))
}

// loggingMiddleware tags every request with a generated id, echoes it in
// the X-Request-ID response header, and logs method, path, status, and
// duration on completion.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)

		lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lw, r)

		s.log.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.statusCode,
			"duration", time.Since(start),
			"session", r.Header.Get(HeaderSessionID),
		)
	})
}

// corsMiddleware permits cross-origin calls from browser-hosted clients.
// X-Session-ID must be listed or preflights would strip the one header
// every scoped route needs.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderSessionID)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture the status
// code for access logging.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// storeHandler is a handler that runs against one session's store.
type storeHandler func(http.ResponseWriter, *http.Request, *market.Store)

// withStore resolves the X-Session-ID header to the session's store before
// invoking h. A missing header is a validation error; an unknown or
// expired id is a not-found whose hint points at POST /sessions.
func (s *Server) withStore(h storeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(HeaderSessionID)
		if sid == "" {
			writeError(w, &market.ValidationError{Field: HeaderSessionID, Message: "required header is missing"})
			return
		}
		store, err := s.sessions.Resolve(sid)
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r, store)
	}
}
