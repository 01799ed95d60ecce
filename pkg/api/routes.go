package api

import "net/http"

// registerRoutes attaches every endpoint. Routes registered through
// withStore resolve the X-Session-ID header to the session's store before
// the handler runs; the rest are session-free.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health
	mux.HandleFunc("GET /health", s.handleHealth)

	// Session lifecycle
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{sessionId}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{sessionId}", s.handleDestroySession)

	// Listings, SP-API style
	mux.HandleFunc("GET /listings/2021-08-01/items", s.withStore(s.handleSearchListings))
	mux.HandleFunc("GET /listings/2021-08-01/items/{sellerId}/{sku}", s.withStore(s.handleGetListing))
	mux.HandleFunc("PUT /listings/2021-08-01/items/{sellerId}/{sku}", s.withStore(s.handlePutListing))
	mux.HandleFunc("POST /listings/2021-08-01/items/{sellerId}/{sku}", s.withStore(s.handleCreateListing))
	mux.HandleFunc("PATCH /listings/2021-08-01/items/{sellerId}/{sku}", s.withStore(s.handlePatchListing))
	mux.HandleFunc("DELETE /listings/2021-08-01/items/{sellerId}/{sku}", s.withStore(s.handleDeleteListing))

	// Test harness. Validation is also registered under GET so agents can
	// probe flows from a browser or a bare curl.
	mux.HandleFunc("GET /test/flows", s.handleListFlows)
	mux.HandleFunc("GET /test/flows/{flowId}", s.handleGetFlow)
	mux.HandleFunc("POST /test/validate/all", s.withStore(s.handleValidateAll))
	mux.HandleFunc("GET /test/validate/all", s.withStore(s.handleValidateAll))
	mux.HandleFunc("POST /test/validate/{flowId}", s.withStore(s.handleValidateFlow))
	mux.HandleFunc("GET /test/validate/{flowId}", s.withStore(s.handleValidateFlow))
	mux.HandleFunc("POST /test/reset", s.withStore(s.handleReset))
	mux.HandleFunc("GET /test/state", s.withStore(s.handleState))
}
