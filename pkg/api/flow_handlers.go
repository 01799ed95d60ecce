package api

import (
	"net/http"

	"github.com/marketd/marketd/pkg/market"
)

// handleListFlows lists the flow catalog: what each scenario asks the
// agent to do, without revealing the expected values.
// GET /test/flows
func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	all := s.validator.Registry().List()
	resp := FlowListResponse{
		Flows: make([]FlowSummary, 0, len(all)),
		Count: len(all),
	}
	for _, f := range all {
		resp.Flows = append(resp.Flows, FlowSummary{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Instruction: f.Instruction,
			Kind:        string(f.Kind),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetFlow returns one flow in full, expectations included. Meant for
// harness authors, not for the agent under test.
// GET /test/flows/{flowId}
func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("flowId")
	f, ok := s.validator.Registry().Get(flowID)
	if !ok {
		writeError(w, &market.NotFoundError{Resource: "flows", ID: flowID})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleValidateFlow checks one flow against the session's store. A flow
// whose expectations don't hold is a FAIL verdict with per-field checks,
// served with a 200; only unknown ids and broken stores are errors.
// POST /test/validate/{flowId}
func (s *Server) handleValidateFlow(w http.ResponseWriter, r *http.Request, store *market.Store) {
	res, err := s.validator.Validate(store, r.PathValue("flowId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleValidateAll runs every registered flow and summarizes the
// verdicts.
// POST /test/validate/all
func (s *Server) handleValidateAll(w http.ResponseWriter, r *http.Request, store *market.Store) {
	sum, err := s.validator.ValidateAll(store)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleReset clears the session's store and replays the seed. On failure
// the step report still ships so the caller can see how far it got.
// POST /test/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, store *market.Store) {
	report, err := s.runner.Reset(store)
	if err != nil {
		resp := market.ToErrorResponse(err)
		writeJSON(w, resp.StatusCode, ResetResponse{
			Status:  "error",
			Message: resp.Error,
			Details: report,
		})
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{
		Status:  "ok",
		Message: report.Message,
		Details: report,
	})
}

// handleState reports table row counts and listing aggregates for the
// session's store.
// GET /test/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request, store *market.Store) {
	writeJSON(w, http.StatusOK, StateResponse{
		Tables:   store.Counts(),
		Listings: store.Stats(),
	})
}
