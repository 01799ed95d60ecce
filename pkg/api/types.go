package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketd/marketd/pkg/market"
	"github.com/marketd/marketd/pkg/seed"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   int    `json:"uptime"`
	Sessions int    `json:"sessions"`
}

// CreateSessionRequest is the optional body of POST /sessions. A requested
// id joins that session if it already exists.
type CreateSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionResponse is the body of POST /sessions: the new session plus the
// report of the seed run that populated it.
type SessionResponse struct {
	SessionID string       `json:"sessionId"`
	CreatedAt time.Time    `json:"createdAt"`
	Seed      *seed.Report `json:"seed,omitempty"`
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	SessionID      string    `json:"sessionId"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// SessionListResponse is the body of GET /sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

// SubmissionResponse acknowledges a listing write. The shape mirrors the
// SP-API submission envelope: agents read status and issues, not the
// listing itself.
type SubmissionResponse struct {
	SKU          string         `json:"sku"`
	Status       string         `json:"status"`
	SubmissionID string         `json:"submissionId"`
	Issues       []market.Issue `json:"issues"`
}

// newSubmissionResponse builds an ACCEPTED envelope with a fresh
// submission id. Issues always marshals as an array, never null.
func newSubmissionResponse(sku string, issues []market.Issue) SubmissionResponse {
	if issues == nil {
		issues = []market.Issue{}
	}
	return SubmissionResponse{
		SKU:          sku,
		Status:       "ACCEPTED",
		SubmissionID: uuid.New().String(),
		Issues:       issues,
	}
}

// PatchRequest is the body of PATCH on a listing. ProductType is accepted
// for SP-API shape compatibility but not applied; patches address the
// attributes tree and the status field.
type PatchRequest struct {
	ProductType string           `json:"productType,omitempty"`
	Patches     []market.PatchOp `json:"patches"`
}

// SearchResponse is the body of the listing search endpoint.
type SearchResponse struct {
	NumberOfResults int               `json:"numberOfResults"`
	Items           []*market.Listing `json:"items"`
	Pagination      *Pagination       `json:"pagination,omitempty"`
}

// Pagination carries the cursor for the next page, when there is one.
type Pagination struct {
	NextToken string `json:"nextToken,omitempty"`
}

// FlowSummary is one row of the flow catalog. Instruction is the prompt
// handed to the agent under test.
type FlowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	Kind        string `json:"kind"`
}

// FlowListResponse is the body of GET /test/flows.
type FlowListResponse struct {
	Flows []FlowSummary `json:"flows"`
	Count int           `json:"count"`
}

// ResetResponse is the body of POST /test/reset. Details is the per-step
// seed report and is present on failure too, naming the failing step.
type ResetResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Details *seed.Report `json:"details"`
}

// StateResponse is the body of GET /test/state: raw table row counts plus
// the listing aggregates.
type StateResponse struct {
	Tables   map[string]int     `json:"tables"`
	Listings *market.StoreStats `json:"listings"`
}
