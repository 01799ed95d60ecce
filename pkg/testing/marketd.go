package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketd/marketd/pkg/api"
	"github.com/marketd/marketd/pkg/flows"
	"github.com/marketd/marketd/pkg/market"
	"github.com/marketd/marketd/pkg/seed"
	"github.com/marketd/marketd/pkg/session"
)

// MarketServer is a test helper for running the marketplace API in tests.
// It serves the real handler chain, so behavior matches a deployed server
// exactly; only the listener is test-local.
type MarketServer struct {
	t       testing.TB
	httpSrv *httptest.Server
	baseURL string
	started bool
}

// New creates a new market server for testing. The server is stopped
// automatically when the test completes.
func New(t testing.TB) *MarketServer {
	t.Helper()
	return &MarketServer{t: t}
}

// Start serves the API on an ephemeral port and returns the base URL.
// Calling Start twice returns the same URL.
func (m *MarketServer) Start() string {
	m.t.Helper()
	if m.started {
		return m.baseURL
	}

	runner := seed.NewRunner(nil)
	srv := api.NewServer("127.0.0.1", 0,
		session.NewManager(runner),
		flows.NewValidator(flows.Builtin()),
		runner,
	)

	m.httpSrv = httptest.NewServer(srv.Handler())
	m.baseURL = m.httpSrv.URL
	m.started = true
	m.t.Cleanup(m.Stop)
	return m.baseURL
}

// Stop shuts the server down. Safe to call more than once; tests normally
// rely on the automatic cleanup instead.
func (m *MarketServer) Stop() {
	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
	m.started = false
}

// BaseURL returns the server's base URL. The server must be started.
func (m *MarketServer) BaseURL() string {
	m.t.Helper()
	if !m.started {
		m.t.Fatal("server not started: call Start first")
	}
	return m.baseURL
}

// NewSession creates a fresh isolated marketplace session and returns its id.
func (m *MarketServer) NewSession() string {
	m.t.Helper()

	resp := m.do(http.MethodPost, "/sessions", "", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		m.t.Fatalf("create session: status %d", resp.StatusCode)
	}

	var out struct {
		SessionID string `json:"sessionId"`
	}
	m.decode(resp, &out)
	return out.SessionID
}

// PutListing creates or fully replaces a listing in the session's store.
func (m *MarketServer) PutListing(sessionID, sellerID, sku string, submission market.ListingSubmission) {
	m.t.Helper()

	resp := m.do(http.MethodPut, itemPath(sellerID, sku), sessionID, submission)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.t.Fatalf("put listing %s/%s: status %d: %s", sellerID, sku, resp.StatusCode, body)
	}
}

// GetListing fetches a listing from the session's store, failing the test
// if it does not exist.
func (m *MarketServer) GetListing(sessionID, sellerID, sku string) *market.Listing {
	m.t.Helper()

	resp := m.do(http.MethodGet, itemPath(sellerID, sku), sessionID, nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.t.Fatalf("get listing %s/%s: status %d: %s", sellerID, sku, resp.StatusCode, body)
	}

	var listing market.Listing
	m.decode(resp, &listing)
	return &listing
}

// ListingExists reports whether the session's store has a listing at
// (sellerID, sku). Unlike GetListing a missing listing is not a test failure.
func (m *MarketServer) ListingExists(sessionID, sellerID, sku string) bool {
	m.t.Helper()

	resp := m.do(http.MethodGet, itemPath(sellerID, sku), sessionID, nil)
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK:
		return true
	case http.StatusNotFound:
		return false
	default:
		m.t.Fatalf("get listing %s/%s: status %d", sellerID, sku, resp.StatusCode)
		return false
	}
}

// Validate runs one flow against the session's marketplace and returns the
// result. A FAIL verdict returns normally; only transport or server errors
// fail the test.
func (m *MarketServer) Validate(sessionID, flowID string) *flows.Result {
	m.t.Helper()

	resp := m.do(http.MethodPost, "/test/validate/"+flowID, sessionID, nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.t.Fatalf("validate %s: status %d: %s", flowID, resp.StatusCode, body)
	}

	var result flows.Result
	m.decode(resp, &result)
	return &result
}

// RequireFlow fails the test unless the flow passes, reporting every
// failing check.
func (m *MarketServer) RequireFlow(sessionID, flowID string) {
	m.t.Helper()

	result := m.Validate(sessionID, flowID)
	if result.Passed {
		return
	}
	for _, c := range result.Checks {
		if !c.Passed {
			m.t.Errorf("check %s: expected %v, actual %v", c.Field, c.Expected, c.Actual)
		}
	}
	m.t.Fatalf("flow %s failed: %s", flowID, result.Message)
}

// Reset restores the session's marketplace to the canonical seed state.
func (m *MarketServer) Reset(sessionID string) *seed.Report {
	m.t.Helper()

	resp := m.do(http.MethodPost, "/test/reset", sessionID, nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.t.Fatalf("reset: status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Details *seed.Report `json:"details"`
	}
	m.decode(resp, &out)
	return out.Details
}

// do issues a request against the running server, attaching the session
// header and JSON-encoding body when present.
func (m *MarketServer) do(method, path, sessionID string, body any) *http.Response {
	m.t.Helper()
	if !m.started {
		m.t.Fatal("server not started: call Start first")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			m.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, m.baseURL+path, reader)
	if err != nil {
		m.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(api.HeaderSessionID, sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		m.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (m *MarketServer) decode(resp *http.Response, v any) {
	m.t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		m.t.Fatalf("decode response: %v", err)
	}
}

func itemPath(sellerID, sku string) string {
	return fmt.Sprintf("/listings/2021-08-01/items/%s/%s", sellerID, sku)
}
