package testing

import (
	"testing"

	"github.com/marketd/marketd/pkg/flows"
	"github.com/marketd/marketd/pkg/market"
)

func TestMarketServerRoundTrip(t *testing.T) {
	m := New(t)
	base := m.Start()
	if base == "" {
		t.Fatal("empty base URL")
	}
	if m.Start() != base {
		t.Error("second Start should return the same URL")
	}

	sid := m.NewSession()
	if sid == "" {
		t.Fatal("empty session id")
	}

	// Seeded data is reachable through the helper.
	laptop := m.GetListing(sid, "SELLER001", "LAPTOP-001")
	if laptop.SellerName != "TechGear Electronics" {
		t.Errorf("seller name: got %s", laptop.SellerName)
	}

	// Acting as the agent: create the listing flow_1 expects, then validate.
	m.PutListing(sid, "SELLER001", "TEST-LAPTOP-001", market.ListingSubmission{
		ProductType: "ELECTRONICS",
		Attributes: map[string]any{
			"title":    "Test Gaming Laptop",
			"price":    999.99,
			"quantity": 50,
			"status":   "ACTIVE",
		},
	})
	m.RequireFlow(sid, "flow_1_create_laptop")

	// Reset wipes the agent's work.
	report := m.Reset(sid)
	if report == nil || !report.Success {
		t.Fatalf("reset report: %+v", report)
	}
	if m.ListingExists(sid, "SELLER001", "TEST-LAPTOP-001") {
		t.Error("listing should be gone after reset")
	}
}

func TestMarketServerValidateReturnsFailures(t *testing.T) {
	m := New(t)
	m.Start()
	sid := m.NewSession()

	// Nothing created yet, so the create flow fails — as a verdict, not an
	// error.
	result := m.Validate(sid, "flow_1_create_laptop")
	if result.Passed {
		t.Fatal("flow should fail before the listing is created")
	}
	if result.Status != flows.StatusFail {
		t.Errorf("status: got %s, want %s", result.Status, flows.StatusFail)
	}
}

func TestMarketServerSessionsAreIsolated(t *testing.T) {
	m := New(t)
	m.Start()

	a := m.NewSession()
	b := m.NewSession()
	if a == b {
		t.Fatal("expected distinct sessions")
	}

	m.PutListing(a, "SELLER001", "ISO-HELPER-001", market.ListingSubmission{
		ProductType: "ELECTRONICS",
		Attributes:  map[string]any{"title": "Isolated", "price": 1.0, "quantity": 1},
	})

	if !m.ListingExists(a, "SELLER001", "ISO-HELPER-001") {
		t.Error("listing missing in its own session")
	}
	if m.ListingExists(b, "SELLER001", "ISO-HELPER-001") {
		t.Error("listing leaked across sessions")
	}
}
