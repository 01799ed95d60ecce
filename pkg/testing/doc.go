// Package testing provides helpers for running marketd inside Go tests.
//
// A MarketServer serves the full marketplace API on an ephemeral port.
// Each test creates an isolated session, points the code under test at
// BaseURL with the session id, and asks the validation flows whether the
// work was carried out:
//
//	m := markettest.New(t)
//	m.Start()
//	sid := m.NewSession()
//	// ... run the agent against m.BaseURL() with sid ...
//	m.RequireFlow(sid, "flow_1_create_laptop")
//
// Import with an alias (conventionally markettest) to avoid shadowing the
// standard library testing package.
package testing
