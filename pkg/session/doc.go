// Package session tracks isolated marketplace sessions. Each session owns a
// seeded market.Store; requests resolve their session id to that store, so
// concurrent test runs never interfere. Sessions expire after an idle TTL
// when a reaper is running.
package session
