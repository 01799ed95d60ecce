// Package id generates and validates the opaque session identifiers
// handed out by the session manager.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// SessionPrefix is the fixed prefix of every session identifier.
const SessionPrefix = "session_"

// sessionHexLen is the length of the random hex suffix of a session id.
const sessionHexLen = 16

// Short generates a short random hex ID (16 characters).
// Suitable for user-facing IDs where brevity matters.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Session generates a session identifier: the fixed "session_" prefix
// followed by a 16-character lowercase hex suffix.
func Session() string {
	return SessionPrefix + Short()
}

// IsSessionID reports whether s matches the session id grammar exactly:
// "session_" followed by 16 lowercase hex characters, nothing else.
func IsSessionID(s string) bool {
	if len(s) != len(SessionPrefix)+sessionHexLen {
		return false
	}
	if !strings.HasPrefix(s, SessionPrefix) {
		return false
	}
	for i := len(SessionPrefix); i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
