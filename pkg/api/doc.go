// Package api is the marketd HTTP front end. One listener serves three
// surfaces: the SP-API-flavored listing endpoints under /listings, the
// session lifecycle under /sessions, and the agent test harness under
// /test.
//
// Every listing, search, and test route is session-scoped: the caller
// passes a session id in the X-Session-ID header and the server resolves
// it to that session's isolated store before the handler runs. Session
// lifecycle and health routes are the only ones served without the header.
//
// Errors travel as the market package's wire form: a JSON body carrying
// the message, a stable machine-readable code, and usually a hint telling
// the agent how to recover.
package api
