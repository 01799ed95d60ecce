// Package cli provides the command-line interface for marketd.
//
// The cli package implements all CLI commands for running and inspecting
// the mock marketplace server:
//   - serve: Launch the marketplace API server in the foreground
//   - flows: List the validation flows the server knows about
//   - config: Inspect and scaffold server configuration (show, init)
//   - version: Show marketd version information
//
// Configuration is layered: built-in defaults, then an optional YAML file
// (--config or MARKETD_CONFIG), then MARKETD_* environment variables, then
// explicit command-line flags. A .env file in the working directory is
// loaded best-effort before any of that.
package cli
