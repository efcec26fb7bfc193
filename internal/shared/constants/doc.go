// Package constants centralizes configuration defaults shared across the CLI.
//
// Probe timeouts, store file names and timestamp layouts live here so cmd/,
// the API server and the scan pipeline agree on them without import cycles.
package constants
