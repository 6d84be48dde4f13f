// Package cli turns command-line arguments into a validated app.Config and
// carries the exit code a failure should produce.
package cli
