// Package cli parses command-line arguments, validates user input, and
// carries process-level concerns like exit codes. It turns flags and
// repeated `-var key=value` pairs into the application's run configuration.
package cli
