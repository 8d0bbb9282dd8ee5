// Package logging builds slog loggers for the daemon and CLI.
//
// Supported formats are "json" (machine readable, UTC RFC3339 timestamps)
// and "console" (compact key=value text). Output fans out to stdout plus a
// log file under the configured log directory. Attribute helpers keep the
// common keys (actor, certificate, update) consistent across handlers.
package logging
