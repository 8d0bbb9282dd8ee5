// Package faults defines the error taxonomy shared by the engine and its
// collaborators.
//
// Key responsibilities:
//   - Sentinel marker errors that classify a failure (validation,
//     permission, conflict, not found, dependency) so the engine can pick
//     the right user-facing reply without inspecting error strings.
//   - The Wrap helper that tags an error with a marker plus component and
//     operation context for diagnostics.
//   - Context helpers that stamp actor ids, update ids, and handler names
//     for logging.
//
// No error produced here is fatal to the process; the engine converts all
// of them into a chat reply and a log entry at the action boundary.
package faults
