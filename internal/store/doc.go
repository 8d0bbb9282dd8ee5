// Package store persists users and certificates in SQLite and exposes the
// conditional writes the moderation workflow depends on.
//
// The Store manages the database connection, schema migrations, aggregate
// queries for statistics, and the two atomic operations that resolve
// cross-actor races: certificate insertion guarded by plate/VIN uniqueness
// constraints, and decision updates guarded by "status is still pending".
// The loser of either race receives ErrPlateExists/ErrVINExists or a zero
// rows-affected result, never corrupted state.
//
// Treat this package as the single source of truth for certificate
// lifecycle semantics; new statuses or columns go through a migration in
// migrations/ with a new version prefix.
package store
