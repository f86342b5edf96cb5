// Package store provides a SQLite-backed archive of rebake runs.
//
// The archive is an append-only log with:
//   - Skeletons: content-addressed skeleton snapshots
//   - Animations: content-addressed motion (frame range and poses)
//   - Runs: one row per operator run (object, skeleton, rotation)
//   - Tracks: named strips per object, ordered by position
//
// Rows are never updated or deleted. A Container appends a whole batch of
// tracks in one transaction, so a rejected batch leaves no trace.
//
// # Identity
//
// Animation and skeleton IDs are computed by internal/ir from RFC 8785
// canonical JSON and SHA-256 with domain separation. The stored poses keep
// full float64 precision so that a replayed bake can reproduce the same ID.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
