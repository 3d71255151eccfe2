// Package store provides a SQLite-backed catalog of expression trees and
// the trace runs recorded against them.
//
// The catalog holds:
//   - Trees: named expression trees, keyed by fingerprint and stored as
//     canonical IR JSON
//   - Trace runs: the trace text and statistics of one traversal of a tree
//
// # Ordering
//
// Every record is stamped with a seq INTEGER from a single logical clock
// shared by both tables. Listings are ordered by seq ASC, id ASC COLLATE
// BINARY, never by wall time.
//
// # Identity
//
// A tree's ID is ir.Fingerprint of its node, so saving the same tree twice
// is a no-op. Trace run IDs are UUIDv7 strings from an IDGenerator.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
