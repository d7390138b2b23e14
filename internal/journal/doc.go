// Package journal is an append-only SQLite log of update lenses.
//
// Each entry belongs to a stream (one logical record, e.g. "user/42") and
// holds the JSON encoding of a lens: the fields that changed between two
// versions of the record. Replaying a stream applies its entries in order
// onto a base value.
//
// # Ordering
//
// Entries carry a per-stream seq assigned on append. Every query orders by
// seq ASC, id ASC COLLATE BINARY; wall-clock time is never used.
//
// # Integrity
//
// Each entry stores hash = SHA-256(domain || 0x00 || patch). Verify
// recomputes it for every row.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection (one writer)
package journal
