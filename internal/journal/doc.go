// Package journal records every build attempt in a SQLite database.
//
// The journal is append-only: a row is inserted when a build starts and
// updated once when it finishes. Rows are never deleted when a program is,
// so the history of a name survives its removal and re-creation.
//
// # Ordering
//
// Entries carry a seq INTEGER assigned by SQLite. History orders by seq,
// never by timestamps, so entries written within the same clock tick still
// have a stable order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection
//
// Captured packager output is stored zstd-compressed.
package journal
