// Package trace provides SQLite-backed durable storage for recorded calls.
//
// The store is an append-only log of completed interceptions, fed by a
// Recorder listener hanging off a manager's listener chain. It exists for
// post-mortem inspection of test runs (the `standin trace` command), not
// for verification: verification layers read live call history from the
// manager.
//
// Conventions carried by every reader and writer:
//   - All ordering uses the logical seq stamp, never wall-clock time, with
//     ORDER BY seq ASC, id COLLATE BINARY ASC for deterministic reads.
//   - Writes are idempotent: records are content-addressed and inserted
//     with ON CONFLICT DO NOTHING.
//   - Payloads are stored as canonical JSON: sorted keys, NFC-normalized
//     strings, no HTML escaping.
//
// Database configuration: WAL mode for concurrent reads, synchronous=NORMAL,
// busy_timeout=5000, single writer connection.
package trace
