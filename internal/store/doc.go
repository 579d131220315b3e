// Package store provides SQLite-backed durable storage for delivery traces.
//
// A trace is the ordered list of payloads the synchronization timer handed
// to the host during one session. Recording a live session and replaying
// its log should produce identical traces; CompareSessions checks that.
//
// # Critical Patterns
//
// CP-1: Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Session IDs are UUIDv7 and sort by creation, but seq is authoritative
//
// CP-2: Deterministic Query Results
//   - All queries MUST include ORDER BY seq ASC
//   - Ensures identical results across replays
//
// CP-3: Idempotent Writes
//   - UNIQUE(session_id, seq) with ON CONFLICT DO NOTHING
//   - Re-recording a delivery is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
