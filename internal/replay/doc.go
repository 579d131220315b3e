// Package replay records live touch input to a binary log and loads a log
// back into the sync timer for frame-exact replay.
//
// The Recorder appends one record per captured event, opening its file on
// the first capture and flushing after every write so a crashed session
// still leaves a readable log. Write failures never reach the host: they
// are logged and kept for Err.
//
// The Replayer reads a whole log, decodes every record, and only then
// queues the payloads in file order. A log that fails to decode queues
// nothing.
//
// Determinism: payloads are queued in file order with non-decreasing
// frames, the sync timer delivers them FIFO and never before their frame,
// and the host runs with a fixed frame duration. Together these reproduce
// the recorded input relative to frame boundaries.
package replay
