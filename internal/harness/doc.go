// Package harness runs record/replay conformance scenarios against the
// simulated host.
//
// A scenario scripts live touches at given frames. Run drives the host
// through the built-in layers twice: once with the record/replay layer in
// record mode, producing a replay log, and once in a fresh runtime
// replaying that log. Both delivery traces are collected and checked
// against the scenario's assertions.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	frames: 8
//	terminate: true
//	format: framed
//	touches:
//	  - frame: 2
//	    state: started
//	    x: 10
//	    y: 20
//	assertions:
//	  - type: frame_count
//	    frame: 2
//	    count: 1
//	  - type: traces_match
//
// # Assertion Types
//
//   - frame_count: Deliveries made in frame equal count (phase defaults to replay)
//   - trace_count: Total deliveries in a phase equal count
//   - traces_match: Record and replay traces deliver the same events in the same frames
//   - quit: Replay quit after exactly count frames
//   - no_thread_violations: The thread checker saw no off-thread actor calls
//
// # Deterministic Testing
//
// The host runs with a stepping clock, touch times default to the frame's
// fixed timestamp, and delivery seqs come from the timer's logical clock.
// Two runs of one scenario produce byte-identical traces, which is what
// golden comparison relies on.
package harness
