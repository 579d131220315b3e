// Package engine implements the event sync timer that keeps asynchronous
// input aligned with the host's frame clock.
//
// ARCHITECTURE:
//
// Two threads of control meet here: the host's update thread and the tick
// goroutine started by SyncTimer.Start. Input producers (live capture or a
// replay log) queue payloads, each bound to the frame it must be delivered
// in. The update thread arms the timer once per frame and waits; the tick
// goroutine drains and wakes it.
//
// Drain State Machine:
//
//	Idle --RequestSync--> Armed --tick--> Draining --done--> Idle
//
// A tick in any state other than Armed does nothing. RequestSync fails
// unless the timer is Idle, so at most one drain is outstanding.
//
// Frame Gate:
// A drain delivers payloads from the front of the queue while their frame
// is not greater than the current frame. The first payload for a future
// frame stops the drain. Disabling the gate (record mode) delivers
// everything queued.
//
// Waiting:
// WaitForDrain blocks on a channel closed when the drain completes, bounded
// by a timeout and the caller's context. A timeout is reported as a
// RuntimeError with code DRAIN_TIMEOUT.
//
// CRITICAL PATTERNS:
//
// FIFO delivery: payloads are injected in queue order, never reordered.
//
// Logical clock: every delivery is stamped with a seq number from Clock,
// never a wall-clock time. FrameClock counts frames from 1.
package engine
