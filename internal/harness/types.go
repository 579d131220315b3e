package harness

import (
	"github.com/roach88/vlayer/internal/engine"
)

// TraceEvent is one delivery made by the sync timer.
type TraceEvent struct {
	Seq            int64   `json:"seq"`
	TargetFrame    uint32  `json:"target_frame"`
	DeliveredFrame uint32  `json:"delivered_frame"`
	State          string  `json:"state"`
	X              float32 `json:"x"`
	Y              float32 `json:"y"`
	Time           uint32  `json:"time"`
}

// traceEvent flattens a delivery of a single-point touch.
func traceEvent(d engine.Delivery) TraceEvent {
	ev := TraceEvent{
		Seq:            d.Seq,
		TargetFrame:    d.Payload.Frame,
		DeliveredFrame: d.DeliveredFrame,
		Time:           d.Payload.Event.Time,
	}
	if pts := d.Payload.Event.Points; len(pts) > 0 {
		ev.State = pts[0].State.String()
		ev.X = pts[0].ScreenX
		ev.Y = pts[0].ScreenY
	}
	return ev
}

// PhaseResult is the outcome of one host run.
type PhaseResult struct {
	// Session is the trace store session ID, when a store is attached.
	Session string `json:"session,omitempty"`

	// Frames is the number of frames the host completed.
	Frames int `json:"frames"`

	// Quit reports whether a layer asked the host to quit.
	Quit bool `json:"quit"`

	// Deliveries is the timer's delivery trace in seq order.
	Deliveries []TraceEvent `json:"deliveries"`

	// Processed counts events the host processed.
	Processed int `json:"processed"`

	// ThreadViolations counts off-thread actor calls.
	ThreadViolations uint32 `json:"thread_violations"`
}

// countInFrame returns how many deliveries happened in frame.
func (p *PhaseResult) countInFrame(frame uint32) int {
	n := 0
	for _, d := range p.Deliveries {
		if d.DeliveredFrame == frame {
			n++
		}
	}
	return n
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	Pass bool `json:"pass"`

	Record PhaseResult `json:"record"`
	Replay PhaseResult `json:"replay"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// phase selects a phase result by name.
func (r *Result) phase(name string) *PhaseResult {
	if name == PhaseRecord {
		return &r.Record
	}
	return &r.Replay
}
