package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/vlayer/internal/input"
)

// DefaultPeriod is the tick period used when none is configured.
const DefaultPeriod = time.Millisecond

// State is the sync timer's drain state.
type State int32

const (
	StateIdle State = iota
	StateArmed
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDraining:
		return "draining"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Injector receives delivered events. The host's event injection entry
// point implements it.
type Injector interface {
	InjectEvent(ev input.TouchEvent)
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ev input.TouchEvent)

// InjectEvent implements Injector.
func (f InjectorFunc) InjectEvent(ev input.TouchEvent) { f(ev) }

// Delivery describes one payload handed to the injector.
type Delivery struct {
	Seq            int64
	Payload        input.Payload
	DeliveredFrame uint32
}

// Observer is notified after each delivery, on the tick goroutine.
type Observer func(Delivery)

// TimerOption configures a SyncTimer.
type TimerOption func(*SyncTimer)

// WithPeriod sets the tick period used by Start.
func WithPeriod(d time.Duration) TimerOption {
	return func(t *SyncTimer) {
		if d > 0 {
			t.period = d
		}
	}
}

// WithObserver adds a delivery observer.
func WithObserver(o Observer) TimerOption {
	return func(t *SyncTimer) {
		t.observers = append(t.observers, o)
	}
}

// WithSeqClock stamps deliveries from clock instead of a private one.
func WithSeqClock(clock *Clock) TimerOption {
	return func(t *SyncTimer) {
		t.seq = clock
	}
}

// WithTracer sets the tracer used for drain spans.
func WithTracer(tracer trace.Tracer) TimerOption {
	return func(t *SyncTimer) {
		t.tracer = tracer
	}
}

// SyncTimer arbitrates between an input producer and the host's update
// loop.
//
// Producers queue payloads at any time. Once per frame the update loop
// arms the timer with RequestSync and waits with WaitForDrain. The next
// tick delivers, in FIFO order, every payload at the front of the queue
// whose frame is not in the future, then returns to idle and wakes the
// waiter. A payload for a later frame stops the drain, so nothing is
// delivered early and nothing overtakes it.
//
// Thread-safety: all methods are safe for concurrent use. Ticks are
// serialized by the armed/draining state machine.
type SyncTimer struct {
	queue  *payloadQueue
	frames FrameSource
	inject Injector

	period    time.Duration
	observers []Observer
	seq       *Clock
	tracer    trace.Tracer

	gated     atomic.Bool
	state     atomic.Int32
	delivered atomic.Int64

	mu      sync.Mutex
	drained chan struct{} // closed when the current drain completes
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSyncTimer creates an idle, stopped timer delivering to inject with
// the frame gate reading frames.
func NewSyncTimer(frames FrameSource, inject Injector, opts ...TimerOption) *SyncTimer {
	t := &SyncTimer{
		queue:  newPayloadQueue(),
		frames: frames,
		inject: inject,
		period: DefaultPeriod,
		seq:    NewClock(),
		tracer: otel.Tracer("github.com/roach88/vlayer/internal/engine"),
	}
	t.gated.Store(true)

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetGated turns the frame gate on or off. With the gate off every queued
// payload is delivered on the next drain, as live input is in record mode.
func (t *SyncTimer) SetGated(gated bool) {
	t.gated.Store(gated)
}

// QueueEvent appends a payload. Returns false if the timer is closed.
func (t *SyncTimer) QueueEvent(p input.Payload) bool {
	return t.queue.Enqueue(p)
}

// RequestSync arms the timer. Returns false if a drain is already armed or
// in progress.
func (t *SyncTimer) RequestSync() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateArmed)) {
		return false
	}
	t.drained = make(chan struct{})
	return true
}

// Tick performs one timer tick and returns the number of payloads
// delivered. An unarmed tick does nothing.
func (t *SyncTimer) Tick(ctx context.Context) int {
	if !t.state.CompareAndSwap(int32(StateArmed), int32(StateDraining)) {
		return 0
	}

	frame := t.frames.Current()
	_, span := t.tracer.Start(ctx, "engine.drain",
		trace.WithAttributes(attribute.Int64("vlayer.frame", int64(frame))))

	gated := t.gated.Load()
	accept := func(p input.Payload) bool {
		return !gated || p.Frame <= frame
	}

	n := 0
	for {
		p, ok := t.queue.DequeueIf(accept)
		if !ok {
			break
		}

		t.inject.InjectEvent(p.Event)
		n++

		d := Delivery{Seq: t.seq.Next(), Payload: p, DeliveredFrame: frame}
		t.delivered.Add(1)
		for _, o := range t.observers {
			o(d)
		}
	}

	span.SetAttributes(
		attribute.Int("vlayer.delivered", n),
		attribute.Int("vlayer.pending", t.queue.Len()),
	)
	span.End()

	if n > 0 {
		slog.Debug("drained input", "frame", frame, "delivered", n, "pending", t.queue.Len())
	}

	t.mu.Lock()
	t.state.Store(int32(StateIdle))
	close(t.drained)
	t.mu.Unlock()

	return n
}

// WaitForDrain blocks until the timer is idle. It returns ErrDrainTimeout
// (as a *RuntimeError) when timeout elapses first, and ctx.Err() when ctx
// is cancelled. A non-positive timeout waits without bound.
func (t *SyncTimer) WaitForDrain(ctx context.Context, timeout time.Duration) error {
	t.mu.Lock()
	if State(t.state.Load()) == StateIdle {
		t.mu.Unlock()
		return nil
	}
	drained := t.drained
	t.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return NewDrainTimeoutError(t.frames.Current(), timeout, t.queue.Len())
	}
}

// Start runs the tick loop on its own goroutine until ctx is cancelled or
// Stop is called.
func (t *SyncTimer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		select {
		case <-t.done:
			// Previous loop exited with its context.
		default:
			return &RuntimeError{Code: ErrCodeAlreadyRunning, Message: "sync timer already started"}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Tick(ctx)
			}
		}
	}()

	slog.Debug("sync timer started", "period", t.period)
	return nil
}

// Running reports whether the tick loop is active.
func (t *SyncTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Stop halts the tick loop and waits for it to exit. The timer may be
// started again.
func (t *SyncTimer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the tick loop and rejects further payloads.
func (t *SyncTimer) Close() {
	t.Stop()
	t.queue.Close()
}

// State returns the current drain state.
func (t *SyncTimer) State() State {
	return State(t.state.Load())
}

// Pending returns the number of queued payloads.
func (t *SyncTimer) Pending() int {
	return t.queue.Len()
}

// Delivered returns the number of payloads delivered so far.
func (t *SyncTimer) Delivered() int64 {
	return t.delivered.Load()
}
