package host

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/input"
)

// Interceptable symbols.
const (
	SymbolInitialize    = "CoreInitialize"
	SymbolUpdate        = "CoreUpdate"
	SymbolProcessEvents = "EventProcessorProcessEvents"
	SymbolQueueEvent    = "SceneQueueEvent"
	SymbolPostRender    = "SurfaceFrameBufferPostRender"
	SymbolActorAdd      = "ActorAdd"
	SymbolActorRemove   = "ActorRemove"
)

// Resolver resolves the head of a symbol's dispatch chain.
type Resolver interface {
	Head(symbol string) *dispatch.Node
}

// UpdateInput carries the timing arguments of an update.
type UpdateInput struct {
	ElapsedSeconds   float32
	LastVSyncMillis  uint32
	NextVSyncMillis  uint32
	RenderToFBO      bool
	IsRenderingToFBO bool
}

// UpdateStatus is filled in by an update.
type UpdateStatus struct {
	KeepUpdating      bool
	NeedsNotification bool

	// Quit asks the host to stop before running the frame.
	Quit bool
}

// ProcessedEvent is an event the base event processor consumed.
type ProcessedEvent struct {
	Update uint32
	Event  input.TouchEvent
}

// Option configures a Host.
type Option func(*Host)

// WithClock sets the time source used to fill UpdateInput. The default is
// the wall clock since New.
func WithClock(now func() time.Duration) Option {
	return func(h *Host) {
		h.now = now
	}
}

// WithFrameStart registers a hook run at the start of every frame of Run,
// before Update. Scripts use it to feed live input.
func WithFrameStart(fn func(h *Host, frame uint32)) Option {
	return func(h *Host) {
		h.frameStart = append(h.frameStart, fn)
	}
}

// Host is the simulated application.
//
// Thread-safety: InjectEvent may be called from any goroutine. Every other
// call site belongs to the thread driving Run.
type Host struct {
	chains     Resolver
	now        func() time.Duration
	frameStart []func(h *Host, frame uint32)

	mu          sync.Mutex
	pending     []input.TouchEvent
	processed   []ProcessedEvent
	captures    []string
	initialized bool
	updates     uint32
	renders     uint32
	lastInput   UpdateInput
	root        *Actor
}

// New creates a host dispatching through chains.
func New(chains Resolver, opts ...Option) *Host {
	start := time.Now()
	h := &Host{
		chains: chains,
		now:    func() time.Duration { return time.Since(start) },
		root:   &Actor{Name: "root"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run initializes the host if needed and produces up to frames frames. It
// returns the number of frames completed and whether a layer asked to
// quit.
func (h *Host) Run(ctx context.Context, frames int) (int, bool) {
	// The frame loop owns one OS thread, as a UI main loop does.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h.mu.Lock()
	initialized := h.initialized
	h.mu.Unlock()
	if !initialized {
		h.Initialize()
	}

	last := h.now()
	for i := 0; i < frames; i++ {
		if ctx.Err() != nil {
			return i, false
		}

		frame := uint32(i + 1)
		for _, fn := range h.frameStart {
			fn(h, frame)
		}

		now := h.now()
		in := UpdateInput{
			ElapsedSeconds:  float32((now - last).Seconds()),
			LastVSyncMillis: uint32(last.Milliseconds()),
			NextVSyncMillis: uint32(now.Milliseconds()) + 16,
		}
		last = now

		status := h.Update(in)
		if status.Quit {
			slog.Info("host quit requested", "frame", frame)
			return i, true
		}

		h.ProcessEvents()
		h.PostRender()
	}
	return frames, false
}

// InjectEvent queues ev for the next ProcessEvents.
func (h *Host) InjectEvent(ev input.TouchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, ev.Clone())
}

// PendingEvents calls fn on every queued event in order. Layers use it to
// rewrite events before they are processed.
func (h *Host) PendingEvents(fn func(ev *input.TouchEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.pending {
		fn(&h.pending[i])
	}
}

// Processed returns every event consumed so far.
func (h *Host) Processed() []ProcessedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ProcessedEvent(nil), h.processed...)
}

// Updates returns the number of completed base updates.
func (h *Host) Updates() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updates
}

// Renders returns the number of completed base renders.
func (h *Host) Renders() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renders
}

// LastUpdateInput returns the arguments the base update last received.
func (h *Host) LastUpdateInput() UpdateInput {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastInput
}

// Initialized reports whether the base initialize ran.
func (h *Host) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// CaptureFrame stands in for reading back the frame buffer and encoding
// it to path. The simulated host records the path.
func (h *Host) CaptureFrame(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures = append(h.captures, path)
	return nil
}

// Captures returns every captured frame path in order.
func (h *Host) Captures() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.captures...)
}

// Root returns the root of the actor tree.
func (h *Host) Root() *Actor {
	return h.root
}
