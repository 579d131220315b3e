package host

import (
	"log/slog"

	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/input"
)

// Interceptor signatures. The first argument is the interceptor's own node.
type (
	InitializeFunc    func(self *dispatch.Node, h *Host)
	UpdateFunc        func(self *dispatch.Node, h *Host, in UpdateInput, status *UpdateStatus)
	ProcessEventsFunc func(self *dispatch.Node, h *Host)
	QueueEventFunc    func(self *dispatch.Node, h *Host, ev input.TouchEvent)
	PostRenderFunc    func(self *dispatch.Node, h *Host)
	ActorFunc         func(self *dispatch.Node, h *Host, parent, child *Actor)
)

// resolve returns n's function as F, skipping nodes whose symbol has a
// different signature.
func resolve[F any](n *dispatch.Node) (*dispatch.Node, F) {
	for ; n != nil; n = n.Next() {
		if fn, ok := dispatch.Func[F](n); ok {
			return n, fn
		}
		slog.Warn("skipping interceptor with mismatched signature",
			"symbol", n.Symbol(), "layer", n.Layer())
	}
	var zero F
	return nil, zero
}

func (h *Host) head(symbol string) *dispatch.Node {
	if h.chains == nil {
		return nil
	}
	return h.chains.Head(symbol)
}

// Initialize runs the CoreInitialize call site.
func (h *Host) Initialize() {
	h.callInitialize(h.head(SymbolInitialize))
}

// NextInitialize forwards from self.
func (h *Host) NextInitialize(self *dispatch.Node) {
	h.callInitialize(self.Next())
}

func (h *Host) callInitialize(n *dispatch.Node) {
	if n, fn := resolve[InitializeFunc](n); n != nil {
		fn(n, h)
		return
	}
	h.baseInitialize()
}

func (h *Host) baseInitialize() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = true
}

// Update runs the CoreUpdate call site.
func (h *Host) Update(in UpdateInput) UpdateStatus {
	var status UpdateStatus
	h.callUpdate(h.head(SymbolUpdate), in, &status)
	return status
}

// NextUpdate forwards from self.
func (h *Host) NextUpdate(self *dispatch.Node, in UpdateInput, status *UpdateStatus) {
	h.callUpdate(self.Next(), in, status)
}

func (h *Host) callUpdate(n *dispatch.Node, in UpdateInput, status *UpdateStatus) {
	if n, fn := resolve[UpdateFunc](n); n != nil {
		fn(n, h, in, status)
		return
	}
	h.baseUpdate(in, status)
}

func (h *Host) baseUpdate(in UpdateInput, status *UpdateStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.updates++
	h.lastInput = in
	status.KeepUpdating = len(h.pending) > 0
}

// ProcessEvents runs the EventProcessorProcessEvents call site.
func (h *Host) ProcessEvents() {
	h.callProcessEvents(h.head(SymbolProcessEvents))
}

// NextProcessEvents forwards from self.
func (h *Host) NextProcessEvents(self *dispatch.Node) {
	h.callProcessEvents(self.Next())
}

func (h *Host) callProcessEvents(n *dispatch.Node) {
	if n, fn := resolve[ProcessEventsFunc](n); n != nil {
		fn(n, h)
		return
	}
	h.baseProcessEvents()
}

func (h *Host) baseProcessEvents() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ev := range h.pending {
		h.processed = append(h.processed, ProcessedEvent{Update: h.updates, Event: ev})
	}
	h.pending = h.pending[:0]
}

// QueueEvent runs the SceneQueueEvent call site: live input entering the
// host.
func (h *Host) QueueEvent(ev input.TouchEvent) {
	h.callQueueEvent(h.head(SymbolQueueEvent), ev)
}

// NextQueueEvent forwards from self.
func (h *Host) NextQueueEvent(self *dispatch.Node, ev input.TouchEvent) {
	h.callQueueEvent(self.Next(), ev)
}

func (h *Host) callQueueEvent(n *dispatch.Node, ev input.TouchEvent) {
	if n, fn := resolve[QueueEventFunc](n); n != nil {
		fn(n, h, ev)
		return
	}
	h.InjectEvent(ev)
}

// PostRender runs the SurfaceFrameBufferPostRender call site.
func (h *Host) PostRender() {
	h.callPostRender(h.head(SymbolPostRender))
}

// NextPostRender forwards from self.
func (h *Host) NextPostRender(self *dispatch.Node) {
	h.callPostRender(self.Next())
}

func (h *Host) callPostRender(n *dispatch.Node) {
	if n, fn := resolve[PostRenderFunc](n); n != nil {
		fn(n, h)
		return
	}
	h.mu.Lock()
	h.renders++
	h.mu.Unlock()
}

// AddActor runs the ActorAdd call site.
func (h *Host) AddActor(parent, child *Actor) {
	h.callActor(SymbolActorAdd, h.head(SymbolActorAdd), parent, child)
}

// RemoveActor runs the ActorRemove call site.
func (h *Host) RemoveActor(parent, child *Actor) {
	h.callActor(SymbolActorRemove, h.head(SymbolActorRemove), parent, child)
}

// NextActor forwards an ActorAdd or ActorRemove call from self.
func (h *Host) NextActor(self *dispatch.Node, parent, child *Actor) {
	h.callActor(self.Symbol(), self.Next(), parent, child)
}

func (h *Host) callActor(symbol string, n *dispatch.Node, parent, child *Actor) {
	if n, fn := resolve[ActorFunc](n); n != nil {
		fn(n, h, parent, child)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if symbol == SymbolActorAdd {
		parent.add(child)
	} else {
		parent.remove(child)
	}
}
