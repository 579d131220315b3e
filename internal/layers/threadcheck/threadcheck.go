// Package threadcheck verifies that scene graph mutations arrive on the
// thread that initialized the host.
//
// The layer records the OS thread id when the host initializes and
// compares it with the caller's thread on every ActorAdd and ActorRemove.
// Mismatches are logged and counted in the key/value store; the call is
// still forwarded.
package threadcheck

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/kv"
	"github.com/roach88/vlayer/internal/layer"
)

const (
	Name    = "thread_checker_layer"
	Version = "0.0.1"

	// KeyViolations counts calls from the wrong thread (uint32).
	KeyViolations = "threadcheck.violations"
)

// Layer is one instance of the thread checker.
type Layer struct {
	store *kv.Store
	owner atomic.Int64
	tid   func() int
}

// New creates a thread checker using the OS thread id.
func New() *Layer {
	return &Layer{tid: threadID}
}

// Module exposes the layer's probe symbols and interceptors.
func (l *Layer) Module() layer.Module {
	return layer.NewStaticModule("builtin:"+Name, layer.Symbols{
		layer.SymbolName:       func() string { return Name },
		layer.SymbolVersion:    func() string { return Version },
		layer.SymbolInit:       l.Init,
		host.SymbolInitialize:  l.Initialize,
		host.SymbolActorAdd:    l.ActorAdd,
		host.SymbolActorRemove: l.ActorRemove,
	})
}

// Init keeps the shared store.
func (l *Layer) Init(env layer.Env) error {
	if env != nil {
		l.store = env.KeyValue()
	}
	return nil
}

// Initialize records the host thread.
func (l *Layer) Initialize(self *dispatch.Node, h *host.Host) {
	if self.Enabled() {
		tid := l.tid()
		l.owner.Store(int64(tid))
		slog.Debug("thread checker armed", "tid", tid)
	}
	h.NextInitialize(self)
}

// ActorAdd checks the caller's thread and forwards.
func (l *Layer) ActorAdd(self *dispatch.Node, h *host.Host, parent, child *host.Actor) {
	l.check(self, "ActorAdd", child)
	h.NextActor(self, parent, child)
}

// ActorRemove checks the caller's thread and forwards.
func (l *Layer) ActorRemove(self *dispatch.Node, h *host.Host, parent, child *host.Actor) {
	l.check(self, "ActorRemove", child)
	h.NextActor(self, parent, child)
}

func (l *Layer) check(self *dispatch.Node, op string, child *host.Actor) {
	if !self.Enabled() {
		return
	}

	owner := l.owner.Load()
	tid := l.tid()
	slog.Debug("actor call", "op", op, "tid", tid, "actor", child.Name)

	if owner == 0 || tid < 0 || int64(tid) == owner {
		return
	}

	n := l.Violations() + 1
	if l.store != nil {
		_ = kv.SetValue(l.store, KeyViolations, n)
	}
	slog.Warn("actor mutated off the host thread",
		"op", op, "actor", child.Name, "tid", tid, "host_tid", owner)
}

// Violations returns the number of off-thread calls seen.
func (l *Layer) Violations() uint32 {
	if l.store == nil {
		return 0
	}
	n, _ := kv.GetValue[uint32](l.store, KeyViolations)
	return n
}
