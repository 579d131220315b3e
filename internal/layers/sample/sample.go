// Package sample is a minimal layer: it observes every rendered frame and
// forwards the call unchanged.
package sample

import (
	"log/slog"

	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/kv"
	"github.com/roach88/vlayer/internal/layer"
)

const (
	Name    = "sample_layer"
	Version = "0.0.1"

	// KeyRenders counts observed renders (uint32) in the key/value store.
	KeyRenders = "sample.renders"

	// keyFrame is published by the record/replay layer when present.
	keyFrame = "autoreplay.frame"
)

// Layer is one instance of the sample layer.
type Layer struct {
	store *kv.Store
}

// New creates a sample layer.
func New() *Layer {
	return &Layer{}
}

// Module exposes the layer's probe symbols and interceptors.
func (l *Layer) Module() layer.Module {
	return layer.NewStaticModule("builtin:"+Name, layer.Symbols{
		layer.SymbolName:      func() string { return Name },
		layer.SymbolVersion:   func() string { return Version },
		layer.SymbolInit:      l.Init,
		host.SymbolPostRender: l.PostRender,
	})
}

// Init keeps the shared store.
func (l *Layer) Init(env layer.Env) error {
	if env != nil {
		l.store = env.KeyValue()
	}
	return nil
}

// PostRender logs the render when enabled and forwards.
func (l *Layer) PostRender(self *dispatch.Node, h *host.Host) {
	if self.Enabled() {
		renders := l.count()
		frame, ok := uint32(0), false
		if l.store != nil {
			frame, ok = kv.GetValue[uint32](l.store, keyFrame)
		}
		if ok {
			slog.Info("sample layer running", "renders", renders, "frame", frame)
		} else {
			slog.Info("sample layer running", "renders", renders)
		}
	}
	h.NextPostRender(self)
}

func (l *Layer) count() uint32 {
	if l.store == nil {
		return 0
	}
	n, _ := kv.GetValue[uint32](l.store, KeyRenders)
	n++
	_ = kv.SetValue(l.store, KeyRenders, n)
	return n
}
