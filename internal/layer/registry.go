package layer

import (
	"log/slog"
	"sync"

	"github.com/roach88/vlayer/internal/hashing"
)

// UnknownLayer is the layer index recorded for a module that is not a
// registered layer.
const UnknownLayer = ^uint32(0)

// LayerInfo describes one registered layer.
type LayerInfo struct {
	Name       string
	Version    string
	NameHash   uint32
	Module     string
	ModuleHash uint32
	Enabled    bool

	// Priority is the layer's position in the allow-list, or -1 when the
	// layer is not listed or no allow-list is configured.
	Priority int

	// initFailed pins the layer disabled.
	initFailed bool
}

// Info is the public snapshot returned by Enumerate.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithAllowList restricts enabled layers to names. A nil or empty list means
// no allow-list.
func WithAllowList(names []string) Option {
	return func(r *Registry) {
		r.allow = append([]string(nil), names...)
	}
}

// WithEnv sets the environment handed to layer init routines.
func WithEnv(env Env) Option {
	return func(r *Registry) {
		r.env = env
	}
}

// Registry holds the discovered layers.
//
// Thread-safety: all methods are safe for concurrent use. The first call
// runs initialization; concurrent callers block until it completes.
type Registry struct {
	src   Source
	env   Env
	allow []string

	initOnce sync.Once
	initErr  error

	mu      sync.RWMutex
	layers  []LayerInfo
	modules []Module
}

// NewRegistry creates a registry over src. Nothing is enumerated until the
// first query.
func NewRegistry(src Source, opts ...Option) *Registry {
	r := &Registry{src: src}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InitializeOnce enumerates modules and registers layers. Only the first
// call does work; later calls return the first call's error.
func (r *Registry) InitializeOnce() error {
	r.initOnce.Do(func() {
		r.initErr = r.initialize()
	})
	return r.initErr
}

func (r *Registry) initialize() error {
	if r.src == nil {
		return nil
	}

	mods, err := r.src.Modules()
	if err != nil {
		slog.Error("layer enumeration failed", "error", err)
		return err
	}

	layers := make([]LayerInfo, 0, len(mods))
	for _, m := range mods {
		name, version, init, ok := probe(m)
		if !ok {
			continue
		}

		info := LayerInfo{
			Name:       name,
			Version:    version,
			NameHash:   hashing.Name(name),
			Module:     m.Path(),
			ModuleHash: hashing.DJB2(m.Path()),
			Enabled:    true,
			Priority:   -1,
		}

		if init != nil {
			if err := init(r.env); err != nil {
				slog.Error("layer init failed", "layer", name, "module", m.Path(), "error", err)
				info.Enabled = false
				info.initFailed = true
			}
		}

		layers = append(layers, info)
	}

	if len(r.allow) > 0 {
		for i := range layers {
			layers[i].Enabled = false
		}
		for pos, name := range r.allow {
			h := hashing.Name(name)
			for i := range layers {
				if layers[i].NameHash != h {
					continue
				}
				// First listing wins the priority.
				if layers[i].Priority < 0 {
					layers[i].Priority = pos
				}
				layers[i].Enabled = !layers[i].initFailed
			}
		}
	}

	for _, l := range layers {
		slog.Info("layer registered",
			"name", l.Name,
			"version", l.Version,
			"module", l.Module,
			"enabled", l.Enabled,
		)
	}

	r.mu.Lock()
	r.layers = layers
	r.modules = mods
	r.mu.Unlock()

	return nil
}

// find returns the index of the layer named name. Callers hold r.mu.
func (r *Registry) find(name string) int {
	h := hashing.Name(name)
	for i := range r.layers {
		if r.layers[i].NameHash == h {
			return i
		}
	}
	return -1
}

// FindLayer returns the layer named name.
func (r *Registry) FindLayer(name string) (LayerInfo, bool) {
	_ = r.InitializeOnce()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.find(name); i >= 0 {
		return r.layers[i], true
	}
	return LayerInfo{}, false
}

// FindModule returns the layer owned by the module at path.
func (r *Registry) FindModule(path string) (LayerInfo, bool) {
	i, ok := r.IndexOfModule(path)
	if !ok {
		return LayerInfo{}, false
	}
	return r.Layer(int(i))
}

// IndexOfModule returns the registry position of the layer owned by the
// module at path.
func (r *Registry) IndexOfModule(path string) (uint32, bool) {
	_ = r.InitializeOnce()

	h := hashing.DJB2(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.layers {
		if r.layers[i].ModuleHash == h {
			return uint32(i), true
		}
	}
	return UnknownLayer, false
}

func (r *Registry) setEnabled(name string, enabled bool) bool {
	_ = r.InitializeOnce()

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(name)
	if i < 0 {
		return false
	}
	r.layers[i].Enabled = enabled && !r.layers[i].initFailed
	return true
}

// Enable enables the layer named name, reporting whether it exists. A layer
// whose init failed stays disabled.
func (r *Registry) Enable(name string) bool {
	return r.setEnabled(name, true)
}

// Disable disables the layer named name, reporting whether it exists.
func (r *Registry) Disable(name string) bool {
	return r.setEnabled(name, false)
}

func (r *Registry) setAll(enabled bool) {
	_ = r.InitializeOnce()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.layers {
		r.layers[i].Enabled = enabled && !r.layers[i].initFailed
	}
}

// EnableAll enables every layer whose init succeeded.
func (r *Registry) EnableAll() {
	r.setAll(true)
}

// DisableAll disables every layer.
func (r *Registry) DisableAll() {
	r.setAll(false)
}

// IsEnabled reports whether the layer named name exists and is enabled.
func (r *Registry) IsEnabled(name string) bool {
	info, ok := r.FindLayer(name)
	return ok && info.Enabled
}

// IsIndexEnabled reports whether the layer at index exists and is enabled.
func (r *Registry) IsIndexEnabled(index uint32) bool {
	info, ok := r.Layer(int(index))
	return ok && info.Enabled
}

// Enumerate returns a snapshot of every layer in registry order.
func (r *Registry) Enumerate() []Info {
	_ = r.InitializeOnce()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, len(r.layers))
	for i, l := range r.layers {
		out[i] = Info{Name: l.Name, Version: l.Version, Enabled: l.Enabled}
	}
	return out
}

// Layer returns the layer at index.
func (r *Registry) Layer(index int) (LayerInfo, bool) {
	_ = r.InitializeOnce()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.layers) {
		return LayerInfo{}, false
	}
	return r.layers[index], true
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	_ = r.InitializeOnce()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}

// Modules returns every enumerated module, layers or not, in enumeration
// order.
func (r *Registry) Modules() []Module {
	_ = r.InitializeOnce()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// ModulePaths returns the path of every enumerated module.
func (r *Registry) ModulePaths() []string {
	mods := r.Modules()
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Path()
	}
	return out
}
