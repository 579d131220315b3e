// Package intercept assembles the interception runtime: the layer
// registry, the dispatch chain cache and the shared key/value store, owned
// by one object that is built once and passed by reference.
//
// Runtime implements layer.Env, so layer init routines reach the
// key/value store and the configuration loader through it. Independent
// runtimes share nothing and may coexist in one process.
package intercept

import (
	"log/slog"

	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/kv"
	"github.com/roach88/vlayer/internal/layer"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	allow      []string
	configDirs []string
}

// WithAllowList restricts enabled layers to names.
func WithAllowList(names []string) Option {
	return func(o *options) {
		o.allow = names
	}
}

// WithConfigDirs sets the directories searched for layer configuration
// files, in order.
func WithConfigDirs(dirs ...string) Option {
	return func(o *options) {
		o.configDirs = dirs
	}
}

// Runtime is the interception context.
type Runtime struct {
	Registry *layer.Registry
	Chains   *dispatch.Engine
	Store    *kv.Store

	configDirs []string
}

// New builds a runtime over src. Layers are discovered on first use.
func New(src layer.Source, opts ...Option) *Runtime {
	o := options{configDirs: config.Env{}.SearchPaths()}
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime{
		Store:      kv.New(),
		configDirs: o.configDirs,
	}
	rt.Registry = layer.NewRegistry(src,
		layer.WithAllowList(o.allow),
		layer.WithEnv(rt),
	)
	rt.Chains = dispatch.New(rt.Registry)
	return rt
}

// NewFromEnv builds a runtime from the process environment: builtin
// modules first, then the plugins named in VLAYER_PRELOAD, with the
// VLAYER_INSTANCE_LAYERS allow-list and the DESKTOP_PREFIX config search
// path.
func NewFromEnv(builtin layer.Source, opts ...Option) (*Runtime, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	src := layer.Multi{builtin}
	if len(env.Preload) > 0 {
		slog.Debug("preloading layer plugins", "paths", env.Preload)
		src = append(src, layer.PluginSource{Paths: env.Preload})
	}

	allow, _ := env.AllowList()
	base := []Option{
		WithAllowList(allow),
		WithConfigDirs(env.SearchPaths()...),
	}
	return New(src, append(base, opts...)...), nil
}

// KeyValue implements layer.Env.
func (rt *Runtime) KeyValue() *kv.Store {
	return rt.Store
}

// LoadConfig implements layer.Env.
func (rt *Runtime) LoadConfig(name string) (*config.Config, error) {
	return config.Load(name, rt.configDirs)
}

// ConfigDirs returns the configuration search directories.
func (rt *Runtime) ConfigDirs() []string {
	return append([]string(nil), rt.configDirs...)
}

// Head resolves the first node of symbol's dispatch chain.
func (rt *Runtime) Head(symbol string) *dispatch.Node {
	return rt.Chains.Head(symbol)
}

// Initialize runs layer discovery now instead of on first use.
func (rt *Runtime) Initialize() error {
	return rt.Registry.InitializeOnce()
}
