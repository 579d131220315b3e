package dispatch

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/roach88/vlayer/internal/layer"
)

// Registry is the view of the layer registry a chain build needs.
type Registry interface {
	Modules() []layer.Module
	IndexOfModule(path string) (uint32, bool)
	IsIndexEnabled(index uint32) bool
}

// Chain is a snapshot of one symbol's dispatch chain.
type Chain struct {
	Symbol string
	Funcs  []any
	Layers []uint32
}

// Node is one implementation in a chain.
type Node struct {
	engine *Engine
	chain  *chain
	index  int
	fn     any
	layer  uint32
}

type chain struct {
	symbol string
	nodes  []*Node
}

// Engine caches dispatch chains per symbol.
type Engine struct {
	reg Registry

	mu     sync.Mutex
	chains map[string]*chain
	order  []string
}

// New returns an engine resolving symbols against reg.
func New(reg Registry) *Engine {
	return &Engine{
		reg:    reg,
		chains: make(map[string]*chain),
	}
}

// lookup returns the cached chain for symbol, building it on first use.
func (e *Engine) lookup(symbol string) *chain {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.chains[symbol]; ok {
		return c
	}

	c := e.build(symbol)
	e.chains[symbol] = c
	e.order = append(e.order, symbol)
	return c
}

// build resolves symbol in every module, in enumeration order. Callers
// hold e.mu.
func (e *Engine) build(symbol string) *chain {
	c := &chain{symbol: symbol}

	for _, m := range e.reg.Modules() {
		fn, ok := m.Lookup(symbol)
		if !ok {
			continue
		}

		idx, ok := e.reg.IndexOfModule(m.Path())
		if !ok {
			idx = layer.UnknownLayer
		}

		c.nodes = append(c.nodes, &Node{
			engine: e,
			chain:  c,
			index:  len(c.nodes),
			fn:     fn,
			layer:  idx,
		})
	}

	slog.Debug("dispatch chain built", "symbol", symbol, "length", len(c.nodes))
	return c
}

// Head returns the first node of symbol's chain, or nil when no module
// implements it.
func (e *Engine) Head(symbol string) *Node {
	c := e.lookup(symbol)
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[0]
}

// ResolveNext returns the node after caller in symbol's chain. A nil caller
// resolves the head. The result is nil when the chain is exhausted or
// caller does not belong to this engine's chain for symbol.
func (e *Engine) ResolveNext(symbol string, caller *Node) *Node {
	if caller == nil {
		return e.Head(symbol)
	}

	c := e.lookup(symbol)
	if caller.chain != c {
		return nil
	}

	next := caller.index + 1
	if next >= len(c.nodes) {
		return nil
	}
	return c.nodes[next]
}

// Chains returns a snapshot of every built chain in build order.
func (e *Engine) Chains() []Chain {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Chain, 0, len(e.order))
	for _, symbol := range e.order {
		c := e.chains[symbol]
		snap := Chain{
			Symbol: symbol,
			Funcs:  make([]any, len(c.nodes)),
			Layers: make([]uint32, len(c.nodes)),
		}
		for i, n := range c.nodes {
			snap.Funcs[i] = n.fn
			snap.Layers[i] = n.layer
		}
		out = append(out, snap)
	}
	return out
}

// Next returns the node after n, or nil when the chain is exhausted.
func (n *Node) Next() *Node {
	if n == nil {
		return nil
	}
	return n.engine.ResolveNext(n.chain.symbol, n)
}

// Enabled reports whether the layer owning n is enabled. Nodes from
// modules that are not registered layers are never enabled.
func (n *Node) Enabled() bool {
	if n == nil || n.layer == layer.UnknownLayer {
		return false
	}
	return n.engine.reg.IsIndexEnabled(n.layer)
}

// Symbol returns the intercepted symbol.
func (n *Node) Symbol() string {
	return n.chain.symbol
}

// Layer returns the registry index of the owning layer, or
// layer.UnknownLayer.
func (n *Node) Layer() uint32 {
	return n.layer
}

// Func returns the node's function as the module exported it.
func (n *Node) Func() any {
	return n.fn
}

// Func returns n's function as F. Functions exported with an identical
// unnamed signature are converted; any other mismatch returns false.
func Func[F any](n *Node) (F, bool) {
	var zero F
	if n == nil {
		return zero, false
	}

	if f, ok := n.fn.(F); ok {
		return f, true
	}

	want := reflect.TypeOf((*F)(nil)).Elem()
	v := reflect.ValueOf(n.fn)
	if want.Kind() != reflect.Func || !v.IsValid() || !v.Type().ConvertibleTo(want) {
		return zero, false
	}
	return v.Convert(want).Interface().(F), true
}
