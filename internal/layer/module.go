package layer

import (
	"fmt"

	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/kv"
)

// Probe symbol names.
const (
	SymbolName    = "LayerName"
	SymbolVersion = "LayerVersion"
	SymbolInit    = "LayerInit"
)

// Module is a unit of code mapped into the process. Path identifies the
// owning module; Lookup resolves an exported symbol.
type Module interface {
	Path() string
	Lookup(symbol string) (any, bool)
}

// Source enumerates modules in a stable order.
type Source interface {
	Modules() ([]Module, error)
}

// Env is what a layer's init routine may reach.
type Env interface {
	KeyValue() *kv.Store
	LoadConfig(name string) (*config.Config, error)
}

// InitFunc is the canonical form of a layer init routine.
type InitFunc func(Env) error

// probe reads the probe symbols from m. ok is false when m is not a layer.
func probe(m Module) (name, version string, init InitFunc, ok bool) {
	name, ok = stringSymbol(m, SymbolName)
	if !ok {
		return "", "", nil, false
	}
	version, _ = stringSymbol(m, SymbolVersion)

	if sym, found := m.Lookup(SymbolInit); found {
		switch fn := sym.(type) {
		case func(Env) error:
			init = fn
		case InitFunc:
			init = fn
		case func():
			init = func(Env) error {
				fn()
				return nil
			}
		default:
			init = func(Env) error {
				return fmt.Errorf("%s has unsupported type %T", SymbolInit, sym)
			}
		}
	}

	return name, version, init, true
}

func stringSymbol(m Module, symbol string) (string, bool) {
	sym, ok := m.Lookup(symbol)
	if !ok {
		return "", false
	}
	switch v := sym.(type) {
	case func() string:
		return v(), true
	case string:
		return v, true
	case *string:
		if v != nil {
			return *v, true
		}
	}
	return "", false
}
