package layer

import (
	"fmt"
	"log/slog"
	"plugin"
	"reflect"
)

// PluginSource opens Go plugins as layer modules, in list order.
//
// Plugins are opened on each call to Modules; the Go runtime caches opened
// plugins, so repeated enumeration returns the same symbols.
type PluginSource struct {
	Paths []string

	// Strict makes an unopenable plugin an enumeration error instead of a
	// logged skip.
	Strict bool
}

// Modules implements Source.
func (s PluginSource) Modules() ([]Module, error) {
	out := make([]Module, 0, len(s.Paths))
	for _, path := range s.Paths {
		p, err := plugin.Open(path)
		if err != nil {
			if s.Strict {
				return nil, fmt.Errorf("open plugin %s: %w", path, err)
			}
			slog.Warn("skipping layer plugin", "path", path, "error", err)
			continue
		}
		out = append(out, &pluginModule{path: path, p: p})
	}
	return out, nil
}

type pluginModule struct {
	path string
	p    *plugin.Plugin
}

func (m *pluginModule) Path() string {
	return m.path
}

// Lookup resolves an exported symbol. Exported variables arrive as pointers;
// pointers to functions are dereferenced so they match function symbols.
func (m *pluginModule) Lookup(symbol string) (any, bool) {
	sym, err := m.p.Lookup(symbol)
	if err != nil {
		return nil, false
	}

	v := reflect.ValueOf(sym)
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Func {
		if v.Elem().IsNil() {
			return nil, false
		}
		return v.Elem().Interface(), true
	}
	return sym, true
}
