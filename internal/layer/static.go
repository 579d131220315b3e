package layer

// Symbols maps exported symbol names to values.
type Symbols map[string]any

// StaticModule is an in-process module backed by a symbol table.
type StaticModule struct {
	path    string
	symbols Symbols
}

// NewStaticModule returns a module identified by path exporting symbols.
func NewStaticModule(path string, symbols Symbols) *StaticModule {
	return &StaticModule{path: path, symbols: symbols}
}

// Path implements Module.
func (m *StaticModule) Path() string {
	return m.path
}

// Lookup implements Module.
func (m *StaticModule) Lookup(symbol string) (any, bool) {
	v, ok := m.symbols[symbol]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// StaticSource enumerates a fixed list of modules.
type StaticSource []Module

// Modules implements Source.
func (s StaticSource) Modules() ([]Module, error) {
	out := make([]Module, len(s))
	copy(out, s)
	return out, nil
}

// Multi concatenates sources in order. The first enumeration error aborts.
type Multi []Source

// Modules implements Source.
func (m Multi) Modules() ([]Module, error) {
	var out []Module
	for _, src := range m {
		if src == nil {
			continue
		}
		mods, err := src.Modules()
		if err != nil {
			return nil, err
		}
		out = append(out, mods...)
	}
	return out, nil
}
