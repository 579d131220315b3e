package config

import (
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds the process environment consumed by the interception runtime.
type Env struct {
	// InstanceLayers is the colon-separated allow-list. When present, only
	// the listed layers are enabled.
	InstanceLayers []string `env:"VLAYER_INSTANCE_LAYERS" envSeparator:":"`

	// Preload lists plugin files to load as layer modules, in order.
	Preload []string `env:"VLAYER_PRELOAD" envSeparator:":"`

	// DesktopPrefix roots the system-wide layer configuration directory.
	DesktopPrefix string `env:"DESKTOP_PREFIX" envDefault:"/usr"`

	LogLevel     string `env:"VLAYER_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"VLAYER_OTEL_ENDPOINT"`
}

// ParseEnv parses environment variables into the target struct.
func ParseEnv(target any) error {
	return env.Parse(target)
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	e.InstanceLayers = compact(e.InstanceLayers)
	e.Preload = compact(e.Preload)
	return e, nil
}

// AllowList returns the allow-list and whether one is in effect. An unset or
// empty VLAYER_INSTANCE_LAYERS means no allow-list.
func (e Env) AllowList() ([]string, bool) {
	return e.InstanceLayers, len(e.InstanceLayers) > 0
}

// SearchPaths returns the configuration search directories in order.
func (e Env) SearchPaths() []string {
	prefix := e.DesktopPrefix
	if prefix == "" {
		prefix = "/usr"
	}
	return []string{
		".",
		"/tmp",
		filepath.Join(prefix, "share", "vlayer", "layers"),
	}
}

func compact(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
