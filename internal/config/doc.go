// Package config is the configuration collaborator consumed by layers.
//
// A layer names its configuration file (for example "autoreplay_layer.json")
// and the loader searches a fixed list of directories for it:
//
//   - the current working directory
//   - /tmp
//   - $DESKTOP_PREFIX/share/vlayer/layers (DESKTOP_PREFIX defaults to /usr)
//
// The first file whose root is an object wins. Files are decoded with
// gopkg.in/yaml.v3, which accepts JSON as well as YAML.
//
// # Field Access
//
// Values are addressed with dotted paths ("layer.config.capturePrefix").
// Array elements are addressed by an optional index. Every getter returns a
// Result with Found=false when the path is absent or has the wrong type.
//
// # Environment Overrides
//
// Any string value of the form "$VARIABLE[=default]" is expanded from the
// process environment:
//
//	"capturePrefix": "$CAPTURE_PREFIX=/tmp/capture"
//
// resolves to the value of CAPTURE_PREFIX when set, otherwise to
// "/tmp/capture". The default is optional. Array access through GetArrayOf
// does not expand environment references.
//
// # Schema Validation
//
// Validate unifies the loaded document with a CUE schema so a layer can
// reject a malformed configuration before acting on it.
package config
