// Package layer discovers interception layers and tracks their metadata and
// enabled state.
//
// A layer is a module that exports the probe symbols:
//
//   - LayerName    func() string (or a string variable)
//   - LayerVersion func() string (or a string variable)
//   - LayerInit    func() or func(layer.Env) error, optional
//
// Modules come from a Source. StaticSource serves in-process modules (the
// built-in layers and tests); PluginSource opens Go plugins listed in
// VLAYER_PRELOAD. Multi concatenates sources, keeping their order.
//
// REGISTRY LIFECYCLE:
//
// The registry initializes lazily, exactly once, on the first call to any
// query or mutation. Initialization enumerates the modules, runs each
// layer's init routine, and registers the layer enabled. When an allow-list
// is configured (VLAYER_INSTANCE_LAYERS) every layer is then disabled and
// only the listed names are re-enabled; list position is recorded as
// Priority.
//
// A layer whose init routine fails is still registered, disabled. Layers
// are never removed and only the Enabled flag changes after
// initialization, so a layer's index is stable for the registry's lifetime.
//
// Init routines run while initialization is in progress and must not call
// back into the registry.
//
// Names are compared by hash: LayerName values are NFC-normalized and hashed
// with djb2. Two names with the same hash are indistinguishable.
package layer
