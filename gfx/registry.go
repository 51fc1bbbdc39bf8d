package gfx

import "sync"

// Factory creates a new plugin instance.
type Factory func() Plugin

var (
	registryMu sync.RWMutex
	plugins    = make(map[string]Factory)
	// Priority order for plugin selection (first available wins).
	// GPU plugins come first; software is the always-available fallback.
	pluginPriority = []string{PluginGoGPU, PluginSoftware}
)

// Plugin names known to the registry. The gogpu plugin registers
// itself when its package is imported.
const (
	PluginSoftware = "software"
	PluginGoGPU    = "gogpu"
)

// Register registers a plugin factory under the given name, replacing
// any previous registration. Typically called from init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	plugins[name] = factory
}

// Unregister removes a plugin from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(plugins, name)
}

// Available returns the names of all registered plugins.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a plugin with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := plugins[name]
	return ok
}

// Get returns a new plugin instance by name, or nil if the name is not
// registered.
func Get(name string) Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := plugins[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available plugin based on priority, or nil
// if none is registered.
func Default() Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range pluginPriority {
		if factory, ok := plugins[name]; ok {
			if p := factory(); p != nil {
				return p
			}
		}
	}

	// Fallback: first available.
	for _, factory := range plugins {
		if p := factory(); p != nil {
			return p
		}
	}
	return nil
}
