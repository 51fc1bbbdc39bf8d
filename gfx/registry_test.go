package gfx

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	const name = "test-plugin"
	Register(name, func() Plugin { return NewSoftwarePlugin() })
	defer Unregister(name)

	if !IsRegistered(name) {
		t.Fatal("IsRegistered = false after Register")
	}
	if p := Get(name); p == nil {
		t.Fatal("Get returned nil for registered plugin")
	}
	if p := Get("no-such-plugin"); p != nil {
		t.Fatalf("Get for unknown name = %v, want nil", p)
	}

	found := false
	for _, n := range Available() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing %q", Available(), name)
	}

	Unregister(name)
	if IsRegistered(name) {
		t.Error("IsRegistered = true after Unregister")
	}
}

func TestRegistryDefault(t *testing.T) {
	// The software plugin registers itself in init, so Default always
	// has at least one candidate.
	p := Default()
	if p == nil {
		t.Fatal("Default returned nil")
	}
	if !IsRegistered(PluginSoftware) {
		t.Fatal("software plugin not self-registered")
	}

	// With only the software plugin registered, it is the default.
	if !IsRegistered(PluginGoGPU) && p.Name() != PluginSoftware {
		t.Errorf("Default().Name() = %q, want %q", p.Name(), PluginSoftware)
	}
}
