package cts

import (
	"testing"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/xrtest"
)

// newTestGlobals initializes the harness against a fake runtime backed
// by a software plugin shared between the two, and tears everything
// down when the test ends.
func newTestGlobals(t *testing.T, opts Options) (*GlobalData, *xrtest.Runtime) {
	t.Helper()

	plugin := gfx.NewSoftwarePlugin()
	opts.Plugin = plugin
	rt := xrtest.NewRuntime(plugin)

	g, err := Init(rt, opts)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Shutdown)
	return g, rt
}

// newTestHelper builds a composition helper on fresh test globals.
func newTestHelper(t *testing.T, opts Options) *CompositionHelper {
	t.Helper()

	newTestGlobals(t, opts)
	h, err := NewCompositionHelper(t.Name())
	if err != nil {
		t.Fatalf("NewCompositionHelper: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

// beginTestSession brings the helper's session up to the running state.
func beginTestSession(t *testing.T, h *CompositionHelper) {
	t.Helper()
	if err := h.BeginSession(); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
}
