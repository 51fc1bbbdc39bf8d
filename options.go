package cts

import (
	"time"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/xr"
)

// Options configures the harness globals set up by Init.
type Options struct {
	// Plugin is a concrete graphics plugin instance to use. It takes
	// precedence over GraphicsPlugin, which is how a runtime and the
	// harness end up sharing one plugin.
	Plugin gfx.Plugin

	// GraphicsPlugin names the gfx plugin to use. Empty selects the
	// best available plugin by registry priority.
	GraphicsPlugin string

	// ViewConfiguration is the primary view arrangement under test.
	ViewConfiguration xr.ViewConfigurationType

	// EnvironmentBlendMode used for every EndFrame submission.
	EnvironmentBlendMode xr.EnvironmentBlendMode

	// FontPath points at a TTF file for text rendering. Empty uses the
	// embedded Go Mono face.
	FontPath string

	// FrameTimeout bounds swapchain image waits and session state
	// transitions.
	FrameTimeout time.Duration

	// VerdictTimeout bounds how long an interactive test waits for a
	// human verdict before failing.
	VerdictTimeout time.Duration

	// MinFramesBeforeVerdict is how many frames must be submitted
	// before an automated verdict is evaluated, giving the compositor
	// time to settle.
	MinFramesBeforeVerdict int
}

// DefaultOptions returns the options used by most conformance runs.
func DefaultOptions() Options {
	return Options{
		ViewConfiguration:      xr.ViewConfigurationPrimaryStereo,
		EnvironmentBlendMode:   xr.EnvironmentBlendModeOpaque,
		FrameTimeout:           10 * time.Second,
		VerdictTimeout:         5 * time.Minute,
		MinFramesBeforeVerdict: 3,
	}
}

// withDefaults fills zero fields with the defaults.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ViewConfiguration == 0 {
		o.ViewConfiguration = def.ViewConfiguration
	}
	if o.EnvironmentBlendMode == 0 {
		o.EnvironmentBlendMode = def.EnvironmentBlendMode
	}
	if o.FrameTimeout == 0 {
		o.FrameTimeout = def.FrameTimeout
	}
	if o.VerdictTimeout == 0 {
		o.VerdictTimeout = def.VerdictTimeout
	}
	if o.MinFramesBeforeVerdict == 0 {
		o.MinFramesBeforeVerdict = def.MinFramesBeforeVerdict
	}
	return o
}
