package cts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

// Harness-level errors.
var (
	// ErrNotInitialized is returned when the harness globals are used
	// before Init.
	ErrNotInitialized = errors.New("cts: not initialized, call Init first")

	// ErrAlreadyInitialized is returned by a second Init without an
	// intervening Shutdown.
	ErrAlreadyInitialized = errors.New("cts: already initialized")

	// ErrClosed is returned when a closed helper is used.
	ErrClosed = errors.New("cts: composition helper closed")
)

// GlobalData holds the state shared by every test in a run: the
// runtime under test, the graphics plugin, the image cache and the
// font registry.
type GlobalData struct {
	Options    Options
	Runtime    xr.Runtime
	Plugin     gfx.Plugin
	ImageCache *raster.ImageCache
	Fonts      *raster.FontRegistry
}

var (
	globalMu sync.Mutex
	global   *GlobalData
)

// Init sets up the harness globals for a run against the given
// runtime: it selects and initializes the graphics plugin, loads the
// font registry and prepares the image cache. Call Shutdown when the
// run ends.
func Init(runtime xr.Runtime, opts Options) (*GlobalData, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return nil, ErrAlreadyInitialized
	}
	if runtime == nil {
		return nil, fmt.Errorf("cts: init: nil runtime")
	}
	opts = opts.withDefaults()

	var plugin gfx.Plugin
	if opts.Plugin != nil {
		plugin = opts.Plugin
	} else if opts.GraphicsPlugin != "" {
		plugin = gfx.Get(opts.GraphicsPlugin)
		if plugin == nil {
			return nil, fmt.Errorf("cts: init: %w: %q", gfx.ErrPluginNotAvailable, opts.GraphicsPlugin)
		}
	} else {
		plugin = gfx.Default()
		if plugin == nil {
			return nil, fmt.Errorf("cts: init: %w", gfx.ErrPluginNotAvailable)
		}
	}
	if err := plugin.Initialize(); err != nil {
		return nil, fmt.Errorf("cts: init plugin %s: %w", plugin.Name(), err)
	}
	if err := plugin.InitializeDevice(); err != nil {
		plugin.Shutdown()
		return nil, fmt.Errorf("cts: init device on %s: %w", plugin.Name(), err)
	}

	var fonts *raster.FontRegistry
	var err error
	if opts.FontPath != "" {
		fonts, err = raster.LoadFontRegistry(opts.FontPath)
	} else {
		fonts, err = raster.DefaultFonts()
	}
	if err != nil {
		plugin.ShutdownDevice()
		plugin.Shutdown()
		return nil, fmt.Errorf("cts: init fonts: %w", err)
	}

	cache := raster.NewImageCache()
	cache.Init()

	global = &GlobalData{
		Options:    opts,
		Runtime:    runtime,
		Plugin:     plugin,
		ImageCache: cache,
		Fonts:      fonts,
	}
	Logger().Info("cts: initialized", "plugin", plugin.Name())
	return global, nil
}

// Shutdown tears down the harness globals. Safe to call when not
// initialized.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return
	}
	global.ImageCache.Clear()
	global.Plugin.ShutdownDevice()
	global.Plugin.Shutdown()
	global = nil
}

// Global returns the harness globals, or nil before Init.
func Global() *GlobalData {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

func requireGlobal() (*GlobalData, error) {
	g := Global()
	if g == nil {
		return nil, ErrNotInitialized
	}
	return g, nil
}
