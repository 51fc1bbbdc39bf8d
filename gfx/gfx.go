// Package gfx defines the graphics plugin boundary of the conformance
// harness. A plugin owns device lifetime, swapchain image storage and
// the few image-level operations the tests need: uploading CPU-built
// images, clearing slices and rendering simple projected reference
// geometry.
//
// Plugins register themselves via Register, usually from an init
// function, and are selected by name or by priority with Default.
package gfx

import (
	"errors"

	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

// Common plugin errors.
var (
	// ErrPluginNotAvailable is returned when a requested plugin is not
	// registered.
	ErrPluginNotAvailable = errors.New("gfx: plugin not available")

	// ErrNotInitialized is returned for operations called before
	// Initialize/InitializeDevice.
	ErrNotInitialized = errors.New("gfx: plugin not initialized")

	// ErrNoMatchingFormat is returned by SelectColorFormat when none of
	// the candidate formats is supported.
	ErrNoMatchingFormat = errors.New("gfx: no matching color format")

	// ErrSliceOutOfRange is returned when an array slice index exceeds
	// the texture's array size.
	ErrSliceOutOfRange = errors.New("gfx: texture array slice out of range")

	// ErrSizeMismatch is returned when an image's dimensions do not
	// match the texture it is copied into.
	ErrSizeMismatch = errors.New("gfx: image size does not match texture")

	// ErrBadTexture is returned when a texture was not created by the
	// plugin operating on it.
	ErrBadTexture = errors.New("gfx: texture not owned by this plugin")
)

// Color formats use Vulkan numeric values so they are meaningful to
// real runtimes; the software plugin interprets them as byte layouts.
const (
	FormatRGBA8Unorm int64 = 37
	FormatRGBA8SRGB  int64 = 43
	FormatBGRA8Unorm int64 = 44
	FormatBGRA8SRGB  int64 = 50
)

// Texture is one swapchain image owned by a plugin.
type Texture interface {
	Width() uint32
	Height() uint32
	ArraySize() uint32
	Format() int64

	// Release frees the texture's backing storage.
	Release()
}

// Cube is a piece of reference geometry for projection layers. It is
// rendered as a flat-shaded quad facing the viewer.
type Cube struct {
	Pose  xr.Posef
	Scale float32
	Color raster.Color
}

// RenderParams drives Plugin.RenderView.
type RenderParams struct {
	ClearColor raster.Color
	Cubes      []Cube
}

// Plugin is the capability interface a graphics backend implements.
//
// Lifecycle: Initialize once per process, InitializeDevice once per
// session, ShutdownDevice and Shutdown in reverse. Plugins must be
// safe for concurrent use after initialization.
type Plugin interface {
	// Name returns the plugin identifier (e.g. "software", "gogpu").
	Name() string

	Initialize() error
	InitializeDevice() error
	ShutdownDevice()
	Shutdown()
	Initialized() bool

	// SelectColorFormat picks the first supported format from the
	// runtime-preference-ordered candidates.
	SelectColorFormat(candidates []int64) (int64, error)

	// SRGBA8Format returns the plugin's 8-bit sRGB RGBA format value.
	SRGBA8Format() int64

	// MakeSwapchainTexture allocates backing storage for one swapchain
	// image described by info.
	MakeSwapchainTexture(info xr.SwapchainCreateInfo) (Texture, error)

	// CopyRGBAImage uploads img into one array slice of tex. The image
	// dimensions must match the texture.
	CopyRGBAImage(tex Texture, arraySlice int, img *raster.Image) error

	// ClearImageSlice fills one array slice with a solid color.
	ClearImageSlice(tex Texture, arraySlice int, c raster.Color) error

	// ClearImage fills every slice with a solid color.
	ClearImage(tex Texture, c raster.Color) error

	// RenderView draws the reference scene for one projection view
	// into the view's sub-image region.
	RenderView(view xr.CompositionLayerProjectionView, tex Texture, params RenderParams) error
}

// ImageReader is implemented by plugins that support CPU readback of
// texture contents. The screenshot verification path requires it.
type ImageReader interface {
	ReadImage(tex Texture, arraySlice int) (*raster.Image, error)
}
