package gfx

import (
	"fmt"
	"math"
	"sync"

	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

func init() {
	Register(PluginSoftware, func() Plugin {
		return NewSoftwarePlugin()
	})
}

// SoftwarePlugin stores swapchain images as CPU pixel buffers. It
// needs no device, supports readback, and is the plugin the harness's
// own tests run against.
type SoftwarePlugin struct {
	mu          sync.Mutex
	initialized bool
	deviceReady bool
}

// NewSoftwarePlugin creates an uninitialized software plugin.
func NewSoftwarePlugin() *SoftwarePlugin {
	return &SoftwarePlugin{}
}

// Name returns the plugin identifier.
func (p *SoftwarePlugin) Name() string { return PluginSoftware }

// Initialize marks the plugin ready. There is no real device to set up.
func (p *SoftwarePlugin) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = true
	return nil
}

// InitializeDevice is a no-op device bring-up.
func (p *SoftwarePlugin) InitializeDevice() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return ErrNotInitialized
	}
	p.deviceReady = true
	return nil
}

// ShutdownDevice tears down the (virtual) device.
func (p *SoftwarePlugin) ShutdownDevice() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deviceReady = false
}

// Shutdown releases the plugin.
func (p *SoftwarePlugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deviceReady = false
	p.initialized = false
}

// Initialized reports whether Initialize has been called.
func (p *SoftwarePlugin) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

var softwareFormats = []int64{FormatRGBA8SRGB, FormatRGBA8Unorm, FormatBGRA8SRGB, FormatBGRA8Unorm}

// SelectColorFormat returns the first candidate the plugin supports.
func (p *SoftwarePlugin) SelectColorFormat(candidates []int64) (int64, error) {
	for _, c := range candidates {
		for _, f := range softwareFormats {
			if c == f {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: candidates %v", ErrNoMatchingFormat, candidates)
}

// SRGBA8Format returns the 8-bit sRGB RGBA format.
func (p *SoftwarePlugin) SRGBA8Format() int64 { return FormatRGBA8SRGB }

// softwareTexture backs one swapchain image with one raster.Image per
// array slice.
type softwareTexture struct {
	info   xr.SwapchainCreateInfo
	slices []*raster.Image
}

func (t *softwareTexture) Width() uint32     { return t.info.Width }
func (t *softwareTexture) Height() uint32    { return t.info.Height }
func (t *softwareTexture) ArraySize() uint32 { return t.info.ArraySize }
func (t *softwareTexture) Format() int64     { return t.info.Format }

func (t *softwareTexture) Release() { t.slices = nil }

// MakeSwapchainTexture allocates CPU storage for every array slice.
func (p *SoftwarePlugin) MakeSwapchainTexture(info xr.SwapchainCreateInfo) (Texture, error) {
	if !p.Initialized() {
		return nil, ErrNotInitialized
	}
	arraySize := info.ArraySize
	if arraySize == 0 {
		arraySize = 1
		info.ArraySize = 1
	}
	t := &softwareTexture{
		info:   info,
		slices: make([]*raster.Image, arraySize),
	}
	for i := range t.slices {
		t.slices[i] = raster.New(int(info.Width), int(info.Height))
	}
	return t, nil
}

func (p *SoftwarePlugin) slice(tex Texture, arraySlice int) (*raster.Image, error) {
	st, ok := tex.(*softwareTexture)
	if !ok {
		return nil, ErrBadTexture
	}
	if arraySlice < 0 || arraySlice >= len(st.slices) {
		return nil, fmt.Errorf("%w: slice %d of %d", ErrSliceOutOfRange, arraySlice, len(st.slices))
	}
	return st.slices[arraySlice], nil
}

// CopyRGBAImage uploads img into one array slice.
func (p *SoftwarePlugin) CopyRGBAImage(tex Texture, arraySlice int, img *raster.Image) error {
	dst, err := p.slice(tex, arraySlice)
	if err != nil {
		return err
	}
	if img.Width() != dst.Width() || img.Height() != dst.Height() {
		return fmt.Errorf("%w: image %dx%d, texture %dx%d",
			ErrSizeMismatch, img.Width(), img.Height(), dst.Width(), dst.Height())
	}
	copy(dst.Pix(), img.Pix())
	return nil
}

// ClearImageSlice fills one array slice with a solid color.
func (p *SoftwarePlugin) ClearImageSlice(tex Texture, arraySlice int, c raster.Color) error {
	dst, err := p.slice(tex, arraySlice)
	if err != nil {
		return err
	}
	return dst.DrawRect(0, 0, dst.Width(), dst.Height(), c)
}

// ClearImage fills every slice with a solid color.
func (p *SoftwarePlugin) ClearImage(tex Texture, c raster.Color) error {
	st, ok := tex.(*softwareTexture)
	if !ok {
		return ErrBadTexture
	}
	for i := range st.slices {
		if err := p.ClearImageSlice(tex, i, c); err != nil {
			return err
		}
	}
	return nil
}

// ReadImage returns a copy of one array slice. Implements ImageReader.
func (p *SoftwarePlugin) ReadImage(tex Texture, arraySlice int) (*raster.Image, error) {
	src, err := p.slice(tex, arraySlice)
	if err != nil {
		return nil, err
	}
	return src.Clone(), nil
}

// RenderView clears the view's sub-image region and draws the cubes as
// flat-shaded quads projected by the view pose and fov. This is a
// reference visual, not a real renderer.
func (p *SoftwarePlugin) RenderView(view xr.CompositionLayerProjectionView, tex Texture, params RenderParams) error {
	dst, err := p.slice(tex, int(view.SubImage.ImageArrayIndex))
	if err != nil {
		return err
	}
	return RasterizeView(dst, view, params)
}

// RasterizeView renders the reference scene for one projection view
// into dst. GPU plugins use it to stage content before upload.
func RasterizeView(dst *raster.Image, view xr.CompositionLayerProjectionView, params RenderParams) error {
	r := view.SubImage.ImageRect
	if err := dst.DrawRect(int(r.Offset.X), int(r.Offset.Y),
		int(r.Extent.Width), int(r.Extent.Height), params.ClearColor); err != nil {
		return err
	}

	for _, cube := range params.Cubes {
		drawProjectedCube(dst, view, cube)
	}
	return nil
}

// drawProjectedCube projects the cube center through the view and
// fills a clipped square sized by distance.
func drawProjectedCube(dst *raster.Image, view xr.CompositionLayerProjectionView, cube Cube) {
	local := view.Pose.InverseTransformPoint(cube.Pose.Position)
	if local.Z >= -1e-4 {
		// Behind or at the viewer.
		return
	}
	depth := -local.Z

	fov := view.Fov
	tanL := tan32(fov.AngleLeft)
	tanR := tan32(fov.AngleRight)
	tanU := tan32(fov.AngleUp)
	tanD := tan32(fov.AngleDown)
	if tanR-tanL == 0 || tanU-tanD == 0 {
		return
	}

	r := view.SubImage.ImageRect
	w := float32(r.Extent.Width)
	h := float32(r.Extent.Height)

	// Normalized tangent-space position inside the frustum.
	nx := (local.X/depth - tanL) / (tanR - tanL)
	ny := (tanU - local.Y/depth) / (tanU - tanD)

	px := float32(r.Offset.X) + nx*w
	py := float32(r.Offset.Y) + ny*h

	// Apparent size: edge length over depth, scaled into pixels.
	half := cube.Scale / (2 * depth) / (tanR - tanL) * w
	if half < 1 {
		half = 1
	}

	x0 := clampInt(int(px-half), int(r.Offset.X), int(r.Offset.X+r.Extent.Width))
	x1 := clampInt(int(px+half), int(r.Offset.X), int(r.Offset.X+r.Extent.Width))
	y0 := clampInt(int(py-half), int(r.Offset.Y), int(r.Offset.Y+r.Extent.Height))
	y1 := clampInt(int(py+half), int(r.Offset.Y), int(r.Offset.Y+r.Extent.Height))
	if x1 <= x0 || y1 <= y0 {
		return
	}
	// The rect is pre-clipped, so a bounds error cannot occur here.
	_ = dst.DrawRect(x0, y0, x1-x0, y1-y0, cube.Color)
}

func tan32(v float32) float32 {
	return float32(math.Tan(float64(v)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ensure SoftwarePlugin implements the plugin and readback interfaces.
var (
	_ Plugin      = (*SoftwarePlugin)(nil)
	_ ImageReader = (*SoftwarePlugin)(nil)
)
