// Package gogpu provides a GPU-backed graphics plugin using the
// gogpu/wgpu WebGPU stack. Swapchain content is rasterized on the CPU
// and uploaded with Queue.WriteTexture; the GPU path exercises real
// instance, adapter, device and texture lifetimes without needing a
// shader pipeline.
//
// To use the plugin, import this package:
//
//	import _ "github.com/xrgo/cts/gfx/gogpu"
//
// The pure Go HAL backends (Vulkan, Metal, GLES, software) register
// themselves through this package's gogpu backend import. The Rust
// (wgpu-native) backend can be enabled by additionally importing:
//
//	import _ "github.com/gogpu/gogpu/gpu/backend/rust"
package gogpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gogpu/gpu/backend/native"
	gogputypes "github.com/gogpu/gogpu/gpu/types"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

// ErrNoGPUBackend is returned when no wgpu HAL backend is available on
// this platform.
var ErrNoGPUBackend = errors.New("gogpu: no GPU backend available")

func init() {
	gfx.Register(gfx.PluginGoGPU, func() gfx.Plugin {
		return NewPlugin()
	})
}

// Plugin implements gfx.Plugin on top of the wgpu public API.
//
// Plugin is safe for concurrent use.
type Plugin struct {
	mu sync.RWMutex

	backendName string
	instance    *wgpu.Instance
	adapter     *wgpu.Adapter
	device      *wgpu.Device

	initialized bool
	deviceReady bool
}

// NewPlugin creates an uninitialized GPU plugin.
func NewPlugin() *Plugin {
	return &Plugin{}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return gfx.PluginGoGPU }

// Initialize creates the WebGPU instance and requests an adapter. The
// HAL backends registered for this platform decide which graphics API
// backs the adapter.
func (p *Plugin) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	name, variant := native.BackendInfo(gogputypes.GraphicsAPIAuto)
	if name == "unsupported" {
		return ErrNoGPUBackend
	}
	p.backendName = name

	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: 1 << variant,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPUBackend, err)
	}
	p.instance = instance

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		p.instance = nil
		return fmt.Errorf("%w: %w", ErrNoGPUBackend, err)
	}
	p.adapter = adapter

	p.initialized = true
	return nil
}

// InitializeDevice creates the logical device.
func (p *Plugin) InitializeDevice() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return gfx.ErrNotInitialized
	}
	if p.deviceReady {
		return nil
	}

	device, err := p.adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("gogpu: device creation failed: %w", err)
	}
	p.device = device
	p.deviceReady = true
	return nil
}

// ShutdownDevice waits for outstanding GPU work and releases the
// device.
func (p *Plugin) ShutdownDevice() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		_ = p.device.WaitIdle()
		p.device.Release()
		p.device = nil
	}
	p.deviceReady = false
}

// Shutdown releases the adapter and instance.
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		_ = p.device.WaitIdle()
		p.device.Release()
		p.device = nil
	}
	if p.adapter != nil {
		p.adapter.Release()
		p.adapter = nil
	}
	if p.instance != nil {
		p.instance.Release()
		p.instance = nil
	}
	p.deviceReady = false
	p.initialized = false
}

// Initialized reports whether Initialize succeeded.
func (p *Plugin) Initialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// BackendName returns the HAL backend selected by Initialize, or the
// empty string before initialization.
func (p *Plugin) BackendName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backendName
}

var supportedFormats = []int64{gfx.FormatRGBA8SRGB, gfx.FormatRGBA8Unorm, gfx.FormatBGRA8SRGB, gfx.FormatBGRA8Unorm}

// SelectColorFormat returns the first candidate the plugin supports.
func (p *Plugin) SelectColorFormat(candidates []int64) (int64, error) {
	for _, c := range candidates {
		for _, f := range supportedFormats {
			if c == f {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: candidates %v", gfx.ErrNoMatchingFormat, candidates)
}

// SRGBA8Format returns the 8-bit sRGB RGBA format.
func (p *Plugin) SRGBA8Format() int64 { return gfx.FormatRGBA8SRGB }

// gpuTexture pairs the GPU handle with a CPU shadow copy per slice.
// The shadow holds staged content between rasterization and upload.
type gpuTexture struct {
	plugin  *Plugin
	info    xr.SwapchainCreateInfo
	texture *wgpu.Texture
	shadow  []*raster.Image
}

func (t *gpuTexture) Width() uint32     { return t.info.Width }
func (t *gpuTexture) Height() uint32    { return t.info.Height }
func (t *gpuTexture) ArraySize() uint32 { return t.info.ArraySize }
func (t *gpuTexture) Format() int64     { return t.info.Format }

func (t *gpuTexture) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
	t.shadow = nil
}

// mapTextureFormat maps swapchain formats to wgpu formats. Gamma is
// applied on the CPU before upload, so sRGB variants share the Unorm
// GPU format.
func mapTextureFormat(format int64) gputypes.TextureFormat {
	switch format {
	case gfx.FormatBGRA8Unorm, gfx.FormatBGRA8SRGB:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// MakeSwapchainTexture allocates a GPU array texture plus its CPU
// shadow slices.
func (p *Plugin) MakeSwapchainTexture(info xr.SwapchainCreateInfo) (gfx.Texture, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.deviceReady {
		return nil, gfx.ErrNotInitialized
	}
	if info.ArraySize == 0 {
		info.ArraySize = 1
	}
	if info.MipCount == 0 {
		info.MipCount = 1
	}
	if info.SampleCount == 0 {
		info.SampleCount = 1
	}

	texture, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "cts-swapchain",
		Size: wgpu.Extent3D{
			Width:              info.Width,
			Height:             info.Height,
			DepthOrArrayLayers: info.ArraySize,
		},
		MipLevelCount: info.MipCount,
		SampleCount:   info.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        mapTextureFormat(info.Format),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gogpu: texture creation failed: %w", err)
	}

	t := &gpuTexture{
		plugin:  p,
		info:    info,
		texture: texture,
		shadow:  make([]*raster.Image, info.ArraySize),
	}
	for i := range t.shadow {
		t.shadow[i] = raster.New(int(info.Width), int(info.Height))
	}
	return t, nil
}

func (p *Plugin) shadowSlice(tex gfx.Texture, arraySlice int) (*gpuTexture, *raster.Image, error) {
	gt, ok := tex.(*gpuTexture)
	if !ok {
		return nil, nil, gfx.ErrBadTexture
	}
	if arraySlice < 0 || arraySlice >= len(gt.shadow) {
		return nil, nil, fmt.Errorf("%w: slice %d of %d", gfx.ErrSliceOutOfRange, arraySlice, len(gt.shadow))
	}
	return gt, gt.shadow[arraySlice], nil
}

// upload pushes one shadow slice to the GPU texture layer.
func (p *Plugin) upload(gt *gpuTexture, arraySlice int) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.deviceReady {
		return gfx.ErrNotInitialized
	}

	img := gt.shadow[arraySlice]
	err := p.device.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  gt.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: uint32(arraySlice)}, //nolint:gosec // G115: slice validated by shadowSlice
			Aspect:   gputypes.TextureAspectAll,
		},
		img.Pix(),
		&wgpu.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  gt.info.Width * 4,
			RowsPerImage: gt.info.Height,
		},
		&wgpu.Extent3D{
			Width:              gt.info.Width,
			Height:             gt.info.Height,
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("gogpu: texture upload failed: %w", err)
	}
	return nil
}

// CopyRGBAImage stages img in the shadow slice and uploads it.
func (p *Plugin) CopyRGBAImage(tex gfx.Texture, arraySlice int, img *raster.Image) error {
	gt, shadow, err := p.shadowSlice(tex, arraySlice)
	if err != nil {
		return err
	}
	if img.Width() != shadow.Width() || img.Height() != shadow.Height() {
		return fmt.Errorf("%w: image %dx%d, texture %dx%d",
			gfx.ErrSizeMismatch, img.Width(), img.Height(), shadow.Width(), shadow.Height())
	}
	copy(shadow.Pix(), img.Pix())
	return p.upload(gt, arraySlice)
}

// ClearImageSlice fills one slice with a solid color and uploads it.
func (p *Plugin) ClearImageSlice(tex gfx.Texture, arraySlice int, c raster.Color) error {
	gt, shadow, err := p.shadowSlice(tex, arraySlice)
	if err != nil {
		return err
	}
	if err := shadow.DrawRect(0, 0, shadow.Width(), shadow.Height(), c); err != nil {
		return err
	}
	return p.upload(gt, arraySlice)
}

// ClearImage fills every slice with a solid color.
func (p *Plugin) ClearImage(tex gfx.Texture, c raster.Color) error {
	gt, ok := tex.(*gpuTexture)
	if !ok {
		return gfx.ErrBadTexture
	}
	for i := range gt.shadow {
		if err := p.ClearImageSlice(tex, i, c); err != nil {
			return err
		}
	}
	return nil
}

// RenderView rasterizes the reference scene on the CPU shadow and
// uploads the result.
func (p *Plugin) RenderView(view xr.CompositionLayerProjectionView, tex gfx.Texture, params gfx.RenderParams) error {
	gt, shadow, err := p.shadowSlice(tex, int(view.SubImage.ImageArrayIndex))
	if err != nil {
		return err
	}
	if err := gfx.RasterizeView(shadow, view, params); err != nil {
		return err
	}
	return p.upload(gt, int(view.SubImage.ImageArrayIndex))
}

// Ensure Plugin implements gfx.Plugin.
var _ gfx.Plugin = (*Plugin)(nil)
