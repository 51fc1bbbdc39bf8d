package cts

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

// CompositionHelper drives one session of the runtime under test
// through its lifecycle and owns every swapchain, space and layer it
// creates. Close tears everything down in reverse creation order.
//
// CompositionHelper is safe for concurrent use.
type CompositionHelper struct {
	global   *GlobalData
	instance xr.Instance
	session  xr.Session

	colorFormat int64
	viewConfig  xr.ViewConfigurationType
	blendMode   xr.EnvironmentBlendMode

	mu           sync.Mutex
	sessionState xr.SessionState
	swapchains   []xr.Swapchain
	spaces       []xr.Space
	closed       bool
}

// NewCompositionHelper creates an instance and session for the named
// test and negotiates a color format with the graphics plugin.
func NewCompositionHelper(name string) (*CompositionHelper, error) {
	g, err := requireGlobal()
	if err != nil {
		return nil, err
	}

	instance, err := g.Runtime.CreateInstance(name)
	if err != nil {
		return nil, fmt.Errorf("cts: create instance: %w", err)
	}
	session, err := instance.CreateSession()
	if err != nil {
		_ = instance.Destroy()
		return nil, fmt.Errorf("cts: create session: %w", err)
	}

	formats, err := session.EnumerateSwapchainFormats()
	if err != nil {
		_ = session.Destroy()
		_ = instance.Destroy()
		return nil, fmt.Errorf("cts: enumerate swapchain formats: %w", err)
	}
	colorFormat, err := g.Plugin.SelectColorFormat(formats)
	if err != nil {
		_ = session.Destroy()
		_ = instance.Destroy()
		return nil, fmt.Errorf("cts: select color format: %w", err)
	}

	return &CompositionHelper{
		global:       g,
		instance:     instance,
		session:      session,
		colorFormat:  colorFormat,
		viewConfig:   g.Options.ViewConfiguration,
		blendMode:    g.Options.EnvironmentBlendMode,
		sessionState: xr.SessionStateUnknown,
	}, nil
}

// Instance returns the helper's instance.
func (h *CompositionHelper) Instance() xr.Instance { return h.instance }

// Session returns the helper's session.
func (h *CompositionHelper) Session() xr.Session { return h.session }

// ColorFormat returns the negotiated swapchain color format.
func (h *CompositionHelper) ColorFormat() int64 { return h.colorFormat }

// SessionState returns the last state observed from the event queue.
func (h *CompositionHelper) SessionState() xr.SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionState
}

// PollEvents drains the instance event queue, tracking session state
// changes. It returns the latest observed state.
func (h *CompositionHelper) PollEvents() (xr.SessionState, error) {
	for {
		ev, ok, err := h.instance.PollEvent()
		if err != nil {
			return h.SessionState(), fmt.Errorf("cts: poll event: %w", err)
		}
		if !ok {
			return h.SessionState(), nil
		}
		if ev.Type == xr.EventSessionStateChanged {
			h.mu.Lock()
			h.sessionState = ev.SessionState
			h.mu.Unlock()
			Logger().Debug("cts: session state changed", "state", ev.SessionState.String())
		}
	}
}

// waitForSessionState pumps events until the target state is observed
// or the timeout expires.
func (h *CompositionHelper) waitForSessionState(target xr.SessionState, timeout time.Duration) error {
	timer := NewCountdownTimer(timeout)
	for {
		state, err := h.PollEvents()
		if err != nil {
			return err
		}
		if state == target {
			return nil
		}
		if timer.IsTimeUp() {
			return fmt.Errorf("cts: timed out after %v waiting for session state %s (currently %s)",
				timeout, target, state)
		}
		time.Sleep(time.Millisecond)
	}
}

// BeginSession waits for the session to become ready and begins it.
func (h *CompositionHelper) BeginSession() error {
	if err := h.waitForSessionState(xr.SessionStateReady, h.global.Options.FrameTimeout); err != nil {
		return err
	}
	if err := h.session.Begin(h.viewConfig); err != nil {
		return fmt.Errorf("cts: begin session: %w", err)
	}
	Logger().Info("cts: session begun", "viewConfig", int32(h.viewConfig))
	return nil
}

// EnumerateConfigurationViews returns the per-view image dimensions
// for the configured view arrangement.
func (h *CompositionHelper) EnumerateConfigurationViews() ([]xr.ViewConfigurationView, error) {
	return h.instance.EnumerateViewConfigurationViews(h.viewConfig)
}

// ViewConfigurationProperties returns the configured view
// arrangement's properties.
func (h *CompositionHelper) ViewConfigurationProperties() (xr.ViewConfigurationProperties, error) {
	return h.instance.ViewConfigurationProperties(h.viewConfig)
}

// LocateViews locates the configured views in the given space. The
// returned poses are valid only if the view state flags say so.
func (h *CompositionHelper) LocateViews(space xr.Space, displayTime xr.Time) (xr.ViewState, []xr.View, error) {
	return h.session.LocateViews(space, displayTime, h.viewConfig)
}

// DefaultColorSwapchainCreateInfo returns a single-sampled color
// swapchain description in the negotiated format.
func (h *CompositionHelper) DefaultColorSwapchainCreateInfo(width, height uint32) xr.SwapchainCreateInfo {
	return xr.SwapchainCreateInfo{
		UsageFlags:  xr.SwapchainUsageColorAttachment | xr.SwapchainUsageTransferDst | xr.SwapchainUsageSampled,
		Format:      h.colorFormat,
		SampleCount: 1,
		Width:       width,
		Height:      height,
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	}
}

// CreateSwapchain creates a swapchain tracked for teardown.
func (h *CompositionHelper) CreateSwapchain(info xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.mu.Unlock()

	sc, err := h.session.CreateSwapchain(info)
	if err != nil {
		return nil, fmt.Errorf("cts: create swapchain: %w", err)
	}
	h.mu.Lock()
	h.swapchains = append(h.swapchains, sc)
	h.mu.Unlock()
	return sc, nil
}

// CreateReferenceSpace creates a reference space tracked for teardown.
func (h *CompositionHelper) CreateReferenceSpace(t xr.ReferenceSpaceType, pose xr.Posef) (xr.Space, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.mu.Unlock()

	sp, err := h.session.CreateReferenceSpace(t, pose)
	if err != nil {
		return nil, fmt.Errorf("cts: create reference space: %w", err)
	}
	h.mu.Lock()
	h.spaces = append(h.spaces, sp)
	h.mu.Unlock()
	return sp, nil
}

// AcquireWaitReleaseImage runs one acquire/wait/release cycle on the
// swapchain, invoking writer with the acquired image. The image is
// released on every exit path, including a panic in writer.
func (h *CompositionHelper) AcquireWaitReleaseImage(sc xr.Swapchain, writer func(gfx.Texture) error) (err error) {
	index, err := sc.Acquire()
	if err != nil {
		return fmt.Errorf("cts: acquire swapchain image: %w", err)
	}

	if err := sc.Wait(h.global.Options.FrameTimeout); err != nil {
		// Give the image back so the swapchain is not wedged; a wait
		// that timed out may leave the release invalid, which is fine.
		if rerr := sc.Release(); rerr != nil {
			Logger().Warn("cts: release after failed wait", "error", rerr)
		}
		return fmt.Errorf("cts: wait swapchain image: %w", err)
	}

	released := false
	release := func() error {
		released = true
		return sc.Release()
	}
	defer func() {
		// Panic or early-return safety net.
		if !released {
			if rerr := release(); rerr != nil && err == nil {
				err = fmt.Errorf("cts: release swapchain image: %w", rerr)
			}
		}
	}()

	images, err := sc.EnumerateImages()
	if err != nil {
		return fmt.Errorf("cts: enumerate swapchain images: %w", err)
	}
	if int(index) >= len(images) {
		return fmt.Errorf("cts: acquired image index %d out of range (%d images)", index, len(images))
	}
	tex, ok := images[index].(gfx.Texture)
	if !ok {
		return fmt.Errorf("cts: swapchain image %T is not a %s texture", images[index], h.global.Plugin.Name())
	}

	if werr := writer(tex); werr != nil {
		if rerr := release(); rerr != nil {
			Logger().Warn("cts: release after writer error", "error", rerr)
		}
		return werr
	}
	return release()
}

// CreateStaticSwapchainImage creates a single-image static swapchain
// holding a copy of img.
func (h *CompositionHelper) CreateStaticSwapchainImage(img *raster.Image) (xr.Swapchain, error) {
	info := h.DefaultColorSwapchainCreateInfo(uint32(img.Width()), uint32(img.Height())) //nolint:gosec // image sizes are small
	info.CreateFlags |= xr.SwapchainCreateStaticImage

	sc, err := h.CreateSwapchain(info)
	if err != nil {
		return nil, err
	}
	err = h.AcquireWaitReleaseImage(sc, func(tex gfx.Texture) error {
		return h.global.Plugin.CopyRGBAImage(tex, 0, img)
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// CreateStaticSwapchainSolidColor creates a tiny static swapchain
// filled with a solid color.
func (h *CompositionHelper) CreateStaticSwapchainSolidColor(c raster.Color) (xr.Swapchain, error) {
	img := raster.New(2, 2)
	if err := img.DrawRect(0, 0, 2, 2, c); err != nil {
		return nil, err
	}
	return h.CreateStaticSwapchainImage(img)
}

// MakeDefaultSubImage returns a sub-image covering the full extent of
// one array slice of the swapchain.
func (h *CompositionHelper) MakeDefaultSubImage(sc xr.Swapchain, arrayIndex uint32) xr.SwapchainSubImage {
	info := sc.CreateInfo()
	return xr.SwapchainSubImage{
		Swapchain: sc,
		ImageRect: xr.Rect2Di{
			Extent: xr.Extent2Di{
				Width:  int32(info.Width),  //nolint:gosec // swapchain sizes fit in int32
				Height: int32(info.Height), //nolint:gosec // swapchain sizes fit in int32
			},
		},
		ImageArrayIndex: arrayIndex,
	}
}

// CreateQuadLayer builds a quad layer showing the swapchain at the
// given pose. Height follows the swapchain aspect ratio.
func (h *CompositionHelper) CreateQuadLayer(sc xr.Swapchain, space xr.Space, width float32, pose xr.Posef) *xr.CompositionLayerQuad {
	info := sc.CreateInfo()
	height := width
	if info.Width != 0 {
		height = width * float32(info.Height) / float32(info.Width)
	}
	return &xr.CompositionLayerQuad{
		LayerHeader:   xr.LayerHeader{Space: space},
		EyeVisibility: xr.EyeVisibilityBoth,
		SubImage:      h.MakeDefaultSubImage(sc, 0),
		Pose:          pose,
		Size:          xr.Extent2Df{Width: width, Height: height},
	}
}

// CreateProjectionLayer builds a projection layer with one
// recommended-size swapchain per view. Poses and fovs must be filled
// from LocateViews before each submission.
func (h *CompositionHelper) CreateProjectionLayer(space xr.Space) (*xr.CompositionLayerProjection, error) {
	views, err := h.EnumerateConfigurationViews()
	if err != nil {
		return nil, fmt.Errorf("cts: enumerate configuration views: %w", err)
	}

	proj := &xr.CompositionLayerProjection{LayerHeader: xr.LayerHeader{Space: space}}
	for _, v := range views {
		sc, err := h.CreateSwapchain(h.DefaultColorSwapchainCreateInfo(
			v.RecommendedImageRectWidth, v.RecommendedImageRectHeight))
		if err != nil {
			return nil, err
		}
		proj.Views = append(proj.Views, xr.CompositionLayerProjectionView{
			SubImage: h.MakeDefaultSubImage(sc, 0),
		})
	}
	return proj, nil
}

// EndFrame submits the layers for the given display time using the
// configured blend mode.
func (h *CompositionHelper) EndFrame(displayTime xr.Time, layers []xr.CompositionLayer) error {
	if err := h.session.EndFrame(displayTime, h.blendMode, layers); err != nil {
		return fmt.Errorf("cts: end frame: %w", err)
	}
	return nil
}

// Close destroys everything the helper created, in reverse creation
// order. Teardown errors are logged, not returned; Close is
// idempotent.
func (h *CompositionHelper) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	swapchains := h.swapchains
	spaces := h.spaces
	h.swapchains = nil
	h.spaces = nil
	h.mu.Unlock()

	for i := len(swapchains) - 1; i >= 0; i-- {
		if err := swapchains[i].Destroy(); err != nil {
			Logger().Warn("cts: destroy swapchain", "error", err)
		}
	}
	for i := len(spaces) - 1; i >= 0; i-- {
		if err := spaces[i].Destroy(); err != nil {
			Logger().Warn("cts: destroy space", "error", err)
		}
	}
	if err := h.session.Destroy(); err != nil {
		Logger().Warn("cts: destroy session", "error", err)
	}
	if err := h.instance.Destroy(); err != nil {
		Logger().Warn("cts: destroy instance", "error", err)
	}
}

// CreateTextImage renders word-wrapped text onto a dark background
// with a light border, the visual used for instruction quads.
func CreateTextImage(width, height int, text string, pixelHeight int) (*raster.Image, error) {
	g, err := requireGlobal()
	if err != nil {
		return nil, err
	}

	img := raster.New(width, height)
	if err := img.DrawRect(0, 0, width, height, raster.Color{R: 0.05, G: 0.05, B: 0.05, A: 1}); err != nil {
		return nil, err
	}
	border := pixelHeight / 8
	if border < 1 {
		border = 1
	}
	if err := img.DrawRectBorder(0, 0, width, height, border, raster.White); err != nil {
		return nil, err
	}

	margin := border * 2
	rect := image.Rect(margin, margin, width-margin, height-margin)
	if err := img.PutTextFrom(g.Fonts, rect, text, pixelHeight, raster.White, raster.WrapEnabled); err != nil {
		return nil, err
	}
	return img, nil
}
