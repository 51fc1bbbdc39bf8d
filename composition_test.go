package cts

import (
	"errors"
	"testing"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
	"github.com/xrgo/cts/xrtest"
)

func TestNewCompositionHelperNegotiatesSRGBFormat(t *testing.T) {
	h := newTestHelper(t, Options{})

	if h.ColorFormat() != gfx.FormatRGBA8SRGB {
		t.Fatalf("negotiated format = %d, want %d", h.ColorFormat(), gfx.FormatRGBA8SRGB)
	}
}

func TestBeginSessionReachesFocused(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	state, err := h.PollEvents()
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if state != xr.SessionStateFocused {
		t.Fatalf("session state after begin = %s, want %s", state, xr.SessionStateFocused)
	}
}

func TestStaticSwapchainSolidColor(t *testing.T) {
	g, _ := newTestGlobals(t, Options{})
	h, err := NewCompositionHelper(t.Name())
	if err != nil {
		t.Fatalf("NewCompositionHelper: %v", err)
	}
	t.Cleanup(h.Close)
	beginTestSession(t, h)

	sc, err := h.CreateStaticSwapchainSolidColor(raster.Red)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainSolidColor: %v", err)
	}

	fake := sc.(*xrtest.Swapchain)
	if fake.TotalAcquires() != 1 || fake.TotalReleases() != 1 {
		t.Fatalf("acquires/releases = %d/%d, want 1/1", fake.TotalAcquires(), fake.TotalReleases())
	}

	images, err := sc.EnumerateImages()
	if err != nil {
		t.Fatalf("EnumerateImages: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("static swapchain has %d images, want 1", len(images))
	}
	got, err := g.Plugin.(gfx.ImageReader).ReadImage(images[0].(gfx.Texture), 0)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	pix := got.Pix()
	if pix[0] != 255 || pix[1] != 0 || pix[2] != 0 || pix[3] != 255 {
		t.Fatalf("pixel = %v, want opaque red", pix[:4])
	}
}

func TestStaticSwapchainRejectsSecondAcquire(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	sc, err := h.CreateStaticSwapchainSolidColor(raster.Blue)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainSolidColor: %v", err)
	}
	err = h.AcquireWaitReleaseImage(sc, func(gfx.Texture) error { return nil })
	if !xr.IsResult(err, xr.ErrorCallOrderInvalid) {
		t.Fatalf("second acquire error = %v, want %s", err, xr.ErrorCallOrderInvalid)
	}
}

func TestAcquireWaitReleaseImageBalancesOnWriterError(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	sc, err := h.CreateSwapchain(h.DefaultColorSwapchainCreateInfo(8, 8))
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}

	boom := errors.New("writer failed")
	err = h.AcquireWaitReleaseImage(sc, func(gfx.Texture) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want writer error", err)
	}

	fake := sc.(*xrtest.Swapchain)
	if fake.TotalAcquires() != fake.TotalReleases() {
		t.Fatalf("acquires %d != releases %d after writer error",
			fake.TotalAcquires(), fake.TotalReleases())
	}
}

func TestAcquireWaitReleaseImageReleasesOnPanic(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	sc, err := h.CreateSwapchain(h.DefaultColorSwapchainCreateInfo(8, 8))
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("writer panic did not propagate")
			}
		}()
		_ = h.AcquireWaitReleaseImage(sc, func(gfx.Texture) error { panic("writer blew up") })
	}()

	fake := sc.(*xrtest.Swapchain)
	if fake.TotalReleases() != 1 {
		t.Fatalf("releases after panic = %d, want 1", fake.TotalReleases())
	}

	// The swapchain must be usable again.
	if err := h.AcquireWaitReleaseImage(sc, func(gfx.Texture) error { return nil }); err != nil {
		t.Fatalf("cycle after panic: %v", err)
	}
}

func TestCreateQuadLayerKeepsAspectRatio(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	sc, err := h.CreateSwapchain(h.DefaultColorSwapchainCreateInfo(128, 64))
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	space, err := h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}

	quad := h.CreateQuadLayer(sc, space, 1.0, xr.PoseAt(0, 0, -1))
	if quad.Size.Width != 1.0 || quad.Size.Height != 0.5 {
		t.Fatalf("quad size = %gx%g, want 1x0.5", quad.Size.Width, quad.Size.Height)
	}
	if quad.SubImage.ImageRect.Extent.Width != 128 || quad.SubImage.ImageRect.Extent.Height != 64 {
		t.Fatalf("sub-image extent = %+v, want full 128x64", quad.SubImage.ImageRect.Extent)
	}
	if quad.LayerSpace() != space {
		t.Fatal("quad layer not bound to its space")
	}
}

func TestCreateProjectionLayerOneSwapchainPerView(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	space, err := h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	proj, err := h.CreateProjectionLayer(space)
	if err != nil {
		t.Fatalf("CreateProjectionLayer: %v", err)
	}

	if len(proj.Views) != 2 {
		t.Fatalf("projection views = %d, want 2 for stereo", len(proj.Views))
	}
	if proj.Views[0].SubImage.Swapchain == proj.Views[1].SubImage.Swapchain {
		t.Fatal("views share a swapchain")
	}
	for i, v := range proj.Views {
		ext := v.SubImage.ImageRect.Extent
		if ext.Width != 256 || ext.Height != 256 {
			t.Fatalf("view %d extent = %+v, want recommended 256x256", i, ext)
		}
	}
}

func TestEndFrameSubmitsQuadLayer(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	space, err := h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	sc, err := h.CreateStaticSwapchainSolidColor(raster.Green)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainSolidColor: %v", err)
	}
	quad := h.CreateQuadLayer(sc, space, 0.5, xr.PoseAt(0, 0, -1))

	session := h.Session().(*xrtest.Session)
	fs, err := h.Session().WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := h.Session().BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := h.EndFrame(fs.PredictedDisplayTime, []xr.CompositionLayer{quad}); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}

	last, ok := session.LastFrame()
	if !ok {
		t.Fatal("no frame recorded")
	}
	if len(last.Layers) != 1 {
		t.Fatalf("submitted layers = %d, want 1", len(last.Layers))
	}
	if last.BlendMode != xr.EnvironmentBlendModeOpaque {
		t.Fatalf("blend mode = %v, want opaque", last.BlendMode)
	}
}

func TestArraySliceSubImage(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	info := h.DefaultColorSwapchainCreateInfo(16, 16)
	info.ArraySize = 2
	sc, err := h.CreateSwapchain(info)
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	err = h.AcquireWaitReleaseImage(sc, func(tex gfx.Texture) error {
		return Global().Plugin.ClearImageSlice(tex, 1, raster.Yellow)
	})
	if err != nil {
		t.Fatalf("AcquireWaitReleaseImage: %v", err)
	}

	space, err := h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	quad := h.CreateQuadLayer(sc, space, 1, xr.PoseAt(0, 0, -1))
	quad.SubImage = h.MakeDefaultSubImage(sc, 1)

	fs, err := h.Session().WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := h.Session().BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := h.EndFrame(fs.PredictedDisplayTime, []xr.CompositionLayer{quad}); err != nil {
		t.Fatalf("EndFrame with slice 1: %v", err)
	}

	// An out-of-range slice must be rejected at submission.
	quad.SubImage.ImageArrayIndex = 2
	fs, err = h.Session().WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := h.Session().BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	err = h.EndFrame(fs.PredictedDisplayTime, []xr.CompositionLayer{quad})
	if !xr.IsResult(err, xr.ErrorValidationFailure) {
		t.Fatalf("EndFrame with slice 2 = %v, want %s", err, xr.ErrorValidationFailure)
	}
}

func TestPerEyeQuadSubmission(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	space, err := h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	left, err := h.CreateStaticSwapchainSolidColor(raster.Red)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainSolidColor: %v", err)
	}
	right, err := h.CreateStaticSwapchainSolidColor(raster.Blue)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainSolidColor: %v", err)
	}

	leftQuad := h.CreateQuadLayer(left, space, 0.5, xr.PoseAt(0, 0, -1))
	leftQuad.EyeVisibility = xr.EyeVisibilityLeft
	rightQuad := h.CreateQuadLayer(right, space, 0.5, xr.PoseAt(0, 0, -1))
	rightQuad.EyeVisibility = xr.EyeVisibilityRight

	fs, err := h.Session().WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	if err := h.Session().BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := h.EndFrame(fs.PredictedDisplayTime, []xr.CompositionLayer{leftQuad, rightQuad}); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}

	session := h.Session().(*xrtest.Session)
	if n := session.QuadCountForEye(xr.EyeVisibilityLeft); n != 1 {
		t.Fatalf("left-eye quads = %d, want 1", n)
	}
	if n := session.QuadCountForEye(xr.EyeVisibilityRight); n != 1 {
		t.Fatalf("right-eye quads = %d, want 1", n)
	}
}

func TestGradientStaticSwapchain(t *testing.T) {
	g, _ := newTestGlobals(t, Options{})
	h, err := NewCompositionHelper(t.Name())
	if err != nil {
		t.Fatalf("NewCompositionHelper: %v", err)
	}
	t.Cleanup(h.Close)
	beginTestSession(t, h)

	// Vertical alpha ramp, opaque at the top, transparent at the bottom.
	const size = 16
	img := raster.New(size, size)
	for y := 0; y < size; y++ {
		a := 1 - float32(y)/float32(size-1)
		if err := img.DrawRect(0, y, size, 1, raster.Color{R: 1, G: 1, B: 1, A: a}); err != nil {
			t.Fatalf("DrawRect row %d: %v", y, err)
		}
	}

	sc, err := h.CreateStaticSwapchainImage(img)
	if err != nil {
		t.Fatalf("CreateStaticSwapchainImage: %v", err)
	}
	images, err := sc.EnumerateImages()
	if err != nil {
		t.Fatalf("EnumerateImages: %v", err)
	}
	got, err := g.Plugin.(gfx.ImageReader).ReadImage(images[0].(gfx.Texture), 0)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}

	pix := got.Pix()
	topAlpha := pix[3]
	bottomAlpha := pix[((size-1)*size)*4+3]
	if topAlpha != 255 || bottomAlpha != 0 {
		t.Fatalf("alpha ramp endpoints = %d..%d, want 255..0", topAlpha, bottomAlpha)
	}
	// Color channels stay straight (not premultiplied by alpha).
	if pix[((size-1)*size)*4] != 255 {
		t.Fatalf("bottom red channel = %d, want straight-alpha 255", pix[((size-1)*size)*4])
	}
}

func TestHelperCloseIsIdempotentAndFinal(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	h.Close()
	h.Close()

	_, err := h.CreateSwapchain(h.DefaultColorSwapchainCreateInfo(8, 8))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("CreateSwapchain after Close = %v, want ErrClosed", err)
	}
	_, err = h.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("CreateReferenceSpace after Close = %v, want ErrClosed", err)
	}
}

func TestCreateTextImageHasBorderAndText(t *testing.T) {
	newTestGlobals(t, Options{})

	img, err := CreateTextImage(200, 80, "press select to pass", 16)
	if err != nil {
		t.Fatalf("CreateTextImage: %v", err)
	}

	// Border pixel is white.
	pix := img.Pix()
	if pix[0] != 255 || pix[1] != 255 || pix[2] != 255 {
		t.Fatalf("corner pixel = %v, want white border", pix[:4])
	}

	// Some interior pixel must be brighter than the background.
	found := false
	for y := 4; y < 76 && !found; y++ {
		for x := 4; x < 196; x++ {
			i := (y*200 + x) * 4
			if pix[i] > 40 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("no text coverage found inside the image")
	}
}
