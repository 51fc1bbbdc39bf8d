package cts

import (
	"fmt"
	"sync"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/raster"
	"github.com/xrgo/cts/xr"
)

// Verdict is the outcome of an interactive test.
type Verdict int

const (
	VerdictPending Verdict = iota
	VerdictPassed
	VerdictFailed
	VerdictSkipped
)

func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictPassed:
		return "passed"
	case VerdictFailed:
		return "failed"
	case VerdictSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Decided reports whether the verdict is terminal.
func (v Verdict) Decided() bool { return v != VerdictPending }

// Phase is where an interactive test is in its life.
type Phase int

const (
	// PhaseAccumulating: layers are being added, nothing submitted yet.
	PhaseAccumulating Phase = iota

	// PhaseRunning: frames are being submitted, too few for a verdict.
	PhaseRunning

	// PhaseAwaitingVerdict: enough frames submitted, waiting on the
	// automated comparison or a human.
	PhaseAwaitingVerdict

	// PhaseDone: the verdict is in.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAccumulating:
		return "accumulating"
	case PhaseRunning:
		return "running"
	case PhaseAwaitingVerdict:
		return "awaiting verdict"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// InteractiveLayerManager accumulates composition layers for a test,
// overlays a description quad telling the operator what to look for,
// and drives the submission loop until a verdict is reached. The
// verdict comes from an automated comparison against a reference
// image when one is given, from Confirm, or from the verdict timeout
// when neither decides in time.
type InteractiveLayerManager struct {
	helper      *CompositionHelper
	description string
	refImage    *raster.Image
	descQuad    *xr.CompositionLayerQuad
	localSpace  xr.Space

	mu           sync.Mutex
	layers       []xr.CompositionLayer
	frames       int
	phase        Phase
	verdict      Verdict
	reason       string
	verdictTimer *CountdownTimer
}

// NewInteractiveLayerManager sets up the manager for one interactive
// test. refImagePath may be empty for a purely manual test; when set,
// the image is loaded through the shared image cache and used for the
// automated verdict.
func NewInteractiveLayerManager(helper *CompositionHelper, refImagePath, description string) (*InteractiveLayerManager, error) {
	g := helper.global

	localSpace, err := helper.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if err != nil {
		return nil, err
	}

	var refImage *raster.Image
	if refImagePath != "" {
		refImage, err = g.ImageCache.Load(refImagePath)
		if err != nil {
			return nil, fmt.Errorf("cts: load reference image: %w", err)
		}
	}

	descImg, err := CreateTextImage(768, 256, description, 32)
	if err != nil {
		return nil, fmt.Errorf("cts: render description: %w", err)
	}
	descSwapchain, err := helper.CreateStaticSwapchainImage(descImg)
	if err != nil {
		return nil, fmt.Errorf("cts: description swapchain: %w", err)
	}
	descQuad := helper.CreateQuadLayer(descSwapchain, localSpace, 0.75, xr.PoseAt(0, -0.35, -1.2))
	descQuad.Flags |= xr.LayerBlendTextureSourceAlpha

	return &InteractiveLayerManager{
		helper:       helper,
		description:  description,
		refImage:     refImage,
		descQuad:     descQuad,
		localSpace:   localSpace,
		verdictTimer: NewCountdownTimer(g.Options.VerdictTimeout),
	}, nil
}

// LocalSpace returns the space the description quad lives in, handy
// for placing the layers under test alongside it.
func (m *InteractiveLayerManager) LocalSpace() xr.Space { return m.localSpace }

// AddLayer adds a layer under test, submitted below the description
// quad on every frame.
func (m *InteractiveLayerManager) AddLayer(layer xr.CompositionLayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, layer)
}

// Skip records a skipped verdict with a reason. A skip is not a
// failure; it short-circuits any later Pass or Fail.
func (m *InteractiveLayerManager) Skip(reason string) {
	m.setVerdict(VerdictSkipped, reason)
}

// Pass records a passing verdict.
func (m *InteractiveLayerManager) Pass() {
	m.setVerdict(VerdictPassed, "")
}

// Fail records a failing verdict with a reason.
func (m *InteractiveLayerManager) Fail(reason string) {
	m.setVerdict(VerdictFailed, reason)
}

// Confirm records the operator's answer for a manual test.
func (m *InteractiveLayerManager) Confirm(passed bool, reason string) {
	if passed {
		m.setVerdict(VerdictPassed, reason)
	} else {
		m.setVerdict(VerdictFailed, reason)
	}
}

// setVerdict records the first terminal verdict; later calls lose.
func (m *InteractiveLayerManager) setVerdict(v Verdict, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verdict.Decided() {
		return
	}
	m.verdict = v
	m.reason = reason
	m.phase = PhaseDone
	Logger().Info("cts: verdict", "verdict", v.String(), "reason", reason, "frames", m.frames)
}

// Result returns the verdict and its reason.
func (m *InteractiveLayerManager) Result() (Verdict, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verdict, m.reason
}

// Phase returns where the test is in its life.
func (m *InteractiveLayerManager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// FrameCount returns how many frames have been submitted.
func (m *InteractiveLayerManager) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// EndFrame submits the accumulated layers plus any extras for this
// frame, then advances the verdict state. It reports false once the
// verdict is in, making it usable directly as a render loop callback.
func (m *InteractiveLayerManager) EndFrame(fs xr.FrameState, extra ...xr.CompositionLayer) (bool, error) {
	var layers []xr.CompositionLayer
	if fs.ShouldRender {
		m.mu.Lock()
		layers = append(layers, m.layers...)
		m.mu.Unlock()
		layers = append(layers, extra...)
		layers = append(layers, m.descQuad)
	}

	if err := m.helper.EndFrame(fs.PredictedDisplayTime, layers); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.frames++
	frames := m.frames
	if m.phase == PhaseAccumulating {
		m.phase = PhaseRunning
	}
	ready := frames >= m.helper.global.Options.MinFramesBeforeVerdict
	if ready && m.phase == PhaseRunning {
		m.phase = PhaseAwaitingVerdict
	}
	decided := m.verdict.Decided()
	m.mu.Unlock()

	if decided {
		return false, nil
	}
	if !ready {
		return true, nil
	}

	if m.refImage != nil {
		if err := m.checkAgainstReference(); err != nil {
			return false, err
		}
	}

	// The timeout applies whether or not an automated comparison ran;
	// a plugin without readback must still terminate.
	if v, _ := m.Result(); !v.Decided() && m.verdictTimer.IsTimeUp() {
		m.Fail("no verdict before timeout")
	}

	v, _ := m.Result()
	return !v.Decided(), nil
}

// RunUntilVerdict drives a render loop with EndFrame until the
// verdict is decided or the session stops.
func (m *InteractiveLayerManager) RunUntilVerdict() (Verdict, string, error) {
	// A verdict recorded before the loop starts, such as an early Skip,
	// ends the test without submitting any frame.
	if v, reason := m.Result(); v.Decided() {
		return v, reason, nil
	}

	loop := NewRenderLoop(m.helper, func(fs xr.FrameState) (bool, error) {
		return m.EndFrame(fs)
	})
	if err := loop.Loop(); err != nil {
		v, reason := m.Result()
		return v, reason, err
	}
	v, reason := m.Result()
	return v, reason, nil
}

// checkAgainstReference reads back the first layer under test and
// compares it with the reference image. Only static swapchains are
// eligible: their single image holds the submitted content, while a
// non-static swapchain's image list says nothing about which image was
// last released.
func (m *InteractiveLayerManager) checkAgainstReference() error {
	reader, ok := m.helper.global.Plugin.(gfx.ImageReader)
	if !ok {
		// Plugin cannot read textures back; leave the verdict to the
		// operator or the timeout.
		return nil
	}

	m.mu.Lock()
	var sub *xr.SwapchainSubImage
	for _, l := range m.layers {
		if quad, isQuad := l.(*xr.CompositionLayerQuad); isQuad {
			sub = &quad.SubImage
			break
		}
		if proj, isProj := l.(*xr.CompositionLayerProjection); isProj && len(proj.Views) > 0 {
			sub = &proj.Views[0].SubImage
			break
		}
	}
	m.mu.Unlock()
	if sub == nil {
		return fmt.Errorf("cts: automated verdict needs at least one quad or projection layer")
	}
	if sub.Swapchain.CreateInfo().CreateFlags&xr.SwapchainCreateStaticImage == 0 {
		return nil
	}

	images, err := sub.Swapchain.EnumerateImages()
	if err != nil {
		return fmt.Errorf("cts: enumerate images for readback: %w", err)
	}
	if len(images) == 0 {
		return fmt.Errorf("cts: readback swapchain has no images")
	}
	tex, ok := images[0].(gfx.Texture)
	if !ok {
		return fmt.Errorf("cts: readback image %T is not a plugin texture", images[0])
	}
	got, err := reader.ReadImage(tex, int(sub.ImageArrayIndex))
	if err != nil {
		return fmt.Errorf("cts: read back image: %w", err)
	}

	if verr := VerifyImage(got, m.refImage, DefaultVerifyOptions()); verr != nil {
		m.Fail(verr.Error())
	} else {
		m.Pass()
	}
	return nil
}
