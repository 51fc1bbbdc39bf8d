package xrtest

import (
	"sync"
	"time"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/xr"
)

// frame protocol phases
const (
	frameIdle = iota
	frameWaited
	frameBegun
)

// SubmittedFrame is one EndFrame call recorded by the fake session.
type SubmittedFrame struct {
	DisplayTime xr.Time
	BlendMode   xr.EnvironmentBlendMode
	Layers      []xr.CompositionLayer
}

// Session implements xr.Session. It enforces the frame protocol and
// records every submitted frame for test inspection.
type Session struct {
	instance *Instance

	mu         sync.Mutex
	state      xr.SessionState
	viewConfig xr.ViewConfigurationType
	began      bool
	frame      int
	nextTime   xr.Time
	gone       bool

	swapchains []*Swapchain
	spaces     []*Space
	submitted  []SubmittedFrame
}

func (s *Session) destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gone
}

// State returns the session's current lifecycle state.
func (s *Session) State() xr.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin implements xr.Session. The session must be in the Ready state.
// On success the fake immediately walks the state up to Focused,
// queuing an event per transition.
func (s *Session) Begin(t xr.ViewConfigurationType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.NewError("Begin", xr.ErrorHandleInvalid)
	}
	if s.began {
		return xr.NewError("Begin", xr.ErrorSessionRunning)
	}
	if s.state != xr.SessionStateReady {
		return xr.NewError("Begin", xr.ErrorSessionNotReady)
	}

	s.began = true
	s.viewConfig = t

	s.instance.mu.Lock()
	for _, st := range []xr.SessionState{xr.SessionStateSynchronized, xr.SessionStateVisible, xr.SessionStateFocused} {
		s.instance.queueStateEvent(st)
	}
	s.instance.mu.Unlock()
	s.state = xr.SessionStateFocused
	return nil
}

// RequestExit implements xr.Session.
func (s *Session) RequestExit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.NewError("RequestExit", xr.ErrorHandleInvalid)
	}
	if !s.began {
		return xr.NewError("RequestExit", xr.ErrorSessionNotRunning)
	}
	if s.state != xr.SessionStateStopping {
		s.state = xr.SessionStateStopping
		s.instance.mu.Lock()
		s.instance.queueStateEvent(xr.SessionStateStopping)
		s.instance.mu.Unlock()
	}
	return nil
}

// End implements xr.Session. Valid only in the Stopping state.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.NewError("End", xr.ErrorHandleInvalid)
	}
	if s.state != xr.SessionStateStopping {
		return xr.NewError("End", xr.ErrorSessionNotStopping)
	}

	s.began = false
	s.frame = frameIdle
	s.state = xr.SessionStateIdle
	s.instance.mu.Lock()
	s.instance.queueStateEvent(xr.SessionStateIdle)
	s.instance.queueStateEvent(xr.SessionStateExiting)
	s.instance.mu.Unlock()
	s.state = xr.SessionStateExiting
	return nil
}

// WaitFrame implements xr.Session.
func (s *Session) WaitFrame() (xr.FrameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.FrameState{}, xr.NewError("WaitFrame", xr.ErrorHandleInvalid)
	}
	if !s.began {
		return xr.FrameState{}, xr.NewError("WaitFrame", xr.ErrorSessionNotRunning)
	}
	if s.frame != frameIdle {
		return xr.FrameState{}, xr.NewError("WaitFrame", xr.ErrorCallOrderInvalid)
	}

	period := clampDisplayPeriod(s.instance.runtime.DisplayPeriod)
	s.nextTime += xr.Time(period)
	s.frame = frameWaited
	return xr.FrameState{
		PredictedDisplayTime:   s.nextTime,
		PredictedDisplayPeriod: period,
		ShouldRender:           s.state >= xr.SessionStateVisible && s.state <= xr.SessionStateFocused,
	}, nil
}

// BeginFrame implements xr.Session.
func (s *Session) BeginFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.NewError("BeginFrame", xr.ErrorHandleInvalid)
	}
	if !s.began {
		return xr.NewError("BeginFrame", xr.ErrorSessionNotRunning)
	}
	if s.frame != frameWaited {
		return xr.NewError("BeginFrame", xr.ErrorCallOrderInvalid)
	}
	s.frame = frameBegun
	return nil
}

// EndFrame implements xr.Session. Layers are validated and recorded.
func (s *Session) EndFrame(displayTime xr.Time, blendMode xr.EnvironmentBlendMode, layers []xr.CompositionLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.NewError("EndFrame", xr.ErrorHandleInvalid)
	}
	if !s.began {
		return xr.NewError("EndFrame", xr.ErrorSessionNotRunning)
	}
	if s.frame != frameBegun {
		return xr.NewError("EndFrame", xr.ErrorCallOrderInvalid)
	}
	if displayTime <= 0 {
		return xr.NewError("EndFrame", xr.ErrorValidationFailure)
	}
	if blendMode != xr.EnvironmentBlendModeOpaque {
		return xr.NewError("EndFrame", xr.ErrorValidationFailure)
	}
	for _, l := range layers {
		if l == nil {
			return xr.NewError("EndFrame", xr.ErrorValidationFailure)
		}
		if err := s.validateLayerLocked(l); err != nil {
			return err
		}
	}

	s.frame = frameIdle
	s.submitted = append(s.submitted, SubmittedFrame{
		DisplayTime: displayTime,
		BlendMode:   blendMode,
		Layers:      append([]xr.CompositionLayer(nil), layers...),
	})
	return nil
}

// validateLayerLocked checks that a layer references live, fully
// released swapchains and in-range array slices.
func (s *Session) validateLayerLocked(l xr.CompositionLayer) error {
	check := func(sub xr.SwapchainSubImage) error {
		sc, ok := sub.Swapchain.(*Swapchain)
		if !ok || sc == nil {
			return xr.NewError("EndFrame", xr.ErrorHandleInvalid)
		}
		sc.mu.Lock()
		defer sc.mu.Unlock()
		if sc.gone {
			return xr.NewError("EndFrame", xr.ErrorHandleInvalid)
		}
		if sc.totalReleases == 0 {
			// Submitting a swapchain that has never been written.
			return xr.NewError("EndFrame", xr.ErrorLayerInvalid)
		}
		if sub.ImageArrayIndex >= sc.info.ArraySize {
			return xr.NewError("EndFrame", xr.ErrorValidationFailure)
		}
		return nil
	}

	switch layer := l.(type) {
	case *xr.CompositionLayerQuad:
		return check(layer.SubImage)
	case *xr.CompositionLayerProjection:
		if len(layer.Views) != s.viewConfig.ViewCount() {
			return xr.NewError("EndFrame", xr.ErrorValidationFailure)
		}
		for _, v := range layer.Views {
			if err := check(v.SubImage); err != nil {
				return err
			}
		}
		return nil
	default:
		return xr.NewError("EndFrame", xr.ErrorValidationFailure)
	}
}

// SubmittedFrames returns a snapshot of all EndFrame submissions.
func (s *Session) SubmittedFrames() []SubmittedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SubmittedFrame(nil), s.submitted...)
}

// LastFrame returns the most recent submission, if any.
func (s *Session) LastFrame() (SubmittedFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.submitted) == 0 {
		return SubmittedFrame{}, false
	}
	return s.submitted[len(s.submitted)-1], true
}

// QuadCountForEye counts quad layers across all submitted frames that
// were visible to the given eye.
func (s *Session) QuadCountForEye(eye xr.EyeVisibility) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, f := range s.submitted {
		for _, l := range f.Layers {
			q, ok := l.(*xr.CompositionLayerQuad)
			if !ok {
				continue
			}
			if q.EyeVisibility == xr.EyeVisibilityBoth || q.EyeVisibility == eye {
				n++
			}
		}
	}
	return n
}

// CreateReferenceSpace implements xr.Session.
func (s *Session) CreateReferenceSpace(t xr.ReferenceSpaceType, pose xr.Posef) (xr.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return nil, xr.NewError("CreateReferenceSpace", xr.ErrorHandleInvalid)
	}
	sp := &Space{Type: t, Pose: pose}
	s.spaces = append(s.spaces, sp)
	return sp, nil
}

// swapchainFormats is the fake's format list, sRGB first to match
// runtime preference ordering.
var swapchainFormats = []int64{gfx.FormatRGBA8SRGB, gfx.FormatBGRA8SRGB, gfx.FormatRGBA8Unorm, gfx.FormatBGRA8Unorm}

// EnumerateSwapchainFormats implements xr.Session.
func (s *Session) EnumerateSwapchainFormats() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return nil, xr.NewError("EnumerateSwapchainFormats", xr.ErrorHandleInvalid)
	}
	return append([]int64(nil), swapchainFormats...), nil
}

// LocateViews implements xr.Session. The fake reports fully tracked
// symmetric views separated by a fixed IPD.
func (s *Session) LocateViews(space xr.Space, displayTime xr.Time, t xr.ViewConfigurationType) (xr.ViewState, []xr.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return xr.ViewState{}, nil, xr.NewError("LocateViews", xr.ErrorHandleInvalid)
	}
	if space == nil || displayTime <= 0 {
		return xr.ViewState{}, nil, xr.NewError("LocateViews", xr.ErrorValidationFailure)
	}

	fov := xr.Fovf{AngleLeft: -0.785, AngleRight: 0.785, AngleUp: 0.785, AngleDown: -0.785}
	count := t.ViewCount()
	views := make([]xr.View, count)
	for i := range views {
		x := float32(0)
		if count == 2 {
			x = -ipd / 2
			if i == 1 {
				x = ipd / 2
			}
		}
		views[i] = xr.View{Pose: xr.PoseAt(x, 0, 0), Fov: fov}
	}
	state := xr.ViewState{
		Flags: xr.ViewStateOrientationValid | xr.ViewStatePositionValid |
			xr.ViewStateOrientationTracked | xr.ViewStatePositionTracked,
	}
	return state, views, nil
}

// Destroy implements xr.Session. Child swapchains and spaces become
// invalid with it.
func (s *Session) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range s.swapchains {
		_ = sc.Destroy()
	}
	s.swapchains = nil
	s.spaces = nil
	s.gone = true
	return nil
}

// Space implements xr.Space.
type Space struct {
	Type xr.ReferenceSpaceType
	Pose xr.Posef

	mu   sync.Mutex
	gone bool
}

// Destroy implements xr.Space.
func (sp *Space) Destroy() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.gone = true
	return nil
}

// clampDisplayPeriod keeps test-configured periods sane.
func clampDisplayPeriod(d time.Duration) time.Duration {
	if d <= 0 {
		return 16 * time.Millisecond
	}
	return d
}
