package cts

import (
	"fmt"

	"github.com/xrgo/cts/xr"
)

// FrameFunc renders and submits one frame. It must call the helper's
// EndFrame (or Session().EndFrame) before returning. Returning false
// ends the loop.
type FrameFunc func(xr.FrameState) (more bool, err error)

// RenderLoop repeatedly runs the WaitFrame/BeginFrame/EndFrame cycle,
// delegating rendering and submission to a callback.
type RenderLoop struct {
	helper  *CompositionHelper
	onFrame FrameFunc
}

// NewRenderLoop wraps the helper's session in a frame loop.
func NewRenderLoop(h *CompositionHelper, onFrame FrameFunc) *RenderLoop {
	return &RenderLoop{helper: h, onFrame: onFrame}
}

// Frame runs a single loop iteration: pump events, wait and begin the
// frame, then hand off to the callback. It reports false when the loop
// should stop, either because the session is stopping or because the
// callback said so.
func (rl *RenderLoop) Frame() (bool, error) {
	state, err := rl.helper.PollEvents()
	if err != nil {
		return false, err
	}
	switch state {
	case xr.SessionStateStopping, xr.SessionStateExiting, xr.SessionStateLossPending:
		return false, nil
	}

	session := rl.helper.Session()
	fs, err := session.WaitFrame()
	if err != nil {
		return false, fmt.Errorf("cts: wait frame: %w", err)
	}
	if err := session.BeginFrame(); err != nil {
		return false, fmt.Errorf("cts: begin frame: %w", err)
	}
	return rl.onFrame(fs)
}

// Loop runs Frame until it reports done or an error.
func (rl *RenderLoop) Loop() error {
	for {
		more, err := rl.Frame()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
