package cts

import (
	"errors"
	"testing"

	"github.com/xrgo/cts/xr"
	"github.com/xrgo/cts/xrtest"
)

func TestRenderLoopRunsUntilCallbackStops(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	frames := 0
	loop := NewRenderLoop(h, func(fs xr.FrameState) (bool, error) {
		if !fs.ShouldRender {
			t.Errorf("frame %d: ShouldRender false while focused", frames)
		}
		if err := h.EndFrame(fs.PredictedDisplayTime, nil); err != nil {
			return false, err
		}
		frames++
		return frames < 3, nil
	})
	if err := loop.Loop(); err != nil {
		t.Fatalf("Loop: %v", err)
	}

	if frames != 3 {
		t.Fatalf("callback ran %d times, want 3", frames)
	}
	session := h.Session().(*xrtest.Session)
	if got := len(session.SubmittedFrames()); got != 3 {
		t.Fatalf("submitted frames = %d, want 3", got)
	}
}

func TestRenderLoopAdvancesDisplayTime(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	var times []xr.Time
	loop := NewRenderLoop(h, func(fs xr.FrameState) (bool, error) {
		times = append(times, fs.PredictedDisplayTime)
		if err := h.EndFrame(fs.PredictedDisplayTime, nil); err != nil {
			return false, err
		}
		return len(times) < 2, nil
	})
	if err := loop.Loop(); err != nil {
		t.Fatalf("Loop: %v", err)
	}

	if len(times) != 2 || times[1] <= times[0] {
		t.Fatalf("display times %v do not advance", times)
	}
}

func TestRenderLoopStopsOnSessionExit(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	frames := 0
	loop := NewRenderLoop(h, func(fs xr.FrameState) (bool, error) {
		if err := h.EndFrame(fs.PredictedDisplayTime, nil); err != nil {
			return false, err
		}
		frames++
		if err := h.Session().RequestExit(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err := loop.Loop(); err != nil {
		t.Fatalf("Loop: %v", err)
	}

	if frames != 1 {
		t.Fatalf("callback ran %d times after exit request, want 1", frames)
	}
	if state := h.SessionState(); state != xr.SessionStateStopping {
		t.Fatalf("session state = %s, want %s", state, xr.SessionStateStopping)
	}
}

func TestRenderLoopPropagatesCallbackError(t *testing.T) {
	h := newTestHelper(t, Options{})
	beginTestSession(t, h)

	boom := errors.New("render failed")
	loop := NewRenderLoop(h, func(fs xr.FrameState) (bool, error) {
		return false, boom
	})
	if err := loop.Loop(); !errors.Is(err, boom) {
		t.Fatalf("Loop error = %v, want callback error", err)
	}
}
