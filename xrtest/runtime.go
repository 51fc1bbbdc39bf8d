// Package xrtest provides an in-process headless runtime implementing
// the xr interfaces, in the spirit of net/http/httptest. It enforces
// the frame and swapchain call-order protocols strictly so harness
// tests catch ordering bugs, and it records submitted frames for
// inspection.
package xrtest

import (
	"sync"
	"time"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/xr"
)

// Runtime is a fake runtime backed by a graphics plugin for swapchain
// storage. The zero value is not usable; create one with NewRuntime.
type Runtime struct {
	plugin gfx.Plugin

	// DisplayPeriod is the fake frame period. Defaults to 16ms.
	DisplayPeriod time.Duration
}

// NewRuntime creates a runtime whose swapchains allocate images
// through plugin.
func NewRuntime(plugin gfx.Plugin) *Runtime {
	return &Runtime{plugin: plugin, DisplayPeriod: 16 * time.Millisecond}
}

// CreateInstance implements xr.Runtime.
func (r *Runtime) CreateInstance(appName string) (xr.Instance, error) {
	if appName == "" {
		return nil, xr.NewError("CreateInstance", xr.ErrorValidationFailure)
	}
	return &Instance{runtime: r, appName: appName}, nil
}

// Instance implements xr.Instance with a queued event stream.
type Instance struct {
	runtime *Runtime
	appName string

	mu        sync.Mutex
	events    []xr.Event
	session   *Session
	destroyed bool
}

func (i *Instance) queueStateEvent(s xr.SessionState) {
	i.events = append(i.events, xr.Event{
		Type:         xr.EventSessionStateChanged,
		SessionState: s,
		Time:         xr.Time(time.Now().UnixNano()),
	})
}

// CreateSession implements xr.Instance. The new session starts in the
// Idle state and immediately queues Idle and Ready state events.
func (i *Instance) CreateSession() (xr.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.destroyed {
		return nil, xr.NewError("CreateSession", xr.ErrorHandleInvalid)
	}
	if i.session != nil && !i.session.destroyed() {
		return nil, xr.NewError("CreateSession", xr.ErrorLimitReached)
	}

	// The session state tracks the last queued lifecycle event.
	s := &Session{instance: i, state: xr.SessionStateReady}
	i.session = s
	i.queueStateEvent(xr.SessionStateIdle)
	i.queueStateEvent(xr.SessionStateReady)
	return s, nil
}

// Stereo view geometry reported by the fake runtime.
const (
	viewWidth  = 256
	viewHeight = 256
	ipd        = 0.064
)

// EnumerateViewConfigurationViews implements xr.Instance.
func (i *Instance) EnumerateViewConfigurationViews(t xr.ViewConfigurationType) ([]xr.ViewConfigurationView, error) {
	views := make([]xr.ViewConfigurationView, t.ViewCount())
	for j := range views {
		views[j] = xr.ViewConfigurationView{
			RecommendedImageRectWidth:       viewWidth,
			MaxImageRectWidth:               viewWidth * 4,
			RecommendedImageRectHeight:      viewHeight,
			MaxImageRectHeight:              viewHeight * 4,
			RecommendedSwapchainSampleCount: 1,
			MaxSwapchainSampleCount:         4,
		}
	}
	return views, nil
}

// ViewConfigurationProperties implements xr.Instance.
func (i *Instance) ViewConfigurationProperties(t xr.ViewConfigurationType) (xr.ViewConfigurationProperties, error) {
	return xr.ViewConfigurationProperties{Type: t, FovMutable: false}, nil
}

// EnumerateEnvironmentBlendModes implements xr.Instance.
func (i *Instance) EnumerateEnvironmentBlendModes(t xr.ViewConfigurationType) ([]xr.EnvironmentBlendMode, error) {
	return []xr.EnvironmentBlendMode{xr.EnvironmentBlendModeOpaque}, nil
}

// PollEvent implements xr.Instance.
func (i *Instance) PollEvent() (xr.Event, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.destroyed {
		return xr.Event{}, false, xr.NewError("PollEvent", xr.ErrorHandleInvalid)
	}
	if len(i.events) == 0 {
		return xr.Event{}, false, nil
	}
	ev := i.events[0]
	i.events = i.events[1:]
	return ev, true, nil
}

// Destroy implements xr.Instance.
func (i *Instance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.destroyed = true
	return nil
}

// Ensure the fake implements the runtime boundary.
var (
	_ xr.Runtime   = (*Runtime)(nil)
	_ xr.Instance  = (*Instance)(nil)
	_ xr.Session   = (*Session)(nil)
	_ xr.Swapchain = (*Swapchain)(nil)
	_ xr.Space     = (*Space)(nil)
)
