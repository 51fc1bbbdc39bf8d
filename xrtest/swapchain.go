package xrtest

import (
	"sync"
	"time"

	"github.com/xrgo/cts/gfx"
	"github.com/xrgo/cts/xr"
)

// Image counts for regular and static swapchains.
const (
	swapchainImageCount = 3
)

// CreateSwapchain implements xr.Session. Images are allocated through
// the runtime's graphics plugin; static-image swapchains get a single
// image that may be acquired only once.
func (s *Session) CreateSwapchain(info xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone {
		return nil, xr.NewError("CreateSwapchain", xr.ErrorHandleInvalid)
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, xr.NewError("CreateSwapchain", xr.ErrorValidationFailure)
	}
	if info.ArraySize == 0 {
		info.ArraySize = 1
	}
	if info.FaceCount == 0 {
		info.FaceCount = 1
	}
	if info.MipCount == 0 {
		info.MipCount = 1
	}
	if info.SampleCount == 0 {
		info.SampleCount = 1
	}

	ok := false
	for _, f := range swapchainFormats {
		if f == info.Format {
			ok = true
			break
		}
	}
	if !ok {
		return nil, xr.NewError("CreateSwapchain", xr.ErrorSwapchainFormatUnsupported)
	}

	count := swapchainImageCount
	if info.CreateFlags&xr.SwapchainCreateStaticImage != 0 {
		count = 1
	}

	sc := &Swapchain{session: s, info: info}
	for i := 0; i < count; i++ {
		tex, err := s.instance.runtime.plugin.MakeSwapchainTexture(info)
		if err != nil {
			for _, img := range sc.images {
				img.Release()
			}
			return nil, xr.NewError("CreateSwapchain", xr.ErrorRuntimeFailure)
		}
		sc.images = append(sc.images, tex)
	}

	s.swapchains = append(s.swapchains, sc)
	return sc, nil
}

// Swapchain implements xr.Swapchain with strict call-order checking:
// at most one image acquired at a time, Wait only after Acquire,
// Release only after Wait, and a static swapchain acquires only once.
type Swapchain struct {
	session *Session

	mu            sync.Mutex
	info          xr.SwapchainCreateInfo
	images        []gfx.Texture
	next          int
	acquired      bool
	acquiredIndex uint32
	waited        bool
	totalAcquires int
	totalReleases int
	gone          bool
}

// CreateInfo implements xr.Swapchain.
func (sc *Swapchain) CreateInfo() xr.SwapchainCreateInfo {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.info
}

// EnumerateImages implements xr.Swapchain. The returned handles are
// gfx.Texture values from the runtime's plugin.
func (sc *Swapchain) EnumerateImages() ([]xr.SwapchainImage, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gone {
		return nil, xr.NewError("EnumerateImages", xr.ErrorHandleInvalid)
	}
	images := make([]xr.SwapchainImage, len(sc.images))
	for i, tex := range sc.images {
		images[i] = tex
	}
	return images, nil
}

// Acquire implements xr.Swapchain.
func (sc *Swapchain) Acquire() (uint32, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gone {
		return 0, xr.NewError("Acquire", xr.ErrorHandleInvalid)
	}
	if sc.acquired {
		return 0, xr.NewError("Acquire", xr.ErrorCallOrderInvalid)
	}
	if sc.info.CreateFlags&xr.SwapchainCreateStaticImage != 0 && sc.totalAcquires > 0 {
		return 0, xr.NewError("Acquire", xr.ErrorCallOrderInvalid)
	}

	index := uint32(sc.next) //nolint:gosec // bounded by image count
	sc.next = (sc.next + 1) % len(sc.images)
	sc.acquired = true
	sc.acquiredIndex = index
	sc.waited = false
	sc.totalAcquires++
	return index, nil
}

// Wait implements xr.Swapchain. The fake never actually blocks; a
// non-positive timeout still fails like a real runtime would.
func (sc *Swapchain) Wait(timeout time.Duration) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gone {
		return xr.NewError("Wait", xr.ErrorHandleInvalid)
	}
	if !sc.acquired || sc.waited {
		return xr.NewError("Wait", xr.ErrorCallOrderInvalid)
	}
	if timeout <= 0 {
		return xr.NewError("Wait", xr.TimeoutExpired)
	}
	sc.waited = true
	return nil
}

// Release implements xr.Swapchain.
func (sc *Swapchain) Release() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gone {
		return xr.NewError("Release", xr.ErrorHandleInvalid)
	}
	if !sc.acquired || !sc.waited {
		return xr.NewError("Release", xr.ErrorCallOrderInvalid)
	}
	sc.acquired = false
	sc.waited = false
	sc.totalReleases++
	return nil
}

// TotalAcquires returns how many times Acquire has succeeded.
func (sc *Swapchain) TotalAcquires() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.totalAcquires
}

// TotalReleases returns how many times Release has succeeded.
func (sc *Swapchain) TotalReleases() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.totalReleases
}

// Destroy implements xr.Swapchain.
func (sc *Swapchain) Destroy() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gone {
		return nil
	}
	for _, img := range sc.images {
		img.Release()
	}
	sc.images = nil
	sc.gone = true
	return nil
}
