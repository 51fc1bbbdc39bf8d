package xr

import "time"

// SwapchainUsageFlags declare how swapchain images will be used.
type SwapchainUsageFlags uint64

const (
	SwapchainUsageColorAttachment SwapchainUsageFlags = 1 << iota
	SwapchainUsageDepthStencilAttachment
	SwapchainUsageUnorderedAccess
	SwapchainUsageTransferSrc
	SwapchainUsageTransferDst
	SwapchainUsageSampled
	SwapchainUsageMutableFormat
)

// SwapchainCreateFlags modify swapchain creation.
type SwapchainCreateFlags uint64

const (
	// SwapchainCreateProtectedContent requests protected memory.
	SwapchainCreateProtectedContent SwapchainCreateFlags = 1 << iota

	// SwapchainCreateStaticImage creates a single-image swapchain whose
	// content is written exactly once: the image may be acquired and
	// released only one time.
	SwapchainCreateStaticImage
)

// SwapchainCreateInfo describes a swapchain to create. Format values
// are graphics-API specific; the graphics plugin interprets them.
type SwapchainCreateInfo struct {
	CreateFlags SwapchainCreateFlags
	UsageFlags  SwapchainUsageFlags
	Format      int64
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// SwapchainImage is an opaque handle to one image of a swapchain. The
// graphics plugin that backs the session owns the concrete type.
type SwapchainImage interface{}

// Runtime is the entry point a runtime implementation provides.
type Runtime interface {
	// CreateInstance creates an instance for the named application.
	CreateInstance(appName string) (Instance, error)
}

// Instance owns sessions and the event queue.
type Instance interface {
	CreateSession() (Session, error)

	EnumerateViewConfigurationViews(t ViewConfigurationType) ([]ViewConfigurationView, error)
	ViewConfigurationProperties(t ViewConfigurationType) (ViewConfigurationProperties, error)
	EnumerateEnvironmentBlendModes(t ViewConfigurationType) ([]EnvironmentBlendMode, error)

	// PollEvent pops the next queued event. ok is false when the queue
	// is empty.
	PollEvent() (ev Event, ok bool, err error)

	Destroy() error
}

// Session is one rendering session. Frame calls follow the
// WaitFrame -> BeginFrame -> EndFrame protocol; calling them out of
// order fails with ErrorCallOrderInvalid.
type Session interface {
	Begin(t ViewConfigurationType) error
	End() error
	RequestExit() error

	CreateReferenceSpace(t ReferenceSpaceType, pose Posef) (Space, error)
	EnumerateSwapchainFormats() ([]int64, error)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)

	WaitFrame() (FrameState, error)
	BeginFrame() error
	EndFrame(displayTime Time, blendMode EnvironmentBlendMode, layers []CompositionLayer) error

	LocateViews(space Space, displayTime Time, t ViewConfigurationType) (ViewState, []View, error)

	Destroy() error
}

// Swapchain is a rotating set of images. Images must be used through
// the Acquire -> Wait -> Release cycle; at most one image may be
// acquired and unreleased at a time.
type Swapchain interface {
	CreateInfo() SwapchainCreateInfo
	EnumerateImages() ([]SwapchainImage, error)

	Acquire() (index uint32, err error)
	Wait(timeout time.Duration) error
	Release() error

	Destroy() error
}

// Space is a located reference space.
type Space interface {
	Destroy() error
}
