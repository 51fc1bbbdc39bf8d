package xr

// CompositionLayerFlags control how a layer is composited.
type CompositionLayerFlags uint64

const (
	// LayerCorrectChromaticAberration requests chromatic aberration
	// correction (historical; most compositors always correct).
	LayerCorrectChromaticAberration CompositionLayerFlags = 1 << iota

	// LayerBlendTextureSourceAlpha enables alpha blending of the layer
	// texture over layers behind it.
	LayerBlendTextureSourceAlpha

	// LayerUnpremultipliedAlpha marks the layer texture channels as not
	// premultiplied by alpha.
	LayerUnpremultipliedAlpha
)

// SwapchainSubImage selects a region and array slice of a swapchain to
// composite.
type SwapchainSubImage struct {
	Swapchain       Swapchain
	ImageRect       Rect2Di
	ImageArrayIndex uint32
}

// CompositionLayer is implemented by every layer type submitted to
// Session.EndFrame.
type CompositionLayer interface {
	LayerFlags() CompositionLayerFlags
	LayerSpace() Space
}

// LayerHeader holds the fields shared by all layer types. Embed it and
// the layer satisfies CompositionLayer.
type LayerHeader struct {
	Flags CompositionLayerFlags
	Space Space
}

func (h *LayerHeader) LayerFlags() CompositionLayerFlags { return h.Flags }
func (h *LayerHeader) LayerSpace() Space                 { return h.Space }

// CompositionLayerQuad is a planar rectangle positioned in a space.
type CompositionLayerQuad struct {
	LayerHeader
	EyeVisibility EyeVisibility
	SubImage      SwapchainSubImage
	Pose          Posef
	Size          Extent2Df
}

// CompositionLayerProjectionView is one eye of a projection layer.
type CompositionLayerProjectionView struct {
	Pose     Posef
	Fov      Fovf
	SubImage SwapchainSubImage
}

// CompositionLayerProjection represents planar projected images, one
// per view, rendered from the view poses of the frame being submitted.
type CompositionLayerProjection struct {
	LayerHeader
	Views []CompositionLayerProjectionView
}
