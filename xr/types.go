// Package xr defines the runtime API boundary consumed by the
// conformance harness. A runtime (or the in-process fake in package
// xrtest) implements the Runtime, Instance, Session, Swapchain and
// Space interfaces; everything else in this package is plain data.
package xr

import "time"

// Time is a runtime timestamp in nanoseconds. The epoch is chosen by
// the runtime; only differences and ordering are meaningful.
type Time int64

// Vector3f is a 3D vector.
type Vector3f struct {
	X, Y, Z float32
}

// Quaternionf is a rotation quaternion (x, y, z, w).
type Quaternionf struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the no-rotation quaternion.
var IdentityQuaternion = Quaternionf{W: 1}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quaternionf) Conjugate() Quaternionf {
	return Quaternionf{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Rotate applies the rotation q to v.
func (q Quaternionf) Rotate(v Vector3f) Vector3f {
	// v' = v + 2*cross(q.xyz, cross(q.xyz, v) + q.w*v)
	cx := q.Y*v.Z - q.Z*v.Y + q.W*v.X
	cy := q.Z*v.X - q.X*v.Z + q.W*v.Y
	cz := q.X*v.Y - q.Y*v.X + q.W*v.Z
	return Vector3f{
		X: v.X + 2*(q.Y*cz-q.Z*cy),
		Y: v.Y + 2*(q.Z*cx-q.X*cz),
		Z: v.Z + 2*(q.X*cy-q.Y*cx),
	}
}

// Posef is a rigid transform: rotation followed by translation.
type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

// IdentityPose returns the identity transform.
func IdentityPose() Posef {
	return Posef{Orientation: IdentityQuaternion}
}

// PoseAt returns an unrotated pose at the given position.
func PoseAt(x, y, z float32) Posef {
	return Posef{Orientation: IdentityQuaternion, Position: Vector3f{X: x, Y: y, Z: z}}
}

// InverseTransformPoint maps a point from the pose's parent space into
// the pose's local space.
func (p Posef) InverseTransformPoint(pt Vector3f) Vector3f {
	d := Vector3f{X: pt.X - p.Position.X, Y: pt.Y - p.Position.Y, Z: pt.Z - p.Position.Z}
	return p.Orientation.Conjugate().Rotate(d)
}

// Fovf holds the four half-angles of a view frustum, in radians.
// Left and down are typically negative.
type Fovf struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// Offset2Di is an integer 2D offset.
type Offset2Di struct {
	X, Y int32
}

// Extent2Di is an integer 2D size.
type Extent2Di struct {
	Width, Height int32
}

// Extent2Df is a floating-point 2D size in meters.
type Extent2Df struct {
	Width, Height float32
}

// Rect2Di is an integer rectangle.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// Color4f is an RGBA color with components in [0, 1].
type Color4f struct {
	R, G, B, A float32
}

// SessionState is the lifecycle state of a session.
type SessionState int32

const (
	SessionStateUnknown SessionState = iota
	SessionStateIdle
	SessionStateReady
	SessionStateSynchronized
	SessionStateVisible
	SessionStateFocused
	SessionStateStopping
	SessionStateLossPending
	SessionStateExiting
)

var sessionStateNames = [...]string{
	"UNKNOWN", "IDLE", "READY", "SYNCHRONIZED", "VISIBLE",
	"FOCUSED", "STOPPING", "LOSS_PENDING", "EXITING",
}

func (s SessionState) String() string {
	if s >= 0 && int(s) < len(sessionStateNames) {
		return sessionStateNames[s]
	}
	return "SESSION_STATE_INVALID"
}

// ReferenceSpaceType identifies a well-known reference space.
type ReferenceSpaceType int32

const (
	ReferenceSpaceView ReferenceSpaceType = iota + 1
	ReferenceSpaceLocal
	ReferenceSpaceStage
)

// EyeVisibility selects which eye(s) a layer is shown to.
type EyeVisibility int32

const (
	EyeVisibilityBoth EyeVisibility = iota
	EyeVisibilityLeft
	EyeVisibilityRight
)

// EnvironmentBlendMode describes how layers combine with the user's
// environment.
type EnvironmentBlendMode int32

const (
	EnvironmentBlendModeOpaque EnvironmentBlendMode = iota + 1
	EnvironmentBlendModeAdditive
	EnvironmentBlendModeAlphaBlend
)

// ViewConfigurationType identifies the primary view arrangement.
type ViewConfigurationType int32

const (
	ViewConfigurationPrimaryMono ViewConfigurationType = iota + 1
	ViewConfigurationPrimaryStereo
)

// ViewCount returns the number of views the configuration renders.
func (v ViewConfigurationType) ViewCount() int {
	if v == ViewConfigurationPrimaryStereo {
		return 2
	}
	return 1
}

// ViewStateFlags reports which parts of a located view are valid.
type ViewStateFlags uint64

const (
	ViewStateOrientationValid ViewStateFlags = 1 << iota
	ViewStatePositionValid
	ViewStateOrientationTracked
	ViewStatePositionTracked
)

// ViewState accompanies the views returned by Session.LocateViews.
type ViewState struct {
	Flags ViewStateFlags
}

// View is one located eye view.
type View struct {
	Pose Posef
	Fov  Fovf
}

// ViewConfigurationView describes the recommended and maximum image
// dimensions for one view.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       uint32
	MaxImageRectWidth               uint32
	RecommendedImageRectHeight      uint32
	MaxImageRectHeight              uint32
	RecommendedSwapchainSampleCount uint32
	MaxSwapchainSampleCount         uint32
}

// ViewConfigurationProperties describes a view configuration.
type ViewConfigurationProperties struct {
	Type       ViewConfigurationType
	FovMutable bool
}

// FrameState is returned by Session.WaitFrame.
type FrameState struct {
	PredictedDisplayTime   Time
	PredictedDisplayPeriod time.Duration
	ShouldRender           bool
}

// EventType discriminates Event.
type EventType int32

const (
	EventNone EventType = iota
	EventSessionStateChanged
	EventInstanceLossPending
	EventEventsLost
)

// Event is a queued runtime event. SessionState is set for
// EventSessionStateChanged.
type Event struct {
	Type         EventType
	SessionState SessionState
	Time         Time
}
