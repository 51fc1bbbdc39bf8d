// Package cts is a conformance test harness for XR runtime layer
// composition.
//
// # Overview
//
// The harness drives one session of a runtime through its full
// lifecycle and submits composition layers whose content is generated
// on the CPU, so a human (or a screenshot comparison) can judge
// whether the runtime composites them correctly.
//
// # Quick Start
//
//	import (
//		"github.com/xrgo/cts"
//		"github.com/xrgo/cts/gfx"
//		"github.com/xrgo/cts/raster"
//		"github.com/xrgo/cts/xr"
//		"github.com/xrgo/cts/xrtest"
//	)
//
//	plugin := gfx.NewSoftwarePlugin()
//	_, _ = cts.Init(xrtest.NewRuntime(plugin), cts.Options{Plugin: plugin})
//	defer cts.Shutdown()
//
//	helper, _ := cts.NewCompositionHelper("Quad Occlusion")
//	defer helper.Close()
//
//	_ = helper.BeginSession()
//	sc, _ := helper.CreateStaticSwapchainSolidColor(raster.Red)
//	space, _ := helper.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
//	quad := helper.CreateQuadLayer(sc, space, 1.0, xr.PoseAt(0, 0, -2))
//
// # Architecture
//
// The harness is organized into:
//   - Root package: CompositionHelper, InteractiveLayerManager, RenderLoop
//   - xr: the runtime API boundary (interfaces and wire types)
//   - raster: CPU pixel buffers, baked fonts, text layout, image cache
//   - gfx: graphics plugin boundary with software and gogpu plugins
//   - xrtest: in-process headless runtime for the harness's own tests
//
// # Coordinate System
//
// World space is right-handed with X right, Y up and -Z forward.
// Image space has the origin at the top-left with Y increasing down.
package cts

// Version information
const (
	// Version is the current version of the harness
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
