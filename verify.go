package cts

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/xrgo/cts/raster"
)

// VerifyOptions tunes image comparison.
type VerifyOptions struct {
	// Tolerance is the maximum per-channel difference for a pixel to
	// count as matching.
	Tolerance uint8

	// MaxBadFraction is the fraction of pixels allowed to exceed the
	// tolerance before the comparison fails.
	MaxBadFraction float64
}

// DefaultVerifyOptions allows small per-channel error and a sliver of
// outlier pixels, enough headroom for format round-trips and scaling.
func DefaultVerifyOptions() VerifyOptions {
	return VerifyOptions{Tolerance: 8, MaxBadFraction: 0.02}
}

// VerifyImage compares got against want. When the dimensions differ,
// got is scaled to want's size first. A nil error means the images
// match within the options' tolerance.
func VerifyImage(got, want *raster.Image, opts VerifyOptions) error {
	if got == nil || want == nil {
		return fmt.Errorf("cts: verify: nil image")
	}
	if want.Width() == 0 || want.Height() == 0 {
		return fmt.Errorf("cts: verify: empty reference image")
	}

	gotRGBA := got.ToImage()
	if got.Width() != want.Width() || got.Height() != want.Height() {
		scaled := image.NewRGBA(image.Rect(0, 0, want.Width(), want.Height()))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), gotRGBA, gotRGBA.Bounds(), xdraw.Src, nil)
		gotRGBA = scaled
	}

	wantPix := want.Pix()
	gotPix := gotRGBA.Pix

	bad := 0
	total := want.Width() * want.Height()
	for i := 0; i < len(wantPix); i += 4 {
		if absDiff(gotPix[i], wantPix[i]) > opts.Tolerance ||
			absDiff(gotPix[i+1], wantPix[i+1]) > opts.Tolerance ||
			absDiff(gotPix[i+2], wantPix[i+2]) > opts.Tolerance ||
			absDiff(gotPix[i+3], wantPix[i+3]) > opts.Tolerance {
			bad++
		}
	}

	frac := float64(bad) / float64(total)
	if frac > opts.MaxBadFraction {
		return fmt.Errorf("cts: verify: %d of %d pixels (%.2f%%) differ by more than %d",
			bad, total, frac*100, opts.Tolerance)
	}
	return nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
