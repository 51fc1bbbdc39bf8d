package cts

import (
	"strings"
	"testing"

	"github.com/xrgo/cts/raster"
)

func solidImage(t *testing.T, w, h int, c raster.Color) *raster.Image {
	t.Helper()
	img := raster.New(w, h)
	if err := img.DrawRect(0, 0, w, h, c); err != nil {
		t.Fatalf("DrawRect: %v", err)
	}
	return img
}

func TestVerifyImageIdentical(t *testing.T) {
	a := solidImage(t, 16, 16, raster.Red)
	b := solidImage(t, 16, 16, raster.Red)
	if err := VerifyImage(a, b, DefaultVerifyOptions()); err != nil {
		t.Fatalf("identical images: %v", err)
	}
}

func TestVerifyImageWithinTolerance(t *testing.T) {
	a := solidImage(t, 16, 16, raster.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})
	b := solidImage(t, 16, 16, raster.Color{R: 0.51, G: 0.5, B: 0.5, A: 1})
	if err := VerifyImage(a, b, VerifyOptions{Tolerance: 8, MaxBadFraction: 0}); err != nil {
		t.Fatalf("images within tolerance: %v", err)
	}
}

func TestVerifyImageDetectsDifference(t *testing.T) {
	a := solidImage(t, 16, 16, raster.Red)
	b := solidImage(t, 16, 16, raster.Green)
	err := VerifyImage(a, b, DefaultVerifyOptions())
	if err == nil {
		t.Fatal("red vs green passed")
	}
	if !strings.Contains(err.Error(), "pixels") {
		t.Fatalf("error = %v, want pixel diff detail", err)
	}
}

func TestVerifyImageAllowsBadFraction(t *testing.T) {
	a := solidImage(t, 10, 10, raster.Red)
	b := solidImage(t, 10, 10, raster.Red)
	// Corrupt a single pixel: 1% bad, under a 2% allowance.
	b.Pix()[0] = 0
	b.Pix()[1] = 255
	if err := VerifyImage(a, b, VerifyOptions{Tolerance: 4, MaxBadFraction: 0.02}); err != nil {
		t.Fatalf("1%% bad pixels rejected: %v", err)
	}
	if err := VerifyImage(a, b, VerifyOptions{Tolerance: 4, MaxBadFraction: 0.005}); err == nil {
		t.Fatal("1% bad pixels accepted under 0.5% allowance")
	}
}

func TestVerifyImageScalesToReference(t *testing.T) {
	a := solidImage(t, 64, 64, raster.Blue)
	b := solidImage(t, 32, 32, raster.Blue)
	if err := VerifyImage(a, b, DefaultVerifyOptions()); err != nil {
		t.Fatalf("scaled comparison: %v", err)
	}
}

func TestVerifyImageNilAndEmpty(t *testing.T) {
	a := solidImage(t, 8, 8, raster.Red)
	if err := VerifyImage(nil, a, DefaultVerifyOptions()); err == nil {
		t.Fatal("nil got accepted")
	}
	if err := VerifyImage(a, nil, DefaultVerifyOptions()); err == nil {
		t.Fatal("nil want accepted")
	}
	if err := VerifyImage(a, raster.New(0, 0), DefaultVerifyOptions()); err == nil {
		t.Fatal("empty reference accepted")
	}
}
