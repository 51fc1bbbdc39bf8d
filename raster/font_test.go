package raster

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestFontRegistryGet(t *testing.T) {
	reg, err := NewFontRegistry(gomono.TTF)
	if err != nil {
		t.Fatalf("NewFontRegistry: %v", err)
	}

	f, err := reg.Get(16)
	if err != nil {
		t.Fatalf("Get(16): %v", err)
	}
	if f.PixelHeight != 16 {
		t.Errorf("PixelHeight = %d, want 16", f.PixelHeight)
	}

	again, err := reg.Get(16)
	if err != nil {
		t.Fatalf("second Get(16): %v", err)
	}
	if again != f {
		t.Error("second Get returned a different baked font")
	}

	other, err := reg.Get(32)
	if err != nil {
		t.Fatalf("Get(32): %v", err)
	}
	if other == f {
		t.Error("different heights share a baked font")
	}
	if other.Advance('M') <= f.Advance('M') {
		t.Errorf("advance at 32px (%f) not larger than at 16px (%f)",
			other.Advance('M'), f.Advance('M'))
	}
}

func TestFontRegistryConcurrentGet(t *testing.T) {
	reg, err := NewFontRegistry(gomono.TTF)
	if err != nil {
		t.Fatalf("NewFontRegistry: %v", err)
	}

	const workers = 8
	results := make([]*BakedFont, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := reg.Get(20)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = f
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get calls returned different baked fonts")
		}
	}
}

func TestFontRegistryBadInput(t *testing.T) {
	if _, err := NewFontRegistry([]byte("not a font")); !errors.Is(err, ErrBadFont) {
		t.Errorf("NewFontRegistry garbage = %v, want ErrBadFont", err)
	}

	reg, err := NewFontRegistry(gomono.TTF)
	if err != nil {
		t.Fatalf("NewFontRegistry: %v", err)
	}
	if _, err := reg.Get(0); !errors.Is(err, ErrBadFont) {
		t.Errorf("Get(0) = %v, want ErrBadFont", err)
	}
}

func TestBakedFontGlyphFallback(t *testing.T) {
	reg, err := NewFontRegistry(gomono.TTF)
	if err != nil {
		t.Fatalf("NewFontRegistry: %v", err)
	}
	f, err := reg.Get(16)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if f.Glyph(0x01) != f.Glyph('_') {
		t.Error("out-of-range byte did not fall back to '_'")
	}
	if f.Advance('M') <= 0 {
		t.Errorf("Advance('M') = %f, want > 0", f.Advance('M'))
	}
	if f.Glyph('M').Mask == nil {
		t.Error("Glyph('M') has no coverage mask")
	}
	if f.Glyph(' ').Advance <= 0 {
		t.Errorf("space advance = %f, want > 0", f.Glyph(' ').Advance)
	}
}
