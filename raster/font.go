package raster

import (
	"fmt"
	"image"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	glyphFirst = ' '
	glyphLast  = '~'

	// fallbackGlyph substitutes for bytes outside the baked range.
	fallbackGlyph = '_'
)

// Glyph is one baked character: a coverage mask plus placement
// metrics. XOff/YOff position the mask relative to the pen, which sits
// on the baseline.
type Glyph struct {
	Mask    *image.Alpha
	XOff    int
	YOff    int
	Advance float32
}

// BakedFont holds the printable ASCII glyphs of one font at one pixel
// height. It is immutable after baking and safe for concurrent use.
type BakedFont struct {
	PixelHeight int
	glyphs      [glyphLast - glyphFirst + 1]Glyph
}

// Glyph returns the baked glyph for ch, substituting fallbackGlyph for
// bytes outside the printable ASCII range.
func (f *BakedFont) Glyph(ch byte) *Glyph {
	if ch < glyphFirst || ch > glyphLast {
		ch = fallbackGlyph
	}
	return &f.glyphs[ch-glyphFirst]
}

// Advance returns the horizontal advance of ch in pixels.
func (f *BakedFont) Advance(ch byte) float32 {
	return f.Glyph(ch).Advance
}

// FontRegistry bakes and caches fonts keyed by pixel height. Baking
// happens outside the lock; when two goroutines bake the same height
// concurrently the first inserted result wins and is shared by all
// callers.
type FontRegistry struct {
	source *opentype.Font
	data   []byte

	mu    sync.Mutex
	baked map[int]*BakedFont
}

// NewFontRegistry parses TTF data and returns a registry for it.
func NewFontRegistry(ttf []byte) (*FontRegistry, error) {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFont, err)
	}
	return &FontRegistry{
		source: parsed,
		data:   ttf,
		baked:  make(map[int]*BakedFont),
	}, nil
}

// LoadFontRegistry reads a TTF file and returns a registry for it.
func LoadFontRegistry(path string) (*FontRegistry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("raster: load font %s: %w", path, err)
	}
	return NewFontRegistry(data)
}

// Data returns the raw TTF bytes the registry was built from.
func (r *FontRegistry) Data() []byte { return r.data }

// Get returns the baked font for the given pixel height, baking it on
// first use.
func (r *FontRegistry) Get(pixelHeight int) (*BakedFont, error) {
	if pixelHeight <= 0 {
		return nil, fmt.Errorf("%w: pixel height %d", ErrBadFont, pixelHeight)
	}

	r.mu.Lock()
	if f, ok := r.baked[pixelHeight]; ok {
		r.mu.Unlock()
		return f, nil
	}
	r.mu.Unlock()

	f, err := r.bake(pixelHeight)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.baked[pixelHeight]; ok {
		return existing, nil
	}
	r.baked[pixelHeight] = f
	return f, nil
}

// bake rasterizes the printable ASCII range at the given pixel height.
func (r *FontRegistry) bake(pixelHeight int) (*BakedFont, error) {
	face, err := opentype.NewFace(r.source, &opentype.FaceOptions{
		Size:    float64(pixelHeight),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFont, err)
	}
	defer func() {
		_ = face.Close()
	}()

	baked := &BakedFont{PixelHeight: pixelHeight}
	for ch := glyphFirst; ch <= glyphLast; ch++ {
		baked.glyphs[ch-glyphFirst] = rasterizeGlyph(face, rune(ch))
	}
	return baked, nil
}

// rasterizeGlyph renders one glyph into a tight alpha mask.
func rasterizeGlyph(face font.Face, ch rune) Glyph {
	bounds, advance, ok := face.GlyphBounds(ch)
	if !ok {
		bounds, advance, _ = face.GlyphBounds(fallbackGlyph)
		ch = fallbackGlyph
	}

	minX := int(bounds.Min.X) >> 6
	minY := int(bounds.Min.Y) >> 6
	maxX := int(bounds.Max.X+63) >> 6
	maxY := int(bounds.Max.Y+63) >> 6

	g := Glyph{
		XOff:    minX,
		YOff:    minY,
		Advance: float32(advance) / 64,
	}

	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		return g
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(string(ch))

	g.Mask = mask
	return g
}

var (
	defaultFontsOnce sync.Once
	defaultFonts     *FontRegistry
	defaultFontsErr  error
)

// DefaultFonts returns a process-wide registry backed by the embedded
// Go Mono face, so text rendering works without font assets on disk.
func DefaultFonts() (*FontRegistry, error) {
	defaultFontsOnce.Do(func() {
		defaultFonts, defaultFontsErr = NewFontRegistry(gomono.TTF)
	})
	return defaultFonts, defaultFontsErr
}
