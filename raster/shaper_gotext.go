package raster

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// GoTextShaper measures text with HarfBuzz shaping via
// go-text/typesetting, which applies kerning pairs the plain metrics
// shaper ignores. Opt in with:
//
//	shaper, err := raster.NewGoTextShaper(reg.Data())
//	raster.SetShaper(shaper)
//	defer raster.SetShaper(nil)
//
// Glyph masks are still taken from the baked font; only advances come
// from shaping. GoTextShaper is safe for concurrent use: font.Font is
// read-only, the per-call font.Face is created fresh, and the
// HarfbuzzShaper instances (which hold mutable buffers) are pooled.
type GoTextShaper struct {
	fnt        *font.Font
	shaperPool sync.Pool
}

// NewGoTextShaper parses TTF data for shaping. The data should match
// the font the registry bakes masks from, or placement will drift.
func NewGoTextShaper(ttf []byte) (*GoTextShaper, error) {
	face, err := font.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFont, err)
	}
	return &GoTextShaper{
		fnt: face.Font,
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}, nil
}

// Advances implements Shaper. Harness text is printable ASCII, so one
// rune is one byte and cluster indices map directly to byte indices.
func (s *GoTextShaper) Advances(bf *BakedFont, text string) []float32 {
	adv := make([]float32, len(text))
	if len(text) == 0 {
		return adv
	}

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(s.fnt),
		Size:      fixed.I(bf.PixelHeight),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}

	hb := s.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.shaperPool.Put(hb)

	for _, g := range output.Glyphs {
		i := g.TextIndex()
		if i >= 0 && i < len(adv) {
			adv[i] += float32(g.Advance) / 64
		}
	}
	return adv
}
