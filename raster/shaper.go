package raster

import "sync/atomic"

// Shaper computes horizontal advances, one per byte of text, for a
// baked font. PutText uses the active shaper for both word-wrap
// measurement and cursor movement so measurement always matches
// placement.
type Shaper interface {
	Advances(f *BakedFont, text string) []float32
}

// metricsShaper is the default shaper. It reads the advances straight
// out of the baked glyph metrics with no kerning.
type metricsShaper struct{}

func (metricsShaper) Advances(f *BakedFont, text string) []float32 {
	adv := make([]float32, len(text))
	for i := 0; i < len(text); i++ {
		adv[i] = f.Advance(text[i])
	}
	return adv
}

type shaperRef struct {
	s Shaper
}

var activeShaper atomic.Pointer[shaperRef]

func init() {
	activeShaper.Store(&shaperRef{s: metricsShaper{}})
}

// SetShaper replaces the shaper used by PutText. Pass nil to restore
// the default metrics shaper. Safe for concurrent use.
func SetShaper(s Shaper) {
	if s == nil {
		s = metricsShaper{}
	}
	activeShaper.Store(&shaperRef{s: s})
}

func currentShaper() Shaper {
	return activeShaper.Load().s
}
