package raster

import "image"

// WrapMode controls word wrapping in PutText.
type WrapMode int

const (
	// WrapEnabled moves words that overflow the rectangle to the next
	// line when they would fit on an empty line.
	WrapEnabled WrapMode = iota

	// WrapDisabled never wraps; overflowing text is clipped at the
	// rectangle edge and a warning is logged once per call.
	WrapDisabled
)

// PutText renders text into the rectangle using the registry's baked
// font at the given pixel height.
//
// The first baseline sits at rect.Min.Y + 0.8*pixelHeight. A newline
// resets the cursor to the left edge and advances one pixel height.
// Bytes outside the printable ASCII range render as '_'. Coverage is
// blended per channel: dst = cov*color + dst*(255-cov)/255. Pixels
// outside the rectangle or the image are silently skipped.
func (m *Image) PutText(rect image.Rectangle, text string, pixelHeight int, c Color, wrap WrapMode) error {
	return m.putText(rect, text, pixelHeight, c, wrap, nil)
}

// PutTextFrom is PutText with an explicit font registry. A nil
// registry uses the embedded default.
func (m *Image) PutTextFrom(fonts *FontRegistry, rect image.Rectangle, text string, pixelHeight int, c Color, wrap WrapMode) error {
	return m.putText(rect, text, pixelHeight, c, wrap, fonts)
}

func (m *Image) putText(rect image.Rectangle, text string, pixelHeight int, c Color, wrap WrapMode, fonts *FontRegistry) error {
	if fonts == nil {
		var err error
		fonts, err = DefaultFonts()
		if err != nil {
			return err
		}
	}
	bf, err := fonts.Get(pixelHeight)
	if err != nil {
		return err
	}

	adv := currentShaper().Advances(bf, text)

	x := float32(rect.Min.X)
	baseline := rect.Min.Y + int(float32(pixelHeight)*0.8)
	warned := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			x = float32(rect.Min.X)
			baseline += pixelHeight
			continue
		}

		// At a word start, look ahead: if the whole word overflows the
		// current line but would fit on an empty one, wrap now so the
		// word is not split.
		if wrap == WrapEnabled && ch > ' ' && (i == 0 || text[i-1] <= ' ') {
			word := float32(0)
			for j := i; j < len(text) && text[j] > ' '; j++ {
				word += adv[j]
			}
			if x+word > float32(rect.Max.X) && word <= float32(rect.Dx()) {
				x = float32(rect.Min.X)
				baseline += pixelHeight
			}
		}

		if x+adv[i] > float32(rect.Max.X) {
			if wrap == WrapEnabled {
				x = float32(rect.Min.X)
				baseline += pixelHeight
			} else if !warned {
				logger().Warn("raster: text clipped with word wrap disabled",
					"text", text, "pixelHeight", pixelHeight)
				warned = true
			}
		}

		m.blendGlyph(bf.Glyph(ch), int(x), baseline, rect, c)
		x += adv[i]
	}
	return nil
}

// blendGlyph composites one coverage mask at the pen position,
// clipped to both the rectangle and the image.
func (m *Image) blendGlyph(g *Glyph, penX, baselineY int, clip image.Rectangle, c Color) {
	if g.Mask == nil {
		return
	}
	b := g.Mask.Bounds()
	for my := 0; my < b.Dy(); my++ {
		py := baselineY + g.YOff + my
		if py < clip.Min.Y || py >= clip.Max.Y || py < 0 || py >= m.height {
			continue
		}
		for mx := 0; mx < b.Dx(); mx++ {
			px := penX + g.XOff + mx
			if px < clip.Min.X || px >= clip.Max.X || px < 0 || px >= m.width {
				continue
			}
			cov := uint32(g.Mask.AlphaAt(b.Min.X+mx, b.Min.Y+my).A)
			if cov == 0 {
				continue
			}
			i := (py*m.width + px) * 4
			m.pix[i+0] = uint8(float32(cov)*c.R) + uint8(uint32(m.pix[i+0])*(255-cov)/255)
			m.pix[i+1] = uint8(float32(cov)*c.G) + uint8(uint32(m.pix[i+1])*(255-cov)/255)
			m.pix[i+2] = uint8(float32(cov)*c.B) + uint8(uint32(m.pix[i+2])*(255-cov)/255)
			m.pix[i+3] = uint8(float32(cov)*c.A) + uint8(uint32(m.pix[i+3])*(255-cov)/255)
		}
	}
}
