package raster

import (
	"image"
	"testing"
)

// markedPixels returns the bounding box of all non-zero pixels, and
// whether any pixel was touched at all.
func markedPixels(m *Image) (image.Rectangle, bool) {
	var box image.Rectangle
	found := false
	pix := m.Pix()
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			i := (y*m.Width() + x) * 4
			if pix[i] == 0 && pix[i+1] == 0 && pix[i+2] == 0 && pix[i+3] == 0 {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if !found {
				box = p
				found = true
			} else {
				box = box.Union(p)
			}
		}
	}
	return box, found
}

func TestPutTextStaysInsideRect(t *testing.T) {
	m := New(200, 200)
	rect := image.Rect(20, 20, 120, 180)
	text := "the quick brown fox jumps over the lazy dog"
	if err := m.PutText(rect, text, 16, White, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}

	box, found := markedPixels(m)
	if !found {
		t.Fatal("PutText drew nothing")
	}
	if !box.In(rect) {
		t.Errorf("text pixels %v escape rect %v", box, rect)
	}
	// The text is too wide for one line, so wrapping must have used
	// more than one line of height.
	if box.Dy() <= 16 {
		t.Errorf("text height %d suggests no wrapping happened", box.Dy())
	}
}

func TestPutTextNewlineAdvancesLine(t *testing.T) {
	one := New(100, 100)
	two := New(100, 100)
	rect := image.Rect(0, 0, 100, 100)

	if err := one.PutText(rect, "ab", 20, White, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if err := two.PutText(rect, "a\nb", 20, White, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}

	boxOne, _ := markedPixels(one)
	boxTwo, _ := markedPixels(two)
	if boxTwo.Dy() <= boxOne.Dy() {
		t.Errorf("newline did not advance line: %v vs %v", boxTwo, boxOne)
	}
	if boxTwo.Dx() >= boxOne.Dx() {
		t.Errorf("newline did not reset cursor: %v vs %v", boxTwo, boxOne)
	}
}

func TestPutTextWrapDisabledClips(t *testing.T) {
	m := New(200, 60)
	rect := image.Rect(0, 0, 40, 60)
	if err := m.PutText(rect, "unwrappable overflow", 16, White, WrapDisabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}

	box, found := markedPixels(m)
	if !found {
		t.Fatal("PutText drew nothing")
	}
	if !box.In(rect) {
		t.Errorf("clipped text escaped rect: %v", box)
	}
	// Without wrapping everything stays on the first line.
	if box.Dy() > 16 {
		t.Errorf("text wrapped with wrapping disabled: height %d", box.Dy())
	}
}

func TestPutTextFallbackGlyph(t *testing.T) {
	exotic := New(60, 40)
	underscore := New(60, 40)
	rect := image.Rect(0, 0, 60, 40)

	// A byte outside the printable range renders as '_'.
	if err := exotic.PutText(rect, "\x01", 20, White, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if err := underscore.PutText(rect, "_", 20, White, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}

	a := exotic.Pix()
	b := underscore.Pix()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fallback output differs from '_' at byte %d", i)
		}
	}
}

func TestPutTextBlendsCoverage(t *testing.T) {
	m := New(60, 40)
	rect := image.Rect(0, 0, 60, 40)
	if err := m.DrawRect(0, 0, 60, 40, Blue); err != nil {
		t.Fatalf("DrawRect: %v", err)
	}
	if err := m.PutText(rect, "X", 24, Red, WrapEnabled); err != nil {
		t.Fatalf("PutText: %v", err)
	}

	// Somewhere inside the glyph there must be a pixel dominated by the
	// text color, and the background must survive away from the glyph.
	foundRed := false
	pix := m.Pix()
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 200 && pix[i+2] < 55 {
			foundRed = true
			break
		}
	}
	if !foundRed {
		t.Error("no strongly covered text pixel found")
	}
	if got := pixelAt(t, m, 59, 39); got != [4]uint8{0, 0, 255, 255} {
		t.Errorf("background corner = %v, want blue", got)
	}
}
