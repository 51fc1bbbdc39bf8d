package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
)

// Image is a rectangular RGBA8 pixel buffer, 4 bytes per pixel in
// row-major order. The zero pixel is transparent black.
//
// Generated images start in linear encoding; images decoded from PNG
// files are treated as already sRGB encoded.
type Image struct {
	width  int
	height int
	pix    []uint8
	srgb   bool
}

// New creates a transparent image with the given dimensions.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Pix returns the raw RGBA pixel data.
func (m *Image) Pix() []uint8 { return m.pix }

// IsSRGB reports whether the pixel data is sRGB encoded.
func (m *Image) IsSRGB() bool { return m.srgb }

// checkRect validates that a rectangle lies fully inside the image.
func (m *Image) checkRect(x, y, w, h int) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > m.width || y+h > m.height {
		return &BoundsError{X: x, Y: y, W: w, H: h, ImageWidth: m.width, ImageHeight: m.height}
	}
	return nil
}

// rgba8 converts a color component to a byte, truncating. Components
// are expected in [0, 1]; out-of-range values are clamped.
func rgba8(c float32) uint8 {
	v := c * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// fillRow writes the color into one run of pixels.
func (m *Image) fillRow(y, x, w int, r, g, b, a uint8) {
	i := (y*m.width + x) * 4
	for end := i + w*4; i < end; i += 4 {
		m.pix[i+0] = r
		m.pix[i+1] = g
		m.pix[i+2] = b
		m.pix[i+3] = a
	}
}

// DrawRect fills a solid rectangle. The rectangle must lie fully
// inside the image; otherwise nothing is drawn and an error matching
// ErrOutOfBounds is returned.
func (m *Image) DrawRect(x, y, w, h int, c Color) error {
	if err := m.checkRect(x, y, w, h); err != nil {
		return err
	}
	r, g, b, a := rgba8(c.R), rgba8(c.G), rgba8(c.B), rgba8(c.A)
	for row := y; row < y+h; row++ {
		m.fillRow(row, x, w, r, g, b, a)
	}
	return nil
}

// DrawRectBorder draws a rectangular frame of the given thickness just
// inside the rectangle. A thickness of at least half the smaller
// dimension degenerates to a solid fill.
func (m *Image) DrawRectBorder(x, y, w, h, thickness int, c Color) error {
	if err := m.checkRect(x, y, w, h); err != nil {
		return err
	}
	r, g, b, a := rgba8(c.R), rgba8(c.G), rgba8(c.B), rgba8(c.A)
	for row := 0; row < h; row++ {
		if row < thickness || row >= h-thickness {
			m.fillRow(y+row, x, w, r, g, b, a)
			continue
		}
		left := thickness
		if left > w {
			left = w
		}
		m.fillRow(y+row, x, left, r, g, b, a)
		right := w - thickness
		if right < 0 {
			right = 0
		}
		if right < w {
			m.fillRow(y+row, x+right, w-right, r, g, b, a)
		}
	}
	return nil
}

// ConvertToSRGB encodes the R, G and B channels with the sRGB transfer
// function. Alpha is left untouched. Calling it on an image that is
// already encoded returns ErrAlreadySRGB without modifying pixels.
func (m *Image) ConvertToSRGB() error {
	if m.srgb {
		return ErrAlreadySRGB
	}
	for i := 0; i < len(m.pix); i += 4 {
		m.pix[i+0] = toSRGB8(m.pix[i+0])
		m.pix[i+1] = toSRGB8(m.pix[i+1])
		m.pix[i+2] = toSRGB8(m.pix[i+2])
	}
	m.srgb = true
	return nil
}

// CopyWithStride copies the pixel rows into dst, starting at offset,
// with rowPitch bytes between row starts. Used for uploads into
// buffers with row alignment requirements.
func (m *Image) CopyWithStride(dst []uint8, rowPitch, offset int) error {
	rowLen := m.width * 4
	if rowPitch < rowLen {
		return fmt.Errorf("%w: row pitch %d < row length %d", ErrBufferTooSmall, rowPitch, rowLen)
	}
	if m.height > 0 && offset+(m.height-1)*rowPitch+rowLen > len(dst) {
		return fmt.Errorf("%w: need %d bytes, have %d",
			ErrBufferTooSmall, offset+(m.height-1)*rowPitch+rowLen, len(dst))
	}
	for row := 0; row < m.height; row++ {
		src := m.pix[row*rowLen : (row+1)*rowLen]
		copy(dst[offset+row*rowPitch:], src)
	}
	return nil
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	c := &Image{width: m.width, height: m.height, srgb: m.srgb}
	c.pix = make([]uint8, len(m.pix))
	copy(c.pix, m.pix)
	return c
}

// Load decodes a PNG file. The result is marked sRGB encoded, which is
// how PNG assets are authored.
func Load(path string) (*Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("raster: load %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: load %s: %w", path, err)
	}
	return m, nil
}

// Decode decodes PNG data from r. The result is marked sRGB encoded.
func Decode(r io.Reader) (*Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	m := FromImage(src)
	m.srgb = true
	return m, nil
}

// FromImage copies a standard image into a new Image. Pixels are
// stored with straight (non-premultiplied) alpha.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	m := New(b.Dx(), b.Dy())
	dst := &image.NRGBA{Pix: m.pix, Stride: m.width * 4, Rect: image.Rect(0, 0, m.width, m.height)}
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return m
}

// ToImage copies the pixels into a standard *image.RGBA.
func (m *Image) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	copy(img.Pix, m.pix)
	return img
}

// SavePNG writes the image to a PNG file.
func (m *Image) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, m.ToImage())
}

// At implements the image.Image interface.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return color.NRGBA{}
	}
	i := (y*m.width + x) * 4
	return color.NRGBA{R: m.pix[i+0], G: m.pix[i+1], B: m.pix[i+2], A: m.pix[i+3]}
}

// Bounds implements the image.Image interface.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// ColorModel implements the image.Image interface.
func (m *Image) ColorModel() color.Model {
	return color.NRGBAModel
}
