package raster

import (
	"errors"
	"fmt"
)

// Common raster errors.
var (
	// ErrOutOfBounds is returned when a rectangle does not fit inside
	// the image.
	ErrOutOfBounds = errors.New("raster: rect out of image bounds")

	// ErrAlreadySRGB is returned by ConvertToSRGB when the image has
	// already been encoded.
	ErrAlreadySRGB = errors.New("raster: image already sRGB encoded")

	// ErrCacheUninitialized is returned by ImageCache.Load before Init
	// has been called.
	ErrCacheUninitialized = errors.New("raster: image cache not initialized")

	// ErrBufferTooSmall is returned by CopyWithStride when the
	// destination cannot hold the image.
	ErrBufferTooSmall = errors.New("raster: destination buffer too small")

	// ErrBadFont is returned when font data cannot be parsed or a face
	// cannot be created at the requested size.
	ErrBadFont = errors.New("raster: invalid font data")
)

// BoundsError describes a rectangle that falls outside an image. It
// matches ErrOutOfBounds under errors.Is.
type BoundsError struct {
	X, Y, W, H  int
	ImageWidth  int
	ImageHeight int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("raster: rect (%d,%d %dx%d) out of image bounds %dx%d",
		e.X, e.Y, e.W, e.H, e.ImageWidth, e.ImageHeight)
}

func (e *BoundsError) Is(target error) bool { return target == ErrOutOfBounds }
