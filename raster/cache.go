package raster

import "sync"

// ImageCache loads PNG files at most once and shares the decoded
// *Image between all callers. It must be initialized with Init before
// Load is called; Clear releases the cached images and returns the
// cache to the uninitialized state.
//
// Decoding happens outside the lock so a slow file does not block
// unrelated lookups. When two goroutines race to decode the same path
// the first inserted image wins and both callers get the same pointer.
type ImageCache struct {
	mu     sync.Mutex
	images map[string]*Image
}

// NewImageCache creates an uninitialized cache.
func NewImageCache() *ImageCache {
	return &ImageCache{}
}

// Init prepares the cache for use.
func (c *ImageCache) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.images == nil {
		c.images = make(map[string]*Image)
	}
}

// Clear drops all cached images and uninitializes the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = nil
}

// Load returns the cached image for path, decoding it on first use.
func (c *ImageCache) Load(path string) (*Image, error) {
	c.mu.Lock()
	if c.images == nil {
		c.mu.Unlock()
		return nil, ErrCacheUninitialized
	}
	if img, ok := c.images[path]; ok {
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	logger().Debug("raster: image loaded", "path", path,
		"width", img.Width(), "height", img.Height())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.images == nil {
		return nil, ErrCacheUninitialized
	}
	if existing, ok := c.images[path]; ok {
		return existing, nil
	}
	c.images[path] = img
	return img, nil
}
