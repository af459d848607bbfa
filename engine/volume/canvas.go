package volume

import (
	"image"
	"image/color"
	"sync"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"golang.org/x/image/draw"
)

// Canvas is an in-memory color target with the same frame protocol as the renderer, so the
// engine loop can drive it in place of a window surface.
type Canvas struct {
	mu         sync.Mutex
	img        *image.RGBA
	background image.Image
	frames     int
}

// NewCanvas allocates a width x height canvas cleared to background.
func NewCanvas(width, height int, background color.Color) *Canvas {
	c := &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: image.NewUniform(background),
	}
	c.clear()
	return c
}

func (c *Canvas) clear() {
	draw.Draw(c.img, c.img.Bounds(), c.background, image.Point{}, draw.Src)
}

// Image returns the backing image. Backends draw straight into it.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Viewport covers the whole canvas.
func (c *Canvas) Viewport() common.Viewport {
	b := c.img.Bounds()
	return common.Viewport{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
}

// BeginFrame clears the canvas to the background color.
func (c *Canvas) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	return nil
}

func (c *Canvas) EndFrame() {}

// Present counts the finished frame.
func (c *Canvas) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
}

// Frames returns how many frames were presented.
func (c *Canvas) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
