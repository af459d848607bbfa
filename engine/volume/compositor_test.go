package volume

import (
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"gonum.org/v1/gonum/spatial/r3"
)

const testThreshold = 0.5

func TestCompositorOpaqueStack(t *testing.T) {
	in := testInput(testScan(4, 32, opaque))
	c := NewCompositor(in.Scan, in.Transforms)
	if c.HalfExtent() != 16 {
		t.Fatalf("half extent = %v, want 16", c.HalfExtent())
	}
	cam := camera.NewCamera().Uniform(0, testThreshold)

	// Rays inside the cube hit its first face, so there is no depth cue.
	for _, u := range []float32{0, 0.2, -0.4} {
		shade, hit := c.Shade(cam, u, 0)
		if !hit || shade != 1 {
			t.Errorf("u=%v: shade %v hit %v, want 1 true", u, shade, hit)
		}
	}
	// 0.6 * 35 = 21 lies outside the cube.
	if _, hit := c.Shade(cam, 0.6, 0); hit {
		t.Error("ray outside the cube should miss")
	}
	if _, hit := c.Shade(cam, 0, -0.6); hit {
		t.Error("ray below the cube should miss")
	}
}

func TestCompositorTransparentStackMisses(t *testing.T) {
	in := testInput(testScan(4, 16, transparent))
	c := NewCompositor(in.Scan, in.Transforms)
	cam := camera.NewCamera().Uniform(0.3, 0)
	if _, hit := c.Shade(cam, 0, 0); hit {
		t.Error("transparent stack should never be inside, even at threshold 0")
	}
}

func TestCompositorUnanimity(t *testing.T) {
	s := testScan(4, 16, opaque)
	im := s.Images[2]
	for i := range im.Pix {
		im.Pix[i] = 1
	}
	in := testInput(s)
	c := NewCompositor(in.Scan, in.Transforms)
	if c.Inside(r3.Vec{}, testThreshold) {
		t.Error("one transparent projection must veto the point")
	}
}

func TestCompositorDepthCue(t *testing.T) {
	cam := camera.NewCamera().Uniform(0, testThreshold)

	shadeFor := func(lo, hi int) float32 {
		in := testInput(testScan(4, 32, column(lo, hi)))
		c := NewCompositor(in.Scan, in.Transforms)
		if !c.Inside(r3.Vec{}, testThreshold) {
			t.Fatalf("columns [%d, %d): center should be inside", lo, hi)
		}
		shade, hit := c.Shade(cam, 0, 0)
		if !hit {
			t.Fatalf("columns [%d, %d): center ray should hit", lo, hi)
		}
		if shade <= 0.25 || shade >= 1 {
			t.Errorf("columns [%d, %d): shade %v outside (0.25, 1)", lo, hi, shade)
		}
		return shade
	}

	wide := shadeFor(8, 24)
	narrow := shadeFor(14, 18)
	if narrow >= wide {
		t.Errorf("deeper hit should be darker: narrow %v, wide %v", narrow, wide)
	}

	in := testInput(testScan(4, 32, column(12, 20)))
	c := NewCompositor(in.Scan, in.Transforms)
	if _, hit := c.Shade(cam, 0.2, 0); hit {
		t.Error("ray beside the column should miss")
	}
}

func TestCompositorRenderKeepsMisses(t *testing.T) {
	background := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	canvas := NewCanvas(16, 16, background)
	in := testInput(testScan(4, 32, opaque))
	c := NewCompositor(in.Scan, in.Transforms)

	c.Render(canvas.Image(), canvas.Viewport(), camera.NewCamera().Uniform(0, testThreshold))

	img := canvas.Image()
	if got := img.RGBAAt(8, 8); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("center pixel = %v, want white", got)
	}
	if got := img.RGBAAt(0, 0); got != background {
		t.Errorf("corner pixel = %v, want background", got)
	}
}

func TestCompositorRenderViewport(t *testing.T) {
	background := color.RGBA{A: 255}
	canvas := NewCanvas(32, 16, background)
	in := testInput(testScan(4, 32, opaque))
	c := NewCompositor(in.Scan, in.Transforms)

	vp := common.Viewport{X: 16, Y: 0, Width: 16, Height: 16}
	c.Render(canvas.Image(), vp, camera.NewCamera().Uniform(0, testThreshold))

	img := canvas.Image()
	if got := img.RGBAAt(8, 8); got != background {
		t.Errorf("pixel left of the viewport = %v, want background", got)
	}
	if got := img.RGBAAt(24, 8); got.R != 255 {
		t.Errorf("viewport center = %v, want white", got)
	}

	c.Render(canvas.Image(), common.Viewport{}, camera.NewCamera().Uniform(0, testThreshold))
}
