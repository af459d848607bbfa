package volume

import (
	"image"
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/projection"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minSamplingInterval = 1e-4
	// maxDarkening is how much of the shade is lost at the far side of the cube.
	maxDarkening = 0.75
)

// Compositor is the CPU rendition of the fragment shader. It marches orthographic rays through
// the cube spanned by the detector and reports the first point every projection agrees is solid.
type Compositor struct {
	transforms []projection.Transform
	layers     [][]float32
	width      int
	height     int
	halfExtent float64
}

// NewCompositor prepares a compositor for one scan and its transforms. The transforms must be in
// the same order as the scan's images.
func NewCompositor(s *scan.Scan, transforms []projection.Transform) *Compositor {
	w, h := s.Dimensions()
	absorbance := NormalizeAbsorbance(s.Images)
	layers := make([][]float32, s.Count())
	for i := range layers {
		layers[i] = absorbance[i*w*h : (i+1)*w*h]
	}
	var half float64
	if len(transforms) > 0 {
		half = float64(transforms[0].DetectorExtent()) / 2
	}
	return &Compositor{
		transforms: transforms,
		layers:     layers,
		width:      w,
		height:     h,
		halfExtent: half,
	}
}

// HalfExtent returns half the edge length of the marched cube.
func (c *Compositor) HalfExtent() float64 {
	return c.halfExtent
}

// sample returns the normalized absorbance of layer i at texture coordinate tex, nearest texel,
// clamped to the edge.
func (c *Compositor) sample(i int, tex mgl32.Vec2) float32 {
	x := int(math.Floor(float64(tex.X()) * float64(c.width)))
	y := int(math.Floor(float64(tex.Y()) * float64(c.height)))
	x = min(max(x, 0), c.width-1)
	y = min(max(y, 0), c.height-1)
	return c.layers[i][y*c.width+x]
}

// Inside reports whether p exceeds threshold in every projection.
func (c *Compositor) Inside(p r3.Vec, threshold float32) bool {
	if len(c.transforms) == 0 {
		return false
	}
	point := mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	for i, t := range c.transforms {
		tex, ok := t.Project(point)
		if !ok {
			return false
		}
		if c.sample(i, tex) <= threshold {
			return false
		}
	}
	return true
}

// chord clips the line origin + s*dir to the cube and returns the parameter range inside it.
func (c *Compositor) chord(origin, dir r3.Vec) (near, far float64, ok bool) {
	near, far = math.Inf(-1), math.Inf(1)
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	for k := range 3 {
		if math.Abs(d[k]) < 1e-9 {
			if math.Abs(o[k]) > c.halfExtent {
				return 0, 0, false
			}
			continue
		}
		t0 := (-c.halfExtent - o[k]) / d[k]
		t1 := (c.halfExtent - o[k]) / d[k]
		near = max(near, min(t0, t1))
		far = min(far, max(t0, t1))
	}
	return near, far, far >= near
}

// Shade marches the ray through view-plane coordinate (u, v) in [-1, 1]^2 and returns the
// depth-cued grey of the first inside sample. It returns false when the ray hits nothing.
func (c *Compositor) Shade(cam camera.GPUCameraUniform, u, v float32) (float32, bool) {
	o := cam.Origin(u, v)
	a := cam.Axis()
	origin := r3.Vec{X: float64(o[0]), Y: float64(o[1]), Z: float64(o[2])}
	dir := r3.Scale(-1, r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])})

	near, far, ok := c.chord(origin, dir)
	if !ok {
		return 0, false
	}

	step := math.Max(float64(cam.SamplingInterval), minSamplingInterval)
	maxTravel := 2 * c.halfExtent * math.Sqrt(3)
	for travel := 0.0; travel <= far-near; travel += step {
		p := r3.Add(origin, r3.Scale(near+travel, dir))
		if c.Inside(p, cam.Threshold) {
			cue := min(max(travel/maxTravel, 0), 1)
			return float32(1 - maxDarkening*cue), true
		}
	}
	return 0, false
}

// Render composites one frame into the viewport region of dst. Pixels whose ray misses keep
// their previous color.
func (c *Compositor) Render(dst draw.Image, viewport common.Viewport, cam camera.GPUCameraUniform) {
	if viewport.Empty() {
		return
	}
	region := image.Rect(int(viewport.X), int(viewport.Y), int(viewport.X+viewport.Width), int(viewport.Y+viewport.Height))
	region = region.Intersect(dst.Bounds())

	w, h := float32(viewport.Width), float32(viewport.Height)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		v := 1 - 2*(float32(y-int(viewport.Y))+0.5)/h
		for x := region.Min.X; x < region.Max.X; x++ {
			u := 2*(float32(x-int(viewport.X))+0.5)/w - 1
			shade, hit := c.Shade(cam, u, v)
			if !hit {
				continue
			}
			g := uint8(math.Round(float64(shade) * 255))
			dst.Set(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
}
