package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultRadius is the orbit radius of the camera around the scan's rotation axis.
	DefaultRadius float32 = 40

	// DefaultViewportWidth and DefaultViewportHeight are the physical size of the view plane.
	DefaultViewportWidth  float32 = 70
	DefaultViewportHeight float32 = 70

	// DefaultSamplingInterval is the distance between two ray-march samples.
	DefaultSamplingInterval float32 = 0.5
)

type cameraImpl struct {
	mu *sync.Mutex

	radius           float32
	width, height    float32
	samplingInterval float32
}

// Camera is an orthographic camera orbiting the Z axis in the XY plane, always looking at
// the axis. It holds the fixed viewing parameters; the orbit angle and the absorbance
// threshold are supplied per frame by the scene.
type Camera interface {
	// Radius returns the orbit radius.
	//
	// Returns:
	//   - float32: distance from the rotation axis to the view plane center
	Radius() float32

	// Dimensions returns the physical width and height of the view plane.
	//
	// Returns:
	//   - w, h: the view plane size in world units
	Dimensions() (w, h float32)

	// SamplingInterval returns the ray-march step length.
	//
	// Returns:
	//   - float32: the step length in world units
	SamplingInterval() float32

	// SetDimensions changes the physical size of the view plane.
	//
	// Parameters:
	//   - w, h: the new view plane size in world units
	SetDimensions(w, h float32)

	// Position returns the view plane center for the orbit angle theta (radians).
	//
	// Parameters:
	//   - theta: the orbit angle
	//
	// Returns:
	//   - mgl32.Vec3: (R cos theta, R sin theta, 0)
	Position(theta float32) mgl32.Vec3

	// Bases returns the two orthonormal vectors spanning the view plane at theta.
	// The first is horizontal and tangent to the orbit, the second is +Z.
	//
	// Parameters:
	//   - theta: the orbit angle
	//
	// Returns:
	//   - right, up: the view plane basis
	Bases(theta float32) (right, up mgl32.Vec3)

	// Uniform builds the GPU camera record for one frame.
	//
	// Parameters:
	//   - theta: the orbit angle in radians
	//   - threshold: the normalized absorbance threshold
	//
	// Returns:
	//   - GPUCameraUniform: the record to upload
	Uniform(theta, threshold float32) GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with the default orbit radius, view plane size and sampling interval.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:               &sync.Mutex{},
		radius:           DefaultRadius,
		width:            DefaultViewportWidth,
		height:           DefaultViewportHeight,
		samplingInterval: DefaultSamplingInterval,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) Dimensions() (w, h float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) SamplingInterval() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.samplingInterval
}

func (c *cameraImpl) SetDimensions(w, h float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = w, h
}

func (c *cameraImpl) Position(theta float32) mgl32.Vec3 {
	s, co := math.Sincos(float64(theta))
	r := c.Radius()
	return mgl32.Vec3{r * float32(co), r * float32(s), 0}
}

func (c *cameraImpl) Bases(theta float32) (right, up mgl32.Vec3) {
	s, co := math.Sincos(float64(theta))
	return mgl32.Vec3{-float32(s), float32(co), 0}, mgl32.Vec3{0, 0, 1}
}

func (c *cameraImpl) Uniform(theta, threshold float32) GPUCameraUniform {
	pos := c.Position(theta)
	right, up := c.Bases(theta)
	w, h := c.Dimensions()
	return GPUCameraUniform{
		Position: [3]float32{pos[0], pos[1], pos[2]},
		Bases: [2][4]float32{
			{right[0], right[1], right[2], 0},
			{up[0], up[1], up[2], 0},
		},
		Dimensions:       [2]float32{w, h},
		SamplingInterval: c.SamplingInterval(),
		Threshold:        threshold,
	}
}
