// Package scene holds the state of the scan currently on screen: the scan, its projection
// transforms, the orbit angle and the threshold, plus the resource set that draws it.
package scene

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/projection"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/Carmen-Shannon/oxy-ct/engine/volume"
)

var (
	// ErrNotReady is returned when a frame reaches the scene before its resources were built.
	// The frame should be skipped.
	ErrNotReady = errors.New("scene: resources not built yet")

	// ErrReleased is returned by Prepare once the scene has been released.
	ErrReleased = errors.New("scene: released")
)

// Primitive is the per-frame snapshot of a scene handed from Draw to Prepare and Render.
type Primitive struct {
	// Rebuild is set on the one primitive that must (re)create the resource set.
	Rebuild bool
	// Camera is the camera record for this frame.
	Camera camera.GPUCameraUniform
}

// resourceSet boxes the backend's resources for atomic swapping.
type resourceSet struct {
	volume.Resources
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.Mutex

	name       string
	scan       *scan.Scan
	transforms []projection.Transform
	camera     camera.Camera
	backend    volume.Backend

	angle     float32
	threshold float32

	// rebuild starts true and is cleared by the Draw that claims it.
	rebuild   atomic.Bool
	released  atomic.Bool
	resources atomic.Pointer[resourceSet]
}

// Scene is one loaded scan being viewed. A new Scene is created for every scan; replacing the
// scan means releasing the old Scene.
//
// A frame is Draw, Prepare, then Render. Draw snapshots the mutable state into a Primitive and
// hands the rebuild token to exactly one primitive over the life of the scene. Prepare builds
// the resource set when its primitive carries the token and uploads the frame's camera. Render
// draws into the caller's viewport.
type Scene interface {
	// Name returns the scan name.
	Name() string

	// Scan returns the scan shown by this scene.
	Scan() *scan.Scan

	// Transforms returns the projection transforms derived from the scan, one per image.
	Transforms() []projection.Transform

	// Camera returns the orbiting camera.
	Camera() camera.Camera

	// Angle returns the current orbit angle in radians.
	Angle() float32

	// Rotate advances the orbit angle.
	//
	// Parameters:
	//   - delta: the angle to add, in radians
	Rotate(delta float32)

	// Threshold returns the normalized absorbance threshold.
	Threshold() float32

	// SetThreshold changes the threshold used from the next Draw on. It never triggers a rebuild.
	//
	// Parameters:
	//   - threshold: the new threshold
	SetThreshold(threshold float32)

	// Draw snapshots the scene for one frame.
	//
	// Returns:
	//   - Primitive: the frame snapshot, carrying the rebuild token if this call claimed it
	Draw() Primitive

	// Prepare builds the resource set if p carries the rebuild token, then uploads p's camera.
	//
	// Parameters:
	//   - p: the primitive returned by Draw
	//
	// Returns:
	//   - error: ErrNotReady when no resource set exists yet, a *volume.ResourceError when
	//     building failed, or ErrReleased
	Prepare(p Primitive) error

	// Render draws the prepared frame into viewport.
	//
	// Parameters:
	//   - p: the primitive passed to Prepare
	//   - viewport: the target rectangle in pixels
	//
	// Returns:
	//   - error: ErrNotReady when no resource set exists yet, or the draw error
	Render(p Primitive, viewport common.Viewport) error

	// Ready reports whether the resource set exists.
	Ready() bool

	// Release frees the resource set. The scene cannot be drawn afterwards.
	Release()
}

var _ Scene = &scene{}

// NewScene creates a Scene for s, deriving its projection transforms. Resources are built by
// backend on the first prepared frame.
//
// Parameters:
//   - s: the loaded scan, which must be valid
//   - backend: the backend that builds the resource set
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(s *scan.Scan, backend volume.Backend, options ...SceneBuilderOption) Scene {
	if s == nil {
		panic("scene: NewScene requires a scan")
	}
	if backend == nil {
		panic("scene: NewScene requires a backend")
	}
	sc := &scene{
		mu:         &sync.Mutex{},
		name:       s.Name,
		scan:       s,
		transforms: projection.Build(projection.ParamsFromScan(s)),
		backend:    backend,
		threshold:  DefaultThreshold,
	}
	for _, option := range options {
		option(sc)
	}
	if sc.camera == nil {
		sc.camera = camera.NewCamera()
	}
	sc.rebuild.Store(true)
	return sc
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Scan() *scan.Scan {
	return s.scan
}

func (s *scene) Transforms() []projection.Transform {
	return s.transforms
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Angle() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

func (s *scene) Rotate(delta float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle += delta
}

func (s *scene) Threshold() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

func (s *scene) SetThreshold(threshold float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = threshold
}

func (s *scene) Draw() Primitive {
	s.mu.Lock()
	angle, threshold := s.angle, s.threshold
	s.mu.Unlock()

	return Primitive{
		Rebuild: s.rebuild.CompareAndSwap(true, false),
		Camera:  s.camera.Uniform(angle, threshold),
	}
}

func (s *scene) Prepare(p Primitive) error {
	if s.released.Load() {
		return ErrReleased
	}
	if p.Rebuild {
		if err := s.build(); err != nil {
			return err
		}
	}

	res := s.resources.Load()
	if res == nil {
		return ErrNotReady
	}
	res.UpdateCamera(p.Camera)
	return nil
}

// build creates a fresh resource set and swaps it in, releasing the one it replaces.
func (s *scene) build() error {
	start := time.Now()
	res, err := s.backend.Build(volume.Input{Scan: s.scan, Transforms: s.transforms})
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	if old := s.resources.Swap(&resourceSet{res}); old != nil {
		old.Release()
	}
	if s.released.Load() {
		s.dropResources()
		return ErrReleased
	}
	common.Logger().Info("scene resources built",
		"scene", s.name,
		"projections", len(s.transforms),
		"elapsed", time.Since(start),
	)
	return nil
}

func (s *scene) Render(p Primitive, viewport common.Viewport) error {
	res := s.resources.Load()
	if res == nil {
		return ErrNotReady
	}
	return res.Draw(viewport)
}

func (s *scene) Ready() bool {
	return s.resources.Load() != nil
}

func (s *scene) Release() {
	s.released.Store(true)
	s.dropResources()
}

func (s *scene) dropResources() {
	if res := s.resources.Swap(nil); res != nil {
		res.Release()
	}
}
