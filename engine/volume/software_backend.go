package volume

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"golang.org/x/image/draw"
)

// softwareBackend composites on the CPU into an in-memory image.
type softwareBackend struct {
	target draw.Image
}

// NewSoftwareBackend creates a Backend that draws with the CPU compositor into target.
// It needs no GPU and backs headless runs.
//
// Parameters:
//   - target: the image every resource set draws into
//
// Returns:
//   - Backend: the software backend
func NewSoftwareBackend(target draw.Image) Backend {
	return &softwareBackend{target: target}
}

func (b *softwareBackend) Build(in Input) (Resources, error) {
	if err := in.Validate(); err != nil {
		return nil, &ResourceError{Resource: "input", Err: err}
	}
	return &softwareResources{
		target:     b.target,
		compositor: NewCompositor(in.Scan, in.Transforms),
	}, nil
}

type softwareResources struct {
	mu         sync.Mutex
	target     draw.Image
	compositor *Compositor
	uniform    camera.GPUCameraUniform
}

func (r *softwareResources) UpdateCamera(uniform camera.GPUCameraUniform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uniform = uniform
}

func (r *softwareResources) Draw(viewport common.Viewport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.compositor == nil {
		return nil
	}
	r.compositor.Render(r.target, viewport, r.uniform)
	return nil
}

func (r *softwareResources) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compositor = nil
}
