// Package volume turns a loaded scan into the resources needed to draw it and draws it, either
// through the WebGPU renderer or on the CPU into an in-memory image.
package volume

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/projection"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
)

// Input is everything a backend needs to build a resource set for one scan.
type Input struct {
	Scan       *scan.Scan
	Transforms []projection.Transform
}

// Validate checks that the input describes a drawable stack.
func (in Input) Validate() error {
	if in.Scan == nil {
		return fmt.Errorf("volume: no scan")
	}
	if len(in.Transforms) != in.Scan.Count() {
		return fmt.Errorf("volume: %d transforms for %d projections", len(in.Transforms), in.Scan.Count())
	}
	return in.Scan.Validate()
}

// Backend builds resource sets.
type Backend interface {
	// Build creates every resource needed to draw the scan. On failure nothing stays allocated
	// and the error is a *ResourceError.
	//
	// Parameters:
	//   - in: the scan and its projection transforms
	//
	// Returns:
	//   - Resources: the resource set, owned by the caller
	//   - error: a *ResourceError if any resource could not be created
	Build(in Input) (Resources, error)
}

// Resources is the set of objects needed to draw one scan. It is released as a unit.
type Resources interface {
	// UpdateCamera replaces the camera record used by the next Draw.
	//
	// Parameters:
	//   - uniform: the camera for this frame
	UpdateCamera(uniform camera.GPUCameraUniform)

	// Draw composites the scan into the viewport of the current frame.
	//
	// Parameters:
	//   - viewport: the target rectangle in pixels
	//
	// Returns:
	//   - error: an error if the draw could not be issued
	Draw(viewport common.Viewport) error

	// Release frees everything held by the set. It is safe to call more than once.
	Release()
}

// ResourceError reports a failure to create one of the resources of a set.
type ResourceError struct {
	// Resource names the object that could not be created.
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("volume: failed to create %s: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
