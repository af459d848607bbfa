package viewer

import "github.com/Carmen-Shannon/oxy-ct/engine/camera"

// ViewerBuilderOption is a functional option for configuring a Viewer.
type ViewerBuilderOption func(v *viewer)

// WithThreshold sets the starting threshold.
//
// Parameters:
//   - threshold: the normalized absorbance threshold
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithThreshold(threshold float32) ViewerBuilderOption {
	return func(v *viewer) {
		v.threshold = threshold
	}
}

// WithRotationStep sets the orbit angle added per Tick.
//
// Parameters:
//   - step: the angle in radians
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithRotationStep(step float32) ViewerBuilderOption {
	return func(v *viewer) {
		v.rotationStep = step
	}
}

// WithCamera sets the camera shared by every scene the viewer opens.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithCamera(cam camera.Camera) ViewerBuilderOption {
	return func(v *viewer) {
		v.camera = cam
	}
}

// WithStatusCallback registers fn to be called with every new status text.
//
// Parameters:
//   - fn: the callback, run on the goroutine that changed the status
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithStatusCallback(fn func(status string)) ViewerBuilderOption {
	return func(v *viewer) {
		v.onStatus = fn
	}
}
