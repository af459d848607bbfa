package scene

import "github.com/Carmen-Shannon/oxy-ct/engine/camera"

// DefaultThreshold is the normalized absorbance threshold a new scene starts with.
const DefaultThreshold float32 = 0.71

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithCamera sets the camera the scene orbits. Defaults to camera.NewCamera().
//
// Parameters:
//   - cam: the camera to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = cam
	}
}

// WithThreshold sets the starting threshold.
//
// Parameters:
//   - threshold: the normalized absorbance threshold
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithThreshold(threshold float32) SceneBuilderOption {
	return func(s *scene) {
		s.threshold = threshold
	}
}

// WithAngle sets the starting orbit angle.
//
// Parameters:
//   - theta: the angle in radians
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAngle(theta float32) SceneBuilderOption {
	return func(s *scene) {
		s.angle = theta
	}
}
