package camera

type CameraBuilderOption func(*cameraImpl)

// WithRadius sets the orbit radius.
//
// Parameters:
//   - r: distance from the rotation axis to the view plane center
//
// Returns:
//   - CameraBuilderOption: a function that sets the orbit radius
func WithRadius(r float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.radius = r
	}
}

// WithDimensions sets the physical size of the view plane.
//
// Parameters:
//   - w, h: width and height in world units
//
// Returns:
//   - CameraBuilderOption: a function that sets the view plane size
func WithDimensions(w, h float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.width, c.height = w, h
	}
}

// WithSamplingInterval sets the ray-march step length. Non-positive values are ignored.
//
// Parameters:
//   - step: the step length in world units
//
// Returns:
//   - CameraBuilderOption: a function that sets the sampling interval
func WithSamplingInterval(step float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if step > 0 {
			c.samplingInterval = step
		}
	}
}
