package shader

// ShaderBuilderOption is a functional option for configuring a Shader before its source is parsed.
type ShaderBuilderOption func(s *shader)

// WithNonFilteringSamplers marks every sampler binding as non-filtering and every f32 sampled
// texture as unfilterable-float. WGSL cannot express filterability, so shaders that read
// 32-bit float textures such as R32Float must opt in.
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithNonFilteringSamplers() ShaderBuilderOption {
	return func(s *shader) {
		s.nonFiltering = true
	}
}
