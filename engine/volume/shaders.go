package volume

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-ct/engine/renderer/shader"
)

//go:embed assets/volume_vert.wgsl
var volumeVertexSource string

//go:embed assets/volume_frag.wgsl
var volumeFragmentSource string

const (
	// VertexShaderKey identifies the quad vertex shader.
	VertexShaderKey = "volume_vert"
	// FragmentShaderKey identifies the ray-marching fragment shader.
	FragmentShaderKey = "volume_frag"
)

// NewVertexShader parses the full-screen quad vertex shader.
func NewVertexShader() shader.Shader {
	return shader.NewShader(VertexShaderKey, shader.ShaderTypeVertex, volumeVertexSource)
}

// NewFragmentShader parses the compositing fragment shader. The projection images are R32Float,
// so the sampler and texture bindings are declared non-filtering.
func NewFragmentShader() shader.Shader {
	return shader.NewShader(FragmentShaderKey, shader.ShaderTypeFragment, volumeFragmentSource, shader.WithNonFilteringSamplers())
}
