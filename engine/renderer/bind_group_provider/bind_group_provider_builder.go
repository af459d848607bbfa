package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithIndexFormat sets the element type of the provider's index buffer.
//
// Parameters:
//   - format: wgpu.IndexFormatUint16 or wgpu.IndexFormatUint32
//
// Returns:
//   - BindGroupProviderOption: a function that sets the index format for this provider
func WithIndexFormat(format wgpu.IndexFormat) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexFormat = format
	}
}
