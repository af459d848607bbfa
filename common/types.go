// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// Layered textures (2D arrays) store their layers back to back, layer-major, in Pixels.
type TextureStagingData struct {
	// Pixels is the raw texel data for every layer, tightly packed row by row.
	Pixels []byte
	// Width is the width of each layer in texels.
	Width uint32
	// Height is the height of each layer in texels.
	Height uint32
	// Layers is the number of array layers. Zero is treated as a single layer.
	Layers uint32
	// Format is the GPU texel format of Pixels. Zero defaults to RGBA8Unorm.
	Format wgpu.TextureFormat
	// BytesPerTexel is the size of one texel in Pixels. Zero defaults to 4.
	BytesPerTexel uint32
}

// LayerCount returns the number of array layers described by the staging data, never less than one.
func (t TextureStagingData) LayerCount() uint32 {
	return max(t.Layers, 1)
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level. Anything above 1 requires linear filtering.
	MaxAnisotropy uint16
}

// NearestClampSampler returns sampler staging data for point sampling with every axis clamped to the edge.
// This is the only sampler configuration valid for non-filterable textures such as R32Float.
func NearestClampSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// Viewport is a pixel rectangle within a color target. X and Y address the top-left corner.
type Viewport struct {
	X, Y          uint32
	Width, Height uint32
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width == 0 || v.Height == 0
}
