package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo pairs a vertex format with its size in bytes.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslTypeLayout is the size and alignment of a WGSL type in a host-shareable buffer.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one struct member. location is -1 without an @location attribute.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}
