package projection

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ct/common"
)

// GPUProjectionSource is the canonical WGSL definition of the Projection struct.
// Matches GPUProjection layout exactly (96 bytes, storage aligned).
//
//go:embed assets/projection.wgsl
var GPUProjectionSource string

// GPUProjection is the GPU-aligned representation of one Transform as stored in the
// read-only projection buffer. Size: 96 bytes.
type GPUProjection struct {
	Translate        [3]float32    // offset  0: vec3<f32>
	_pad0            float32       // offset 12
	Transform        [3][4]float32 // offset 16: mat3x3<f32>, columns padded to vec4
	TextureTransform [3][2]float32 // offset 64: mat3x2<f32>
	SDD              float32       // offset 88
	_pad1            float32       // offset 92
}

// GPU converts the transform to its buffer layout.
func (t Transform) GPU() GPUProjection {
	var g GPUProjection
	g.Translate = [3]float32{t.Translate[0], t.Translate[1], t.Translate[2]}
	for col := range 3 {
		g.Transform[col] = [4]float32{t.Rotation[col*3], t.Rotation[col*3+1], t.Rotation[col*3+2], 0}
		g.TextureTransform[col] = [2]float32{t.TextureTransform[col*2], t.TextureTransform[col*2+1]}
	}
	g.SDD = t.SDD
	return g
}

// Size returns the size of the GPUProjection struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUProjection) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUProjection into a little-endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUProjection) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.marshalInto(buf)
	return buf
}

func (g *GPUProjection) marshalInto(buf []byte) {
	common.PutFloat32s(buf, 0, g.Translate[0], g.Translate[1], g.Translate[2], 0)
	off := 16
	for _, col := range g.Transform {
		off = common.PutFloat32s(buf, off, col[:]...)
	}
	for _, col := range g.TextureTransform {
		off = common.PutFloat32s(buf, off, col[:]...)
	}
	common.PutFloat32s(buf, off, g.SDD, 0)
}

// MarshalAll serializes transforms back to back, in order, for the projection storage buffer.
func MarshalAll(transforms []Transform) []byte {
	var g GPUProjection
	stride := g.Size()
	buf := make([]byte, stride*len(transforms))
	for i, t := range transforms {
		g = t.GPU()
		g.marshalInto(buf[i*stride:])
	}
	return buf
}
