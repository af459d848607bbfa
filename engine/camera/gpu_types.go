package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (64 bytes, uniform aligned).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
// Size: 64 bytes.
type GPUCameraUniform struct {
	Position         [3]float32    // offset  0: view plane center (vec3<f32>)
	_pad             float32       // offset 12
	Bases            [2][4]float32 // offset 16: view plane basis (array<vec4<f32>, 2>)
	Dimensions       [2]float32    // offset 48: view plane size (vec2<f32>)
	SamplingInterval float32       // offset 56
	Threshold        float32       // offset 60
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutFloat32s(buf, 0, g.Position[0], g.Position[1], g.Position[2], 0)
	off = common.PutFloat32s(buf, off, g.Bases[0][:]...)
	off = common.PutFloat32s(buf, off, g.Bases[1][:]...)
	common.PutFloat32s(buf, off, g.Dimensions[0], g.Dimensions[1], g.SamplingInterval, g.Threshold)
	return buf
}

// Axis returns the constant viewing axis basis0 x basis1. Rays march along its negation.
func (g *GPUCameraUniform) Axis() mgl32.Vec3 {
	b0 := mgl32.Vec3{g.Bases[0][0], g.Bases[0][1], g.Bases[0][2]}
	b1 := mgl32.Vec3{g.Bases[1][0], g.Bases[1][1], g.Bases[1][2]}
	return b0.Cross(b1)
}

// Origin returns the ray origin on the view plane for (u, v) in [-1, 1]^2.
func (g *GPUCameraUniform) Origin(u, v float32) mgl32.Vec3 {
	pos := mgl32.Vec3{g.Position[0], g.Position[1], g.Position[2]}
	b0 := mgl32.Vec3{g.Bases[0][0], g.Bases[0][1], g.Bases[0][2]}
	b1 := mgl32.Vec3{g.Bases[1][0], g.Bases[1][1], g.Bases[1][2]}
	return pos.Add(b0.Mul(u * g.Dimensions[0] / 2)).Add(b1.Mul(v * g.Dimensions[1] / 2))
}
