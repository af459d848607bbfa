package common

import (
	"encoding/binary"
	"math"
)

// PutFloat32s writes values as consecutive little-endian f32 words starting at buf[offset:].
// It returns the offset just past the last written word.
func PutFloat32s(buf []byte, offset int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// Float32sToBytes encodes values as a fresh little-endian byte slice, independent of host byte order.
func Float32sToBytes(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	PutFloat32s(buf, 0, values...)
	return buf
}
