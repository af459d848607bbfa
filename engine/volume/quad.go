package volume

import "github.com/Carmen-Shannon/oxy-ct/common"

// QuadVertex is one corner of the full-viewport quad. Position is in clip space and CamCoords is
// the matching view-plane coordinate in [-1, 1]^2.
type QuadVertex struct {
	Position  [2]float32
	CamCoords [2]float32
}

// QuadVertices covers the viewport counter-clockwise from the bottom-left corner.
var QuadVertices = [4]QuadVertex{
	{Position: [2]float32{-1, -1}, CamCoords: [2]float32{-1, -1}},
	{Position: [2]float32{1, -1}, CamCoords: [2]float32{1, -1}},
	{Position: [2]float32{1, 1}, CamCoords: [2]float32{1, 1}},
	{Position: [2]float32{-1, 1}, CamCoords: [2]float32{-1, 1}},
}

// QuadIndices splits the quad into two counter-clockwise triangles.
var QuadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// QuadVertexBytes returns the vertex buffer contents, 16 bytes per vertex.
func QuadVertexBytes() []byte {
	values := make([]float32, 0, len(QuadVertices)*4)
	for _, v := range QuadVertices {
		values = append(values, v.Position[0], v.Position[1], v.CamCoords[0], v.CamCoords[1])
	}
	return common.Float32sToBytes(values)
}

// QuadIndexBytes returns the little-endian u16 index buffer contents.
func QuadIndexBytes() []byte {
	buf := make([]byte, 2*len(QuadIndices))
	for i, idx := range QuadIndices {
		buf[2*i] = byte(idx)
		buf[2*i+1] = byte(idx >> 8)
	}
	return buf
}
