// Package projection derives, for every projection image of a scan, the mapping from world space
// onto that image's detector plane and texture coordinates.
package projection

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform maps world-space points onto one projection image.
// A point p lands at TextureTransform * (plane, 1) where plane is the cone-beam projection of
// Rotation * (p + Translate) onto the detector.
type Transform struct {
	// Translate moves the detector center to the origin.
	Translate mgl32.Vec3
	// Rotation turns the detector plane to face +Y.
	Rotation mgl32.Mat3
	// TextureTransform maps physical detector-plane coordinates to texture coordinates.
	TextureTransform mgl32.Mat2x3
	// SDD is the source-to-detector distance used for magnification.
	SDD float32
}

// Params holds the acquisition geometry needed to build transforms.
type Params struct {
	// Direction is -1 for clockwise and +1 for counter-clockwise acquisitions.
	Direction float32
	// SweptAngle is the total rotation in degrees.
	SweptAngle float32
	SOD        float32
	SDD        float32
	PixelSize  float32
	// Count is the number of projections.
	Count int
	// DetectorWidth and DetectorHeight are the detector size in pixels.
	DetectorWidth, DetectorHeight int
}

// ParamsFromScan collects the transform parameters of a loaded scan.
func ParamsFromScan(s *scan.Scan) Params {
	w, h := s.Dimensions()
	return Params{
		Direction:      s.Direction.Sign(),
		SweptAngle:     s.SweptAngle,
		SOD:            s.SOD,
		SDD:            s.SDD,
		PixelSize:      s.PixelSize,
		Count:          s.Count(),
		DetectorWidth:  w,
		DetectorHeight: h,
	}
}

// Angles returns the world rotation angle, in radians, of each of n projections evenly spread over
// sweptDegrees in the given direction. The first angle is always zero.
func Angles(direction, sweptDegrees float32, n int) []float32 {
	angles := make([]float32, n)
	if n == 0 {
		return angles
	}
	swept := float64(sweptDegrees) * math.Pi / 180
	for i := range angles {
		angles[i] = float32(float64(direction) * float64(i) * swept / float64(n))
	}
	return angles
}

// Build derives one Transform per projection. It is pure and deterministic.
func Build(p Params) []Transform {
	angles := Angles(p.Direction, p.SweptAngle, p.Count)
	r := p.SDD - p.SOD

	// Detector extent in physical units. Scale by 0.5/extent, flip Y, recenter on 0.5.
	extentX := float32(p.DetectorWidth) * p.PixelSize
	extentY := float32(p.DetectorHeight) * p.PixelSize
	texture := mgl32.Mat2x3{
		0.5 / extentX, 0,
		0, -0.5 / extentY,
		0.5, 0.5,
	}

	transforms := make([]Transform, len(angles))
	for i, angle := range angles {
		s, c := math.Sincos(float64(angle))
		detectorAngle := 3*math.Pi/2 - float64(angle)
		transforms[i] = Transform{
			Translate:        mgl32.Vec3{-r * float32(c), -r * float32(s), 0},
			Rotation:         mgl32.Rotate3DZ(float32(detectorAngle)),
			TextureTransform: texture,
			SDD:              p.SDD,
		}
	}
	return transforms
}

// Project maps a world-space point to texture coordinates on this transform's image.
// It returns false when the point lies at or behind the X-ray source.
func (t Transform) Project(p mgl32.Vec3) (mgl32.Vec2, bool) {
	local := t.Rotation.Mul3x1(p.Add(t.Translate))
	depth := t.SDD - local.Y()
	if depth <= 0 {
		return mgl32.Vec2{}, false
	}
	scale := t.SDD / depth
	plane := mgl32.Vec3{local.X() * scale, local.Z() * scale, 1}
	return t.TextureTransform.Mul3x1(plane), true
}

// DetectorExtent returns the physical width covered by the texture transform's X scale.
func (t Transform) DetectorExtent() float32 {
	if t.TextureTransform[0] == 0 {
		return 0
	}
	return 0.5 / t.TextureTransform[0]
}
