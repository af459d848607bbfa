package camera

import (
	"encoding/binary"
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestCameraOrbit(t *testing.T) {
	cam := NewCamera()
	for i := range 64 {
		theta := float32(i) * math.Pi / 16
		pos := cam.Position(theta)
		if !near(pos.Len(), DefaultRadius) || pos.Z() != 0 {
			t.Fatalf("theta %v: position %v not on the orbit", theta, pos)
		}

		right, up := cam.Bases(theta)
		if !near(right.Len(), 1) || !near(up.Len(), 1) {
			t.Errorf("theta %v: bases not unit: %v %v", theta, right, up)
		}
		if !near(right.Dot(up), 0) {
			t.Errorf("theta %v: bases not orthogonal", theta)
		}
		if !near(right.Dot(pos), 0) {
			t.Errorf("theta %v: horizontal basis not tangent to the orbit", theta)
		}
	}
}

func TestCameraAxisPointsOutward(t *testing.T) {
	cam := NewCamera(WithRadius(10))
	u := cam.Uniform(math.Pi/3, 0.5)
	axis := u.Axis()
	pos := cam.Position(math.Pi / 3).Normalize()
	if !near(axis.Dot(pos), 1) {
		t.Errorf("axis %v does not point along the orbit radius %v", axis, pos)
	}
}

func TestCameraUniformOrigin(t *testing.T) {
	cam := NewCamera(WithDimensions(20, 10))
	u := cam.Uniform(0, 0.7)

	center := u.Origin(0, 0)
	if !near(center.X(), DefaultRadius) || !near(center.Y(), 0) {
		t.Errorf("center origin %v", center)
	}
	corner := u.Origin(1, 1)
	// At theta 0 the horizontal basis is +Y.
	if !near(corner.Y(), 10) || !near(corner.Z(), 5) {
		t.Errorf("corner origin %v, want y=10 z=5", corner)
	}
}

func TestGPUCameraUniformLayout(t *testing.T) {
	cam := NewCamera(WithSamplingInterval(0.25))
	u := cam.Uniform(math.Pi/2, 0.71)
	if u.Size() != 64 {
		t.Fatalf("GPUCameraUniform size %d, want 64", u.Size())
	}

	buf := u.Marshal()
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	if !near(f(0), 0) || !near(f(4), DefaultRadius) || f(8) != 0 || f(12) != 0 {
		t.Errorf("position/pad mismatch: %v %v %v %v", f(0), f(4), f(8), f(12))
	}
	if !near(f(16), -1) || !near(f(20), 0) || f(28) != 0 {
		t.Errorf("basis0 mismatch")
	}
	if f(32) != 0 || f(36) != 0 || f(40) != 1 || f(44) != 0 {
		t.Errorf("basis1 mismatch")
	}
	if f(48) != DefaultViewportWidth || f(52) != DefaultViewportHeight {
		t.Errorf("dimensions mismatch")
	}
	if f(56) != 0.25 || f(60) != 0.71 {
		t.Errorf("sampling interval/threshold mismatch: %v %v", f(56), f(60))
	}
}

func TestWithSamplingIntervalIgnoresNonPositive(t *testing.T) {
	cam := NewCamera(WithSamplingInterval(-1))
	if cam.SamplingInterval() != DefaultSamplingInterval {
		t.Errorf("expected default sampling interval, got %v", cam.SamplingInterval())
	}
}
