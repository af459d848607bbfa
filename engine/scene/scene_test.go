package scene

import (
	"errors"
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/Carmen-Shannon/oxy-ct/engine/volume"
)

func testScan() *scan.Scan {
	s := &scan.Scan{
		Name:       "phantom",
		Direction:  scan.DirectionCW,
		SOD:        100,
		SDD:        150,
		SweptAngle: 360,
		PixelSize:  1,
	}
	for range 4 {
		s.Images = append(s.Images, scan.Image{Width: 16, Height: 16, Pix: make([]float32, 256)})
	}
	return s
}

type fakeResources struct {
	released atomic.Int32
	cameras  []camera.GPUCameraUniform
	draws    []common.Viewport
}

func (r *fakeResources) UpdateCamera(u camera.GPUCameraUniform) { r.cameras = append(r.cameras, u) }
func (r *fakeResources) Draw(vp common.Viewport) error {
	r.draws = append(r.draws, vp)
	return nil
}
func (r *fakeResources) Release() { r.released.Add(1) }

type fakeBackend struct {
	mu     sync.Mutex
	err    error
	builds []*fakeResources
}

func (b *fakeBackend) Build(in volume.Input) (volume.Resources, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	res := &fakeResources{}
	b.builds = append(b.builds, res)
	return res, nil
}

func TestNewScene(t *testing.T) {
	s := testScan()
	sc := NewScene(s, &fakeBackend{})
	if sc.Name() != "phantom" || sc.Scan() != s {
		t.Errorf("scene does not hold the scan")
	}
	if len(sc.Transforms()) != 4 {
		t.Errorf("got %d transforms, want 4", len(sc.Transforms()))
	}
	if sc.Threshold() != DefaultThreshold || sc.Angle() != 0 {
		t.Errorf("threshold %v angle %v", sc.Threshold(), sc.Angle())
	}
	if sc.Camera() == nil || sc.Ready() {
		t.Errorf("camera %v ready %v", sc.Camera(), sc.Ready())
	}
}

func TestNewScenePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a nil scan")
		}
	}()
	NewScene(nil, &fakeBackend{})
}

func TestRebuildTokenClaimedOnce(t *testing.T) {
	sc := NewScene(testScan(), &fakeBackend{})
	if !sc.Draw().Rebuild {
		t.Fatal("first primitive should carry the rebuild token")
	}
	for range 3 {
		if sc.Draw().Rebuild {
			t.Fatal("rebuild token handed out twice")
		}
	}
}

func TestRebuildTokenConcurrentClaim(t *testing.T) {
	sc := NewScene(testScan(), &fakeBackend{})
	var claimed atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sc.Draw().Rebuild {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()
	if claimed.Load() != 1 {
		t.Errorf("%d primitives carried the rebuild token, want 1", claimed.Load())
	}
}

func TestPrepareWithoutTokenIsNotReady(t *testing.T) {
	b := &fakeBackend{}
	sc := NewScene(testScan(), b)
	first := sc.Draw()

	if err := sc.Prepare(sc.Draw()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Prepare before the rebuild = %v, want ErrNotReady", err)
	}
	if err := sc.Render(first, common.Viewport{Width: 1, Height: 1}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Render before the rebuild = %v, want ErrNotReady", err)
	}

	if err := sc.Prepare(first); err != nil {
		t.Fatal(err)
	}
	if len(b.builds) != 1 || !sc.Ready() {
		t.Fatalf("builds %d ready %v", len(b.builds), sc.Ready())
	}
}

func TestFrameLifecycle(t *testing.T) {
	b := &fakeBackend{}
	sc := NewScene(testScan(), b, WithThreshold(0.3), WithAngle(0.5))
	vp := common.Viewport{Width: 20, Height: 10}

	for range 3 {
		p := sc.Draw()
		if err := sc.Prepare(p); err != nil {
			t.Fatal(err)
		}
		if err := sc.Render(p, vp); err != nil {
			t.Fatal(err)
		}
		sc.Rotate(math.Pi / 16)
	}

	if len(b.builds) != 1 {
		t.Fatalf("built %d times, want once", len(b.builds))
	}
	res := b.builds[0]
	if len(res.cameras) != 3 || len(res.draws) != 3 {
		t.Fatalf("cameras %d draws %d", len(res.cameras), len(res.draws))
	}
	if res.cameras[0].Threshold != 0.3 {
		t.Errorf("threshold %v", res.cameras[0].Threshold)
	}
	if res.cameras[0].Position == res.cameras[1].Position {
		t.Error("rotation should move the camera")
	}
	if res.draws[0] != vp {
		t.Errorf("viewport %+v", res.draws[0])
	}

	sc.SetThreshold(0.9)
	p := sc.Draw()
	if p.Rebuild || p.Camera.Threshold != 0.9 {
		t.Errorf("threshold change: %+v", p)
	}

	sc.Release()
	sc.Release()
	if res.released.Load() != 1 {
		t.Errorf("resources released %d times", res.released.Load())
	}
	if err := sc.Prepare(sc.Draw()); !errors.Is(err, ErrReleased) {
		t.Errorf("Prepare after Release = %v", err)
	}
}

func TestPrepareBuildFailure(t *testing.T) {
	cause := &volume.ResourceError{Resource: "texture", Err: errors.New("out of memory")}
	sc := NewScene(testScan(), &fakeBackend{err: cause})
	err := sc.Prepare(sc.Draw())
	var rerr *volume.ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("Prepare = %v, want a *volume.ResourceError", err)
	}
	if sc.Ready() {
		t.Error("failed build left resources behind")
	}
}

func TestSoftwareBackendScene(t *testing.T) {
	// Zero intensity everywhere is fully opaque.
	s := testScan()
	canvas := volume.NewCanvas(8, 8, color.Black)
	sc := NewScene(s, volume.NewSoftwareBackend(canvas.Image()))

	p := sc.Draw()
	if err := sc.Prepare(p); err != nil {
		t.Fatal(err)
	}
	if err := canvas.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := sc.Render(p, canvas.Viewport()); err != nil {
		t.Fatal(err)
	}
	if got := canvas.Image().RGBAAt(4, 4); got.R == 0 {
		t.Errorf("opaque scan should draw at the center, got %v", got)
	}
	sc.Release()
}
