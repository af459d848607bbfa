package scan

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeGrayPNG(t *testing.T, path string, w, h int, value uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// writeScan lays out a descriptor and its projections directory under a temp dir and
// returns the descriptor path. sizes holds the width and height of each image.
func writeScan(t *testing.T, sizes [][2]int) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ProjectionDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	desc := Descriptor{
		Name:       "phantom",
		Direction:  DirectionCW,
		SOD:        100,
		SDD:        150,
		SweptAngle: 360,
		PixelSize:  1,
	}
	for i, sz := range sizes {
		name := filepath.Base(t.Name()) + "_" + string(rune('a'+i)) + ".png"
		writeGrayPNG(t, filepath.Join(dir, ProjectionDir, name), sz[0], sz[1], uint16(0xffff/(i+1)))
		desc.Projections = append(desc.Projections, name)
	}

	data, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("marshal descriptor: %v", err)
	}
	path := filepath.Join(dir, "scan.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return path
}

func TestLoaderLoadsScan(t *testing.T) {
	path := writeScan(t, [][2]int{{4, 3}, {4, 3}, {4, 3}})

	s, err := NewLoader(WithWorkers(2)).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "phantom" || s.Direction != DirectionCW {
		t.Errorf("unexpected header: %q %v", s.Name, s.Direction)
	}
	if s.Count() != 3 {
		t.Fatalf("expected 3 projections, got %d", s.Count())
	}
	w, h := s.Dimensions()
	if w != 4 || h != 3 {
		t.Errorf("expected 4x3 images, got %dx%d", w, h)
	}
	// Order must follow the descriptor, not decode completion.
	for i, im := range s.Images {
		want := float32(uint16(0xffff/(i+1))) / 0xffff
		if got := im.At(1, 1); got != want {
			t.Errorf("image %d: intensity %v, want %v", i, got, want)
		}
	}
}

func TestLoaderEmptyPathIsCancelled(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "")
	if !IsCancelled(err) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestLoaderMissingDescriptor(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoaderMissingImageFailsWholeLoad(t *testing.T) {
	path := writeScan(t, [][2]int{{2, 2}, {2, 2}, {2, 2}, {2, 2}})
	victim := filepath.Join(filepath.Dir(path), ProjectionDir, filepath.Base(t.Name())+"_c.png")
	if err := os.Remove(victim); err != nil {
		t.Fatalf("remove: %v", err)
	}

	s, err := NewLoader().Load(context.Background(), path)
	if s != nil {
		t.Fatalf("expected no partial scan, got %d images", s.Count())
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
}

func TestLoaderCorruptImage(t *testing.T) {
	path := writeScan(t, [][2]int{{2, 2}, {2, 2}})
	victim := filepath.Join(filepath.Dir(path), ProjectionDir, filepath.Base(t.Name())+"_b.png")
	if err := os.WriteFile(victim, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewLoader().Load(context.Background(), path)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if le.Path != victim {
		t.Errorf("expected failing path %s, got %s", victim, le.Path)
	}
}

func TestLoaderRejectsMixedDimensions(t *testing.T) {
	path := writeScan(t, [][2]int{{4, 4}, {4, 4}, {5, 4}})

	_, err := NewLoader().Load(context.Background(), path)
	var ge *GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GeometryError, got %v", err)
	}
}

func TestLoaderCancelledContext(t *testing.T) {
	path := writeScan(t, [][2]int{{2, 2}, {2, 2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewLoader().Load(ctx, path)
	if s != nil || err == nil {
		t.Fatalf("expected failure for cancelled context, got scan=%v err=%v", s, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
