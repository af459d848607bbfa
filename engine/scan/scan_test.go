package scan

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func uniformImage(w, h int, v float32) Image {
	pix := make([]float32, w*h)
	for i := range pix {
		pix[i] = v
	}
	return Image{Width: w, Height: h, Pix: pix}
}

func validScan() *Scan {
	return &Scan{
		Name:       "ok",
		Direction:  DirectionCCW,
		SOD:        100,
		SDD:        150,
		SweptAngle: 360,
		PixelSize:  0.5,
		Images:     []Image{uniformImage(3, 2, 1), uniformImage(3, 2, 0.5)},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scan)
		ok     bool
	}{
		{"valid", func(s *Scan) {}, true},
		{"no projections", func(s *Scan) { s.Images = nil }, false},
		{"mismatched width", func(s *Scan) { s.Images[1] = uniformImage(4, 2, 1) }, false},
		{"short pixel buffer", func(s *Scan) { s.Images[1].Pix = s.Images[1].Pix[:5] }, false},
		{"zero size image", func(s *Scan) { s.Images = []Image{{}} }, false},
		{"sdd not beyond sod", func(s *Scan) { s.SDD = s.SOD }, false},
		{"negative sod", func(s *Scan) { s.SOD = -1 }, false},
		{"zero pixel size", func(s *Scan) { s.PixelSize = 0 }, false},
		{"zero swept angle", func(s *Scan) { s.SweptAngle = 0 }, false},
		{"missing direction", func(s *Scan) { s.Direction = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScan()
			tt.mutate(s)
			err := s.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ge *GeometryError
			if !errors.As(err, &ge) {
				t.Fatalf("expected *GeometryError, got %v", err)
			}
		})
	}
}

func TestDirectionJSON(t *testing.T) {
	var d Direction
	if err := json.Unmarshal([]byte(`"ccw"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d != DirectionCCW || d.Sign() != 1 {
		t.Errorf("expected CCW (+1), got %v", d)
	}
	if err := json.Unmarshal([]byte(`"CW"`), &d); err != nil || d.Sign() != -1 {
		t.Errorf("expected CW (-1), got %v err=%v", d, err)
	}
	if err := json.Unmarshal([]byte(`"sideways"`), &d); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestParseDescriptor(t *testing.T) {
	src := `{"name":"skull","direction":"CCW","sod":80.5,"sdd":120,"swept_angle":180,
		"pixel_size":0.2,"projections":["p0.tif","p1.tif"],"operator":"ignored"}`
	d, err := ParseDescriptor(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	if d.Name != "skull" || d.Direction != DirectionCCW || d.SOD != 80.5 || d.SweptAngle != 180 {
		t.Errorf("unexpected descriptor %+v", d)
	}
	paths := d.ImagePaths("/data/skull/scan.json")
	if len(paths) != 2 || paths[1] != "/data/skull/projections/p1.tif" {
		t.Errorf("unexpected image paths %v", paths)
	}

	if _, err := ParseDescriptor(strings.NewReader(`{"name": 3}`)); err == nil {
		t.Error("expected error for malformed descriptor")
	}
}

func TestDecodeImageConvertsToLuma(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.White)
	src.Set(1, 0, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	im, format, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png, got %s", format)
	}
	if im.Width != 2 || im.Height != 1 {
		t.Fatalf("unexpected size %dx%d", im.Width, im.Height)
	}
	if im.Pix[0] != 1 || im.Pix[1] != 0 {
		t.Errorf("expected [1 0], got %v", im.Pix)
	}
}

func TestImageAtClamps(t *testing.T) {
	im := Image{Width: 2, Height: 2, Pix: []float32{0.1, 0.2, 0.3, 0.4}}
	if im.At(-5, 0) != 0.1 || im.At(9, 9) != 0.4 || im.At(1, 0) != 0.2 {
		t.Errorf("unexpected clamped samples")
	}
}
