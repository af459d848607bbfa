// Package scan models a cone-beam CT acquisition: the scalar geometry recorded by the
// scanner and the ordered stack of projection images taken while the object rotated.
package scan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the rotation sense of the object during acquisition, viewed from above.
type Direction int

const (
	// DirectionCW is a clockwise acquisition. Its sign is -1.
	DirectionCW Direction = -1

	// DirectionCCW is a counter-clockwise acquisition. Its sign is +1.
	DirectionCCW Direction = 1
)

// Sign returns the direction as a float multiplier for angle computations.
func (d Direction) Sign() float32 {
	return float32(d)
}

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionCW || d == DirectionCCW
}

func (d Direction) String() string {
	switch d {
	case DirectionCW:
		return "CW"
	case DirectionCCW:
		return "CCW"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalJSON encodes the direction as "CW" or "CCW".
func (d Direction) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("scan: cannot encode %v", d)
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "CW" or "CCW", case-insensitively.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("scan: direction must be a string: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CW":
		*d = DirectionCW
	case "CCW":
		*d = DirectionCCW
	default:
		return fmt.Errorf("scan: unknown rotation direction %q", s)
	}
	return nil
}

// Image is a single-channel projection image. Pix holds intensities in [0, 1], row-major,
// with Width*Height entries.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// At returns the intensity at (x, y). Coordinates outside the image are clamped to the edge.
func (im Image) At(x, y int) float32 {
	x = min(max(x, 0), im.Width-1)
	y = min(max(y, 0), im.Height-1)
	return im.Pix[y*im.Width+x]
}

// Scan is one loaded acquisition. A Scan is immutable once loaded and may be shared
// between goroutines without synchronization.
type Scan struct {
	// Name is a human readable label for the acquisition.
	Name string
	// Direction is the rotation sense of the acquisition.
	Direction Direction
	// SOD is the source-to-object distance, in the same units as PixelSize.
	SOD float32
	// SDD is the source-to-detector distance.
	SDD float32
	// SweptAngle is the total rotation covered by the acquisition, in degrees.
	SweptAngle float32
	// PixelSize is the physical size of one detector pixel.
	PixelSize float32
	// Files lists the projection image file names in acquisition order.
	Files []string
	// Images holds the decoded projections, in the same order as Files.
	Images []Image
}

// Count returns the number of projections in the scan.
func (s *Scan) Count() int {
	return len(s.Images)
}

// Dimensions returns the shared width and height of the projection images.
// It returns zeros for a scan without images.
func (s *Scan) Dimensions() (width, height int) {
	if len(s.Images) == 0 {
		return 0, 0
	}
	return s.Images[0].Width, s.Images[0].Height
}

// Validate checks the geometric consistency of the scan: at least one projection, every image
// sharing the first image's dimensions, and physically meaningful distances.
// The returned error is a *GeometryError.
func (s *Scan) Validate() error {
	if !s.Direction.Valid() {
		return geometryErrorf("unknown rotation direction %v", s.Direction)
	}
	if s.SOD <= 0 {
		return geometryErrorf("source-object distance must be positive, got %g", s.SOD)
	}
	if s.SDD <= s.SOD {
		return geometryErrorf("source-detector distance %g must exceed source-object distance %g", s.SDD, s.SOD)
	}
	if s.PixelSize <= 0 {
		return geometryErrorf("pixel size must be positive, got %g", s.PixelSize)
	}
	if s.SweptAngle <= 0 {
		return geometryErrorf("swept angle must be positive, got %g", s.SweptAngle)
	}
	if len(s.Images) == 0 {
		return geometryErrorf("scan %q has no projections", s.Name)
	}

	w, h := s.Dimensions()
	if w <= 0 || h <= 0 {
		return geometryErrorf("projection 0 has empty dimensions %dx%d", w, h)
	}
	for i, im := range s.Images {
		if im.Width != w || im.Height != h {
			return geometryErrorf("projection %d is %dx%d, expected %dx%d", i, im.Width, im.Height, w, h)
		}
		if len(im.Pix) != w*h {
			return geometryErrorf("projection %d holds %d samples, expected %d", i, len(im.Pix), w*h)
		}
	}
	return nil
}
