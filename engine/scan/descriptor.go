package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

// ProjectionDir is the directory, next to the descriptor file, that holds the projection images.
const ProjectionDir = "projections"

// Descriptor is the on-disk JSON description of a scan. Image files are listed relative to
// the ProjectionDir sibling of the descriptor.
type Descriptor struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	SOD         float32   `json:"sod"`
	SDD         float32   `json:"sdd"`
	SweptAngle  float32   `json:"swept_angle"`
	PixelSize   float32   `json:"pixel_size"`
	Projections []string  `json:"projections"`
}

// ParseDescriptor decodes a scan descriptor from r.
func ParseDescriptor(r io.Reader) (Descriptor, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("invalid scan descriptor: %w", err)
	}
	return d, nil
}

// ImagePaths resolves the projection file names against the ProjectionDir that sits next to descriptorPath.
func (d Descriptor) ImagePaths(descriptorPath string) []string {
	dir := filepath.Join(filepath.Dir(descriptorPath), ProjectionDir)
	paths := make([]string, len(d.Projections))
	for i, name := range d.Projections {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// Scan builds a Scan from the descriptor's scalar fields and the given decoded images.
func (d Descriptor) Scan(images []Image) *Scan {
	return &Scan{
		Name:       d.Name,
		Direction:  d.Direction,
		SOD:        d.SOD,
		SDD:        d.SDD,
		SweptAngle: d.SweptAngle,
		PixelSize:  d.PixelSize,
		Files:      append([]string(nil), d.Projections...),
		Images:     images,
	}
}
