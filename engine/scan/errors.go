package scan

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user dismissed the scan picker without choosing a file.
var ErrCancelled = errors.New("scan: no file picked")

// LoadError reports a failure to read or decode a scan descriptor or one of its images.
type LoadError struct {
	// Path is the file that failed to load.
	Path string
	// Err is the underlying I/O, JSON or decode error.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GeometryError reports a scan whose geometry or image stack is inconsistent.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "inconsistent scan geometry: " + e.Reason
}

func geometryErrorf(format string, args ...any) error {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}
