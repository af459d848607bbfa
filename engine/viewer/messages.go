package viewer

import (
	"context"

	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
)

// Message is an event fed to the Viewer.
type Message interface {
	message()
}

// OpenRequested asks the viewer to pick and load a scan.
type OpenRequested struct {
	// Picker chooses the descriptor file. A nil Picker counts as a cancelled pick.
	Picker Picker
}

// ScanLoaded carries the result of a load started by OpenRequested. Generation identifies the
// request; results of requests that a newer OpenRequested replaced are dropped.
type ScanLoaded struct {
	Scan       *scan.Scan
	Err        error
	Generation uint64
}

// ThresholdEdited carries the raw text of the threshold field.
type ThresholdEdited struct {
	Text string
}

// Tick advances the orbit by one rotation step.
type Tick struct{}

func (OpenRequested) message()   {}
func (ScanLoaded) message()      {}
func (ThresholdEdited) message() {}
func (Tick) message()            {}

// Picker chooses a scan descriptor file.
type Picker interface {
	// Pick returns the chosen path. An empty path or scan.ErrCancelled means nothing was picked.
	//
	// Parameters:
	//   - ctx: cancelled when the viewer closes
	//
	// Returns:
	//   - string: the descriptor path
	//   - error: scan.ErrCancelled or a picker failure
	Pick(ctx context.Context) (string, error)
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func(ctx context.Context) (string, error)

func (f PickerFunc) Pick(ctx context.Context) (string, error) {
	return f(ctx)
}

// Path returns a Picker that always picks path. An empty path is a cancelled pick.
func Path(path string) Picker {
	return PickerFunc(func(context.Context) (string, error) {
		if path == "" {
			return "", scan.ErrCancelled
		}
		return path, nil
	})
}
