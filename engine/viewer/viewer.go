// Package viewer is the application state of the CT viewer: which scan is open, the status line,
// the threshold and the scene on screen. Events arrive as Messages and are applied on the engine
// loop; slow work such as picking and loading a scan runs off the loop and reports back with a
// Message of its own.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/camera"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/Carmen-Shannon/oxy-ct/engine/scene"
	"github.com/Carmen-Shannon/oxy-ct/engine/volume"
)

// Status texts shown to the user.
const (
	StatusWelcome    = "Please open a scan"
	StatusLoading    = "Loading scan..."
	StatusNonePicked = "Please pick a file"
)

// DefaultRotationStep is the orbit angle added per Tick, in radians.
const DefaultRotationStep float32 = math.Pi / 16

// viewer is the implementation of the Viewer interface.
type viewer struct {
	mu *sync.Mutex

	loader  scan.Loader
	backend volume.Backend
	camera  camera.Camera

	status       string
	threshold    float32
	rotationStep float32
	scan         *scan.Scan
	scene        scene.Scene
	loads        int
	generation   uint64
	onStatus     func(status string)

	queueMu *sync.Mutex
	queue   []Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// cancelLoad aborts the load in flight, if any.
	cancelLoad context.CancelFunc
}

// Viewer is the state machine behind the user interface.
//
// Update must only be called from the engine loop. Send may be called from any goroutine and
// queues a message for the next Step.
type Viewer interface {
	// Send queues msg for the next Step. Safe for concurrent use.
	//
	// Parameters:
	//   - msg: the message to queue
	Send(msg Message)

	// Update applies msg immediately.
	//
	// Parameters:
	//   - msg: the message to apply
	Update(msg Message)

	// Step applies every queued message, then a Tick.
	Step()

	// Render draws the current scene into viewport. It does nothing without a scene.
	// It panics if the scene's resources cannot be built or drawn.
	//
	// Parameters:
	//   - viewport: the target rectangle in pixels
	Render(viewport common.Viewport)

	// Status returns the status line.
	Status() string

	// Threshold returns the threshold applied to new and current scenes.
	Threshold() float32

	// ThresholdText returns the threshold formatted for editing.
	ThresholdText() string

	// Scan returns the open scan, or nil.
	Scan() *scan.Scan

	// Scene returns the scene on screen, or nil.
	Scene() scene.Scene

	// Loading reports whether a scan load is in flight.
	Loading() bool

	// Close cancels pending loads, waits for them and releases the scene.
	Close()
}

var _ Viewer = &viewer{}

// NewViewer creates a Viewer that loads scans with loader and draws them with backend.
//
// Parameters:
//   - loader: the scan loader used for OpenRequested
//   - backend: the backend new scenes build their resources with
//   - options: functional options to configure the viewer
//
// Returns:
//   - Viewer: the new viewer, showing the welcome status
func NewViewer(loader scan.Loader, backend volume.Backend, options ...ViewerBuilderOption) Viewer {
	if loader == nil || backend == nil {
		panic("viewer: NewViewer requires a loader and a backend")
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &viewer{
		mu:           &sync.Mutex{},
		queueMu:      &sync.Mutex{},
		loader:       loader,
		backend:      backend,
		status:       StatusWelcome,
		threshold:    scene.DefaultThreshold,
		rotationStep: DefaultRotationStep,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, option := range options {
		option(v)
	}
	if v.camera == nil {
		v.camera = camera.NewCamera()
	}
	return v
}

func (v *viewer) Send(msg Message) {
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	v.queue = append(v.queue, msg)
}

func (v *viewer) Step() {
	v.queueMu.Lock()
	queued := v.queue
	v.queue = nil
	v.queueMu.Unlock()

	for _, msg := range queued {
		v.Update(msg)
	}
	v.Update(Tick{})
}

func (v *viewer) Update(msg Message) {
	switch m := msg.(type) {
	case OpenRequested:
		v.open(m.Picker)
	case ScanLoaded:
		v.loaded(m)
	case ThresholdEdited:
		v.editThreshold(m.Text)
	case Tick:
		v.mu.Lock()
		sc := v.scene
		v.mu.Unlock()
		if sc != nil {
			sc.Rotate(v.rotationStep)
		}
	default:
		common.Logger().Warn("viewer: unknown message", "type", fmt.Sprintf("%T", msg))
	}
}

// open starts a pick-and-load off the loop. A load already in flight is cancelled and its
// result, whatever it turns out to be, is dropped.
func (v *viewer) open(picker Picker) {
	v.mu.Lock()
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancelLoad = cancel
	v.loads++
	v.generation++
	gen := v.generation
	v.mu.Unlock()
	v.setStatus(StatusLoading)

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer cancel()
		s, err := v.pickAndLoad(ctx, picker)
		v.Send(ScanLoaded{Scan: s, Err: err, Generation: gen})
	}()
}

func (v *viewer) pickAndLoad(ctx context.Context, picker Picker) (*scan.Scan, error) {
	if picker == nil {
		return nil, scan.ErrCancelled
	}
	path, err := picker.Pick(ctx)
	if err != nil {
		return nil, err
	}
	common.Logger().Info("loading scan", "path", path)
	return v.loader.Load(ctx, path)
}

func (v *viewer) loaded(m ScanLoaded) {
	v.mu.Lock()
	v.loads = max(v.loads-1, 0)
	stale := m.Generation != v.generation
	v.mu.Unlock()
	if stale {
		// Superseded by a newer OpenRequested, however it finished.
		common.Logger().Debug("dropping superseded scan load", "generation", m.Generation, "err", m.Err)
		return
	}

	switch {
	case m.Err == nil && m.Scan == nil:
		return
	case m.Err == nil:
		v.mu.Lock()
		old := v.scene
		v.scan = m.Scan
		v.scene = scene.NewScene(m.Scan, v.backend,
			scene.WithCamera(v.camera),
			scene.WithThreshold(v.threshold),
		)
		v.mu.Unlock()
		if old != nil {
			old.Release()
		}
		v.setStatus(fmt.Sprintf("Scan %s loaded", m.Scan.Name))
		common.Logger().Info("updated scan", "name", m.Scan.Name)

	case errors.Is(m.Err, context.Canceled):
		// Close cancelled the load.
		common.Logger().Debug("scan load abandoned", "err", m.Err)

	case scan.IsCancelled(m.Err):
		v.setStatus(StatusNonePicked)
		common.Logger().Warn("no scan picked")

	default:
		v.mu.Lock()
		old := v.scene
		v.scan = nil
		v.scene = nil
		v.mu.Unlock()
		if old != nil {
			old.Release()
		}
		v.setStatus(m.Err.Error())
		common.Logger().Error("error loading scan", "err", m.Err)
	}
}

func (v *viewer) editThreshold(text string) {
	threshold, ok := ParseThreshold(text)
	if !ok {
		common.Logger().Debug("ignoring threshold text", "text", text)
		return
	}
	v.mu.Lock()
	v.threshold = threshold
	sc := v.scene
	v.mu.Unlock()
	if sc != nil {
		sc.SetThreshold(threshold)
	}
}

// ParseThreshold parses threshold text. Surrounding space is ignored; anything that is not a
// finite decimal number is rejected.
func ParseThreshold(text string) (float32, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return float32(f), true
}

func (v *viewer) setStatus(status string) {
	v.mu.Lock()
	v.status = status
	onStatus := v.onStatus
	v.mu.Unlock()
	if onStatus != nil {
		onStatus(status)
	}
}

func (v *viewer) Render(viewport common.Viewport) {
	v.mu.Lock()
	sc := v.scene
	v.mu.Unlock()
	if sc == nil {
		return
	}

	p := sc.Draw()
	if err := sc.Prepare(p); err != nil {
		if errors.Is(err, scene.ErrNotReady) || errors.Is(err, scene.ErrReleased) {
			return
		}
		panic(err)
	}
	if err := sc.Render(p, viewport); err != nil && !errors.Is(err, scene.ErrNotReady) {
		panic(err)
	}
}

func (v *viewer) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *viewer) Threshold() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.threshold
}

func (v *viewer) ThresholdText() string {
	return strconv.FormatFloat(float64(v.Threshold()), 'g', -1, 32)
}

func (v *viewer) Scan() *scan.Scan {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scan
}

func (v *viewer) Scene() scene.Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

func (v *viewer) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loads > 0
}

func (v *viewer) Close() {
	v.cancel()
	v.wg.Wait()

	v.mu.Lock()
	sc := v.scene
	v.scene = nil
	v.mu.Unlock()
	if sc != nil {
		sc.Release()
	}
}
