package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/clock"
	"github.com/Carmen-Shannon/oxy-ct/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ct/engine/window"
)

// DefaultTickRate is the tick rate used when none is configured, in ticks per second.
const DefaultTickRate = 30.0

// FrameTarget is the surface a frame is drawn on. The renderer and the software canvas both
// satisfy it.
type FrameTarget interface {
	BeginFrame() error
	EndFrame()
	Present()
}

// resizer is implemented by frame targets that follow the window size.
type resizer interface {
	Resize(width, height int)
}

// viewporter is implemented by frame targets that know their own size.
type viewporter interface {
	Viewport() common.Viewport
}

// engine implements the Engine interface.
// A single loop polls the window, ticks the application and draws one frame per tick.
type engine struct {
	tickRateChannel chan time.Duration

	running atomic.Bool

	quitChannel chan struct{}
	quitOnce    sync.Once

	clock  clock.Clock
	window window.Window
	target FrameTarget

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	tickRate     time.Duration
	tickCallback func(deltaTime float32)
	drawCallback func(viewport common.Viewport)

	frameLimit int
	frames     atomic.Int64

	errMu *sync.Mutex
	err   error
}

// Engine is the main entry point for the engine.
// It owns the loop that drives the window, the application tick and the frame lifecycle.
type Engine interface {
	// Window returns the window the engine polls, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Every tick runs the tick callback and draws one frame.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to DefaultTickRate if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each tick.
	//
	// Parameters:
	//   - callback: function receiving the time since the previous tick in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetDrawCallback registers the function that encodes draws between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - callback: function receiving the viewport covering the whole target
	SetDrawCallback(callback func(viewport common.Viewport))

	// Viewport returns the rectangle the draw callback is given: the window's framebuffer when
	// there is a window, otherwise the frame target's own size.
	//
	// Returns:
	//   - common.Viewport: the current full-surface viewport
	Viewport() common.Viewport

	// Frames returns the number of frames presented so far.
	Frames() int

	// Run drives the loop until Quit is called, the window closes or the frame limit is reached.
	// It must be called from the goroutine that created the window.
	//
	// Returns:
	//   - error: the panic that stopped the loop, if any
	Run() error

	// Quit stops the loop. Safe to call multiple times and from any goroutine.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (clock, window, target, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		errMu:           &sync.Mutex{},
		tickRate:        tickPeriod(DefaultTickRate),
	}

	for _, opt := range options {
		opt(e)
	}
	if e.clock == nil {
		e.clock = clock.System()
	}
	e.profiler = profiler.NewProfiler(e.clock)

	if e.window != nil {
		if r, ok := e.target.(resizer); ok {
			e.window.SetResizeCallback(r.Resize)
		}
	}

	return e
}

func tickPeriod(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultTickRate
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Viewport() common.Viewport {
	if e.window != nil {
		return common.Viewport{Width: uint32(max(e.window.Width(), 0)), Height: uint32(max(e.window.Height(), 0))}
	}
	if v, ok := e.target.(viewporter); ok {
		return v.Viewport()
	}
	return common.Viewport{}
}

func (e *engine) Frames() int {
	return int(e.frames.Load())
}

func (e *engine) Run() error {
	e.running.Store(true)
	defer e.running.Store(false)

	ticker := e.clock.NewTicker(e.tickRate)
	defer func() { ticker.Stop() }()

	lastTick := e.clock.Now()
	for {
		select {
		case <-e.quitChannel:
			return e.Err()
		case rate := <-e.tickRateChannel:
			ticker.Stop()
			e.tickRate = rate
			ticker = e.clock.NewTicker(rate)
		case now := <-ticker.C():
			select {
			case <-e.quitChannel:
				return e.Err()
			default:
			}
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		}
	}
}

// tick runs one iteration of the loop. A panic anywhere in it stops the engine.
func (e *engine) tick(dt float32) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("engine loop recovered from panic: %v", r)
			common.Logger().Error("engine stopped", "err", err)
			e.errMu.Lock()
			e.err = err
			e.errMu.Unlock()
			e.signalQuit()
		}
	}()

	if e.window != nil {
		if !e.window.PollEvents() || !e.window.IsRunning() {
			e.signalQuit()
			return
		}
	}

	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	e.frame()

	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}

	if e.frameLimit > 0 && e.Frames() >= e.frameLimit {
		common.Logger().Info("frame limit reached", "frames", e.Frames())
		e.signalQuit()
	}
}

// frame runs the BeginFrame, draw, EndFrame, Present lifecycle on the target.
func (e *engine) frame() {
	if e.target == nil {
		return
	}
	if err := e.target.BeginFrame(); err != nil {
		common.Logger().Warn("skipping frame", "err", err)
		return
	}
	if e.drawCallback != nil {
		e.drawCallback(e.Viewport())
	}
	e.target.EndFrame()
	e.target.Present()
	e.frames.Add(1)
}

// Err returns the error that stopped the loop, if any.
func (e *engine) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect on the next loop iteration.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickPeriod(fps)

	if !e.running.Load() {
		e.tickRate = newRate
		return
	}
	// Non-blocking send; a pending update is replaced.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetDrawCallback registers the function called inside each frame.
func (e *engine) SetDrawCallback(callback func(viewport common.Viewport)) {
	e.drawCallback = callback
}
