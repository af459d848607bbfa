package engine

import (
	"github.com/Carmen-Shannon/oxy-ct/engine/clock"
	"github.com/Carmen-Shannon/oxy-ct/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as DefaultTickRate.
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate = tickPeriod(fps)
	}
}

// WithWindow sets the window the engine polls for events each tick. Without a window the
// engine runs headless.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithClock sets the clock the loop is driven by. Defaults to clock.System().
//
// Parameters:
//   - c: the clock to tick from
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(c clock.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = c
	}
}

// WithFrameTarget sets the surface frames are drawn on.
// A target with a Resize(width, height int) method follows the window's framebuffer size.
//
// Parameters:
//   - t: the frame target
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameTarget(t FrameTarget) EngineBuilderOption {
	return func(e *engine) {
		e.target = t
	}
}

// WithFrameLimit stops the engine after n presented frames. Pass 0 to run until quit (default).
//
// Parameters:
//   - n: the number of frames to present before quitting
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(n int) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit = max(n, 0)
	}
}
