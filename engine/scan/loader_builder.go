package scan

import "time"

// LoaderBuilderOption is a functional option for configuring a Loader.
type LoaderBuilderOption func(l *loader)

// WithWorkers sets the number of decode workers. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithQueueSize sets the maximum number of decode tasks queued on the pool at once.
//
// Parameters:
//   - n: the queue size (minimum 1)
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.queueSize = max(n, 1)
	}
}

// WithIdleTimeout sets how long an idle pool worker lives before exiting.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithIdleTimeout(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d > 0 {
			l.idleTimeout = d
		}
	}
}
