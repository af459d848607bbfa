package scan

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ct/common"
)

// Loader reads scan descriptors and decodes their projection images.
// A Loader is safe for concurrent use; each Load call is independent.
type Loader interface {
	// Load reads the descriptor at path, decodes every projection image in parallel and validates
	// the result. The first image that fails to load aborts the remaining decodes and the whole
	// load fails; no partial scan is ever returned.
	//
	// Parameters:
	//   - ctx: cancels the load; pending decodes are skipped once it is done
	//   - path: the descriptor file. An empty path means nothing was picked.
	//
	// Returns:
	//   - *Scan: the loaded, validated scan
	//   - error: ErrCancelled for an empty path, a *LoadError for I/O and decode failures,
	//     or a *GeometryError when validation fails
	Load(ctx context.Context, path string) (*Scan, error)
}

type loader struct {
	workers     int
	queueSize   int
	idleTimeout time.Duration
	pool        worker.DynamicWorkerPool
}

var _ Loader = &loader{}

// NewLoader creates a Loader backed by a persistent worker pool. The pool defaults to one worker per CPU.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers:     runtime.NumCPU(),
		queueSize:   256,
		idleTimeout: 5 * time.Second,
	}
	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, l.idleTimeout)
	return l
}

func (l *loader) Load(ctx context.Context, path string) (*Scan, error) {
	if path == "" {
		return nil, ErrCancelled
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	desc, err := ParseDescriptor(f)
	f.Close()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(desc.Projections) == 0 {
		return nil, geometryErrorf("scan %q lists no projections", desc.Name)
	}

	images, err := l.decodeAll(ctx, desc.ImagePaths(path))
	if err != nil {
		return nil, err
	}

	s := desc.Scan(images)
	if err := s.Validate(); err != nil {
		return nil, err
	}

	w, h := s.Dimensions()
	common.Logger().Info("scan loaded",
		"name", s.Name,
		"projections", s.Count(),
		"width", w,
		"height", h,
		"elapsed", time.Since(start),
	)
	return s, nil
}

// decodeAll fans the image decodes out over the worker pool. A semaphore bounds the number of
// queued tasks to the pool's queue size. The first failure cancels every decode not yet started.
func (l *loader) decodeAll(parent context.Context, paths []string) ([]Image, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	images := make([]Image, len(paths))
	sem := make(chan struct{}, l.queueSize)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

submit:
	for i, p := range paths {
		select {
		case <-ctx.Done():
			break submit
		case sem <- struct{}{}:
		}

		wg.Add(1)
		l.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() { <-sem }()

				if err := ctx.Err(); err != nil {
					return nil, err
				}
				im, err := decodeFile(p)
				if err != nil {
					fail(err)
					return nil, err
				}
				images[i] = im
				return nil, nil
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, &LoadError{Path: paths[0], Err: err}
	}
	return images, nil
}

func decodeFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	im, _, err := DecodeImage(f)
	if err != nil {
		return Image{}, &LoadError{Path: path, Err: err}
	}
	return im, nil
}

// IsCancelled reports whether err means the user picked nothing.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
