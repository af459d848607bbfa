// Package clock abstracts the passage of time so the engine loop can be driven by a real ticker
// or stepped by hand in tests.
package clock

import (
	"sync"
	"time"
)

// Ticker delivers ticks on a channel at a fixed period. Like time.Ticker, slow receivers miss
// ticks instead of queueing them.
type Ticker interface {
	// C returns the channel ticks are delivered on.
	C() <-chan time.Time

	// Stop turns the ticker off. No ticks are delivered afterwards.
	Stop()
}

// Clock tells the time and creates tickers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a ticker firing every d. It panics if d is not positive.
	//
	// Parameters:
	//   - d: the tick period
	//
	// Returns:
	//   - Ticker: the new ticker
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

type systemTicker struct {
	t *time.Ticker
}

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

func (t systemTicker) C() <-chan time.Time {
	return t.t.C
}

func (t systemTicker) Stop() {
	t.t.Stop()
}

// Manual is a Clock that only moves when Advance is called.
type Manual struct {
	mu      *sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

type manualTicker struct {
	clock  *Manual
	ch     chan time.Time
	period time.Duration
	next   time.Time
}

// NewManual creates a manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{mu: &sync.Mutex{}, now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		clock:  m,
		ch:     make(chan time.Time, 1),
		period: d,
		next:   m.now.Add(d),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward by d and fires every ticker whose deadline passed.
// A ticker whose channel is full drops the tick.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	for _, t := range m.tickers {
		for !t.next.After(m.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}

// Tickers returns the number of running tickers.
func (m *Manual) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

func (t *manualTicker) C() <-chan time.Time {
	return t.ch
}

func (t *manualTicker) Stop() {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.tickers {
		if other == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			return
		}
	}
}
