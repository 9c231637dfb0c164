package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrIllegalState is returned by every ControlledListFuture method once the
// controller has been stopped.
var ErrIllegalState = errors.New("eventbus: controller is stopped")

// ErrClosed is returned by a publisher whose dispatch goroutine has
// already been closed.
var ErrClosed = errors.New("eventbus: publisher is closed")

// Future is a cancellable, observable handle to a scheduled delivery.
type Future interface {
	Cancel() error
	IsCancelled() bool
	IsDone() bool
}

// futureImpl backs Delayed, Periodic, and SilentTimeout publishers. stop, if
// set, releases the underlying timer/ticker; it must be safe to call more
// than once.
type futureImpl struct {
	cancelled atomic.Bool
	done      atomic.Bool
	stop      func()
}

func (f *futureImpl) Cancel() error {
	if f.done.Load() {
		return nil
	}
	f.cancelled.Store(true)
	if f.stop != nil {
		f.stop()
	}
	return nil
}

func (f *futureImpl) IsCancelled() bool { return f.cancelled.Load() }
func (f *futureImpl) IsDone() bool      { return f.done.Load() }
func (f *futureImpl) markDone()         { f.done.Store(true) }

var _ Future = (*futureImpl)(nil)

type controllerState int

const (
	controllerRunning controllerState = iota
	controllerStopped
)

// ControlledListFuture supervises a list of in-flight futures, sweeping
// completed or cancelled ones out of the list once per period so the list
// does not grow without bound.
type ControlledListFuture struct {
	mu        sync.Mutex
	state     controllerState
	futures   []Future
	stopSweep chan struct{}
	wg        sync.WaitGroup
}

// NewControlledListFuture starts the background sweep at the given period
// and returns the ready, Running controller.
func NewControlledListFuture(period time.Duration) *ControlledListFuture {
	c := &ControlledListFuture{state: controllerRunning, stopSweep: make(chan struct{})}
	c.wg.Add(1)
	go c.sweepLoop(period)
	return c
}

func (c *ControlledListFuture) sweepLoop(period time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *ControlledListFuture) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.futures[:0]
	for _, f := range c.futures {
		if !f.IsDone() && !f.IsCancelled() {
			kept = append(kept, f)
		}
	}
	c.futures = kept
}

// Add registers a future for supervision. Fails with ErrIllegalState once
// the controller is Stopped.
func (c *ControlledListFuture) Add(f Future) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == controllerStopped {
		return ErrIllegalState
	}
	c.futures = append(c.futures, f)
	return nil
}

// GetFutures returns a snapshot of the currently supervised futures.
func (c *ControlledListFuture) GetFutures() ([]Future, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == controllerStopped {
		return nil, ErrIllegalState
	}
	out := make([]Future, len(c.futures))
	copy(out, c.futures)
	return out, nil
}

// StopAll cancels every supervised future and clears the list, without
// stopping the sweep loop or the controller itself.
func (c *ControlledListFuture) StopAll() error {
	c.mu.Lock()
	if c.state == controllerStopped {
		c.mu.Unlock()
		return ErrIllegalState
	}
	cancelled := make([]Future, len(c.futures))
	copy(cancelled, c.futures)
	c.futures = nil
	c.mu.Unlock()

	for _, f := range cancelled {
		f.Cancel()
	}
	return nil
}

// StopControl halts the sweep loop and returns the list as it stood at the
// moment of stopping, without cancelling any future. Subsequent calls to
// any ControlledListFuture method fail with ErrIllegalState.
func (c *ControlledListFuture) StopControl() ([]Future, error) {
	c.mu.Lock()
	if c.state == controllerStopped {
		c.mu.Unlock()
		return nil, ErrIllegalState
	}
	c.state = controllerStopped
	out := make([]Future, len(c.futures))
	copy(out, c.futures)
	c.mu.Unlock()

	close(c.stopSweep)
	c.wg.Wait()
	return out, nil
}

// StopControlAndShutdown halts the sweep loop and cancels every supervised
// future, combining StopControl and StopAll.
func (c *ControlledListFuture) StopControlAndShutdown() ([]Future, error) {
	c.mu.Lock()
	if c.state == controllerStopped {
		c.mu.Unlock()
		return nil, ErrIllegalState
	}
	c.state = controllerStopped
	futures := make([]Future, len(c.futures))
	copy(futures, c.futures)
	c.futures = nil
	c.mu.Unlock()

	close(c.stopSweep)
	c.wg.Wait()
	for _, f := range futures {
		f.Cancel()
	}
	return futures, nil
}
