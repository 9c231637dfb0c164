package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFuture struct {
	cancelled bool
	done      bool
}

func (f *fakeFuture) Cancel() error    { f.cancelled = true; return nil }
func (f *fakeFuture) IsCancelled() bool { return f.cancelled }
func (f *fakeFuture) IsDone() bool      { return f.done }

func TestControlledListFutureAddAndGetFutures(t *testing.T) {
	c := NewControlledListFuture(time.Hour)
	defer c.StopControl()

	f := &fakeFuture{}
	require.NoError(t, c.Add(f))

	futures, err := c.GetFutures()
	require.NoError(t, err)
	assert.Len(t, futures, 1)
}

func TestControlledListFutureSweepsCompletedFuturesAfterOnePeriod(t *testing.T) {
	c := NewControlledListFuture(30 * time.Millisecond)
	defer c.StopControl()

	f := &fakeFuture{done: true}
	require.NoError(t, c.Add(f))

	require.Eventually(t, func() bool {
		futures, err := c.GetFutures()
		return err == nil && len(futures) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestControlledListFutureKeepsInFlightFutures(t *testing.T) {
	c := NewControlledListFuture(20 * time.Millisecond)
	defer c.StopControl()

	f := &fakeFuture{}
	require.NoError(t, c.Add(f))

	time.Sleep(80 * time.Millisecond)

	futures, err := c.GetFutures()
	require.NoError(t, err)
	assert.Len(t, futures, 1)
}

func TestControlledListFutureStopAllCancelsAndClears(t *testing.T) {
	c := NewControlledListFuture(time.Hour)
	defer c.StopControl()

	f1, f2 := &fakeFuture{}, &fakeFuture{}
	require.NoError(t, c.Add(f1))
	require.NoError(t, c.Add(f2))

	require.NoError(t, c.StopAll())

	assert.True(t, f1.IsCancelled())
	assert.True(t, f2.IsCancelled())

	futures, err := c.GetFutures()
	require.NoError(t, err)
	assert.Empty(t, futures)
}

func TestControlledListFutureStopControlReturnsListAndHaltsSweep(t *testing.T) {
	c := NewControlledListFuture(10 * time.Millisecond)

	f := &fakeFuture{}
	require.NoError(t, c.Add(f))

	futures, err := c.StopControl()
	require.NoError(t, err)
	assert.Len(t, futures, 1)
	assert.False(t, f.IsCancelled())
}

func TestControlledListFutureStopControlAndShutdownCancelsEverything(t *testing.T) {
	c := NewControlledListFuture(10 * time.Millisecond)

	f := &fakeFuture{}
	require.NoError(t, c.Add(f))

	futures, err := c.StopControlAndShutdown()
	require.NoError(t, err)
	assert.Len(t, futures, 1)
	assert.True(t, f.IsCancelled())
}

func TestControlledListFutureOperationsFailAfterStop(t *testing.T) {
	c := NewControlledListFuture(10 * time.Millisecond)
	_, err := c.StopControl()
	require.NoError(t, err)

	assert.ErrorIs(t, c.Add(&fakeFuture{}), ErrIllegalState)
	_, err = c.GetFutures()
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.ErrorIs(t, c.StopAll(), ErrIllegalState)
	_, err = c.StopControl()
	assert.ErrorIs(t, err, ErrIllegalState)
	_, err = c.StopControlAndShutdown()
	assert.ErrorIs(t, err, ErrIllegalState)
}
