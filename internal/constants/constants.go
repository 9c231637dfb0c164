// Package constants holds tuning defaults shared across the clmem internals.
package constants

import "time"

// Default Dynamic capability policy knobs.
const (
	// DefaultCapacityMultiplier sizes the compacting resize that remove()
	// triggers: the new capacity is ceil(size*multiplier), floored at the
	// minimum capacity. Growth on write uses its own fixed 1.5 factor, and
	// init only raises a too-small capacity to the minimum.
	DefaultCapacityMultiplier = 1.5

	// DefaultMinCapacity is the floor a Dynamic buffer's capacity never
	// drops below, even after a shrink.
	DefaultMinCapacity = 10

	// DefaultShrinkFactor is the capacity/size ratio above which remove()
	// triggers a compacting resize.
	DefaultShrinkFactor = 4.0
)

// Default scheduling knobs for the event bus.
const (
	// DefaultSchedulerPoolSize is a pool size for scheduled publishing.
	// Nothing in this module reads it: the Delayed/Periodic/SilentTimeout
	// publishers run on their own timers and goroutines, with no shared
	// executor.
	DefaultSchedulerPoolSize = 2

	// DefaultSweepPeriod is a sweep period for a ControlledListFuture.
	// NewControlledListFuture takes its period as an argument and does not
	// fall back to this value.
	DefaultSweepPeriod = 50 * time.Millisecond

	// DefaultSubscriberQueueCapacity is a queue size for subscribers.
	// Nothing in this module reads it: a subscriber's priority queue is
	// unbounded, and Publish never blocks on it.
	DefaultSubscriberQueueCapacity = 1024
)

// AutoAssignNamePrefix is used when a buffer is built without an explicit
// name; the registry suffixes it with a monotonically increasing counter.
const AutoAssignNamePrefix = "UnnamedBuffer"
