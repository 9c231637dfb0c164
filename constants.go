package clmem

import "github.com/vkushnir/goclmem/internal/constants"

// Re-exported tuning defaults, so callers building a DynamicPolicy or sizing
// an event bus subscriber don't need to import internal/constants directly.
const (
	DefaultCapacityMultiplier      = constants.DefaultCapacityMultiplier
	DefaultMinCapacity             = constants.DefaultMinCapacity
	DefaultShrinkFactor            = constants.DefaultShrinkFactor
	DefaultSchedulerPoolSize       = constants.DefaultSchedulerPoolSize
	DefaultSweepPeriod             = constants.DefaultSweepPeriod
	DefaultSubscriberQueueCapacity = constants.DefaultSubscriberQueueCapacity
	AutoAssignNamePrefix           = constants.AutoAssignNamePrefix
)
