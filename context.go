package clmem

import (
	"sync"

	"github.com/vkushnir/goclmem/internal/driver"
	"github.com/vkushnir/goclmem/internal/logging"
)

// ContextStatus mirrors Buffer's three-state lifecycle.
type ContextStatus int

const (
	ContextReady ContextStatus = iota
	ContextRunning
	ContextClosed
)

func (s ContextStatus) String() string {
	switch s {
	case ContextReady:
		return "Ready"
	case ContextRunning:
		return "Running"
	case ContextClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Context owns a driver context, its command queue(s), and a child
// BufferRegistry. It transitions Ready -> Running once driver handles are
// acquired, and Running -> Closed exactly once.
type Context struct {
	mu sync.Mutex

	driver   driver.Driver
	platform driver.Platform

	outOfOrder    bool
	profiling     bool
	priority      driver.Priority
	throttle      driver.Priority
	deviceQueueSz uint32 // 0 means no device-side queue requested

	status ContextStatus

	ctxHandle   driver.ContextHandle
	queueHandle driver.QueueHandle
	devQueue    driver.QueueHandle
	hasDevQueue bool

	registry *BufferRegistry
	log      *logging.Logger
}

// ContextBuilder configures a Context before Create() acquires driver
// resources. All With* methods are legal at any time before Create (the
// builder itself has no lifecycle).
type ContextBuilder struct {
	driver        driver.Driver
	platform      driver.Platform
	outOfOrder    bool
	profiling     bool
	priority      driver.Priority
	throttle      driver.Priority
	deviceQueueSz uint32
	hasPriority   bool
	hasThrottle   bool
}

// NewContextBuilder starts a Context configuration against the given
// driver and platform+device descriptor.
func NewContextBuilder(d driver.Driver, platform driver.Platform) *ContextBuilder {
	return &ContextBuilder{driver: d, platform: platform}
}

func (b *ContextBuilder) WithOutOfOrder(v bool) *ContextBuilder {
	b.outOfOrder = v
	return b
}

func (b *ContextBuilder) WithProfiling(v bool) *ContextBuilder {
	b.profiling = v
	return b
}

// WithPriority sets a command-queue priority hint, forwarded to the driver
// only if the device advertises the priority extension.
func (b *ContextBuilder) WithPriority(p driver.Priority) *ContextBuilder {
	b.priority = p
	b.hasPriority = true
	return b
}

// WithThrottle sets a command-queue throttle hint, forwarded only if the
// device advertises the throttle extension.
func (b *ContextBuilder) WithThrottle(p driver.Priority) *ContextBuilder {
	b.throttle = p
	b.hasThrottle = true
	return b
}

// WithDeviceQueueSize requests an additional device-side queue of the
// given size, honored only if the device advertises device-side queues.
func (b *ContextBuilder) WithDeviceQueueSize(size uint32) *ContextBuilder {
	b.deviceQueueSz = size
	return b
}

func (b *ContextBuilder) queueProps() driver.QueueProperties {
	props := driver.QueueProperties{OutOfOrder: b.outOfOrder, Profiling: b.profiling}
	if b.hasPriority && b.platform.Extensions.Priority {
		props.Priority = b.priority
	}
	if b.hasThrottle && b.platform.Extensions.Throttle {
		props.Throttle = b.throttle
	}
	if b.deviceQueueSz > 0 && b.platform.Extensions.DeviceSideQueue {
		props.DeviceQueueSize = b.deviceQueueSz
	}
	return props
}

// Create runs the acquire sequence with strict rollback: driver
// global -> driver context -> host queue -> optional device queue. Any
// failure unwinds everything acquired so far and returns a ContextError.
func (b *ContextBuilder) Create() (*Context, error) {
	if b.driver == nil {
		return nil, NewConfigError("Context.Create", "driver must not be nil")
	}

	if err := acquireGlobal(b.driver); err != nil {
		return nil, NewContextError("Context.Create", 0, "failed to acquire driver global", err)
	}

	ctxHandle, err := b.driver.CreateContext(b.platform)
	if err != nil {
		releaseGlobal(b.driver)
		return nil, NewContextError("Context.Create", 0, "failed to acquire driver context", err)
	}

	props := b.queueProps()
	queueHandle, err := b.driver.CreateCommandQueue(ctxHandle, b.platform, props)
	if err != nil {
		b.driver.ReleaseContext(ctxHandle)
		releaseGlobal(b.driver)
		return nil, NewContextError("Context.Create", uint64(ctxHandle), "failed to acquire host queue", err)
	}

	ctx := &Context{
		driver:        b.driver,
		platform:      b.platform,
		outOfOrder:    b.outOfOrder,
		profiling:     b.profiling,
		priority:      b.priority,
		throttle:      b.throttle,
		deviceQueueSz: b.deviceQueueSz,
		status:        ContextRunning,
		ctxHandle:     ctxHandle,
		queueHandle:   queueHandle,
		registry:      NewBufferRegistry(),
		log:           logging.Default().WithContext(uint64(ctxHandle)),
	}

	if b.deviceQueueSz > 0 && b.platform.Extensions.DeviceSideQueue {
		devQueue, err := b.driver.CreateDeviceQueue(ctxHandle, b.platform, props)
		if err != nil {
			b.driver.ReleaseCommandQueue(queueHandle)
			b.driver.ReleaseContext(ctxHandle)
			releaseGlobal(b.driver)
			return nil, NewContextError("Context.Create", uint64(ctxHandle), "failed to acquire device queue", err)
		}
		ctx.devQueue = devQueue
		ctx.hasDevQueue = true
	}

	registerContext(ctx)
	ctx.log.Info("context created")
	return ctx, nil
}

// Status reports the context's current lifecycle state.
func (c *Context) Status() ContextStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Handle returns the opaque driver context handle.
func (c *Context) Handle() driver.ContextHandle {
	return c.ctxHandle
}

// Queue returns the host command-queue handle.
func (c *Context) Queue() driver.QueueHandle {
	return c.queueHandle
}

// DeviceQueue returns the optional device-side queue handle and whether
// one was acquired.
func (c *Context) DeviceQueue() (driver.QueueHandle, bool) {
	return c.devQueue, c.hasDevQueue
}

// Driver returns the driver this context was created against, for use by
// buffers registered under it.
func (c *Context) Driver() driver.Driver {
	return c.driver
}

// Registry returns the context's child BufferRegistry.
func (c *Context) Registry() *BufferRegistry {
	return c.registry
}

// OutOfOrder reports whether the host queue was created out-of-order.
func (c *Context) OutOfOrder() bool {
	return c.outOfOrder
}

// Destroy releases all resources in reverse acquisition order:
// registry.ReleaseAll, device queue, host queue, context, driver global.
// Idempotent: a second call is a no-op. Sub-failures are logged and
// swallowed, never returned.
func (c *Context) Destroy() {
	c.mu.Lock()
	if c.status == ContextClosed {
		c.mu.Unlock()
		return
	}
	c.status = ContextClosed
	c.mu.Unlock()

	c.registry.ReleaseAll()

	if c.hasDevQueue {
		if err := c.driver.ReleaseCommandQueue(c.devQueue); err != nil {
			c.log.WithError(err).Warn("device queue release failed during context teardown")
		}
	}
	if err := c.driver.ReleaseCommandQueue(c.queueHandle); err != nil {
		c.log.WithError(err).Warn("host queue release failed during context teardown")
	}
	if err := c.driver.ReleaseContext(c.ctxHandle); err != nil {
		c.log.WithError(err).Warn("context release failed during teardown")
	}
	if err := releaseGlobal(c.driver); err != nil {
		c.log.WithError(err).Warn("driver global release failed during teardown")
	}

	unregisterContext(c)
	c.log.Info("context destroyed")
}

// globalRegistry tracks, process-wide, every live Context and a
// ref-counted handle on each driver's optional global resource. The first Context created against a given
// driver triggers GlobalReleaser.AcquireGlobal (if implemented); the last
// one destroyed triggers ReleaseGlobal.
type globalRegistryT struct {
	mu       sync.Mutex
	contexts []*Context
	refs     map[driver.Driver]int
}

var globalReg = &globalRegistryT{refs: make(map[driver.Driver]int)}

func acquireGlobal(d driver.Driver) error {
	globalReg.mu.Lock()
	defer globalReg.mu.Unlock()
	if globalReg.refs[d] == 0 {
		if gr, ok := d.(driver.GlobalReleaser); ok {
			if err := gr.AcquireGlobal(); err != nil {
				return err
			}
		}
	}
	globalReg.refs[d]++
	return nil
}

func releaseGlobal(d driver.Driver) error {
	globalReg.mu.Lock()
	defer globalReg.mu.Unlock()
	if globalReg.refs[d] <= 0 {
		return nil
	}
	globalReg.refs[d]--
	if globalReg.refs[d] == 0 {
		delete(globalReg.refs, d)
		if gr, ok := d.(driver.GlobalReleaser); ok {
			return gr.ReleaseGlobal()
		}
	}
	return nil
}

func registerContext(c *Context) {
	globalReg.mu.Lock()
	defer globalReg.mu.Unlock()
	globalReg.contexts = append(globalReg.contexts, c)
}

func unregisterContext(c *Context) {
	globalReg.mu.Lock()
	defer globalReg.mu.Unlock()
	for i, ctx := range globalReg.contexts {
		if ctx == c {
			globalReg.contexts = append(globalReg.contexts[:i], globalReg.contexts[i+1:]...)
			break
		}
	}
}

// LiveContexts returns a snapshot of every currently registered context,
// for diagnostics and tests.
func LiveContexts() []*Context {
	globalReg.mu.Lock()
	defer globalReg.mu.Unlock()
	out := make([]*Context, len(globalReg.contexts))
	copy(out, globalReg.contexts)
	return out
}
