package clmem

import (
	"sync"

	"github.com/vkushnir/goclmem/internal/constants"
	"github.com/vkushnir/goclmem/internal/driver"
	"github.com/vkushnir/goclmem/internal/logging"
)

// BufferStatus is the three-state machine governing a buffer's lifetime.
type BufferStatus int

const (
	BufferReady BufferStatus = iota
	BufferRunning
	BufferClosed
)

func (s BufferStatus) String() string {
	switch s {
	case BufferReady:
		return "Ready"
	case BufferRunning:
		return "Running"
	case BufferClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// DynamicPolicy holds the three knobs governing a Dynamic buffer's resize
// behavior.
type DynamicPolicy struct {
	CapacityMultiplier float64
	MinCapacity        int
	ShrinkFactor       float64
}

// DefaultDynamicPolicy returns the default knob values.
func DefaultDynamicPolicy() DynamicPolicy {
	return DynamicPolicy{
		CapacityMultiplier: constants.DefaultCapacityMultiplier,
		MinCapacity:        constants.DefaultMinCapacity,
		ShrinkFactor:       constants.DefaultShrinkFactor,
	}
}

// Buffer is a host-side handle to a region of device or local memory with
// a typed element codec. It is itself its own builder: With* configuration
// methods are legal only while Ready, and Init/Destroy drive the
// Ready -> Running -> Closed lifecycle. Capability behavior
// (Readable, Writable, KernelBindable, Dynamic, HostShadowed) is composed
// by enabling the corresponding flag via WithReadable/WithWritable/etc;
// the matching methods always exist on *Buffer but fail with
// KindConfigError if the capability was never enabled, the same way a
// concrete flavor in the original design simply lacks the trait.
type Buffer struct {
	mu sync.Mutex

	status     BufferStatus
	configErr  *Error // first configuration error encountered by a With* call
	registered bool

	name         string
	codecFactory CodecFactory
	codec        Codec
	context      *Context

	initSize   int
	capacity   int
	size       int
	copyNative []byte
	copyHost   bool

	deviceAccess driver.DeviceAccess
	hostAccess   driver.HostAccess

	isGlobal    bool
	isLocal     bool
	isParameter bool
	memHandle   driver.MemHandle

	hasReadable      bool
	hasWritable      bool
	hasKernelBindable bool
	hasDynamic       bool
	hasHostShadow    bool

	dynamicPolicy DynamicPolicy

	staging []byte // pinned staging bytes, capacity*size_struct when HostShadowed

	bindMu   sync.RWMutex
	bindings map[driver.KernelHandle]int

	destroyWarnings []*Error

	observer Observer
	log      *logging.Logger
}

// NewBuffer returns a Buffer in the Ready state with no capabilities
// enabled; chain With* calls, then Init().
func NewBuffer() *Buffer {
	return &Buffer{
		status:        BufferReady,
		deviceAccess:  driver.DeviceReadWrite,
		hostAccess:    driver.HostReadWrite,
		dynamicPolicy: DefaultDynamicPolicy(),
		observer:      NoOpObserver{},
		log:           logging.Default(),
	}
}

// WithObserver routes transfer, resize, and bind activity to obs instead of
// the default no-op observer.
func (b *Buffer) WithObserver(obs Observer) *Buffer {
	if b.checkReady("Buffer.WithObserver") {
		if obs == nil {
			b.fail("Buffer.WithObserver", "observer must not be nil")
		} else {
			b.observer = obs
		}
	}
	return b
}

func (b *Buffer) fail(op, msg string) {
	if b.configErr == nil {
		b.configErr = NewConfigError(op, msg)
	}
}

func (b *Buffer) checkReady(op string) bool {
	if b.status != BufferReady {
		b.fail(op, "buffer already initiated")
		return false
	}
	return true
}

func (b *Buffer) WithName(name string) *Buffer {
	if b.checkReady("Buffer.WithName") {
		b.name = name
	}
	return b
}

func (b *Buffer) WithCodec(factory CodecFactory) *Buffer {
	if b.checkReady("Buffer.WithCodec") {
		if factory == nil {
			b.fail("Buffer.WithCodec", "codec must not be nil")
		} else {
			b.codecFactory = factory
		}
	}
	return b
}

func (b *Buffer) WithContext(ctx *Context) *Buffer {
	if b.checkReady("Buffer.WithContext") {
		b.context = ctx
	}
	return b
}

func (b *Buffer) WithInitSize(n int) *Buffer {
	if b.checkReady("Buffer.WithInitSize") {
		if n < 1 {
			b.fail("Buffer.WithInitSize", "init size must be >= 1")
		} else {
			b.initSize = n
		}
	}
	return b
}

// WithCopyNative supplies raw bytes passed directly to the driver as the
// buffer's initial host_ptr, bypassing codec translation.
func (b *Buffer) WithCopyNative(data []byte) *Buffer {
	if b.checkReady("Buffer.WithCopyNative") {
		b.copyNative = data
	}
	return b
}

// WithCopyHost requests that, immediately after the device handle is
// acquired, the buffer's full capacity is read back from the device into
// the host staging buffer. Requires the Readable capability.
func (b *Buffer) WithCopyHost() *Buffer {
	if b.checkReady("Buffer.WithCopyHost") {
		b.copyHost = true
	}
	return b
}

func (b *Buffer) WithDeviceAccess(access driver.DeviceAccess) *Buffer {
	if b.checkReady("Buffer.WithDeviceAccess") {
		b.deviceAccess = access
	}
	return b
}

func (b *Buffer) WithHostAccess(access driver.HostAccess) *Buffer {
	if b.checkReady("Buffer.WithHostAccess") {
		b.hostAccess = access
	}
	return b
}

// WithGlobal marks this buffer as the "Global" flavor: it holds a device
// handle created with the combined access flags.
func (b *Buffer) WithGlobal() *Buffer {
	if b.checkReady("Buffer.WithGlobal") {
		b.isGlobal = true
	}
	return b
}

// WithLocal marks this buffer as a device-local scratchpad with no device
// handle; setKernelArg passes capacity*size_struct as a scalar.
func (b *Buffer) WithLocal() *Buffer {
	if b.checkReady("Buffer.WithLocal") {
		b.isLocal = true
	}
	return b
}

// WithParameter marks this buffer as the "Parameter" flavor: capacity is
// forced to 1 and setKernelArg passes the staging bytes by value.
func (b *Buffer) WithParameter() *Buffer {
	if b.checkReady("Buffer.WithParameter") {
		b.isParameter = true
	}
	return b
}

func (b *Buffer) WithReadable() *Buffer {
	if b.checkReady("Buffer.WithReadable") {
		b.hasReadable = true
	}
	return b
}

func (b *Buffer) WithWritable() *Buffer {
	if b.checkReady("Buffer.WithWritable") {
		b.hasWritable = true
	}
	return b
}

func (b *Buffer) WithKernelBindable() *Buffer {
	if b.checkReady("Buffer.WithKernelBindable") {
		b.hasKernelBindable = true
	}
	return b
}

func (b *Buffer) WithDynamic(policy DynamicPolicy) *Buffer {
	if b.checkReady("Buffer.WithDynamic") {
		b.hasDynamic = true
		b.dynamicPolicy = policy
	}
	return b
}

func (b *Buffer) WithHostShadow() *Buffer {
	if b.checkReady("Buffer.WithHostShadow") {
		b.hasHostShadow = true
	}
	return b
}

// Name returns the buffer's name, generated or user-set.
func (b *Buffer) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// Status reports the buffer's current lifecycle state.
func (b *Buffer) Status() BufferStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Capacity reports the element count currently allocated.
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Size reports the element count actually populated.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Context returns the owning context.
func (b *Buffer) Context() *Context {
	return b.context
}

// DestroyWarnings returns the warnings collected during the most recent
// Destroy call, for callers that want to log them.
func (b *Buffer) DestroyWarnings() []*Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Error(nil), b.destroyWarnings...)
}

// Init validates configuration and acquires driver resources, running the
// the per-capability init hooks with rollback on any failure.
func (b *Buffer) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status != BufferReady {
		if b.status == BufferClosed {
			return NewBufferClosedError("Buffer.Init", b.name)
		}
		return nil // already Running: Init is not idempotent by design, but re-entering is a no-op guard
	}
	if b.configErr != nil {
		return b.configErr
	}

	if b.context == nil {
		return NewConfigError("Buffer.Init", "context must be set")
	}
	if b.context.Status() != ContextRunning {
		return NewConfigError("Buffer.Init", "context is not Running")
	}
	if b.codecFactory == nil {
		return NewConfigError("Buffer.Init", "codec must be set")
	}
	effectiveInitSize := b.initSize
	if b.isParameter {
		effectiveInitSize = 1
	}
	if effectiveInitSize < 1 {
		return NewConfigError("Buffer.Init", "init size must be >= 1")
	}
	if b.copyHost && !b.hasReadable {
		return NewConfigError("Buffer.Init", "with_copy_host requires the Readable capability")
	}

	if b.name == "" {
		b.name = b.context.Registry().NextGeneratedName()
	}

	// step 2: instantiate codec
	b.codec = b.codecFactory()
	if b.codec == nil {
		return NewInitError("Buffer.Init", b.name, "codec instantiation failed", nil)
	}

	// determine effective capacity, folding in the Dynamic adjustment
	// ahead of handle acquisition so the first device allocation is
	// already the right size.
	capacity := effectiveInitSize
	if b.hasDynamic && capacity < b.dynamicPolicy.MinCapacity {
		capacity = b.dynamicPolicy.MinCapacity
	}
	b.capacity = capacity

	// step 3: register in context's BufferRegistry
	b.context.Registry().Register(b)
	b.registered = true

	if err := b.runInitHooks(); err != nil {
		b.cleanupAfterInitFailure()
		return err
	}

	if b.copyHost && b.isGlobal {
		queue := b.context.Queue()
		if err := b.context.Driver().EnqueueReadBuffer(queue, b.memHandle, true, 0, b.staging); err != nil {
			b.cleanupAfterInitFailure()
			return NewTransferError("Buffer.Init.copyHost", b.name, err)
		}
	}

	b.status = BufferRunning
	b.log = b.log.WithBuffer(b.name)
	b.log.Info("buffer initialized", "capacity", b.capacity)
	return nil
}

// runInitHooks runs Global.acquire_handle -> HostShadowed.alloc_staging ->
// KernelBindable.init_map (Dynamic.adjust_capacity already folded into
// the capacity computed by the caller).
func (b *Buffer) runInitHooks() error {
	if b.isGlobal {
		sizeBytes := b.capacity * b.codec.SizeStruct()
		hostAccess := driver.DegradeHostAccess(b.hostAccess, b.context.platform.Version)
		var hostPtr []byte
		if b.copyNative != nil {
			hostPtr = b.copyNative
		}
		handle, err := b.context.Driver().CreateBuffer(b.context.Handle(), b.deviceAccess, hostAccess, sizeBytes, hostPtr)
		if err != nil {
			return mapAllocError("Buffer.Init.acquireHandle", b.name, err)
		}
		b.memHandle = handle
	}

	if b.hasHostShadow || b.hasReadable || b.hasWritable {
		b.staging = make([]byte, b.capacity*b.codec.SizeStruct())
	}

	if b.hasKernelBindable {
		b.bindMu.Lock()
		b.bindings = make(map[driver.KernelHandle]int)
		b.bindMu.Unlock()
	}

	return nil
}

func mapAllocError(op, name string, err error) *Error {
	if driver.IsAllocationFailure(err) {
		return NewDeviceOOMError(op, name, err)
	}
	return NewInitError(op, name, "driver failed to acquire buffer handle", err)
}

// cleanupAfterInitFailure runs the teardown-on-failure cleanup: free staging,
// remove from registry, release any acquired device handle.
func (b *Buffer) cleanupAfterInitFailure() {
	b.staging = nil
	if b.registered {
		b.context.Registry().Remove(b)
		b.registered = false
	}
	if b.isGlobal && b.memHandle != 0 {
		if err := b.context.Driver().ReleaseMemObject(b.memHandle); err != nil {
			b.log.WithError(err).Warn("mem object release failed during init rollback")
		}
		b.memHandle = 0
	}
	b.capacity = 0
}

// Destroy transitions Running -> Closed, idempotently. Capability cleanup
// hooks run in reverse init order; all sub-failures are collected into
// DestroyWarnings and never propagated.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroy()
}

// destroy is the lock-free core, callable both from Buffer.Destroy and
// from BufferRegistry.ReleaseAll/Release which already hold no lock on b.
func (b *Buffer) destroy() {
	if b.status == BufferClosed {
		return
	}
	wasRunning := b.status == BufferRunning
	b.status = BufferClosed
	if !wasRunning {
		return
	}

	b.destroyWarnings = nil

	if b.hasKernelBindable {
		b.bindMu.Lock()
		b.bindings = nil
		b.bindMu.Unlock()
	}

	b.staging = nil

	if b.isGlobal && b.memHandle != 0 {
		if err := b.context.Driver().ReleaseMemObject(b.memHandle); err != nil {
			warn := NewDestroyWarning("Buffer.destroy.releaseHandle", b.name, err)
			b.destroyWarnings = append(b.destroyWarnings, warn)
			b.log.WithError(err).Warn("mem object release failed during destroy")
		}
		b.memHandle = 0
	}

	if b.registered {
		b.context.Registry().Remove(b)
		b.registered = false
	}

	b.log.Info("buffer destroyed")
}
