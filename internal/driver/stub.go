package driver

import (
	"sync"
	"sync/atomic"
)

// shardSize mirrors the sharded-locking granularity used for simulated
// device allocations, so concurrent reads/writes into disjoint regions of
// the same buffer don't serialize on a single mutex.
const shardSize = 64 * 1024

type memObject struct {
	data   []byte
	shards []sync.RWMutex
}

func newMemObject(size int) *memObject {
	numShards := (size + shardSize - 1) / shardSize
	if numShards == 0 {
		numShards = 1
	}
	return &memObject{data: make([]byte, size), shards: make([]sync.RWMutex, numShards)}
}

func (m *memObject) shardRange(off, length int) (start, end int) {
	if length <= 0 {
		return 0, -1
	}
	start = off / shardSize
	end = (off + length - 1) / shardSize
	if end >= len(m.shards) {
		end = len(m.shards) - 1
	}
	return start, end
}

func (m *memObject) readAt(dst []byte, off int) {
	start, end := m.shardRange(off, len(dst))
	for i := start; i <= end; i++ {
		m.shards[i].RLock()
	}
	copy(dst, m.data[off:off+len(dst)])
	for i := start; i <= end; i++ {
		m.shards[i].RUnlock()
	}
}

func (m *memObject) writeAt(src []byte, off int) {
	start, end := m.shardRange(off, len(src))
	for i := start; i <= end; i++ {
		m.shards[i].Lock()
	}
	copy(m.data[off:off+len(src)], src)
	for i := start; i <= end; i++ {
		m.shards[i].Unlock()
	}
}

// faultPlan holds one-shot fault injections consumed by Stub's next
// matching call, for exercising the rollback and error-mapping paths
// without needing a real device.
type faultPlan struct {
	mu             sync.Mutex
	failNextAlloc  error
	failNextRead   error
	failNextWrite  error
	failNextCopy   error
	failNextQueue  error
	failNextContext error
}

func (f *faultPlan) take(slot *error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := *slot
	*slot = nil
	return err
}

// Stub is an in-process simulation of Driver: contexts and command queues
// are bookkeeping only, buffers are backed by plain byte slices, and every
// enqueue call runs synchronously. It exists so the rest of this module can
// be built and tested without a real OpenCL-family device.
type Stub struct {
	mu         sync.Mutex
	contexts   map[ContextHandle]bool
	queues     map[QueueHandle]ContextHandle
	mems       map[MemHandle]*memObject
	kernelArgs map[KernelHandle]map[int][]byte

	nextContext uint64
	nextQueue   uint64
	nextMem     uint64
	nextKernel  uint64

	globalRefs int32

	faults faultPlan
}

// NewStub constructs an empty simulated driver.
func NewStub() *Stub {
	return &Stub{
		contexts:   make(map[ContextHandle]bool),
		queues:     make(map[QueueHandle]ContextHandle),
		mems:       make(map[MemHandle]*memObject),
		kernelArgs: make(map[KernelHandle]map[int][]byte),
	}
}

// FailNextAlloc arranges for the next CreateBuffer call to fail with err.
func (s *Stub) FailNextAlloc(err error) {
	s.faults.mu.Lock()
	s.faults.failNextAlloc = err
	s.faults.mu.Unlock()
}

// FailNextRead arranges for the next EnqueueReadBuffer call to fail with err.
func (s *Stub) FailNextRead(err error) {
	s.faults.mu.Lock()
	s.faults.failNextRead = err
	s.faults.mu.Unlock()
}

// FailNextWrite arranges for the next EnqueueWriteBuffer call to fail with err.
func (s *Stub) FailNextWrite(err error) {
	s.faults.mu.Lock()
	s.faults.failNextWrite = err
	s.faults.mu.Unlock()
}

// FailNextCopy arranges for the next EnqueueCopyBuffer call to fail with err.
func (s *Stub) FailNextCopy(err error) {
	s.faults.mu.Lock()
	s.faults.failNextCopy = err
	s.faults.mu.Unlock()
}

// FailNextQueue arranges for the next CreateCommandQueue/CreateDeviceQueue
// call to fail with err.
func (s *Stub) FailNextQueue(err error) {
	s.faults.mu.Lock()
	s.faults.failNextQueue = err
	s.faults.mu.Unlock()
}

// FailNextContext arranges for the next CreateContext call to fail with err.
func (s *Stub) FailNextContext(err error) {
	s.faults.mu.Lock()
	s.faults.failNextContext = err
	s.faults.mu.Unlock()
}

// GlobalRefs reports the simulated process-wide driver-global refcount,
// for tests that assert the last context release drops it to zero.
func (s *Stub) GlobalRefs() int32 {
	return atomic.LoadInt32(&s.globalRefs)
}

// AcquireGlobal implements GlobalReleaser.
func (s *Stub) AcquireGlobal() error {
	atomic.AddInt32(&s.globalRefs, 1)
	return nil
}

// ReleaseGlobal implements GlobalReleaser.
func (s *Stub) ReleaseGlobal() error {
	atomic.AddInt32(&s.globalRefs, -1)
	return nil
}

func (s *Stub) CreateContext(platform Platform) (ContextHandle, error) {
	if err := s.faults.take(&s.faults.failNextContext); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextContext++
	h := ContextHandle(s.nextContext)
	s.contexts[h] = true
	return h, nil
}

func (s *Stub) CreateCommandQueue(ctx ContextHandle, platform Platform, props QueueProperties) (QueueHandle, error) {
	return s.createQueue(ctx)
}

func (s *Stub) CreateDeviceQueue(ctx ContextHandle, platform Platform, props QueueProperties) (QueueHandle, error) {
	return s.createQueue(ctx)
}

func (s *Stub) createQueue(ctx ContextHandle) (QueueHandle, error) {
	if err := s.faults.take(&s.faults.failNextQueue); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.contexts[ctx] {
		return 0, &StatusError{Code: StatusInvalidContext, Op: "CreateCommandQueue"}
	}
	s.nextQueue++
	h := QueueHandle(s.nextQueue)
	s.queues[h] = ctx
	return h, nil
}

func (s *Stub) CreateBuffer(ctx ContextHandle, deviceAccess DeviceAccess, hostAccess HostAccess, bytes int, hostPtr []byte) (MemHandle, error) {
	if err := s.faults.take(&s.faults.failNextAlloc); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.contexts[ctx] {
		return 0, &StatusError{Code: StatusInvalidContext, Op: "CreateBuffer"}
	}
	obj := newMemObject(bytes)
	if hostPtr != nil {
		obj.writeAt(hostPtr, 0)
	}
	s.nextMem++
	h := MemHandle(s.nextMem)
	s.mems[h] = obj
	return h, nil
}

func (s *Stub) lookupMem(h MemHandle) (*memObject, error) {
	s.mu.Lock()
	obj, ok := s.mems[h]
	s.mu.Unlock()
	if !ok {
		return nil, &StatusError{Code: StatusInvalidMemObject}
	}
	return obj, nil
}

func (s *Stub) EnqueueReadBuffer(queue QueueHandle, buf MemHandle, blocking bool, offset int, dst []byte) error {
	if err := s.faults.take(&s.faults.failNextRead); err != nil {
		return err
	}
	obj, err := s.lookupMem(buf)
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(dst) > len(obj.data) {
		return &StatusError{Code: StatusInvalidValue, Op: "EnqueueReadBuffer"}
	}
	obj.readAt(dst, offset)
	return nil
}

func (s *Stub) EnqueueWriteBuffer(queue QueueHandle, buf MemHandle, blocking bool, offset int, src []byte) error {
	if err := s.faults.take(&s.faults.failNextWrite); err != nil {
		return err
	}
	obj, err := s.lookupMem(buf)
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(src) > len(obj.data) {
		return &StatusError{Code: StatusInvalidValue, Op: "EnqueueWriteBuffer"}
	}
	obj.writeAt(src, offset)
	return nil
}

func (s *Stub) EnqueueCopyBuffer(queue QueueHandle, src, dst MemHandle, srcOffset, dstOffset, bytes int) error {
	if err := s.faults.take(&s.faults.failNextCopy); err != nil {
		return err
	}
	srcObj, err := s.lookupMem(src)
	if err != nil {
		return err
	}
	dstObj, err := s.lookupMem(dst)
	if err != nil {
		return err
	}
	if srcOffset < 0 || srcOffset+bytes > len(srcObj.data) || dstOffset < 0 || dstOffset+bytes > len(dstObj.data) {
		return &StatusError{Code: StatusInvalidValue, Op: "EnqueueCopyBuffer"}
	}
	buf := make([]byte, bytes)
	srcObj.readAt(buf, srcOffset)
	dstObj.writeAt(buf, dstOffset)
	return nil
}

func (s *Stub) SetKernelArgBuffer(kernel KernelHandle, index int, buf MemHandle) error {
	handleBytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		handleBytes[i] = byte(buf >> (8 * i))
	}
	return s.setKernelArg(kernel, index, handleBytes)
}

func (s *Stub) SetKernelArgValue(kernel KernelHandle, index int, value []byte) error {
	return s.setKernelArg(kernel, index, value)
}

func (s *Stub) SetKernelArgLocalSize(kernel KernelHandle, index int, bytes int) error {
	return s.setKernelArg(kernel, index, make([]byte, bytes))
}

func (s *Stub) setKernelArg(kernel KernelHandle, index int, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	args, ok := s.kernelArgs[kernel]
	if !ok {
		args = make(map[int][]byte)
		s.kernelArgs[kernel] = args
	}
	args[index] = value
	return nil
}

func (s *Stub) ReleaseMemObject(handle MemHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mems[handle]; !ok {
		return &StatusError{Code: StatusInvalidMemObject, Op: "ReleaseMemObject"}
	}
	delete(s.mems, handle)
	return nil
}

func (s *Stub) ReleaseCommandQueue(handle QueueHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queues[handle]; !ok {
		return &StatusError{Code: StatusInvalidCommandQueue, Op: "ReleaseCommandQueue"}
	}
	delete(s.queues, handle)
	return nil
}

func (s *Stub) ReleaseContext(handle ContextHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contexts[handle]; !ok {
		return &StatusError{Code: StatusInvalidContext, Op: "ReleaseContext"}
	}
	delete(s.contexts, handle)
	return nil
}

var (
	_ Driver         = (*Stub)(nil)
	_ GlobalReleaser = (*Stub)(nil)
)
