package clmem

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vkushnir/goclmem/internal/constants"
)

// BufferRegistry is a name-indexed set of live buffers owned by one
// Context. Name uniqueness is advisory, not enforced: the
// registry will happily hold two buffers sharing a name, and lookup
// returns whichever was registered most recently.
type BufferRegistry struct {
	mu      sync.Mutex
	buffers map[string][]*Buffer
	order   []*Buffer
	counter uint64
}

// NewBufferRegistry constructs an empty registry.
func NewBufferRegistry() *BufferRegistry {
	return &BufferRegistry{buffers: make(map[string][]*Buffer)}
}

// NextGeneratedName returns the next "UnnamedBuffer<n>" name, used by the
// buffer builder when the caller did not set an explicit name.
func (r *BufferRegistry) NextGeneratedName() string {
	n := atomic.AddUint64(&r.counter, 1)
	return fmt.Sprintf("%s%d", constants.AutoAssignNamePrefix, n)
}

// Register adds buf to the registry under its current Name().
func (r *BufferRegistry) Register(buf *Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := buf.name
	r.buffers[name] = append(r.buffers[name], buf)
	r.order = append(r.order, buf)
}

// Lookup returns the most recently registered live buffer with name, or
// nil if none is registered.
func (r *BufferRegistry) Lookup(name string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.buffers[name]
	if len(bucket) == 0 {
		return nil
	}
	return bucket[len(bucket)-1]
}

// Remove drops buf from the registry without destroying it.
func (r *BufferRegistry) Remove(buf *Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(buf)
}

func (r *BufferRegistry) removeLocked(buf *Buffer) {
	name := buf.name
	bucket := r.buffers[name]
	for i, b := range bucket {
		if b == buf {
			r.buffers[name] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(r.buffers[name]) == 0 {
		delete(r.buffers, name)
	}
	for i, b := range r.order {
		if b == buf {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Release destroys buf (idempotent, never fails) then removes it.
func (r *BufferRegistry) Release(buf *Buffer) {
	buf.destroy()
	r.Remove(buf)
}

// ReleaseAll destroys every registered buffer, in registration order, then
// clears the registry. Used by Context.destroy.
func (r *BufferRegistry) ReleaseAll() {
	r.mu.Lock()
	toRelease := make([]*Buffer, len(r.order))
	copy(toRelease, r.order)
	r.mu.Unlock()

	for _, buf := range toRelease {
		buf.destroy()
	}

	r.mu.Lock()
	r.buffers = make(map[string][]*Buffer)
	r.order = nil
	r.mu.Unlock()
}

// Len reports the number of currently registered buffers.
func (r *BufferRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
