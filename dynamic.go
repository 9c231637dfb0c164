package clmem

import (
	"time"

	"github.com/vkushnir/goclmem/internal/driver"
)

// Resize grows or shrinks the buffer to new_cap, routing to increase or
// decrease. A no-op if new_cap equals the current capacity.
func (b *Buffer) Resize(newCap int) error {
	if !b.hasDynamic {
		return NewConfigError("Buffer.Resize", "buffer was not built with Dynamic")
	}
	if b.Status() != BufferRunning {
		return NewBufferClosedError("Buffer.Resize", b.Name())
	}
	if newCap < 0 {
		return NewOutOfBoundsError("Buffer.Resize", b.Name(), "new_cap must be >= 0")
	}

	b.mu.Lock()
	current := b.capacity
	minCap := b.dynamicPolicy.MinCapacity
	b.mu.Unlock()

	switch {
	case newCap > current:
		return b.increase(newCap)
	case newCap < current:
		floor := newCap
		if floor < minCap {
			floor = minCap
		}
		if floor == current {
			return nil
		}
		return b.decrease(floor)
	default:
		return nil
	}
}

// Compact shrinks capacity to Size(), guaranteeing no data loss; like any
// shrinking Resize, it never goes below the policy's MinCapacity.
func (b *Buffer) Compact() error {
	return b.Resize(b.Size())
}

// increase implements the crash-safe grow algorithm: save the old
// handle and capacity, allocate a new handle at the new capacity, copy old
// data across, swap in the new handle, release the old one (best-effort),
// then rebind every kernel. On any failure before the swap, capacity and
// the live handle are restored to their pre-call values.
func (b *Buffer) increase(newCap int) error {
	return b.resizeTo(newCap)
}

// decrease shares the increase skeleton; the only difference is the
// direction of the capacity comparison already handled by Resize's caller.
func (b *Buffer) decrease(newCap int) error {
	return b.resizeTo(newCap)
}

func (b *Buffer) resizeTo(newCap int) error {
	start := time.Now()
	err := b.doResize(newCap)
	b.observer.ObserveResize(uint64(time.Since(start)), err == nil)
	return err
}

func (b *Buffer) doResize(newCap int) error {
	b.mu.Lock()
	oldHandle := b.memHandle
	oldCap := b.capacity
	elemSize := b.codec.SizeStruct()
	isGlobal := b.isGlobal
	b.capacity = newCap
	b.mu.Unlock()

	if !isGlobal {
		// No device handle to migrate; just resize staging if present.
		b.resizeStagingLocked(newCap, elemSize)
		return nil
	}

	hostAccess := driver.DegradeHostAccess(b.hostAccess, b.context.platform.Version)

	newHandle, err := b.context.Driver().CreateBuffer(b.context.Handle(), b.deviceAccess, hostAccess, newCap*elemSize, nil)
	if err != nil {
		b.mu.Lock()
		b.capacity = oldCap
		b.mu.Unlock()
		return mapAllocError("Buffer.resize.increase", b.Name(), err)
	}

	copyCount := oldCap
	if newCap < copyCount {
		copyCount = newCap
	}
	if copyCount > 0 {
		queue := b.context.Queue()
		if err := b.context.Driver().EnqueueCopyBuffer(queue, oldHandle, newHandle, 0, 0, copyCount*elemSize); err != nil {
			if relErr := b.context.Driver().ReleaseMemObject(newHandle); relErr != nil {
				b.log.WithError(relErr).Warn("new handle release failed after copy failure during resize")
			}
			b.mu.Lock()
			b.capacity = oldCap
			b.memHandle = oldHandle
			b.mu.Unlock()
			return NewCopyError("Buffer.resize.copyData", b.Name(), err)
		}
	}

	b.mu.Lock()
	b.memHandle = newHandle
	b.mu.Unlock()

	if err := b.context.Driver().ReleaseMemObject(oldHandle); err != nil {
		warn := NewDestroyWarning("Buffer.resize.releaseOldHandle", b.Name(), err)
		b.mu.Lock()
		b.destroyWarnings = append(b.destroyWarnings, warn)
		b.mu.Unlock()
		b.log.WithError(err).Warn("old handle release failed after resize; new state is already valid")
	}

	b.resizeStagingLocked(newCap, elemSize)

	if b.hasKernelBindable {
		if err := b.RebindAll(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buffer) resizeStagingLocked(newCap, elemSize int) {
	if !b.hasHostShadow && !b.hasReadable && !b.hasWritable {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	newStaging := make([]byte, newCap*elemSize)
	copy(newStaging, b.staging)
	b.staging = newStaging
}
