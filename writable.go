package clmem

import (
	"math"
	"time"
)

// Write computes count = codec.SizeOf(src); if offset+count exceeds
// capacity, grows a Dynamic buffer via resize(ceil((offset+count)*1.5)) or
// fails CapacityExceeded on a static one. It then encodes src into the
// staging buffer, enqueues a blocking host-to-device transfer (Global
// buffers only; a Parameter buffer keeps the bytes in staging, which Bind
// passes by value), and sets size = max(size, offset+count).
func (b *Buffer) Write(src any, offset int) error {
	return b.write(src, offset)
}

func (b *Buffer) write(src any, offset int) error {
	if !b.hasWritable {
		return NewConfigError("Buffer.Write", "buffer was not built with Writable")
	}
	if b.Status() != BufferRunning {
		return NewBufferClosedError("Buffer.Write", b.Name())
	}
	if offset < 0 {
		return NewOutOfBoundsError("Buffer.Write", b.Name(), "offset must be >= 0")
	}

	count, err := b.codec.SizeOf(src)
	if err != nil {
		return err
	}

	b.mu.Lock()
	capacity := b.capacity
	b.mu.Unlock()

	if offset+count > capacity {
		if b.hasDynamic {
			newCap := int(math.Ceil(float64(offset+count) * constDynamicGrowthFactor))
			if err := b.Resize(newCap); err != nil {
				return err
			}
		} else {
			return NewCapacityExceededError("Buffer.Write", b.Name(), "write exceeds static capacity")
		}
	}

	b.mu.Lock()
	elemSize := b.codec.SizeStruct()
	byteOff := offset * elemSize
	byteLen := count * elemSize
	b.mu.Unlock()

	b.mu.Lock()
	raw := b.staging[byteOff : byteOff+byteLen]
	b.mu.Unlock()
	if err := b.codec.Encode(raw, src); err != nil {
		return err
	}

	if b.isGlobal {
		start := time.Now()
		queue := b.context.Queue()
		err = b.context.Driver().EnqueueWriteBuffer(queue, b.memHandle, true, byteOff, raw)
		b.observer.ObserveWrite(uint64(byteLen), uint64(time.Since(start)), err == nil)
		if err != nil {
			return NewTransferError("Buffer.Write", b.Name(), err)
		}
	}

	b.mu.Lock()
	if offset+count > b.size {
		b.size = offset + count
	}
	b.mu.Unlock()
	return nil
}

// constDynamicGrowthFactor is the 1.5 multiplier Write uses when a
// Dynamic buffer must grow to accept an out-of-capacity write.
const constDynamicGrowthFactor = 1.5

// Append is equivalent to Write(src, Size()).
func (b *Buffer) Append(src any) error {
	return b.write(src, b.Size())
}

// Remove compacts [index+num, size) down to [index, ...), shrinking size
// by num. If Dynamic and capacity/size exceeds the shrink factor, this
// triggers a compacting resize.
func (b *Buffer) Remove(index, num int) error {
	if !b.hasWritable {
		return NewConfigError("Buffer.Remove", "buffer was not built with Writable")
	}
	if b.Status() != BufferRunning {
		return NewBufferClosedError("Buffer.Remove", b.Name())
	}
	if index < 0 || num < 0 {
		return NewOutOfBoundsError("Buffer.Remove", b.Name(), "index and num must be >= 0")
	}

	b.mu.Lock()
	size := b.size
	elemSize := b.codec.SizeStruct()
	b.mu.Unlock()

	if index+num > size {
		return NewOutOfBoundsError("Buffer.Remove", b.Name(), "index+num exceeds size")
	}

	tailCount := size - (index + num)
	if tailCount > 0 && b.isGlobal {
		queue := b.context.Queue()
		srcOff := (index + num) * elemSize
		dstOff := index * elemSize
		byteLen := tailCount * elemSize
		if err := b.context.Driver().EnqueueCopyBuffer(queue, b.memHandle, b.memHandle, srcOff, dstOff, byteLen); err != nil {
			return NewCopyError("Buffer.Remove", b.Name(), err)
		}
		if b.hasHostShadow {
			b.mu.Lock()
			copy(b.staging[dstOff:dstOff+byteLen], b.staging[srcOff:srcOff+byteLen])
			b.mu.Unlock()
		}
	}

	b.mu.Lock()
	b.size = size - num
	newSize := b.size
	capacity := b.capacity
	policy := b.dynamicPolicy
	b.mu.Unlock()

	if b.hasDynamic && newSize > 0 && float64(capacity)/float64(newSize) > policy.ShrinkFactor {
		target := policy.MinCapacity
		if grown := int(math.Ceil(float64(newSize) * policy.CapacityMultiplier)); grown > target {
			target = grown
		}
		return b.Resize(target)
	}
	return nil
}
