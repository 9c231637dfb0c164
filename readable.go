package clmem

import "time"

// Read enqueues a blocking device-to-host transfer of length elements
// starting at offset, and decodes the result into slot. If
// offset+length > capacity, returns OutOfBounds. If offset+length > size,
// the read proceeds but is logged as reading past populated data (not an
// error).
func (b *Buffer) Read(offset, length int, slot any) error {
	if !b.hasReadable {
		return NewConfigError("Buffer.Read", "buffer was not built with Readable")
	}
	if b.Status() != BufferRunning {
		return NewBufferClosedError("Buffer.Read", b.Name())
	}
	if offset < 0 || length < 0 {
		return NewOutOfBoundsError("Buffer.Read", b.Name(), "offset and length must be >= 0")
	}

	b.mu.Lock()
	capacity := b.capacity
	size := b.size
	elemSize := b.codec.SizeStruct()
	b.mu.Unlock()

	if offset+length > capacity {
		return NewOutOfBoundsError("Buffer.Read", b.Name(), "offset+length exceeds capacity")
	}
	if offset+length > size {
		b.log.Warn("read extends past populated size", "offset", offset, "length", length, "size", size)
	}

	byteOff := offset * elemSize
	byteLen := length * elemSize

	b.mu.Lock()
	raw := b.staging[byteOff : byteOff+byteLen]
	b.mu.Unlock()

	start := time.Now()
	queue := b.context.Queue()
	err := b.context.Driver().EnqueueReadBuffer(queue, b.memHandle, true, byteOff, raw)
	b.observer.ObserveRead(uint64(byteLen), uint64(time.Since(start)), err == nil)
	if err != nil {
		return NewTransferError("Buffer.Read", b.Name(), err)
	}

	return b.codec.Decode(raw, slot)
}

// ReadAll reads every populated element (offset 0, length == Size()).
func (b *Buffer) ReadAll(slot any) error {
	return b.Read(0, b.Size(), slot)
}

// ReadFrom reads from offset through the end of populated data
// (length == Size()-offset). This is the corrected semantics for the
// omitted-length overload described in the design notes: length must be
// size-offset, not size, when offset > 0.
func (b *Buffer) ReadFrom(offset int, slot any) error {
	return b.Read(offset, b.Size()-offset, slot)
}

// ReadBytes exposes the raw pinned staging buffer. Only legal on buffers
// built with HostShadowed (persistent staging) or Dynamic (which also
// keeps a live staging buffer sized to capacity across resizes).
func (b *Buffer) ReadBytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasHostShadow && !b.hasDynamic {
		return nil, NewConfigError("Buffer.ReadBytes", "only legal on HostShadowed or Dynamic buffers")
	}
	if b.status != BufferRunning {
		return nil, NewBufferClosedError("Buffer.ReadBytes", b.name)
	}
	return b.staging, nil
}
