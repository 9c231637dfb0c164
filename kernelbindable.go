package clmem

import (
	"time"

	"github.com/vkushnir/goclmem/internal/driver"
)

// Bind validates kernel != 0, idx >= 0, and buffer Running, then calls the
// concrete flavor's setKernelArg and records the binding. Rebinding the
// same kernel handle overwrites its recorded argument index.
func (b *Buffer) Bind(kernel driver.KernelHandle, argIndex int) error {
	if !b.hasKernelBindable {
		return NewConfigError("Buffer.Bind", "buffer was not built with KernelBindable")
	}
	if kernel == 0 {
		return NewConfigError("Buffer.Bind", "kernel handle must not be zero")
	}
	if argIndex < 0 {
		return NewConfigError("Buffer.Bind", "argIndex must be >= 0")
	}
	if b.Status() != BufferRunning {
		return NewBufferClosedError("Buffer.Bind", b.Name())
	}

	start := time.Now()
	err := b.setKernelArg(kernel, argIndex)
	b.observer.ObserveBind(uint64(time.Since(start)), err == nil)
	if err != nil {
		return err
	}

	b.bindMu.Lock()
	b.bindings[kernel] = argIndex
	b.bindMu.Unlock()
	return nil
}

// Unbind removes a recorded binding, reporting whether one existed.
func (b *Buffer) Unbind(kernel driver.KernelHandle) bool {
	if !b.hasKernelBindable {
		return false
	}
	b.bindMu.Lock()
	defer b.bindMu.Unlock()
	if _, ok := b.bindings[kernel]; !ok {
		return false
	}
	delete(b.bindings, kernel)
	return true
}

// RebindAll re-invokes setKernelArg for every recorded binding against a
// consistent snapshot, used after a resize changed the device handle.
func (b *Buffer) RebindAll() error {
	if !b.hasKernelBindable {
		return NewConfigError("Buffer.RebindAll", "buffer was not built with KernelBindable")
	}

	b.bindMu.RLock()
	snapshot := make(map[driver.KernelHandle]int, len(b.bindings))
	for k, v := range b.bindings {
		snapshot[k] = v
	}
	b.bindMu.RUnlock()

	for kernel, idx := range snapshot {
		if err := b.setKernelArg(kernel, idx); err != nil {
			return err
		}
	}
	return nil
}

// setKernelArg is the protected primitive implemented per concrete flavor:
// Global passes the device handle, Local passes a scalar size, Parameter
// passes the staging bytes by value.
func (b *Buffer) setKernelArg(kernel driver.KernelHandle, argIndex int) error {
	d := b.context.Driver()
	switch {
	case b.isLocal:
		sizeBytes := b.capacity * b.codec.SizeStruct()
		if err := d.SetKernelArgLocalSize(kernel, argIndex, sizeBytes); err != nil {
			return NewTransferError("Buffer.setKernelArg", b.name, err)
		}
	case b.isParameter:
		if err := d.SetKernelArgValue(kernel, argIndex, b.staging); err != nil {
			return NewTransferError("Buffer.setKernelArg", b.name, err)
		}
	default:
		if err := d.SetKernelArgBuffer(kernel, argIndex, b.memHandle); err != nil {
			return NewTransferError("Buffer.setKernelArg", b.name, err)
		}
	}
	return nil
}
