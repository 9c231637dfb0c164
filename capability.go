package clmem

import "github.com/vkushnir/goclmem/internal/driver"

// KernelBindable associates a buffer with kernel argument slots.
type KernelBindable interface {
	Bind(kernel driver.KernelHandle, argIndex int) error
	Unbind(kernel driver.KernelHandle) bool
	RebindAll() error
}

// Readable exposes device-to-host transfer.
type Readable interface {
	Read(offset, length int, slot any) error
	ReadBytes() ([]byte, error)
}

// Writable exposes host-to-device transfer and in-place compaction.
type Writable interface {
	Write(src any, offset int) error
	Append(src any) error
	Remove(index, num int) error
}

// Dynamic exposes the crash-safe resize engine.
type Dynamic interface {
	Resize(newCap int) error
}

// HostShadowed exposes the buffer's pinned host staging bytes.
type HostShadowed interface {
	Shadow() []byte
}

var (
	_ KernelBindable = (*Buffer)(nil)
	_ Readable       = (*Buffer)(nil)
	_ Writable       = (*Buffer)(nil)
	_ Dynamic        = (*Buffer)(nil)
	_ HostShadowed   = (*Buffer)(nil)
)
