// Package driver defines the opaque OpenCL-family driver surface this
// module consumes and a pure-Go simulation of it used for tests and for
// running without a real device. Nothing above this package inspects
// device handles; it only ever calls through the Driver interface.
package driver

// ContextHandle, QueueHandle, MemHandle and KernelHandle are opaque
// driver-side identifiers. The zero value always means "no handle".
type ContextHandle uint64
type QueueHandle uint64
type MemHandle uint64
type KernelHandle uint64

// DeviceAccess controls whether the device side of a buffer may be read,
// written, or both.
type DeviceAccess int

const (
	DeviceReadWrite DeviceAccess = iota
	DeviceReadOnly
	DeviceWriteOnly
)

// HostAccess controls whether the host side of a buffer may be read,
// written, neither, or both. Devices older than OpenCL 1.2 only support
// HostReadWrite; callers must degrade other values (see DegradeHostAccess).
type HostAccess int

const (
	HostReadWrite HostAccess = iota
	HostReadOnly
	HostWriteOnly
	HostNoAccess
)

// DegradeHostAccess implements the silent host-access degrade rule:
// devices reporting an OpenCL version below 1.2 only understand
// HostReadWrite.
func DegradeHostAccess(access HostAccess, version DeviceVersion) HostAccess {
	if version.Less(DeviceVersion{Major: 1, Minor: 2}) && access != HostReadWrite {
		return HostReadWrite
	}
	return access
}

// Priority is the three-level hint used for command-queue priority and
// throttle extensions. It is only forwarded to the driver when the device
// advertises the corresponding extension.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// DeviceVersion is the OpenCL version a device reports, used to decide
// whether to use the modern command-queue-with-properties call and whether
// HostAccess must be degraded.
type DeviceVersion struct {
	Major int
	Minor int
}

// Less reports whether v is strictly older than other.
func (v DeviceVersion) Less(other DeviceVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Extensions reports which optional device extensions are advertised; the
// context builder consults this to decide whether priority/throttle hints
// and a device-side queue are honored at all.
type Extensions struct {
	Priority       bool
	Throttle       bool
	DeviceSideQueue bool
}

// Platform identifies the platform+device pair a context is built against,
// plus the capability introspection the context builder needs. Discovery
// itself (walking platforms/devices) is out of scope here; callers supply
// an already-resolved Platform.
type Platform struct {
	PlatformID uint64
	DeviceID   uint64
	Version    DeviceVersion
	Extensions Extensions
}

// QueueProperties configures command-queue acquisition.
type QueueProperties struct {
	OutOfOrder      bool
	Profiling       bool
	Priority        Priority
	Throttle        Priority
	DeviceQueueSize uint32 // 0 means "no device-side queue requested"
}

// Driver is the opaque collaborator consumed by the rest of this module. A
// production build backs it with real OpenCL calls (outside this repo's
// scope); Stub backs it with an in-process simulation.
type Driver interface {
	CreateContext(platform Platform) (ContextHandle, error)
	CreateCommandQueue(ctx ContextHandle, platform Platform, props QueueProperties) (QueueHandle, error)
	CreateDeviceQueue(ctx ContextHandle, platform Platform, props QueueProperties) (QueueHandle, error)

	CreateBuffer(ctx ContextHandle, deviceAccess DeviceAccess, hostAccess HostAccess, bytes int, hostPtr []byte) (MemHandle, error)

	EnqueueReadBuffer(queue QueueHandle, buf MemHandle, blocking bool, offset int, dst []byte) error
	EnqueueWriteBuffer(queue QueueHandle, buf MemHandle, blocking bool, offset int, src []byte) error
	EnqueueCopyBuffer(queue QueueHandle, src, dst MemHandle, srcOffset, dstOffset, bytes int) error

	SetKernelArgBuffer(kernel KernelHandle, index int, buf MemHandle) error
	SetKernelArgValue(kernel KernelHandle, index int, value []byte) error
	SetKernelArgLocalSize(kernel KernelHandle, index int, bytes int) error

	ReleaseMemObject(handle MemHandle) error
	ReleaseCommandQueue(handle QueueHandle) error
	ReleaseContext(handle ContextHandle) error
}

// GlobalReleaser is an optional capability a Driver may implement: a
// process-wide driver resource (e.g. a platform reference) acquired on the
// first context and released when the last context closes. The clmem
// context code checks for it with a type assertion against the concrete
// Driver.
type GlobalReleaser interface {
	AcquireGlobal() error
	ReleaseGlobal() error
}
