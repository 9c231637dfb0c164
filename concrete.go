package clmem

import "github.com/vkushnir/goclmem/internal/driver"

// Concrete buffer constructors declare which capabilities compose:
// the original inheritance tree (AbstractBuffer -> KernelAwareBuffer ->
// AbstractGlobalBuffer -> GlobalStatic/Dynamic x ReadOnly/WriteOnly/
// ReadWrite, plus LocalBuffer and ParameterBuffer) becomes a flat set of
// constructors that just flip the right With* flags on a fresh Buffer.
// Callers still chain WithName/WithCodec/WithContext/WithInitSize before
// calling Init().

// NewGlobalStaticReadWriteBuffer builds a fixed-capacity device buffer
// that supports both host->device and device->host transfers.
func NewGlobalStaticReadWriteBuffer() *Buffer {
	return NewBuffer().WithGlobal().WithReadable().WithWritable().WithKernelBindable()
}

// NewGlobalStaticReadOnlyBuffer builds a fixed-capacity device buffer
// that only supports device->host transfers.
func NewGlobalStaticReadOnlyBuffer() *Buffer {
	return NewBuffer().WithGlobal().WithReadable().WithKernelBindable().WithDeviceAccess(driver.DeviceReadOnly)
}

// NewGlobalStaticWriteOnlyBuffer builds a fixed-capacity device buffer
// that only supports host->device transfers.
func NewGlobalStaticWriteOnlyBuffer() *Buffer {
	return NewBuffer().WithGlobal().WithWritable().WithKernelBindable().WithDeviceAccess(driver.DeviceWriteOnly)
}

// NewGlobalDynamicReadWriteBuffer builds a growable device buffer
// supporting both transfer directions.
func NewGlobalDynamicReadWriteBuffer(policy DynamicPolicy) *Buffer {
	return NewBuffer().WithGlobal().WithReadable().WithWritable().WithKernelBindable().
		WithDynamic(policy).WithHostShadow()
}

// NewGlobalDynamicReadOnlyBuffer builds a growable device buffer
// supporting only device->host transfers.
func NewGlobalDynamicReadOnlyBuffer(policy DynamicPolicy) *Buffer {
	return NewBuffer().WithGlobal().WithReadable().WithKernelBindable().
		WithDynamic(policy).WithHostShadow().WithDeviceAccess(driver.DeviceReadOnly)
}

// NewGlobalDynamicWriteOnlyBuffer builds a growable device buffer
// supporting only host->device transfers.
func NewGlobalDynamicWriteOnlyBuffer(policy DynamicPolicy) *Buffer {
	return NewBuffer().WithGlobal().WithWritable().WithKernelBindable().
		WithDynamic(policy).WithHostShadow().WithDeviceAccess(driver.DeviceWriteOnly)
}

// NewLocalBuffer builds a device-local scratchpad: no device handle;
// setKernelArg passes capacity*size_struct as a scalar size argument.
func NewLocalBuffer() *Buffer {
	return NewBuffer().WithLocal().WithKernelBindable()
}

// NewParameterBuffer builds a capacity-1 buffer whose setKernelArg passes
// its staging bytes by value rather than a device-handle pointer.
func NewParameterBuffer() *Buffer {
	return NewBuffer().WithParameter().WithWritable().WithKernelBindable()
}
