package clmem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError(t *testing.T) {
	err := NewConfigError("Buffer.WithCodec", "codec must not be nil")

	assert.Equal(t, "Buffer.WithCodec", err.Op)
	assert.Equal(t, KindConfigError, err.Kind)
	assert.Equal(t, "clmem: codec must not be nil (op=Buffer.WithCodec)", err.Error())
}

func TestBufferClosedError(t *testing.T) {
	err := NewBufferClosedError("Buffer.Write", "b0")

	assert.Equal(t, "b0", err.Buffer)
	assert.Equal(t, "clmem: buffer is closed (op=Buffer.Write, buffer=b0)", err.Error())
}

func TestContextError(t *testing.T) {
	inner := errors.New("CL_DEVICE_NOT_AVAILABLE")
	err := NewContextError("Context.Create", 7, "failed to acquire context", inner)

	assert.EqualValues(t, 7, err.Context)
	assert.True(t, errors.Is(err, inner) || errors.Unwrap(err) == inner)
}

func TestCodecErrorReason(t *testing.T) {
	err := NewCodecError("Codec.Decode", "type_mismatch", "expected int32 slot")

	assert.Equal(t, "type_mismatch", err.Reason)
	assert.Contains(t, err.Error(), "reason=type_mismatch")
}

func TestErrorIsMatchesByKind(t *testing.T) {
	a := NewOutOfBoundsError("Buffer.Read", "b0", "offset+len > capacity")
	b := NewOutOfBoundsError("Buffer.Write", "other", "different message entirely")

	assert.True(t, errors.Is(a, ErrOutOfBounds))
	assert.True(t, errors.Is(a, b)) // same Kind, different Op/Buffer/Msg

	assert.False(t, errors.Is(a, ErrCapacity))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("driver: out of device memory")
	err := NewDeviceOOMError("Buffer.resize.increase", "dyn0", inner)

	assert.Equal(t, inner, errors.Unwrap(err))
	assert.True(t, errors.Is(err, inner))
}

func TestIsKind(t *testing.T) {
	err := NewTransferError("Buffer.Read", "b0", nil)

	assert.True(t, IsKind(err, KindTransferError))
	assert.False(t, IsKind(err, KindCopyError))
	assert.False(t, IsKind(nil, KindTransferError))
	assert.False(t, IsKind(fmt.Errorf("plain error"), KindTransferError))
}

func TestDestroyWarningNeverPropagates(t *testing.T) {
	// DestroyWarning is a real Kind so callers of destroy() can log it, but
	// it must never be the return value of Destroy itself; that contract is
	// exercised in buffer_test.go and context_test.go.
	warn := NewDestroyWarning("Buffer.destroy.releaseHandle", "b0", errors.New("CL_INVALID_MEM_OBJECT"))
	assert.Equal(t, KindDestroyWarning, warn.Kind)
}
