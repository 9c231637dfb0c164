package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlatform() Platform {
	return Platform{PlatformID: 1, DeviceID: 1, Version: DeviceVersion{Major: 1, Minor: 2}}
}

func TestStubContextLifecycle(t *testing.T) {
	s := NewStub()

	ctx, err := s.CreateContext(testPlatform())
	require.NoError(t, err)
	assert.NotZero(t, ctx)

	require.NoError(t, s.ReleaseContext(ctx))

	err = s.ReleaseContext(ctx)
	assert.Error(t, err, "double release must fail")
}

func TestStubBufferReadWriteRoundTrip(t *testing.T) {
	s := NewStub()
	ctx, err := s.CreateContext(testPlatform())
	require.NoError(t, err)
	queue, err := s.CreateCommandQueue(ctx, testPlatform(), QueueProperties{})
	require.NoError(t, err)

	buf, err := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 16, nil)
	require.NoError(t, err)

	payload := []byte("0123456789abcdef")
	require.NoError(t, s.EnqueueWriteBuffer(queue, buf, true, 0, payload))

	out := make([]byte, 16)
	require.NoError(t, s.EnqueueReadBuffer(queue, buf, true, 0, out))
	assert.Equal(t, payload, out)
}

func TestStubCopyBufferMigratesData(t *testing.T) {
	s := NewStub()
	ctx, _ := s.CreateContext(testPlatform())
	queue, _ := s.CreateCommandQueue(ctx, testPlatform(), QueueProperties{})

	src, _ := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 8, []byte("abcdefgh"))
	dst, err := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 16, nil)
	require.NoError(t, err)

	require.NoError(t, s.EnqueueCopyBuffer(queue, src, dst, 0, 4, 8))

	out := make([]byte, 16)
	require.NoError(t, s.EnqueueReadBuffer(queue, dst, true, 0, out))
	assert.Equal(t, []byte("abcdefgh"), out[4:12])
}

func TestStubCreateBufferOutOfContextFails(t *testing.T) {
	s := NewStub()
	_, err := s.CreateBuffer(999, DeviceReadWrite, HostReadWrite, 16, nil)
	assert.Error(t, err)
}

func TestStubFailNextAlloc(t *testing.T) {
	s := NewStub()
	ctx, _ := s.CreateContext(testPlatform())

	injected := &StatusError{Code: StatusMemObjectAllocationFailure}
	s.FailNextAlloc(injected)

	_, err := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 16, nil)
	assert.Equal(t, injected, err)
	assert.True(t, IsAllocationFailure(err))

	// fault is one-shot: the next call must succeed
	_, err = s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 16, nil)
	assert.NoError(t, err)
}

func TestStubFailNextCopyLeavesBuffersUntouched(t *testing.T) {
	s := NewStub()
	ctx, _ := s.CreateContext(testPlatform())
	queue, _ := s.CreateCommandQueue(ctx, testPlatform(), QueueProperties{})
	src, _ := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 8, []byte("original"))
	dst, _ := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 8, []byte("untouche"))

	s.FailNextCopy(&StatusError{Code: StatusMemCopyOverlap})
	err := s.EnqueueCopyBuffer(queue, src, dst, 0, 0, 8)
	assert.Error(t, err)

	out := make([]byte, 8)
	require.NoError(t, s.EnqueueReadBuffer(queue, dst, true, 0, out))
	assert.Equal(t, []byte("untouche"), out)
}

func TestStubGlobalRefCounting(t *testing.T) {
	s := NewStub()
	assert.EqualValues(t, 0, s.GlobalRefs())

	require.NoError(t, s.AcquireGlobal())
	require.NoError(t, s.AcquireGlobal())
	assert.EqualValues(t, 2, s.GlobalRefs())

	require.NoError(t, s.ReleaseGlobal())
	assert.EqualValues(t, 1, s.GlobalRefs())
	require.NoError(t, s.ReleaseGlobal())
	assert.EqualValues(t, 0, s.GlobalRefs())
}

func TestStubSetKernelArgVariants(t *testing.T) {
	s := NewStub()
	ctx, _ := s.CreateContext(testPlatform())
	buf, _ := s.CreateBuffer(ctx, DeviceReadWrite, HostReadWrite, 16, nil)

	require.NoError(t, s.SetKernelArgBuffer(1, 0, buf))
	require.NoError(t, s.SetKernelArgValue(1, 1, []byte{0x2a}))
	require.NoError(t, s.SetKernelArgLocalSize(1, 2, 64))
}
