package clmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkushnir/goclmem/internal/driver"
)

func newTestContext(t *testing.T, d driver.Driver) *Context {
	t.Helper()
	ctx, err := NewContextBuilder(d, testPlatform()).Create()
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	return ctx
}

func int32Codec() CodecFactory {
	return func() Codec { return Int32Codec{} }
}

func TestBufferInitAndDestroy(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)

	buf := NewGlobalStaticReadWriteBuffer().
		WithName("scores").WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)

	require.NoError(t, buf.Init())
	assert.Equal(t, BufferRunning, buf.Status())
	assert.Equal(t, "scores", buf.Name())
	assert.Equal(t, 4, buf.Capacity())
	assert.Equal(t, 0, buf.Size())
	assert.NotNil(t, ctx.Registry().Lookup("scores"))

	buf.Destroy()
	assert.Equal(t, BufferClosed, buf.Status())
	assert.Nil(t, ctx.Registry().Lookup("scores"))
}

func TestBufferDestroyIsIdempotent(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(2)
	require.NoError(t, buf.Init())

	buf.Destroy()
	buf.Destroy()
	assert.Equal(t, BufferClosed, buf.Status())
	assert.Empty(t, buf.DestroyWarnings())
}

func TestBufferAutoGeneratedName(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)

	b1 := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(1)
	b2 := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(1)
	require.NoError(t, b1.Init())
	require.NoError(t, b2.Init())

	assert.NotEqual(t, b1.Name(), b2.Name())
	assert.Contains(t, b1.Name(), "UnnamedBuffer")
}

func TestBufferInitRejectsMissingContext(t *testing.T) {
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithInitSize(4)
	err := buf.Init()
	require.Error(t, err)
	assert.Equal(t, BufferReady, buf.Status())
}

func TestBufferInitRejectsMissingCodec(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithContext(ctx).WithInitSize(4)
	err := buf.Init()
	require.Error(t, err)
}

func TestBufferInitRejectsZeroInitSize(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx)
	err := buf.Init()
	require.Error(t, err)
}

func TestBufferWithCopyHostRequiresReadable(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewBuffer().WithGlobal().WithWritable().WithKernelBindable().WithCopyHost().
		WithCodec(int32Codec()).WithContext(ctx).WithInitSize(2)
	err := buf.Init()
	require.Error(t, err)
	assert.Equal(t, BufferReady, buf.Status())
}

func TestBufferInitRollsBackOnAllocFailure(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	stub.FailNextAlloc(&driver.StatusError{Code: driver.StatusOutOfResources, Op: "CreateBuffer"})

	buf := NewGlobalStaticReadWriteBuffer().WithName("x").WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	err := buf.Init()
	require.Error(t, err)
	assert.Equal(t, BufferReady, buf.Status())
	assert.Nil(t, ctx.Registry().Lookup("x"))
}

func TestBufferInitOnClosedContextFails(t *testing.T) {
	stub := driver.NewStub()
	ctx, err := NewContextBuilder(stub, testPlatform()).Create()
	require.NoError(t, err)
	ctx.Destroy()

	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	err = buf.Init()
	require.Error(t, err)
}

func TestBufferWriteThenReadRoundTrip(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())

	require.NoError(t, buf.Write([]int32{10, 20, 30}, 0))
	assert.Equal(t, 3, buf.Size())

	out := make([]int32, 3)
	require.NoError(t, buf.Read(0, 3, out))
	assert.Equal(t, []int32{10, 20, 30}, out)
}

func TestBufferOperationsRejectWhenCapabilityMissing(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadOnlyBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())

	err := buf.Write([]int32{1}, 0)
	require.Error(t, err)
}

func TestBufferOperationsRejectAfterClose(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())
	buf.Destroy()

	err := buf.Write([]int32{1}, 0)
	require.Error(t, err)
	err = buf.Read(0, 1, make([]int32, 1))
	require.Error(t, err)
}

func TestLocalBufferCapacityMatchesInitSize(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewLocalBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(8)
	require.NoError(t, buf.Init())
	assert.Equal(t, 8, buf.Capacity())
}

func TestParameterBufferForcesCapacityOne(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewParameterBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(64)
	require.NoError(t, buf.Init())
	assert.Equal(t, 1, buf.Capacity())
}

func TestDynamicBufferInitRaisesCapacityToMinimum(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	policy := DefaultDynamicPolicy()
	policy.MinCapacity = 10
	buf := NewGlobalDynamicReadWriteBuffer(policy).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(2)
	require.NoError(t, buf.Init())
	assert.Equal(t, 10, buf.Capacity())
}
