package clmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkushnir/goclmem/internal/driver"
)

func TestResizeGrowPreservesData(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalDynamicReadWriteBuffer(DefaultDynamicPolicy()).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())
	require.NoError(t, buf.Write([]int32{1, 2, 3, 4}, 0))

	require.NoError(t, buf.Resize(16))
	assert.Equal(t, 16, buf.Capacity())

	out := make([]int32, 4)
	require.NoError(t, buf.ReadAll(out))
	assert.Equal(t, []int32{1, 2, 3, 4}, out)
}

func TestResizeShrinkNeverBelowMinCapacity(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	policy := DefaultDynamicPolicy()
	policy.MinCapacity = 4
	buf := NewGlobalDynamicReadWriteBuffer(policy).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(20)
	require.NoError(t, buf.Init())

	require.NoError(t, buf.Resize(1))
	assert.Equal(t, 4, buf.Capacity())
}

func TestResizeIsNoOpAtSameCapacity(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalDynamicReadWriteBuffer(DefaultDynamicPolicy()).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(10)
	require.NoError(t, buf.Init())

	require.NoError(t, buf.Resize(10))
	assert.Equal(t, 10, buf.Capacity())
}

func TestResizeRejectsNonDynamicBuffer(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalStaticReadWriteBuffer().WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())

	err := buf.Resize(8)
	require.Error(t, err)
}

func TestResizeRollsBackOnAllocFailure(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalDynamicReadWriteBuffer(DefaultDynamicPolicy()).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())
	require.NoError(t, buf.Write([]int32{1, 2, 3, 4}, 0))

	stub.FailNextAlloc(&driver.StatusError{Code: driver.StatusOutOfResources, Op: "CreateBuffer"})
	err := buf.Resize(32)
	require.Error(t, err)
	assert.Equal(t, 10, buf.Capacity())

	out := make([]int32, 4)
	require.NoError(t, buf.ReadAll(out))
	assert.Equal(t, []int32{1, 2, 3, 4}, out)
}

func TestResizeRollsBackOnCopyFailure(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalDynamicReadWriteBuffer(DefaultDynamicPolicy()).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())
	require.NoError(t, buf.Write([]int32{1, 2, 3, 4}, 0))

	stub.FailNextCopy(&driver.StatusError{Code: driver.StatusMemCopyOverlap, Op: "EnqueueCopyBuffer"})
	err := buf.Resize(32)
	require.Error(t, err)
	assert.Equal(t, 10, buf.Capacity())

	out := make([]int32, 4)
	require.NoError(t, buf.ReadAll(out))
	assert.Equal(t, []int32{1, 2, 3, 4}, out)
}

func TestCompactShrinksToSize(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	policy := DefaultDynamicPolicy()
	policy.MinCapacity = 1
	buf := NewGlobalDynamicReadWriteBuffer(policy).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(20)
	require.NoError(t, buf.Init())
	require.NoError(t, buf.Write([]int32{1, 2, 3}, 0))

	require.NoError(t, buf.Compact())
	assert.Equal(t, 3, buf.Capacity())
}

func TestResizeRebindsKernelArgsAfterHandleChange(t *testing.T) {
	stub := driver.NewStub()
	ctx := newTestContext(t, stub)
	buf := NewGlobalDynamicReadWriteBuffer(DefaultDynamicPolicy()).WithCodec(int32Codec()).WithContext(ctx).WithInitSize(4)
	require.NoError(t, buf.Init())
	require.NoError(t, buf.Bind(1, 0))

	require.NoError(t, buf.Resize(32))
}
