package clmem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripAllKinds(t *testing.T) {
	cases := []struct {
		kind  string
		value any
		slot  any
	}{
		{"bool", []bool{true, false, true}, make([]bool, 3)},
		{"int8", []int8{-1, 0, 127}, make([]int8, 3)},
		{"char16", []uint16{'a', 'b', 0x4e2d}, make([]uint16, 3)},
		{"int32", []int32{-10, 20, 30}, make([]int32, 3)},
		{"float32", []float32{1.5, -2.25, 0}, make([]float32, 3)},
		{"int64", []int64{1 << 40, -1, 0}, make([]int64, 3)},
		{"float64", []float64{3.14159, -1, 0}, make([]float64, 3)},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			codec, err := NewCodec(tc.kind)
			require.NoError(t, err)

			count, err := codec.SizeOf(tc.value)
			require.NoError(t, err)

			dst := make([]byte, count*codec.SizeStruct())
			require.NoError(t, codec.Encode(dst, tc.value))
			require.NoError(t, codec.Decode(dst, tc.slot))

			if diff := cmp.Diff(tc.value, tc.slot); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecScalarValue(t *testing.T) {
	codec, err := NewCodec("int32")
	require.NoError(t, err)

	count, err := codec.SizeOf(int32(42))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	dst := make([]byte, 4)
	require.NoError(t, codec.Encode(dst, int32(42)))

	slot := make([]int32, 1)
	require.NoError(t, codec.Decode(dst, slot))
	assert.Equal(t, []int32{42}, slot)
}

func TestCodecTypeMismatch(t *testing.T) {
	codec, err := NewCodec("int32")
	require.NoError(t, err)

	_, err = codec.SizeOf("not an int32")
	assert.True(t, IsKind(err, KindCodecError))
	assert.Contains(t, err.Error(), "reason=type_mismatch")

	err = codec.Decode([]byte{1, 2, 3, 4}, []float64{0})
	assert.True(t, IsKind(err, KindCodecError))
}

func TestCodecCapacityMismatch(t *testing.T) {
	codec, err := NewCodec("int32")
	require.NoError(t, err)

	err = codec.Encode(make([]byte, 3), []int32{1})
	assert.True(t, IsKind(err, KindCodecError))
	assert.Contains(t, err.Error(), "reason=capacity")

	err = codec.Decode(make([]byte, 4), make([]int32, 2))
	assert.True(t, IsKind(err, KindCodecError))
	assert.Contains(t, err.Error(), "reason=capacity")
}

func TestNewCodecUnknownKind(t *testing.T) {
	_, err := NewCodec("complex128")
	assert.True(t, IsKind(err, KindConfigError))
}

func TestRegisterCodecAddsNewKind(t *testing.T) {
	RegisterCodec("uint8", func() Codec { return Int8Codec{} })
	codec, err := NewCodec("uint8")
	require.NoError(t, err)
	assert.Equal(t, 1, codec.SizeStruct())
}

func TestSizeStructPerKind(t *testing.T) {
	expect := map[string]int{
		"bool": 1, "int8": 1, "char16": 2, "int32": 4,
		"float32": 4, "int64": 8, "float64": 8,
	}
	for kind, size := range expect {
		codec, err := NewCodec(kind)
		require.NoError(t, err)
		assert.Equal(t, size, codec.SizeStruct(), kind)
	}
}
