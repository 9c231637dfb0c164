package clmem

import (
	"encoding/binary"
	"math"
)

// Codec is a type-erased strategy converting between host values and a
// packed byte sequence for exactly one element kind. The core never
// inspects bytes itself; it only ever calls these five methods.
type Codec interface {
	// SizeStruct is the number of bytes one element occupies on the wire.
	SizeStruct() int
	// SizeOf reports how many elements value represents: 1 for a bare
	// scalar, len(v) for a slice of the codec's element type.
	SizeOf(value any) (int, error)
	// Encode writes SizeOf(value)*SizeStruct() bytes into dst, starting
	// at dst[0]. len(dst) must equal that count exactly.
	Encode(dst []byte, value any) error
	// Decode fills slot (a slice of the codec's element type) from src.
	// len(src) must equal len(slot)*SizeStruct() exactly.
	Decode(src []byte, slot any) error
	// NewSlot allocates a zero-valued slice of count elements.
	NewSlot(count int) any
}

// BoolCodec converts Go bool to a single byte (0 or 1).
type BoolCodec struct{}

func (BoolCodec) SizeStruct() int { return 1 }

func (BoolCodec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case bool:
		return 1, nil
	case []bool:
		return len(v), nil
	default:
		return 0, NewCodecError("BoolCodec.SizeOf", "type_mismatch", "expected bool or []bool")
	}
}

func (c BoolCodec) Encode(dst []byte, value any) error {
	vals, err := asBoolSlice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals) {
		return NewCodecError("BoolCodec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		if v {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
	return nil
}

func (c BoolCodec) Decode(src []byte, slot any) error {
	out, ok := slot.([]bool)
	if !ok {
		return NewCodecError("BoolCodec.Decode", "type_mismatch", "slot must be []bool")
	}
	if len(src) != len(out) {
		return NewCodecError("BoolCodec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i, b := range src {
		out[i] = b != 0
	}
	return nil
}

func (BoolCodec) NewSlot(count int) any { return make([]bool, count) }

func asBoolSlice(value any) ([]bool, error) {
	switch v := value.(type) {
	case bool:
		return []bool{v}, nil
	case []bool:
		return v, nil
	default:
		return nil, NewCodecError("BoolCodec", "type_mismatch", "expected bool or []bool")
	}
}

// Int8Codec converts Go int8 to a single byte.
type Int8Codec struct{}

func (Int8Codec) SizeStruct() int { return 1 }

func (Int8Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case int8:
		return 1, nil
	case []int8:
		return len(v), nil
	default:
		return 0, NewCodecError("Int8Codec.SizeOf", "type_mismatch", "expected int8 or []int8")
	}
}

func (c Int8Codec) Encode(dst []byte, value any) error {
	vals, err := asInt8Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals) {
		return NewCodecError("Int8Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		dst[i] = byte(v)
	}
	return nil
}

func (c Int8Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]int8)
	if !ok {
		return NewCodecError("Int8Codec.Decode", "type_mismatch", "slot must be []int8")
	}
	if len(src) != len(out) {
		return NewCodecError("Int8Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i, b := range src {
		out[i] = int8(b)
	}
	return nil
}

func (Int8Codec) NewSlot(count int) any { return make([]int8, count) }

func asInt8Slice(value any) ([]int8, error) {
	switch v := value.(type) {
	case int8:
		return []int8{v}, nil
	case []int8:
		return v, nil
	default:
		return nil, NewCodecError("Int8Codec", "type_mismatch", "expected int8 or []int8")
	}
}

// Char16Codec converts a uint16 (one UTF-16 code unit) to two
// little-endian bytes; it accepts uint16 and []uint16, not rune.
type Char16Codec struct{}

func (Char16Codec) SizeStruct() int { return 2 }

func (Char16Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case uint16:
		return 1, nil
	case []uint16:
		return len(v), nil
	default:
		return 0, NewCodecError("Char16Codec.SizeOf", "type_mismatch", "expected uint16 or []uint16")
	}
}

func (c Char16Codec) Encode(dst []byte, value any) error {
	vals, err := asUint16Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals)*2 {
		return NewCodecError("Char16Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint16(dst[i*2:i*2+2], v)
	}
	return nil
}

func (c Char16Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]uint16)
	if !ok {
		return NewCodecError("Char16Codec.Decode", "type_mismatch", "slot must be []uint16")
	}
	if len(src) != len(out)*2 {
		return NewCodecError("Char16Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(src[i*2 : i*2+2])
	}
	return nil
}

func (Char16Codec) NewSlot(count int) any { return make([]uint16, count) }

func asUint16Slice(value any) ([]uint16, error) {
	switch v := value.(type) {
	case uint16:
		return []uint16{v}, nil
	case []uint16:
		return v, nil
	default:
		return nil, NewCodecError("Char16Codec", "type_mismatch", "expected uint16 or []uint16")
	}
}

// Int32Codec converts Go int32 to four little-endian bytes.
type Int32Codec struct{}

func (Int32Codec) SizeStruct() int { return 4 }

func (Int32Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case int32:
		return 1, nil
	case []int32:
		return len(v), nil
	default:
		return 0, NewCodecError("Int32Codec.SizeOf", "type_mismatch", "expected int32 or []int32")
	}
}

func (c Int32Codec) Encode(dst []byte, value any) error {
	vals, err := asInt32Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals)*4 {
		return NewCodecError("Int32Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], uint32(v))
	}
	return nil
}

func (c Int32Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]int32)
	if !ok {
		return NewCodecError("Int32Codec.Decode", "type_mismatch", "slot must be []int32")
	}
	if len(src) != len(out)*4 {
		return NewCodecError("Int32Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
	return nil
}

func (Int32Codec) NewSlot(count int) any { return make([]int32, count) }

func asInt32Slice(value any) ([]int32, error) {
	switch v := value.(type) {
	case int32:
		return []int32{v}, nil
	case []int32:
		return v, nil
	default:
		return nil, NewCodecError("Int32Codec", "type_mismatch", "expected int32 or []int32")
	}
}

// Float32Codec converts Go float32 to four little-endian bytes (IEEE 754).
type Float32Codec struct{}

func (Float32Codec) SizeStruct() int { return 4 }

func (Float32Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case float32:
		return 1, nil
	case []float32:
		return len(v), nil
	default:
		return 0, NewCodecError("Float32Codec.SizeOf", "type_mismatch", "expected float32 or []float32")
	}
}

func (c Float32Codec) Encode(dst []byte, value any) error {
	vals, err := asFloat32Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals)*4 {
		return NewCodecError("Float32Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(v))
	}
	return nil
}

func (c Float32Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]float32)
	if !ok {
		return NewCodecError("Float32Codec.Decode", "type_mismatch", "slot must be []float32")
	}
	if len(src) != len(out)*4 {
		return NewCodecError("Float32Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
	return nil
}

func (Float32Codec) NewSlot(count int) any { return make([]float32, count) }

func asFloat32Slice(value any) ([]float32, error) {
	switch v := value.(type) {
	case float32:
		return []float32{v}, nil
	case []float32:
		return v, nil
	default:
		return nil, NewCodecError("Float32Codec", "type_mismatch", "expected float32 or []float32")
	}
}

// Int64Codec converts Go int64 to eight little-endian bytes.
type Int64Codec struct{}

func (Int64Codec) SizeStruct() int { return 8 }

func (Int64Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case int64:
		return 1, nil
	case []int64:
		return len(v), nil
	default:
		return 0, NewCodecError("Int64Codec.SizeOf", "type_mismatch", "expected int64 or []int64")
	}
}

func (c Int64Codec) Encode(dst []byte, value any) error {
	vals, err := asInt64Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals)*8 {
		return NewCodecError("Int64Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint64(dst[i*8:i*8+8], uint64(v))
	}
	return nil
}

func (c Int64Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]int64)
	if !ok {
		return NewCodecError("Int64Codec.Decode", "type_mismatch", "slot must be []int64")
	}
	if len(src) != len(out)*8 {
		return NewCodecError("Int64Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(src[i*8 : i*8+8]))
	}
	return nil
}

func (Int64Codec) NewSlot(count int) any { return make([]int64, count) }

func asInt64Slice(value any) ([]int64, error) {
	switch v := value.(type) {
	case int64:
		return []int64{v}, nil
	case []int64:
		return v, nil
	default:
		return nil, NewCodecError("Int64Codec", "type_mismatch", "expected int64 or []int64")
	}
}

// Float64Codec converts Go float64 to eight little-endian bytes (IEEE 754).
type Float64Codec struct{}

func (Float64Codec) SizeStruct() int { return 8 }

func (Float64Codec) SizeOf(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return 1, nil
	case []float64:
		return len(v), nil
	default:
		return 0, NewCodecError("Float64Codec.SizeOf", "type_mismatch", "expected float64 or []float64")
	}
}

func (c Float64Codec) Encode(dst []byte, value any) error {
	vals, err := asFloat64Slice(value)
	if err != nil {
		return err
	}
	if len(dst) != len(vals)*8 {
		return NewCodecError("Float64Codec.Encode", "capacity", "dst length disagrees with value count")
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint64(dst[i*8:i*8+8], math.Float64bits(v))
	}
	return nil
}

func (c Float64Codec) Decode(src []byte, slot any) error {
	out, ok := slot.([]float64)
	if !ok {
		return NewCodecError("Float64Codec.Decode", "type_mismatch", "slot must be []float64")
	}
	if len(src) != len(out)*8 {
		return NewCodecError("Float64Codec.Decode", "capacity", "src length disagrees with slot count")
	}
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8 : i*8+8]))
	}
	return nil
}

func (Float64Codec) NewSlot(count int) any { return make([]float64, count) }

func asFloat64Slice(value any) ([]float64, error) {
	switch v := value.(type) {
	case float64:
		return []float64{v}, nil
	case []float64:
		return v, nil
	default:
		return nil, NewCodecError("Float64Codec", "type_mismatch", "expected float64 or []float64")
	}
}

// CodecFactory builds a fresh Codec instance for one element kind. The
// registry holds factories, not instances, so every buffer gets its own
// codec value, mirroring the instantiate-codec init step.
type CodecFactory func() Codec

// codecRegistry is the closed {element-kind -> factory} map referenced in
// the design notes as a replacement for reflective class instantiation.
var codecRegistry = map[string]CodecFactory{
	"bool":    func() Codec { return BoolCodec{} },
	"int8":    func() Codec { return Int8Codec{} },
	"char16":  func() Codec { return Char16Codec{} },
	"int32":   func() Codec { return Int32Codec{} },
	"float32": func() Codec { return Float32Codec{} },
	"int64":   func() Codec { return Int64Codec{} },
	"float64": func() Codec { return Float64Codec{} },
}

// NewCodec instantiates a fresh Codec for the named element kind. Returns
// KindConfigError if kind is neither one of the seven built-in kinds above
// nor a kind added with RegisterCodec.
func NewCodec(kind string) (Codec, error) {
	factory, ok := codecRegistry[kind]
	if !ok {
		return nil, NewConfigError("NewCodec", "unknown codec kind: "+kind)
	}
	return factory(), nil
}

// RegisterCodec adds or replaces a factory in the codec registry, for
// callers that need an element kind beyond the seven built in.
func RegisterCodec(kind string, factory CodecFactory) {
	codecRegistry[kind] = factory
}
