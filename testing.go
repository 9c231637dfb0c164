package clmem

import "github.com/vkushnir/goclmem/internal/driver"

// StubDriver is an in-process simulation of Driver, exported so callers
// outside this module can exercise Context/Buffer without a real device.
// It is a type alias for the internal simulation driver: fault injection
// methods (FailNextAlloc, FailNextRead, ...) are reached directly on the
// returned value.
type StubDriver = driver.Stub

// NewStubDriver constructs an empty StubDriver.
func NewStubDriver() *StubDriver {
	return driver.NewStub()
}

// FakeCodec is a Codec double for tests that need to observe encode/decode
// traffic or inject a failure without going through one of the built-in
// numeric codecs. Encode and Decode call the corresponding hook if set,
// otherwise they defer to an embedded real Codec (Int32Codec by default).
type FakeCodec struct {
	Underlying Codec

	EncodeCalls int
	DecodeCalls int

	FailEncode error
	FailDecode error
}

// NewFakeCodec wraps Int32Codec by default.
func NewFakeCodec() *FakeCodec {
	return &FakeCodec{Underlying: Int32Codec{}}
}

func (c *FakeCodec) SizeStruct() int { return c.Underlying.SizeStruct() }

func (c *FakeCodec) SizeOf(value any) (int, error) { return c.Underlying.SizeOf(value) }

func (c *FakeCodec) Encode(dst []byte, value any) error {
	c.EncodeCalls++
	if c.FailEncode != nil {
		return c.FailEncode
	}
	return c.Underlying.Encode(dst, value)
}

func (c *FakeCodec) Decode(src []byte, slot any) error {
	c.DecodeCalls++
	if c.FailDecode != nil {
		return c.FailDecode
	}
	return c.Underlying.Decode(src, slot)
}

func (c *FakeCodec) NewSlot(count int) any { return c.Underlying.NewSlot(count) }

var _ Codec = (*FakeCodec)(nil)
