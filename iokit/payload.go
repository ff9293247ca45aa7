package iokit

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// NewPayloadBuilder instantiates a new PayloadBuilder.
func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{}
}

// PayloadBuilder helps build payloads and other binary sequences
// by implementing the "builder pattern".
//
// For methods that take endianness as an optional argument,
// the default is little endian. The default endianness can
// be overridden using SetEndianness.
type PayloadBuilder struct {
	// OptLogger, when non-nil, receives a hexdump of the payload
	// when Build is called.
	OptLogger *log.Logger

	buf bytes.Buffer
	bo  binary.ByteOrder
	err error
}

// SetEndianness sets the default endianness for the methods that take
// endianness as an optional argument.
func (o *PayloadBuilder) SetEndianness(order binary.ByteOrder) *PayloadBuilder {
	o.bo = order

	return o
}

func (o *PayloadBuilder) getEndianness(optOrder ...binary.ByteOrder) binary.ByteOrder {
	switch len(optOrder) {
	case 0:
		if o.bo == nil {
			return binary.LittleEndian
		}
		return o.bo
	case 1:
		return optOrder[0]
	default:
		panic("only one binary.ByteOrder may be specified")
	}
}

// Uint32 writes an unsigned 32-bit integer to the payload.
func (o *PayloadBuilder) Uint32(u uint32, optOrder ...binary.ByteOrder) *PayloadBuilder {
	b := make([]byte, 4)

	o.getEndianness(optOrder...).PutUint32(b, u)

	return o.Bytes(b)
}

// Uint64 writes an unsigned 64-bit integer to the payload.
func (o *PayloadBuilder) Uint64(u uint64, optOrder ...binary.ByteOrder) *PayloadBuilder {
	b := make([]byte, 8)

	o.getEndianness(optOrder...).PutUint64(b, u)

	return o.Bytes(b)
}

// PatternGenerator abstracts pattern string generators.
type PatternGenerator interface {
	// Pattern generates a pattern string as a []byte. Each byte
	// in the slice is a human-readable character.
	Pattern(numBytes int) ([]byte, error)
}

// Pattern writes the specified number of bytes from the PatternGenerator
// to the payload.
func (o *PayloadBuilder) Pattern(generator PatternGenerator, numBytes int) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	b, err := generator.Pattern(numBytes)
	if err != nil {
		o.err = err
		return o
	}

	return o.Bytes(b)
}

// Byter abstracts types that can be represented as a []byte.
type Byter interface {
	// Bytes returns the object as a []byte.
	Bytes() []byte
}

// Pointer writes a raw pointer as a []byte to the payload.
func (o *PayloadBuilder) Pointer(pointer Byter) *PayloadBuilder {
	return o.Bytes(pointer.Bytes())
}

// Bytes writes the specified []byte to the payload.
func (o *PayloadBuilder) Bytes(b []byte) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	_, err := o.buf.Write(b)
	if err != nil {
		o.err = err
	}

	return o
}

// String writes the specified string to the payload.
func (o *PayloadBuilder) String(str string) *PayloadBuilder {
	return o.Bytes([]byte(str))
}

// RepeatString repeatedly writes the specified string to the payload.
func (o *PayloadBuilder) RepeatString(str string, count int) *PayloadBuilder {
	return o.Bytes(bytes.Repeat([]byte(str), count))
}

// Align pads the payload with padByte until its length is
// a multiple of n.
func (o *PayloadBuilder) Align(n int, padByte byte) *PayloadBuilder {
	if o.err != nil {
		return o
	}

	if n <= 0 {
		o.err = fmt.Errorf("alignment must be greater than zero - got %d", n)
		return o
	}

	rem := o.buf.Len() % n
	if rem == 0 {
		return o
	}

	return o.Bytes(bytes.Repeat([]byte{padByte}, n-rem))
}

// Len returns the current length of the payload.
func (o *PayloadBuilder) Len() int {
	return o.buf.Len()
}

// BuildOrExit calls Build. It calls DefaultExitFn if an error occurs.
func (o *PayloadBuilder) BuildOrExit() []byte {
	b, err := o.Build()
	if err != nil {
		DefaultExitFn(fmt.Errorf("iokit.payload: failed to build payload - %w", err))
	}

	return b
}

// Build returns the payload, or the first error encountered
// by one of the builder's methods.
func (o *PayloadBuilder) Build() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}

	b := make([]byte, o.buf.Len())
	copy(b, o.buf.Bytes())

	if o.OptLogger != nil {
		o.OptLogger.Printf("iokit.payload: built %d bytes:\n%s",
			len(b), hex.Dump(b))
	}

	return b, nil
}
