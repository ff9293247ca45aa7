package memory

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/ropkit/arch"
)

func PointerMakerForX86_32() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
		ptrSize:   4,
	}
}

func PointerMakerForX86_64() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
		ptrSize:   8,
	}
}

func PointerMakerForOrExit(a arch.Arch) PointerMaker {
	pm, err := PointerMakerFor(a)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to create pointer maker - %w", err))
	}
	return pm
}

// PointerMakerFor returns a PointerMaker that packs pointers according
// to the specified architecture's pointer size and byte order.
func PointerMakerFor(a arch.Arch) (PointerMaker, error) {
	err := a.Validate()
	if err != nil {
		return PointerMaker{}, err
	}

	return PointerMaker{
		byteOrder: a.ByteOrder(),
		ptrSize:   a.PointerSize(),
	}, nil
}

// PointerMaker creates Pointer for a specific platform.
type PointerMaker struct {
	byteOrder binary.ByteOrder
	ptrSize   int
}

// PointerSize returns the size of pointers created by the PointerMaker
// in bytes.
func (o PointerMaker) PointerSize() int {
	return o.ptrSize
}

// ByteOrder returns the PointerMaker's byte order.
func (o PointerMaker) ByteOrder() binary.ByteOrder {
	return o.byteOrder
}

// FromUint creates a Pointer from an unsigned integer. Bits that do
// not fit in the pointer size are discarded.
func (o PointerMaker) FromUint(address uint64) Pointer {
	return Pointer{
		bytes:   Pack(address, o.ptrSize, o.byteOrder),
		address: truncate(address, o.ptrSize),
	}
}

// ParseUint parses str as an unsigned integer in the specified base.
func (o PointerMaker) ParseUint(str string, base int) (Pointer, error) {
	i, err := strconv.ParseUint(str, base, o.ptrSize*8)
	if err != nil {
		return Pointer{}, err
	}

	return o.FromUint(i), nil
}

// ParseUintPrefix is like ParseUint, but it removes the specified prefix
// (e.g., "0x") before parsing.
func (o PointerMaker) ParseUintPrefix(str string, base int, prefix string) (Pointer, error) {
	return o.ParseUint(strings.TrimPrefix(str, prefix), base)
}

// FromHexBytes decodes a hex-encoded pointer (optionally prefixed with
// "0x") that is stored in sourceEndianness byte order.
func (o PointerMaker) FromHexBytes(hexBytes []byte, sourceEndianness binary.ByteOrder) (Pointer, error) {
	hexBytesNoPrefix := bytes.TrimPrefix(hexBytes, []byte("0x"))

	hexStrLen := len(hexBytesNoPrefix)
	if hexStrLen == 0 {
		return Pointer{}, fmt.Errorf("hex string cannot be zero-length")
	}

	maxLen := o.ptrSize * 2
	if hexStrLen > maxLen {
		return Pointer{}, fmt.Errorf("hex string cannot be longer than %d chars - it is %d chars long",
			maxLen, hexStrLen)
	}

	numZeros := maxLen - hexStrLen
	if numZeros > 0 {
		zeros := bytes.Repeat([]byte("0"), numZeros)
		if sourceEndianness.String() == binary.LittleEndian.String() {
			hexBytesNoPrefix = append(hexBytesNoPrefix, zeros...)
		} else {
			hexBytesNoPrefix = append(zeros, hexBytesNoPrefix...)
		}
	}

	decoded := make([]byte, o.ptrSize)
	_, err := hex.Decode(decoded, hexBytesNoPrefix)
	if err != nil {
		return Pointer{}, fmt.Errorf("failed to hex decode data - %w", err)
	}

	address, err := Unpack(decoded, sourceEndianness)
	if err != nil {
		return Pointer{}, err
	}

	return o.FromUint(address), nil
}

// FromHexString is like FromHexBytes, but for strings.
func (o PointerMaker) FromHexString(hexStr string, sourceEndianness binary.ByteOrder) (Pointer, error) {
	return o.FromHexBytes([]byte(hexStr), sourceEndianness)
}

// FromRaw creates a Pointer from its packed representation.
func (o PointerMaker) FromRaw(raw []byte) (Pointer, error) {
	if len(raw) != o.ptrSize {
		return Pointer{}, fmt.Errorf("raw pointer must be %d bytes - got %d",
			o.ptrSize, len(raw))
	}

	address, err := Unpack(raw, o.byteOrder)
	if err != nil {
		return Pointer{}, err
	}

	return o.FromUint(address), nil
}

// Pointer is a memory address packed for a specific platform.
type Pointer struct {
	bytes   []byte
	address uint64
}

// Bytes returns the packed pointer.
func (o Pointer) Bytes() []byte {
	cp := make([]byte, len(o.bytes))
	copy(cp, o.bytes)
	return cp
}

// Uint returns the pointer as an unsigned integer.
func (o Pointer) Uint() uint64 {
	return o.address
}

// HexString returns the address as a "0x"-prefixed hex string.
func (o Pointer) HexString() string {
	return "0x" + strconv.FormatUint(o.address, 16)
}

// Pack encodes v as an n-byte unsigned integer in the specified byte
// order. n must be between 1 and 8. Bits that do not fit are discarded.
func Pack(v uint64, n int, bo binary.ByteOrder) []byte {
	if n < 1 || n > 8 {
		panic(fmt.Sprintf("unsupported integer size: %d", n))
	}

	full := make([]byte, 8)
	bo.PutUint64(full, v)

	if bo.String() == binary.BigEndian.String() {
		return full[8-n:]
	}

	return full[:n]
}

// Unpack decodes b as an unsigned integer in the specified byte order.
// The length of b must be between 1 and 8.
func Unpack(b []byte, bo binary.ByteOrder) (uint64, error) {
	n := len(b)
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("cannot unpack %d bytes into an integer", n)
	}

	full := make([]byte, 8)
	if bo.String() == binary.BigEndian.String() {
		copy(full[8-n:], b)
	} else {
		copy(full, b)
	}

	return bo.Uint64(full), nil
}

func truncate(v uint64, numBytes int) uint64 {
	if numBytes >= 8 {
		return v
	}

	return v & (1<<(uint(numBytes)*8) - 1)
}
