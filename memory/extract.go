package memory

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"

	"gitlab.com/stephen-fox/ropkit/arch"
)

var hexIntRegexp = regexp.MustCompile(`0x[0-9a-f]+`)

// ExtractFirstBytes unpacks the first n bytes of s as an unsigned
// integer using the architecture's byte order.
func ExtractFirstBytes(a arch.Arch, s []byte, n int) (uint64, error) {
	err := a.Validate()
	if err != nil {
		return 0, err
	}

	if n < 1 || n > 8 {
		return 0, fmt.Errorf("integer size must be between 1 and 8 bytes - got %d", n)
	}

	if len(s) < n {
		return 0, fmt.Errorf("need %d bytes to extract an integer - got %d", n, len(s))
	}

	return Unpack(s[:n], a.ByteOrder())
}

// ExtractFirstBytesOrExit calls ExtractFirstBytes. It calls DefaultExitFn
// if an error occurs.
func ExtractFirstBytesOrExit(a arch.Arch, s []byte, n int) uint64 {
	v, err := ExtractFirstBytes(a, s, n)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to extract first %d bytes - %w", n, err))
	}
	return v
}

// ExtractAllBytes returns a sequence of unsigned integers, one for each
// non-overlapping n-byte chunk of s. Trailing bytes that do not form
// a complete chunk are ignored. Values are unpacked lazily, and the
// sequence may be ranged over more than once.
func ExtractAllBytes(a arch.Arch, s []byte, n int) (iter.Seq[uint64], error) {
	err := a.Validate()
	if err != nil {
		return nil, err
	}

	if n < 1 || n > 8 {
		return nil, fmt.Errorf("integer size must be between 1 and 8 bytes - got %d", n)
	}

	bo := a.ByteOrder()

	return func(yield func(uint64) bool) {
		for i := 0; i+n <= len(s); i += n {
			// Unpack cannot fail here since n was validated.
			v, _ := Unpack(s[i:i+n], bo)
			if !yield(v) {
				return
			}
		}
	}, nil
}

// ExtractAllHex returns every "0x"-prefixed lowercase hex number
// found in s. An empty slice is returned if there are no matches
// or if any match cannot be parsed as a 64-bit integer.
func ExtractAllHex(s []byte) []uint64 {
	matches := hexIntRegexp.FindAll(s, -1)

	values := make([]uint64, 0, len(matches))
	for _, match := range matches {
		v, err := strconv.ParseUint(string(match[2:]), 16, 64)
		if err != nil {
			return []uint64{}
		}

		values = append(values, v)
	}

	return values
}

// ExtractFirstHex returns the first "0x"-prefixed lowercase hex number
// found in s, or -1 if there is none or it does not fit in 64 bits.
//
// Values of 0x8000000000000000 and above are returned as their two's
// complement int64 (use uint64 to recover them). As a result,
// 0xffffffffffffffff cannot be told apart from no match.
func ExtractFirstHex(s []byte) int64 {
	match := hexIntRegexp.Find(s)
	if match == nil {
		return -1
	}

	v, err := strconv.ParseUint(string(match[2:]), 16, 64)
	if err != nil {
		return -1
	}

	return int64(v)
}
