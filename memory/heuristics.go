package memory

import (
	"regexp"
	"strconv"

	"golang.org/x/exp/constraints"

	"gitlab.com/stephen-fox/ropkit/arch"
)

type addressPatterns struct {
	pie   *regexp.Regexp
	stack *regexp.Regexp
	libc  *regexp.Regexp
}

var (
	amd64Patterns = addressPatterns{
		pie:   regexp.MustCompile(`^0x55`),
		stack: regexp.MustCompile(`^0x7ff`),
		libc:  regexp.MustCompile(`^0x7f`),
	}

	otherPatterns = addressPatterns{
		pie:   regexp.MustCompile(`^0x56`),
		stack: regexp.MustCompile(`^0xff`),
		libc:  regexp.MustCompile(`^0xf7`),
	}

	baseAddrRegexp = regexp.MustCompile(`000$`)
)

func patternsFor(a arch.Arch) addressPatterns {
	if a == arch.AMD64 {
		return amd64Patterns
	}
	return otherPatterns
}

func toHex[T constraints.Integer](v T) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-int64(v)), 16)
	}
	return "0x" + strconv.FormatUint(uint64(v), 16)
}

// OffsetToRegexp returns a regular expression matching any hex string
// that ends with the hex representation of offset.
func OffsetToRegexp[T constraints.Integer](offset T) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(toHex(offset)[2:]) + `$`)
}

// OffsetMatch returns true if offset is nil or if the hex representation
// of v ends with the hex representation of *offset. This is useful for
// checking whether a leaked address could belong to a symbol whose
// offset in its (page-aligned) object is known.
func OffsetMatch[T constraints.Integer](v T, offset *T) bool {
	if offset == nil {
		return true
	}

	return OffsetToRegexp(*offset).MatchString(toHex(v))
}

// IsPIEAddress returns true if v looks like an address in
// a position-independent executable.
func IsPIEAddress[T constraints.Integer](a arch.Arch, v T) bool {
	return v > 0 && patternsFor(a).pie.MatchString(toHex(v))
}

// IsStackAddress returns true if v looks like a stack address.
func IsStackAddress[T constraints.Integer](a arch.Arch, v T) bool {
	return v > 0 && patternsFor(a).stack.MatchString(toHex(v))
}

// IsLibcAddress returns true if v looks like an address in a shared
// library such as libc. The library pattern also matches stack
// addresses, so values classified as stack addresses are excluded.
func IsLibcAddress[T constraints.Integer](a arch.Arch, v T) bool {
	return v > 0 &&
		patternsFor(a).libc.MatchString(toHex(v)) &&
		!IsStackAddress(a, v)
}

// IsBaseAddress returns true if v looks like the base address of
// a mapping, i.e., it ends in three zero hex digits.
func IsBaseAddress[T constraints.Integer](v T) bool {
	return v > 0 && baseAddrRegexp.MatchString(toHex(v))
}
