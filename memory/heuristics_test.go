package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/stephen-fox/ropkit/arch"
)

func TestOffsetMatch(t *testing.T) {
	offset := uint64(0x6f0)

	assert.True(t, OffsetMatch[uint64](0x7f12345676f0, nil))
	assert.True(t, OffsetMatch(uint64(0x7f12345676f0), &offset))
	assert.False(t, OffsetMatch(uint64(0x7f12345676f1), &offset))
}

func TestOffsetMatch_Self(t *testing.T) {
	for _, v := range []uint64{0, 1, 0x10, 0xdeadbeef, 0x7ffeeffff000} {
		v := v
		assert.True(t, OffsetMatch(v, &v), "0x%x", v)
	}
}

func TestOffsetToRegexp(t *testing.T) {
	assert.Equal(t, "6f0$", OffsetToRegexp(0x6f0).String())
}

func TestIsStackAddress(t *testing.T) {
	assert.True(t, IsStackAddress(arch.AMD64, 0x7ffeeffff000))
	assert.False(t, IsStackAddress(arch.AMD64, 0x7f1234560000))
	assert.False(t, IsStackAddress(arch.AMD64, 0))
	assert.True(t, IsStackAddress(arch.I386, uint32(0xffffd000)))
}

func TestIsLibcAddress(t *testing.T) {
	assert.True(t, IsLibcAddress(arch.AMD64, 0x7f1234560000))
	assert.False(t, IsLibcAddress(arch.AMD64, 0x7ffeeffff000))
	assert.False(t, IsLibcAddress(arch.AMD64, 0x555555554000))
	assert.True(t, IsLibcAddress(arch.I386, uint32(0xf7e12000)))
	assert.False(t, IsLibcAddress(arch.I386, uint32(0xffffd000)))
}

func TestIsPIEAddress(t *testing.T) {
	assert.True(t, IsPIEAddress(arch.AMD64, 0x555555554000))
	assert.False(t, IsPIEAddress(arch.AMD64, 0x565555554000))
	assert.True(t, IsPIEAddress(arch.I386, 0x56555000))
	assert.False(t, IsPIEAddress(arch.I386, -0x56555000))
}

func TestIsBaseAddress(t *testing.T) {
	assert.True(t, IsBaseAddress(0x555555554000))
	assert.False(t, IsBaseAddress(0x555555554001))
	assert.False(t, IsBaseAddress(0))
}
