package memory

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/stephen-fox/ropkit/arch"
)

func TestExtractFirstBytes_RoundTrip(t *testing.T) {
	for _, a := range []arch.Arch{arch.AMD64, arch.I386} {
		pm := PointerMakerForOrExit(a)

		for _, v := range []uint64{0, 1, 0xdeadbeef, 0x7ffeeffff000} {
			p := pm.FromUint(v)

			extracted, err := ExtractFirstBytes(a, p.Bytes(), pm.PointerSize())
			require.NoError(t, err)
			assert.Equal(t, p.Uint(), extracted, "arch %s value 0x%x", a, v)
		}
	}
}

func TestExtractFirstBytes_IgnoresTrailingBytes(t *testing.T) {
	v, err := ExtractFirstBytes(arch.AMD64, []byte{0x37, 0x13, 0xff, 0xff}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1337), v)
}

func TestExtractFirstBytes_TooShort(t *testing.T) {
	_, err := ExtractFirstBytes(arch.AMD64, []byte{0x01}, 4)
	assert.Error(t, err)
}

func TestExtractFirstBytes_BadWidth(t *testing.T) {
	s := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}

	for _, n := range []int{-1, 0, 9} {
		_, err := ExtractFirstBytes(arch.AMD64, s, n)
		assert.Error(t, err, n)
	}

	v, err := ExtractFirstBytes(arch.AMD64, s, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x030201), v)
}

func TestExtractAllBytes(t *testing.T) {
	s := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}

	seq, err := ExtractAllBytes(arch.I386, s, 4)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, slices.Collect(seq))

	// Ranging again produces the same values.
	assert.Equal(t, []uint64{1, 2, 3}, slices.Collect(seq))
}

func TestExtractAllBytes_CountMatchesLength(t *testing.T) {
	s := make([]byte, 64)

	for _, n := range []int{1, 2, 4, 8} {
		seq, err := ExtractAllBytes(arch.AMD64, s, n)
		require.NoError(t, err)
		assert.Len(t, slices.Collect(seq), len(s)/n)
	}
}

func TestExtractAllBytes_TruncatesPartialChunk(t *testing.T) {
	seq, err := ExtractAllBytes(arch.AMD64, []byte{0xaa, 0xbb, 0xcc}, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0xbbaa}, slices.Collect(seq))
}

func TestExtractAllBytes_StopsEarly(t *testing.T) {
	seq, err := ExtractAllBytes(arch.AMD64, []byte{1, 2, 3, 4}, 1)
	require.NoError(t, err)

	var got []uint64
	for v := range seq {
		got = append(got, v)
		if v == 2 {
			break
		}
	}

	assert.Equal(t, []uint64{1, 2}, got)
}

func TestExtractAllBytes_BadWidth(t *testing.T) {
	_, err := ExtractAllBytes(arch.AMD64, []byte{1, 2}, 0)
	assert.Error(t, err)
}

func TestExtractHex(t *testing.T) {
	s := []byte("addr=0x1234 other=0x5678")

	assert.Equal(t, int64(0x1234), ExtractFirstHex(s))
	assert.Equal(t, []uint64{0x1234, 0x5678}, ExtractAllHex(s))
}

func TestExtractHex_NoMatch(t *testing.T) {
	s := []byte("no hex here")

	assert.Empty(t, ExtractAllHex(s))
	assert.NotNil(t, ExtractAllHex(s))
	assert.Equal(t, int64(-1), ExtractFirstHex(s))
}

func TestExtractHex_UppercaseIgnored(t *testing.T) {
	assert.Equal(t, int64(-1), ExtractFirstHex([]byte("0XABC")))
	assert.Equal(t, int64(0xab), ExtractFirstHex([]byte("0xabCD")))
}

func TestExtractAllHex_Overflow(t *testing.T) {
	assert.Empty(t, ExtractAllHex([]byte("0x1 0x11223344556677889900")))
}

func TestExtractFirstHex_HighAddress(t *testing.T) {
	s := []byte("kernel text at 0xffffffff81000000")

	all := ExtractAllHex(s)
	require.Len(t, all, 1)

	first := ExtractFirstHex(s)
	assert.Equal(t, all[0], uint64(first))
	assert.Equal(t, uint64(0xffffffff81000000), uint64(first))
}

func TestExtractFirstHex_Overflow(t *testing.T) {
	assert.Equal(t, int64(-1), ExtractFirstHex([]byte("0x11223344556677889900")))
}
