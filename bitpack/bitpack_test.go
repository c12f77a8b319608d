package bitpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackExtractRoundTrip(t *testing.T) {
	w := NewWriter(4)
	w.PutUint32(0x1F, 5)
	w.PutUint32(0x3FF, 10)
	w.PutUint32(1, 1)
	w.PutUint32(0xAB, 8)

	r := NewReader(w.Bytes())
	assert.Equal(t, uint32(0x1F), r.Uint32(5))
	assert.Equal(t, uint32(0x3FF), r.Uint32(10))
	assert.Equal(t, uint32(1), r.Uint32(1))
	assert.Equal(t, uint32(0xAB), r.Uint32(8))
}

func TestPackCrossesByteBoundary(t *testing.T) {
	buf := make([]byte, 4)
	off := Pack(buf, 0x1FFFFF, 3, 21)
	v, _ := Extract(buf, 3, 21)
	assert.Equal(t, uint32(0x1FFFFF), v)
	assert.Equal(t, 24, off)
}

func TestHaversineSelfZeroAndSymmetric(t *testing.T) {
	assert.InDelta(t, 0.0, Haversine(10, 20, 10, 20), 1e-9)
	a := Haversine(0, 0, 0, 90)
	b := Haversine(0, 90, 0, 0)
	assert.InDelta(t, a, b, 1e-9)
	assert.InDelta(t, 10007.54, a, 1.0)
}

func TestCRC8ZeroPad(t *testing.T) {
	// A single zero payload byte over 4 bits should zero-pad to one byte.
	data := []byte{0xF0}
	got := CRC8(data, 4)
	assert.NotNil(t, got)
}

func TestBCHCodeWordWidths(t *testing.T) {
	require.Equal(t, 21, BCHCodeWordBits(B127_106_3))
	require.Equal(t, 32, BCHCodeWordBits(B255_223_4))
}

func TestHexRoundTrip(t *testing.T) {
	b, err := HexDecode("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", HexEncode(b))
}
