package bitpack

// BCH generator polynomials, expressed as the bit sequence used by the
// reference firmware (each element is 0 or 1, high bit first). Polynomial
// length is len(poly); the resulting code word is poly_size-1 bits wide.
var (
	// B127_106_3 is the BCH(127,106,3) generator (0x26D9E3).
	B127_106_3 = []byte{1, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0, 0, 0, 1, 1}
	// B255_223_4 is the BCH(255,223,4) generator (0x1EE5B42FD).
	B255_223_4 = []byte{1, 1, 1, 1, 0, 1, 1, 1, 0, 0, 1, 0, 1, 1, 0, 1, 1, 0, 1, 0, 0, 0, 0, 1, 0, 1, 1, 1, 1, 1, 1, 0, 1}
)

// BCHCodeWordBits returns the code word width (poly_size-1) for poly.
func BCHCodeWordBits(poly []byte) int { return len(poly) - 1 }

// BCHEncode performs systematic BCH encoding over the first totalBits bits
// of data (read MSB-first per byte, independent of the LSB-first field
// packer used to build the frame — this matches the reference encoder,
// which walks the byte buffer as a plain bitstream) and returns the parity
// as a right-justified code word of BCHCodeWordBits(poly) bits.
func BCHEncode(poly []byte, data []byte, totalBits uint) uint32 {
	polySize := len(poly)
	remainderSize := int(totalBits) + polySize - 1

	remainder := make([]byte, remainderSize)
	for i := uint(0); i < totalBits; i++ {
		byteIndex := i / 8
		bitIndex := i % 8
		if data[byteIndex]&(1<<(7-bitIndex)) != 0 {
			remainder[i] = 1
		}
	}

	for i := uint(0); i < totalBits; i++ {
		if remainder[i] != 0 {
			for j := 0; j < polySize; j++ {
				remainder[int(i)+j] ^= poly[j]
			}
		}
	}

	var codeWord uint32
	parityBits := remainderSize - int(totalBits)
	for i := 0; i < parityBits; i++ {
		if remainder[int(totalBits)+i] != 0 {
			codeWord |= 1 << uint(parityBits-i-1)
		}
	}
	return codeWord
}
