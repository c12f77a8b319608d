package bitpack

import "encoding/hex"

// HexEncode returns the bytewise lowercase hex ASCII encoding of data,
// matching Binascii::hexlify.
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexDecode decodes a bytewise hex ASCII string, matching Binascii::unhexlify.
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
