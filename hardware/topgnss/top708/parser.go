package top708

import (
	"fmt"
	"strings"
)

// NMEAParser parses NMEA-0183 sentences. RTCM/UBX parsing, which the
// teacher's driver also carried for its RTK correction-stream role, is out
// of scope here: the beacon only consumes GGA/RMC position fixes.
type NMEAParser struct{}

// NewNMEAParser creates a new NMEA parser.
func NewNMEAParser() *NMEAParser {
	return &NMEAParser{}
}

// Parse parses an NMEA sentence, validating its checksum.
func (p *NMEAParser) Parse(sentence string) NMEASentence {
	result := NMEASentence{
		Raw:   sentence,
		Valid: false,
	}

	if !strings.HasPrefix(sentence, "$") {
		return result
	}

	parts := strings.Split(sentence, "*")
	if len(parts) != 2 {
		return result
	}

	result.Checksum = parts[1]

	data := parts[0][1:] // remove the $ prefix
	calculatedChecksum := p.calculateChecksum(data)
	if calculatedChecksum != result.Checksum {
		return result
	}

	fields := strings.Split(parts[0], ",")
	if len(fields) < 1 {
		return result
	}

	result.Type = fields[0][1:] // remove the $ prefix
	result.Fields = fields[1:]
	result.Valid = true

	return result
}

// calculateChecksum calculates the XOR checksum for an NMEA sentence body.
func (p *NMEAParser) calculateChecksum(data string) string {
	var checksum byte
	for i := 0; i < len(data); i++ {
		checksum ^= data[i]
	}
	return fmt.Sprintf("%02X", checksum)
}
