package top708

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNMEAParserParseValidSentence(t *testing.T) {
	parser := NewNMEAParser()

	sentence := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	result := parser.Parse(sentence)

	assert.True(t, result.Valid)
	assert.Equal(t, "GPGGA", result.Type)
	assert.Equal(t, "47", result.Checksum)
	assert.Equal(t, []string{"123519", "4807.038", "N", "01131.000", "E", "1", "08", "0.9", "545.4", "M", "46.9", "M", "", ""}, result.Fields)
}

func TestNMEAParserRejectsMissingDollarPrefix(t *testing.T) {
	parser := NewNMEAParser()
	result := parser.Parse("GPGGA,123519*47")
	assert.False(t, result.Valid)
}

func TestNMEAParserRejectsMissingChecksum(t *testing.T) {
	parser := NewNMEAParser()
	result := parser.Parse("$GPGGA,123519,4807.038,N")
	assert.False(t, result.Valid)
}

func TestNMEAParserRejectsBadChecksum(t *testing.T) {
	parser := NewNMEAParser()
	result := parser.Parse("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00")
	assert.False(t, result.Valid)
}

func TestNMEAParserCalculateChecksum(t *testing.T) {
	parser := NewNMEAParser()
	checksum := parser.calculateChecksum("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	assert.Equal(t, "47", checksum)
}
