package argos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/bitpack"
	"github.com/arribada/horizon-core/gnss"
	"github.com/arribada/horizon-core/paramstore"
)

func TestBuildShortProducesExpectedLengthAndCRC(t *testing.T) {
	fix := gnss.Fix{
		Valid: true, Time: time.Date(2026, 7, 30, 10, 30, 0, 0, time.UTC),
		LatDeg: 51.5, LonDeg: -1.5, GSpeedMMs: 1000, HeadMotDeg: 90, HMSLMm: 10000, FixType: fixType3D,
	}
	packet := BuildShort(fix, false, 3700, false)
	assert.Len(t, packet, shortPacketBytes)

	crc := bitpack.CRC8(packet[1:], shortPacketPayloadBits-8)
	got, _ := bitpack.Extract(packet, 0, 8)
	assert.Equal(t, uint32(crc), got)
}

func TestBuildShortInvalidFixEncodesSentinelFields(t *testing.T) {
	packet := BuildShort(gnss.Fix{Time: time.Now()}, true, 3000, true)
	got, _ := bitpack.Extract(packet, 24, 21)
	assert.Equal(t, uint32(0x1FFFFF), got)
}

func TestBuildLongProducesExpectedLengthAndCRC(t *testing.T) {
	fixes := []gnss.Fix{
		{Valid: true, Time: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC), LatDeg: 10, LonDeg: 20},
		{Valid: true, Time: time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC), LatDeg: 11, LonDeg: 21},
	}
	packet := BuildLong(fixes, false, 3700, false, paramstore.DeltaT30Min)
	assert.Len(t, packet, longPacketBytes)

	crc := bitpack.CRC8(packet[1:], longPacketPayloadBits-8)
	got, _ := bitpack.Extract(packet, 0, 8)
	assert.Equal(t, uint32(crc), got)
}

func TestBuildDopplerIsThreeBytesWithCRC(t *testing.T) {
	packet := BuildDoppler(3700, false)
	assert.Len(t, packet, dopplerPacketBytes)

	crc := bitpack.CRC8(packet[1:], dopplerPacketPayloadBits-8)
	got, _ := bitpack.Extract(packet, 0, 8)
	assert.Equal(t, uint32(crc), got)
}

func TestBuildCertificationPadsToShortPacketSize(t *testing.T) {
	packet, bits, mode, err := BuildCertification("aabbcc", paramstore.ArgosModulationA2)
	require.NoError(t, err)
	assert.Len(t, packet, shortPacketBytes)
	assert.Equal(t, shortPacketBits, bits)
	assert.Equal(t, paramstore.ArgosModulationA2, mode)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, packet[:3])
}

func TestBuildCertificationPadsToLongPacketSizeWhenPayloadIsLarge(t *testing.T) {
	hexPayload := ""
	for i := 0; i < shortPacketBytes+1; i++ {
		hexPayload += "ab"
	}
	packet, bits, _, err := BuildCertification(hexPayload, paramstore.ArgosModulationA3)
	require.NoError(t, err)
	assert.Len(t, packet, longPacketBytes)
	assert.Equal(t, longPacketBits, bits)
}

func TestBuildCertificationFallsBackToA2ForUnsupportedModulation(t *testing.T) {
	_, _, mode, err := BuildCertification("ab", paramstore.ArgosModulationA4)
	require.NoError(t, err)
	assert.Equal(t, paramstore.ArgosModulationA2, mode)
}

func TestBuildCertificationRejectsBadHex(t *testing.T) {
	_, _, _, err := BuildCertification("zz", paramstore.ArgosModulationA2)
	assert.Error(t, err)
}

func TestConvertBatteryClampsRange(t *testing.T) {
	assert.Equal(t, uint32(0), convertBattery(1000))
	assert.Equal(t, uint32(127), convertBattery(10000))
	assert.Equal(t, uint32(50), convertBattery(2700+50*20))
}
