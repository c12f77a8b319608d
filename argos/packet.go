// Package argos implements the Argos transmission scheduler, depth pile,
// packet builders and RX/AOP merge (§4.8, §4.9, §3 Depth Pile/AOP Satellite
// Entry), grounded on the reference firmware's ArgosScheduler.
package argos

import (
	"encoding/hex"
	"time"

	"github.com/arribada/horizon-core/bitpack"
	"github.com/arribada/horizon-core/gnss"
	"github.com/arribada/horizon-core/paramstore"
)

// Packet bit/byte sizes, matching SHORT_PACKET_BITS/LONG_PACKET_BITS/
// DOPPLER_PACKET_BITS and their _PAYLOAD_BITS/_BYTES companions.
const (
	shortPacketBits        = 120
	shortPacketPayloadBits = 99
	shortPacketBytes       = 15

	longPacketBits        = 248
	longPacketPayloadBits = 216
	longPacketBytes       = 31

	dopplerPacketBits        = 24
	dopplerPacketPayloadBits = 24
	dopplerPacketBytes       = 3

	maxGPSEntriesInPacket = 4

	lonLatResolution = 10000
	mmPerMeter       = 1000
	mmPerKM          = 1000000
	mvPerUnit        = 20
	metresPerUnit    = 40
	degreesPerUnit   = 1.0 / 1.42
	minAltitude      = 0
	maxAltitude      = 254
	invalidAltitude  = 255

	fixType3D = 3
)

// convertLatitude renders a signed latitude in degrees as the 21-bit field
// the frame carries: magnitude * 10000, sign folded into bit 20 for
// negative values (southern hemisphere), with the reference firmware's
// -0.00005 nudge before negating to compensate for truncation.
func convertLatitude(x float64) uint32 {
	if x >= 0 {
		return uint32(x * lonLatResolution)
	}
	return uint32((x-0.00005)*-lonLatResolution) | 1<<20
}

// convertLongitude is convertLatitude's 22-bit counterpart, sign in bit 21.
func convertLongitude(x float64) uint32 {
	if x >= 0 {
		return uint32(x * lonLatResolution)
	}
	return uint32((x-0.00005)*-lonLatResolution) | 1<<21
}

func convertSpeed(gSpeedMMs uint32) uint32 {
	return uint32((3600.0 * float64(gSpeedMMs)) / (2 * mmPerKM))
}

func convertHeading(headMotDeg float64) uint32 {
	return uint32(headMotDeg * degreesPerUnit)
}

func convertAltitude(fix gnss.Fix) uint32 {
	if fix.FixType != fixType3D {
		return invalidAltitude
	}
	altitude := int32(fix.HMSLMm) / (mmPerMeter * metresPerUnit)
	if altitude > maxAltitude {
		return maxAltitude
	}
	if altitude < minAltitude {
		return minAltitude
	}
	return uint32(altitude)
}

func convertBattery(voltageMV uint16) uint32 {
	raw := (int(voltageMV) - 2700) / mvPerUnit
	if raw < 0 {
		raw = 0
	}
	if raw > 127 {
		raw = 127
	}
	return uint32(raw)
}

func dayHourMin(t time.Time) (day, hour, min uint32) {
	t = t.UTC()
	return uint32(t.Day()), uint32(t.Hour()), uint32(t.Minute())
}

// BuildShort encodes a single GPS fix as the 120-bit short packet (99 data
// bits + a 21-bit BCH(127,106,3) trailer), matching build_short_packet.
func BuildShort(fix gnss.Fix, outOfZone bool, battVoltageMV uint16, lowBattery bool) []byte {
	w := bitpack.NewWriter(shortPacketBytes)
	w.PutUint32(0, 8) // CRC placeholder, backfilled below

	day, hour, min := dayHourMin(fix.Time)
	w.PutUint32(day, 5)
	w.PutUint32(hour, 5)
	w.PutUint32(min, 6)

	if fix.Valid {
		w.PutUint32(convertLatitude(fix.LatDeg), 21)
		w.PutUint32(convertLongitude(fix.LonDeg), 22)
		w.PutUint32(convertSpeed(fix.GSpeedMMs), 7)
		w.PutBool(outOfZone, 1)
		w.PutUint32(convertHeading(fix.HeadMotDeg), 8)
		w.PutUint32(convertAltitude(fix), 8)
	} else {
		w.PutUint32(0xFFFFFFFF, 21)
		w.PutUint32(0xFFFFFFFF, 22)
		w.PutUint32(0xFF, 7)
		w.PutBool(outOfZone, 1)
		w.PutUint32(0xFF, 8)
		w.PutUint32(0xFF, 8)
	}

	w.PutUint32(convertBattery(battVoltageMV), 7)
	w.PutBool(lowBattery, 1)

	crc := bitpack.CRC8(w.Bytes()[1:], shortPacketPayloadBits-8)
	w.PutAt(uint32(crc), 0, 8)

	codeWord := bitpack.BCHEncode(bitpack.B127_106_3, w.Bytes(), shortPacketPayloadBits)
	w.PutAt(codeWord, shortPacketPayloadBits, bitpack.BCHCodeWordBits(bitpack.B127_106_3))

	_ = shortPacketBits
	return w.Bytes()
}

// BuildLong encodes up to 4 GPS fixes (newest first, per DepthPile.Retrieve)
// as the 248-bit long packet (216 data bits + a 32-bit BCH(255,223,4)
// trailer), matching build_long_packet. fixes must be non-empty; position
// slots past len(fixes) carry the invalid-position sentinel.
func BuildLong(fixes []gnss.Fix, outOfZone bool, battVoltageMV uint16, lowBattery bool, deltaTimeLoc paramstore.DeltaTimeLoc) []byte {
	w := bitpack.NewWriter(longPacketBytes)
	w.PutUint32(0, 8)

	day, hour, min := dayHourMin(fixes[0].Time)
	w.PutUint32(day, 5)
	w.PutUint32(hour, 5)
	w.PutUint32(min, 6)

	if fixes[0].Valid {
		w.PutUint32(convertLatitude(fixes[0].LatDeg), 21)
		w.PutUint32(convertLongitude(fixes[0].LonDeg), 22)
		w.PutUint32(convertSpeed(fixes[0].GSpeedMMs), 7)
	} else {
		w.PutUint32(0xFFFFFFFF, 21)
		w.PutUint32(0xFFFFFFFF, 22)
		w.PutUint32(0xFF, 7)
	}

	w.PutBool(outOfZone, 1)
	w.PutUint32(convertBattery(battVoltageMV), 7)
	w.PutBool(lowBattery, 1)
	w.PutUint32(uint32(deltaTimeLoc), 4)

	for i := 1; i < maxGPSEntriesInPacket; i++ {
		if i >= len(fixes) || !fixes[i].Valid {
			w.PutUint32(0xFFFFFFFF, 21)
			w.PutUint32(0xFFFFFFFF, 22)
			continue
		}
		w.PutUint32(convertLatitude(fixes[i].LatDeg), 21)
		w.PutUint32(convertLongitude(fixes[i].LonDeg), 22)
	}

	crc := bitpack.CRC8(w.Bytes()[1:], longPacketPayloadBits-8)
	w.PutAt(uint32(crc), 0, 8)

	codeWord := bitpack.BCHEncode(bitpack.B255_223_4, w.Bytes(), longPacketPayloadBits)
	w.PutAt(codeWord, longPacketPayloadBits, bitpack.BCHCodeWordBits(bitpack.B255_223_4))

	_ = longPacketBits
	return w.Bytes()
}

// BuildDoppler encodes the minimal 24-bit Doppler-only packet (no BCH):
// last-known-position index (always 0, matching the reference firmware,
// which never populates this field from a real index), battery, low-battery
// flag.
func BuildDoppler(battVoltageMV uint16, lowBattery bool) []byte {
	w := bitpack.NewWriter(dopplerPacketBytes)
	w.PutUint32(0, 8)
	w.PutUint32(0, 8) // last-known-pos index, always 0
	w.PutUint32(convertBattery(battVoltageMV), 7)
	w.PutBool(lowBattery, 1)

	crc := bitpack.CRC8(w.Bytes()[1:], dopplerPacketPayloadBits-8)
	w.PutAt(uint32(crc), 0, 8)

	_ = dopplerPacketBits
	return w.Bytes()
}

// BuildCertification decodes the ASCII-hex certification payload and pads
// it to the short or long packet byte size depending on its length,
// returning the packet bytes, the total bit count to transmit, and the
// modulation to use (A4 is not supported and falls back to A2).
func BuildCertification(hexPayload string, modulation paramstore.ArgosModulation) (packet []byte, totalBits int, mode paramstore.ArgosModulation, err error) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil {
		return nil, 0, 0, err
	}

	if len(raw) > shortPacketBytes {
		totalBits = longPacketBits
		packet = make([]byte, longPacketBytes)
	} else {
		totalBits = shortPacketBits
		packet = make([]byte, shortPacketBytes)
	}
	copy(packet, raw)

	switch modulation {
	case paramstore.ArgosModulationA2, paramstore.ArgosModulationA3:
		mode = modulation
	default:
		mode = paramstore.ArgosModulationA2
	}
	return packet, totalBits, mode, nil
}
