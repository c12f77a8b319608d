// Package logentry implements the fixed-size append-only log record shared
// by every service's Logger (§3, §6): a small timestamped header plus a
// payload, matching the reference firmware's LogHeader/LogEntry (128-byte
// records, encoding/binary in place of a packed C struct).
package logentry

import (
	"encoding/binary"
	"math"
	"time"
)

// MaxSize is the fixed record size every hal.Logger entry occupies.
const MaxSize = 128

// HeaderSize is the encoded size of Header.
const HeaderSize = 8

// MaxPayload is the remaining space in a MaxSize record after Header.
const MaxPayload = MaxSize - HeaderSize

// Type tags the kind of record a payload holds, mirroring the original
// firmware's LogType enum.
type Type uint8

const (
	TypeGPS Type = iota
	TypeStartup
	TypeArtic
	TypeUnderwater
	TypeBattery
	TypeState
	TypeZone
	TypeOTAUpdate
	TypeBLE
	TypeError
	TypeWarn
	TypeInfo
	TypeTrace
)

// Header is the fixed 8-byte prefix of every log record.
type Header struct {
	Day         uint8
	Month       uint8
	Year        uint16
	Hours       uint8
	Minutes     uint8
	Seconds     uint8
	Type        Type
}

// SetTime fills Header's date/time fields from t (interpreted as UTC).
func (h *Header) SetTime(t time.Time) {
	t = t.UTC()
	h.Year = uint16(t.Year())
	h.Month = uint8(t.Month())
	h.Day = uint8(t.Day())
	h.Hours = uint8(t.Hour())
	h.Minutes = uint8(t.Minute())
	h.Seconds = uint8(t.Second())
}

// Time reconstructs the UTC time.Time encoded in Header.
func (h Header) Time() time.Time {
	return time.Date(int(h.Year), time.Month(h.Month), int(h.Day), int(h.Hours), int(h.Minutes), int(h.Seconds), 0, time.UTC)
}

// Encode renders a MaxSize-byte record: Header followed by payload,
// zero-padded/truncated to MaxPayload.
func Encode(h Header, payload []byte) []byte {
	buf := make([]byte, MaxSize)
	buf[0] = h.Day
	buf[1] = h.Month
	binary.LittleEndian.PutUint16(buf[2:4], h.Year)
	buf[4] = h.Hours
	buf[5] = h.Minutes
	buf[6] = h.Seconds
	buf[7] = byte(h.Type)
	n := len(payload)
	if n > MaxPayload {
		n = MaxPayload
	}
	copy(buf[HeaderSize:HeaderSize+n], payload[:n])
	return buf
}

// Decode splits a MaxSize-byte record back into its Header and payload.
func Decode(record []byte) (Header, []byte) {
	var h Header
	if len(record) < HeaderSize {
		return h, nil
	}
	h.Day = record[0]
	h.Month = record[1]
	h.Year = binary.LittleEndian.Uint16(record[2:4])
	h.Hours = record[4]
	h.Minutes = record[5]
	h.Seconds = record[6]
	h.Type = Type(record[7])
	return h, record[HeaderSize:]
}

// FormatDateTime renders t in the original firmware's CSV log timestamp
// layout (dd/mm/yyyy HH:MM:SS).
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02/01/2006 15:04:05")
}

// PutFloat64 / Float64 access an 8-byte little-endian payload field at
// offset, used by LogFormatter implementations decoding fixed layouts.
func PutFloat64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(v))
}

func Float64(buf []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
}
