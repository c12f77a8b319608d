package top708

import (
	"time"
)

// ProtocolNMEA identifies the only wire protocol this driver monitors. The
// teacher's device also carried RTCM3.3/UBX correction-stream support for
// its RTK base-station role; the beacon only ever needs raw position fixes,
// so that surface (protocol constants, parsers, DataHandler methods) was
// trimmed rather than carried along unused.
const ProtocolNMEA = "NMEA-0183"

// DataHandler receives parsed NMEA sentences from MonitorNMEA.
type DataHandler interface {
	HandleNMEA(sentence NMEASentence)
}

// MonitorConfig holds configuration for NMEA monitoring.
type MonitorConfig struct {
	BufferSize   int           // size of the read buffer
	PollInterval time.Duration // interval between reads
	Handler      DataHandler   // handler for parsed sentences
}

// DefaultMonitorConfig returns a default monitoring configuration for handler.
func DefaultMonitorConfig(protocol string, handler DataHandler) MonitorConfig {
	return MonitorConfig{
		BufferSize:   1024,
		PollInterval: 100 * time.Millisecond,
		Handler:      handler,
	}
}

// NMEASentence represents a parsed NMEA sentence.
type NMEASentence struct {
	Raw      string
	Type     string
	Fields   []string
	Valid    bool
	Checksum string
}
