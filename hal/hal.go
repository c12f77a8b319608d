// Package hal declares the narrow capability interfaces the core consumes
// from its external collaborators (§6): filesystem, timer, RTC, GNSS and
// Argos radio devices, battery monitor, logger, local control transport and
// gesture source. Concrete drivers (ARTIC sequencing, GNSS chip glue,
// peripheral bus access, BLE stack, bootloader/OTA) are out of scope for
// this module and live behind these interfaces; hardware/ contains small
// reference/simulated implementations used by cmd/beacon and tests.
package hal

import (
	"context"
	"time"
)

// Filesystem is the minimal append-only log storage capability.
type Filesystem interface {
	Mount() error
	Format() error
	Unmount() error
}

// File is a single opened log/record stream.
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Tell() (int64, error)
	Flush() error
	Size() (int64, error)
}

// TimerHandle identifies a scheduled timer callback for cancellation.
type TimerHandle interface{}

// Timer is the tick source: it reports elapsed milliseconds and arms
// callbacks for a future deadline on the same millisecond counter. The
// callback may run on the timer's own goroutine; scheduler.Scheduler's
// callback only moves the due task onto its run queue, so task code runs in
// Scheduler.Run (§5).
type Timer interface {
	Start() error
	Stop() error
	GetCounterMs() uint64
	AddSchedule(fn func(), deadlineMs uint64) TimerHandle
	CancelSchedule(h TimerHandle)
}

// RTC is the real-time clock capability; time is epoch-seconds.
type RTC interface {
	GetTime() time.Time
	SetTime(t time.Time)
	IsSet() bool
}

// NavSettings configures a GNSS power-on request.
type NavSettings struct {
	FixMode              int
	DynModel             int
	AcquisitionTimeoutMs uint32
	HDOPFilterEnable     bool
	HDOPFilterThreshold  uint32
	HAccFilterEnable     bool
	HAccFilterThreshold  uint32
	AssistNowEnable      bool
	AssistNowOfflineEn   bool
}

// GNSSEventType enumerates the events a GNSSDevice emits to its listener.
type GNSSEventType int

const (
	GNSSPowerOn GNSSEventType = iota
	GNSSPowerOff
	GNSSPVT
	GNSSError
	GNSSSignalAvailable
	GNSSMaxSatSamples
	GNSSSatReport
)

// PVTData is the subset of a GNSS fix the core cares about.
type PVTData struct {
	Time      time.Time
	ITOW      uint32
	FixType   int
	FixValid  bool
	Flags1    byte
	Flags2    byte
	Flags3    byte
	NumSV     int
	LonDeg    float64
	LatDeg    float64
	HeightMM  int32
	HMSLMm    int32
	HAccMM    uint32
	VAccMM    uint32
	VelNMMs   int32
	VelEMMs   int32
	VelDMMs   int32
	GSpeedMMs uint32
	HeadMotDeg float64
	SAccMMs   uint32
	HeadAccDeg float64
	PDOP      float64
	VDOP      float64
	HDOP      float64
	HeadVehDeg float64
	TTFFMs    uint32
	OnTimeMs  uint32
}

// GNSSEvent is delivered to a GNSSListener.
type GNSSEvent struct {
	Type             GNSSEventType
	PVT              PVTData
	FixFound         bool
	SignalFound      bool
	NumSVs           int
	BestSignalQuality int
}

// GNSSListener receives asynchronous GNSS device events.
type GNSSListener interface {
	OnGNSSEvent(e GNSSEvent)
}

// GNSSDevice is the concrete GNSS chip collaborator; its sequencing is out
// of scope for this module (§1).
type GNSSDevice interface {
	PowerOn(settings NavSettings, listener GNSSListener) error
	PowerOff() error
}

// ArgosMode is the uplink/downlink modulation family requested of the radio.
type ArgosMode int

const (
	ArgosModeA2 ArgosMode = iota
	ArgosModeA3
	ArgosModeA4
)

// ArgosEventType enumerates events emitted by an ArgosDevice.
type ArgosEventType int

const (
	ArgosTxStarted ArgosEventType = iota
	ArgosTxComplete
	ArgosRxPacket
	ArgosDeviceError
	ArgosPowerOff
)

// ArgosEvent is delivered to an ArgosListener.
type ArgosEvent struct {
	Type       ArgosEventType
	RxPacket   []byte
	RxBits     int
}

// ArgosListener receives asynchronous Argos transceiver events.
type ArgosListener interface {
	OnArgosEvent(e ArgosEvent)
}

// ArgosDevice is the concrete ARTIC transceiver collaborator; its chip
// sequencing is out of scope for this module (§1).
type ArgosDevice interface {
	Subscribe(listener ArgosListener)
	Unsubscribe()
	SetFrequency(mhz float64)
	SetTxPower(power int)
	SetTCXOWarmupTime(ms uint32)
	SetDeviceIdentifier(id uint32)
	SetIdleTimeout(ms uint32)
	Send(mode ArgosMode, packet []byte, bits int) error
	StopSend()
	StartReceive(mode ArgosMode) error
	StopReceive()
}

// BatteryMonitor is the battery voltage/level capability.
type BatteryMonitor interface {
	GetVoltageMV() uint16
	GetLevelPercent() uint8
	IsBatteryLow() bool
	IsBatteryCritical() bool
	Update()
}

// LogFormatter renders a log entry as a CSV line for extraction.
type LogFormatter interface {
	Header() string
	LogEntry(entry []byte) string
}

// Logger is an append-only fixed-size-record log.
type Logger interface {
	Create() error
	Truncate() error
	Write(entry []byte) error
	Read(index int) ([]byte, error)
	NumEntries() (int, error)
	Formatter() LogFormatter
}

// Transport is the local control-protocol transport (BLE/DTE in the
// original; §1 places the concrete BLE stack out of scope).
type Transport interface {
	Start(ctx context.Context, onConnected func(), onDisconnected func(), onReceived func(line string)) error
	Stop() error
	Write(s string) error
	ReadLine() (string, error)
}

// Gesture enumerates reed-switch gestures recognised by the enclosure.
type Gesture int

const (
	GestureSwipe Gesture = iota
	GestureShortHold
	GestureLongHold
)

// GestureSource emits reed-switch gestures to a listener.
type GestureSource interface {
	Subscribe(listener func(Gesture))
}

// Sensor is a generic capability for a single-shot or sampled sensor
// reading, consumed by the sensors package's generic service.
type Sensor interface {
	Sample(channel int) (float64, error)
	NumChannels() int
}

// Calibratable is a device that exposes a persisted calibration offset,
// read and written by the SCALR/SCALW control-protocol commands.
type Calibratable interface {
	CalibrationRead(offset int) (float64, error)
	CalibrationWrite(offset int, value float64) error
}

// MemoryReader exposes a raw physical address range for the DUMPM
// control-protocol command. On this firmware there is no MMU-backed
// process image to inspect; a concrete implementation typically serves
// reads out of a fixed diagnostic buffer rather than arbitrary RAM.
type MemoryReader interface {
	ReadMemory(address uint32, length uint32) ([]byte, error)
}
