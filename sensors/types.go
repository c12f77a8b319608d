package sensors

import (
	"fmt"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/logentry"
)

// csvFormatter renders a fixed-width float payload as CSV, shared by every
// concrete sensor's hal.LogFormatter.
type csvFormatter struct {
	header  string
	columns int
}

func (f csvFormatter) Header() string { return f.header }

func (f csvFormatter) LogEntry(entry []byte) string {
	hdr, payload := logentry.Decode(entry)
	out := logentry.FormatDateTime(hdr.Time())
	for i := 0; i < f.columns; i++ {
		out += fmt.Sprintf(",%f", logentry.Float64(payload, i*8))
	}
	return out + "\r\n"
}

func populateN(logType logentry.Type, n int) PopulateLogFunc {
	return func(r Reading) []byte {
		var hdr logentry.Header
		hdr.Type = logType
		hdr.SetTime(r.Time)
		payload := make([]byte, n*8)
		for i := 0; i < n && i < len(r.Channels); i++ {
			logentry.PutFloat64(payload, i*8, r.Channels[i])
		}
		return logentry.Encode(hdr, payload)
	}
}

// PHSensor wires a single-channel pH probe into the generic sensor service.
type PHSensor struct {
	*Generic
}

func NewPH(sensor hal.Sensor, enabled func() bool, periodicMs, txPeriodicMs func() uint32, txMode func() TxMode) (*PHSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      1,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     txPeriodicMs,
		TxMode:           txMode,
		UsableUnderwater: true,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 1))
	return &PHSensor{g}, csvFormatter{header: "log_datetime,pH\r\n", columns: 1}
}

// ConductivityDepthTempSensor wires a 3-channel CTD probe.
type ConductivityDepthTempSensor struct {
	*Generic
}

func NewConductivityDepthTemp(sensor hal.Sensor, enabled func() bool, periodicMs, txPeriodicMs func() uint32, txMode func() TxMode) (*ConductivityDepthTempSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      3,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     txPeriodicMs,
		TxMode:           txMode,
		UsableUnderwater: true,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 3))
	return &ConductivityDepthTempSensor{g}, csvFormatter{
		header:  "log_datetime,conductivity,depth,temperature\r\n",
		columns: 3,
	}
}

// PressureSensor wires a 2-channel pressure+temperature probe, used by the
// underwater detector as an alternative dive-detection source.
type PressureSensor struct {
	*Generic
}

func NewPressure(sensor hal.Sensor, enabled func() bool, periodicMs, txPeriodicMs func() uint32, txMode func() TxMode) (*PressureSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      2,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     txPeriodicMs,
		TxMode:           txMode,
		UsableUnderwater: true,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 2))
	return &PressureSensor{g}, csvFormatter{
		header:  "log_datetime,pressure,temperature\r\n",
		columns: 2,
	}
}

// AmbientLightSensor wires the single-channel ambient light sensor; it is
// not usable underwater (no signal once submerged) and is gated by the
// underwater detector like GNSS/Argos.
type AmbientLightSensor struct {
	*Generic
}

func NewAmbientLight(sensor hal.Sensor, enabled func() bool, periodicMs, txPeriodicMs func() uint32, txMode func() TxMode) (*AmbientLightSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      1,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     txPeriodicMs,
		TxMode:           txMode,
		UsableUnderwater: false,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 1))
	return &AmbientLightSensor{g}, csvFormatter{header: "log_datetime,ambient_light\r\n", columns: 1}
}

// SeaTemperatureSensor wires the single-channel external temperature probe.
type SeaTemperatureSensor struct {
	*Generic
}

func NewSeaTemperature(sensor hal.Sensor, enabled func() bool, periodicMs, txPeriodicMs func() uint32, txMode func() TxMode) (*SeaTemperatureSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      1,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     txPeriodicMs,
		TxMode:           txMode,
		UsableUnderwater: true,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 1))
	return &SeaTemperatureSensor{g}, csvFormatter{header: "log_datetime,sea_temperature\r\n", columns: 1}
}

// AccelerometerSensor wires the 3-axis wake/trigger sensor; it always logs
// every sample directly (TxMode OFF semantics) and is used by gnss.Service
// as the AXL_SENSOR wakeup trigger rather than its own transmitted reading.
type AccelerometerSensor struct {
	*Generic
}

func NewAccelerometer(sensor hal.Sensor, enabled func() bool, periodicMs func() uint32) (*AccelerometerSensor, hal.LogFormatter) {
	cfg := Config{
		NumChannels:      3,
		Enabled:          enabled,
		PeriodicMs:       periodicMs,
		TxPeriodicMs:     func() uint32 { return 0 },
		TxMode:           func() TxMode { return TxModeOff },
		UsableUnderwater: true,
	}
	g := NewGeneric(cfg, sensor, populateN(logentry.TypeInfo, 3))
	return &AccelerometerSensor{g}, csvFormatter{header: "log_datetime,accel_x,accel_y,accel_z\r\n", columns: 3}
}
