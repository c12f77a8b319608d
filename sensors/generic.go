// Package sensors implements the generic environmental-sensor service
// (§4.5): periodic or GNSS-fix-synchronised sampling, with mean/median/
// oneshot aggregation into a single transmitted/logged reading. Grounded on
// the reference firmware's SensorService, generalised over the original's
// five concrete subclasses via service.Behavior.
package sensors

import (
	"sort"
	"time"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/service"
)

// TxMode selects how accumulated samples collapse into one transmitted
// value once a GNSS fix attempt ends.
type TxMode int

const (
	TxModeOff TxMode = iota
	TxModeOneshot
	TxModeMean
	TxModeMedian
)

// Reading is one aggregated or single-shot sample set, ready for a
// PopulateLogFunc to render into a fixed log entry.
type Reading struct {
	Channels []float64
	Time     time.Time
}

// PopulateLogFunc renders a Reading into the sensor's fixed-size log record.
type PopulateLogFunc func(r Reading) []byte

// Config parameterises Generic; the function fields read live from
// paramstore so a running service always reflects the current mode
// projection without needing to be restarted on every config write.
type Config struct {
	NumChannels      int
	Enabled          func() bool
	PeriodicMs       func() uint32
	TxPeriodicMs     func() uint32
	TxMode           func() TxMode
	UsableUnderwater bool
	Now              func() time.Time
}

// Generic is a service.Behavior implementing the original firmware's
// SensorService: it samples hal.Sensor on its own period when no GNSS fix
// is in progress (txMode == OFF logs every sample directly), or accumulates
// samples for the duration of a GNSS fix attempt and emits one aggregated
// reading when the GNSS service goes inactive. In oneshot mode it takes one
// sample per fix attempt without rescheduling, and the emitted reading is
// that first sample.
type Generic struct {
	cfg         Config
	sensor      hal.Sensor
	populateLog PopulateLogFunc
	base        *service.Base

	samples      [][]float64
	sampleNumber int
	gnssActive   bool
}

// NewGeneric constructs a Generic behavior. SetBase must be called with the
// service.Base that will drive it before Start.
func NewGeneric(cfg Config, sensor hal.Sensor, populateLog PopulateLogFunc) *Generic {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Generic{cfg: cfg, sensor: sensor, populateLog: populateLog}
}

// SetBase wires the owning service.Base, needed to emit completed readings.
func (g *Generic) SetBase(b *service.Base) { g.base = b }

func (g *Generic) Init() {
	g.gnssActive = false
	g.sampleNumber = 0
	g.resetSamples()
}

func (g *Generic) Term() {}

func (g *Generic) IsEnabled() bool { return g.cfg.Enabled() }

func (g *Generic) NextScheduleInMs() uint32 {
	if g.gnssActive {
		if g.sampleNumber == 0 {
			return 0
		}
		return g.cfg.TxPeriodicMs()
	}
	ms := g.cfg.PeriodicMs()
	if ms == 0 {
		return service.ScheduleDisabled
	}
	return ms
}

func (g *Generic) IsUsableUnderwater() bool { return g.cfg.UsableUnderwater }

// IsTriggeredOnEvent reacts to the GNSS service's active/inactive
// transitions: going active starts sample accumulation immediately; going
// inactive flushes any accumulated samples as one aggregated reading.
func (g *Generic) IsTriggeredOnEvent(e service.Event) bool {
	if g.cfg.TxMode() == TxModeOff {
		return false
	}
	if e.Source != service.ServiceGNSS {
		return false
	}
	switch e.Type {
	case service.EventActive:
		g.gnssActive = true
		g.sampleNumber = 0
		g.resetSamples()
		return true
	case service.EventInactive:
		g.gnssActive = false
		g.flushAggregated()
	}
	return false
}

func (g *Generic) Initiate() {
	switch {
	case g.gnssActive:
		g.sampleNumber++
		for ch := 0; ch < g.cfg.NumChannels; ch++ {
			v, err := g.sensor.Sample(ch)
			if err == nil {
				g.samples[ch] = append(g.samples[ch], v)
			}
		}
		if g.cfg.TxMode() == TxModeOneshot {
			g.base.CompleteNoReschedule(nil)
		} else {
			g.base.Complete(nil)
		}
	case g.cfg.TxMode() == TxModeOff:
		reading := Reading{Channels: make([]float64, g.cfg.NumChannels), Time: g.cfg.Now()}
		for ch := 0; ch < g.cfg.NumChannels; ch++ {
			v, _ := g.sensor.Sample(ch)
			reading.Channels[ch] = v
		}
		g.base.Complete(g.populateLog(reading))
	default:
		g.base.Complete(nil)
	}
}

func (g *Generic) flushAggregated() {
	if g.sampleNumber == 0 {
		return
	}
	reading := Reading{Channels: make([]float64, g.cfg.NumChannels), Time: g.cfg.Now()}
	for ch := 0; ch < g.cfg.NumChannels; ch++ {
		reading.Channels[ch] = aggregate(g.cfg.TxMode(), g.samples[ch])
	}
	g.base.CompleteNoReschedule(g.populateLog(reading))
	g.resetSamples()
	g.sampleNumber = 0
}

func (g *Generic) resetSamples() {
	g.samples = make([][]float64, g.cfg.NumChannels)
}

func aggregate(mode TxMode, v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	switch mode {
	case TxModeOneshot:
		return v[0]
	case TxModeMedian:
		sorted := append([]float64(nil), v...)
		sort.Float64s(sorted)
		return sorted[len(sorted)/2]
	default: // TxModeMean
		var sum float64
		for _, x := range v {
			sum += x
		}
		return sum / float64(len(v))
	}
}
