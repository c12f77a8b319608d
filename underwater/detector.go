// Package underwater implements the dive/surface debounce detector (§4.7):
// a running majority vote over a configurable number of samples decides
// whether the beacon is submerged, gating every service that isn't usable
// underwater. Grounded on the reference firmware's UWDetectorService.
package underwater

import (
	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/metrics"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/service"
)

// Source abstracts the physical means of telling wet from dry: a reed
// switch (SWS), a pressure-threshold crossing, or GNSS fix absence.
type Source interface {
	// IsWet reports the instantaneous, unfiltered reading. Detector applies
	// the debounce/majority-vote filtering on top of this.
	IsWet() (bool, error)
}

// SensorSource adapts a hal.Sensor whose single channel reads a reed-switch
// or pressure value against UnderwaterDetectThreshold.
type SensorSource struct {
	sensor    hal.Sensor
	threshold func() float64
}

// NewSensorSource builds a Source from a single-channel hal.Sensor; wet is
// reported when the sample is at or above the configured threshold.
func NewSensorSource(sensor hal.Sensor, threshold func() float64) *SensorSource {
	return &SensorSource{sensor: sensor, threshold: threshold}
}

func (s *SensorSource) IsWet() (bool, error) {
	v, err := s.sensor.Sample(0)
	if err != nil {
		return false, err
	}
	return v >= s.threshold(), nil
}

// Detector is the service.Behavior implementing the sample-and-vote dive
// detector. It also implements service.UnderwaterUsable, always returning
// true: the detector itself must keep sampling while submerged.
type Detector struct {
	source Source
	store  *paramstore.Store
	base   *service.Base
	log    logrus.FieldLogger

	sampleIteration uint32
	dryCount        uint32
	maxSamples      uint32
	minDrySamples   uint32
	sampleGapMs     uint32
	periodUnderMs   uint32
	periodSurfMs    uint32

	pendingState bool
	currentState bool
	isFirstTime  bool
}

// New constructs a Detector sampling source according to the parameters in
// store.
func New(source Source, store *paramstore.Store, log logrus.FieldLogger) *Detector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Detector{source: source, store: store, log: log}
}

// SetBase wires the owning service.Base.
func (d *Detector) SetBase(b *service.Base) { d.base = b }

func (d *Detector) Init() {
	d.isFirstTime = true
	d.sampleIteration = 0
	d.dryCount = 0
	d.pendingState = false
	d.currentState = false

	d.periodUnderMs = d.uint(paramstore.SamplingUnderFreqMs)
	d.periodSurfMs = d.uint(paramstore.SamplingSurfFreqMs)
	d.sampleGapMs = d.uint(paramstore.UWSampleGapMs)

	src, _ := d.store.Read(paramstore.UnderwaterDetectSource)
	srcEnum, _ := src.AsEnum()
	if paramstore.UnderwaterSource(srcEnum) == paramstore.UnderwaterSourceSWS {
		d.maxSamples = d.uint(paramstore.UWMaxSamples)
		d.minDrySamples = d.uint(paramstore.UWMinDrySamples)
	} else {
		d.maxSamples = 1
		d.minDrySamples = 1
	}
	if d.maxSamples == 0 {
		d.maxSamples = 1
	}
	if d.minDrySamples == 0 {
		d.minDrySamples = 1
	}
}

func (d *Detector) Term() {}

func (d *Detector) IsEnabled() bool {
	en, _ := d.store.Read(paramstore.UnderwaterEn)
	v, _ := en.AsBool()
	return v
}

// IsUsableUnderwater always returns true: the detector is the thing that
// decides underwater state and must not gate itself on it.
func (d *Detector) IsUsableUnderwater() bool { return true }

func (d *Detector) NextScheduleInMs() uint32 {
	if d.sampleIteration != 0 {
		return d.sampleGapMs
	}
	if d.isFirstTime {
		return 0
	}
	if d.currentState {
		return d.periodUnderMs
	}
	return d.periodSurfMs
}

func (d *Detector) Initiate() {
	wet, err := d.source.IsWet()
	if err != nil {
		d.log.WithError(err).Warn("underwater: source read failed")
		d.base.Complete(nil)
		return
	}

	d.sampleIteration++
	if wet {
		d.pendingState = true
	} else {
		d.dryCount++
		if d.dryCount >= d.minDrySamples {
			d.sampleIteration = d.maxSamples // terminate the vote early
			d.pendingState = false
		}
	}

	if d.sampleIteration >= d.maxSamples {
		d.sampleIteration = 0
		d.dryCount = 0
		changed := d.pendingState != d.currentState || d.isFirstTime
		state := d.pendingState
		d.pendingState = false
		if changed {
			d.isFirstTime = false
			d.currentState = state
			if state {
				metrics.UnderwaterState.Set(1)
			} else {
				metrics.UnderwaterState.Set(0)
			}
			d.base.CompleteWithEvent(nil, state)
			return
		}
	}
	d.base.Complete(nil)
}

func (d *Detector) uint(id paramstore.ParamID) uint32 {
	v, err := d.store.Read(id)
	if err != nil {
		return 0
	}
	u, _ := v.AsUint()
	return uint32(u)
}
