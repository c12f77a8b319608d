// Package gnss implements the GNSS acquisition service (§4.6): schedule
// selection (accelerated first fix, nominal vs cold-start-retry period,
// UTC-aligned wakeups), HDOP/HACC-filtered fix handling, RTC-set-from-fix
// on the very first lock, and underwater/AXL-wakeup gating. Grounded on the
// reference firmware's GPSService/gnss_detector_service.
package gnss

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/logentry"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/scheduler"
	"github.com/arribada/horizon-core/service"
)

// firstAcqPeriodSec accelerates the very first acquisition after boot so
// the beacon gets a fix (and can set its RTC) quickly.
const firstAcqPeriodSec = 30

// Service is the service.Behavior driving GNSS power-on/off cycles.
type Service struct {
	device  hal.GNSSDevice
	store   *paramstore.Store
	rtc     hal.RTC
	battery hal.BatteryMonitor
	sched   *scheduler.Scheduler
	base    *service.Base
	log     logrus.FieldLogger
	now     func() time.Time
	nowMs   func() uint64

	mu            sync.Mutex
	active        bool
	firstFixFound bool
	firstSchedule bool
	numFixes      int
	wakeupMs      uint64
	pendingFix    *hal.PVTData
	pendingBusy   bool
}

// New constructs a gnss.Service.
func New(device hal.GNSSDevice, store *paramstore.Store, rtc hal.RTC, battery hal.BatteryMonitor, sched *scheduler.Scheduler, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		device: device, store: store, rtc: rtc, battery: battery, sched: sched, log: log,
		now: time.Now, nowMs: func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
}

// SetBase wires the owning service.Base.
func (s *Service) SetBase(b *service.Base) { s.base = b }

func (s *Service) Init() {
	s.active = false
	s.firstFixFound = false
	s.firstSchedule = true
	s.numFixes = 0
}

func (s *Service) Term() {}

func (s *Service) IsEnabled() bool { return s.store.GetGNSSConfiguration().Enable }

func (s *Service) NextScheduleInMs() uint32 {
	cfg := s.store.GetGNSSConfiguration()
	now := s.now().Unix()

	var aqPeriod uint32
	switch {
	case s.firstSchedule:
		aqPeriod = firstAcqPeriodSec
	case s.firstFixFound:
		aqPeriod = cfg.DlocArgSeconds
	default:
		aqPeriod = cfg.ColdStartRetryPeriod
	}
	if aqPeriod == 0 {
		return service.ScheduleDisabled
	}

	next := now - now%int64(aqPeriod) + int64(aqPeriod)
	return uint32((next - now) * 1000)
}

func (s *Service) Initiate() {
	cfg := s.store.GetGNSSConfiguration()
	acqTimeoutMs := cfg.AcqTimeoutMs * 1000
	if !s.firstFixFound {
		acqTimeoutMs = cfg.ColdAcqTimeoutMs * 1000
	}

	settings := hal.NavSettings{
		FixMode:              int(cfg.FixMode),
		DynModel:             int(cfg.DynModel),
		AcquisitionTimeoutMs: acqTimeoutMs,
		HDOPFilterEnable:     cfg.HDOPFilterEnable,
		HDOPFilterThreshold:  cfg.HDOPFilterThreshold,
		HAccFilterEnable:     cfg.HAccFilterEnable,
		HAccFilterThreshold:  cfg.HAccFilterThreshold,
		AssistNowEnable:      cfg.AssistNowEnable,
		AssistNowOfflineEn:   cfg.AssistNowOfflineEn,
	}

	s.firstSchedule = false
	s.wakeupMs = s.nowMs()
	s.active = true

	if err := s.device.PowerOn(settings, s); err != nil {
		s.log.WithError(err).Warn("gnss: power on failed")
		s.active = false
		s.base.Complete(s.invalidEntry())
	}
}

// Cancel force-powers-off an in-flight acquisition, as required when the
// device submerges or the service is stopped.
func (s *Service) Cancel() bool {
	if !s.active {
		return false
	}
	s.active = false
	s.device.PowerOff()
	s.base.Complete(s.invalidEntry())
	return true
}

func (s *Service) IsUsableUnderwater() bool { return false }

// IsTriggeredOnSurfaced reschedules immediately on surfacing when
// GNSS_TRIGGER_ON_SURFACED is set.
func (s *Service) IsTriggeredOnSurfaced() bool {
	return s.store.GetGNSSConfiguration().TriggerOnSurfaced
}

// IsTriggeredOnEvent reacts to the accelerometer wakeup trigger.
func (s *Service) IsTriggeredOnEvent(e service.Event) bool {
	if e.Source != service.ServiceAccelerometer || e.Type != service.EventLogUpdated {
		return false
	}
	triggered, _ := s.store.Read(paramstore.GNSSTriggerOnAxlWakeup)
	v, _ := triggered.AsBool()
	return v
}

// OnGNSSEvent implements hal.GNSSListener.
func (s *Service) OnGNSSEvent(e hal.GNSSEvent) {
	switch e.Type {
	case hal.GNSSPVT:
		s.onPVT(e.PVT)
	case hal.GNSSPowerOff:
		s.onPowerOff(e.FixFound)
	case hal.GNSSError:
		s.log.Warn("gnss: device reported error")
	}
}

func (s *Service) onPVT(pvt hal.PVTData) {
	if !s.active {
		return
	}
	s.mu.Lock()
	if s.pendingBusy {
		s.mu.Unlock()
		return
	}
	s.pendingBusy = true
	fix := pvt
	s.pendingFix = &fix
	s.mu.Unlock()

	s.sched.Post(func() { s.processFix() }, "gnss.process", scheduler.DefaultPriority, 0)
}

func (s *Service) processFix() {
	s.mu.Lock()
	fix := s.pendingFix
	s.pendingFix = nil
	s.mu.Unlock()
	if fix == nil {
		return
	}

	wasFirstFix := !s.firstFixFound
	s.firstFixFound = true
	s.numFixes++

	s.store.SetLastFix(paramstore.LastFix{Valid: true, LonDeg: fix.LonDeg, LatDeg: fix.LatDeg})

	if wasFirstFix && !s.rtc.IsSet() {
		s.rtc.SetTime(fix.Time)
	}

	onTimeMs := s.nowMs() - s.wakeupMs
	entry := s.pvtLogEntry(fix, onTimeMs)

	s.active = false
	s.device.PowerOff()
	s.mu.Lock()
	s.pendingBusy = false
	s.mu.Unlock()

	s.base.Complete(entry)
}

func (s *Service) onPowerOff(fixFound bool) {
	if !s.active {
		return
	}
	s.active = false
	s.device.PowerOff()
	if !fixFound {
		s.base.Complete(s.invalidEntry())
	}
}

func (s *Service) invalidEntry() []byte {
	var hdr logentry.Header
	hdr.Type = logentry.TypeGPS
	hdr.SetTime(s.now())
	payload := make([]byte, 1)
	payload[0] = 0 // valid=false
	return logentry.Encode(hdr, payload)
}

// fixPayloadSize is 1 validity byte plus 12 float64 fields (§3 GNSS Log
// Entry); the extra four slots beyond the original acquisition bookkeeping
// (speed, heading, MSL height, fix type) carry what the Argos depth pile
// needs to build short/long packets without re-deriving them from the raw
// device.
const fixPayloadSize = 1 + 12*8

func (s *Service) pvtLogEntry(fix *hal.PVTData, onTimeMs uint64) []byte {
	var hdr logentry.Header
	hdr.Type = logentry.TypeGPS
	hdr.SetTime(fix.Time)

	payload := make([]byte, fixPayloadSize)
	payload[0] = 1 // valid=true
	logentry.PutFloat64(payload, 1, fix.LonDeg)
	logentry.PutFloat64(payload, 9, fix.LatDeg)
	logentry.PutFloat64(payload, 17, float64(fix.HeightMM))
	logentry.PutFloat64(payload, 25, float64(fix.HAccMM))
	logentry.PutFloat64(payload, 33, fix.HDOP)
	logentry.PutFloat64(payload, 41, float64(fix.NumSV))
	logentry.PutFloat64(payload, 49, float64(onTimeMs))
	logentry.PutFloat64(payload, 57, float64(fix.TTFFMs))
	logentry.PutFloat64(payload, 65, float64(fix.GSpeedMMs))
	logentry.PutFloat64(payload, 73, fix.HeadMotDeg)
	logentry.PutFloat64(payload, 81, float64(fix.HMSLMm))
	logentry.PutFloat64(payload, 89, float64(fix.FixType))
	return logentry.Encode(hdr, payload)
}

// Fix is a decoded GNSS log record, as consumed by the Argos depth pile.
type Fix struct {
	Time       time.Time
	Valid      bool
	LonDeg     float64
	LatDeg     float64
	HAccMM     uint32
	HDOP       float64
	NumSV      int
	GSpeedMMs  uint32
	HeadMotDeg float64
	HMSLMm     int32
	FixType    int
}

// DecodeFix reverses pvtLogEntry/invalidEntry, reading a raw hal.Logger
// record back into a Fix.
func DecodeFix(record []byte) Fix {
	hdr, payload := logentry.Decode(record)
	f := Fix{Time: hdr.Time()}
	if len(payload) < 1 || payload[0] == 0 {
		return f
	}
	if len(payload) < fixPayloadSize {
		return f
	}
	f.Valid = true
	f.LonDeg = logentry.Float64(payload, 1)
	f.LatDeg = logentry.Float64(payload, 9)
	f.HAccMM = uint32(logentry.Float64(payload, 25))
	f.HDOP = logentry.Float64(payload, 33)
	f.NumSV = int(logentry.Float64(payload, 41))
	f.GSpeedMMs = uint32(logentry.Float64(payload, 65))
	f.HeadMotDeg = logentry.Float64(payload, 73)
	f.HMSLMm = int32(logentry.Float64(payload, 81))
	f.FixType = int(logentry.Float64(payload, 89))
	return f
}
