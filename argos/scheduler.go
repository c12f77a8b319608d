package argos

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/gnss"
	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/metrics"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/scheduler"
	"github.com/arribada/horizon-core/service"
)

// txJitterRangeMs bounds update_tx_jitter's uniform draw.
const txJitterRangeMs = 5000

// burstKind names the packet Scheduler.Initiate is about to send.
type burstKind int

const (
	burstNone burstKind = iota
	burstCertification
	burstTimeSync
	burstDoppler
	burstShort
	burstLong
)

// Scheduler is the service.Behavior driving Argos transmit/receive cycles
// (§4.8, §4.9), grounded on the reference firmware's ArgosScheduler: mode
// priority (certification > off > time-sync > duty-cycle/legacy > pass
// prediction), jittered periodic/pass-predicted scheduling, depth-pile
// burst assembly, and the AOP downlink merge.
type Scheduler struct {
	device     hal.ArgosDevice
	store      *paramstore.Store
	gnssLogger hal.Logger
	battery    hal.BatteryMonitor
	depthPile  *DepthPile
	predictor  PassPredictor
	aopStore   AOPPersister
	sched      *scheduler.Scheduler
	base       *service.Base
	log        logrus.FieldLogger
	now        func() time.Time

	mu                sync.Mutex
	rng               *rand.Rand
	lastSchedule      time.Time
	earliestSchedule  time.Time
	timeSyncBurstSent bool
	isTxPending       bool
	pendingKind       burstKind
	rxWindow          rxWindow
	rxOpen            bool
	rxOpenedAt        time.Time
	lastCertTX        time.Time
}

// New constructs an argos.Scheduler.
func New(device hal.ArgosDevice, store *paramstore.Store, gnssLogger hal.Logger, battery hal.BatteryMonitor, aopStore AOPPersister, sched *scheduler.Scheduler, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		device:     device,
		store:      store,
		gnssLogger: gnssLogger,
		battery:    battery,
		depthPile:  NewDepthPile(),
		predictor:  LinearPassPredictor{},
		aopStore:   aopStore,
		sched:      sched,
		log:        log,
		now:        time.Now,
	}
}

// SetBase wires the owning service.Base.
func (sch *Scheduler) SetBase(b *service.Base) { sch.base = b }

// Init resets all scheduling state, matching ArgosScheduler::start(): the
// jitter PRNG is reseeded from the device's Argos ID so repeat deployments
// with the same ID see the same jitter sequence, and the downlink window is
// invalidated.
func (sch *Scheduler) Init() {
	cfg := sch.store.GetArgosConfiguration()
	sch.device.Subscribe(sch)
	sch.device.SetDeviceIdentifier(cfg.HexID)
	sch.device.SetFrequency(cfg.Freq)
	sch.device.SetTxPower(int(cfg.Power))
	sch.device.SetTCXOWarmupTime(cfg.TCXOWarmupTimeMs)

	sch.mu.Lock()
	defer sch.mu.Unlock()

	sch.rng = rand.New(rand.NewSource(int64(cfg.HexID) + 1))
	sch.isTxPending = false
	sch.pendingKind = burstNone
	sch.timeSyncBurstSent = false
	sch.lastSchedule = time.Time{}
	sch.earliestSchedule = time.Time{}
	sch.rxWindow = rxWindow{}
	sch.rxOpen = false
}

func (sch *Scheduler) Term() {
	sch.device.StopSend()
	sch.device.StopReceive()
	sch.device.Unsubscribe()
}

// IsEnabled is always true: certification TX, and the RX-window gate, both
// need to keep running even when the ordinary TX mode is OFF.
func (sch *Scheduler) IsEnabled() bool { return true }

// NextScheduleInMs implements the mode-priority schedule selection (§4.8).
func (sch *Scheduler) NextScheduleInMs() uint32 {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	now := sch.now()
	cfg := sch.store.GetArgosConfiguration()
	when, kind := sch.computeScheduleLocked(now, cfg)
	if kind == burstNone {
		return service.ScheduleDisabled
	}
	if !when.After(now) {
		return 0
	}
	return uint32(when.Sub(now).Milliseconds())
}

// computeScheduleLocked returns the next due time and burst kind, following
// the reference firmware's strict priority order. Callers must hold mu.
func (sch *Scheduler) computeScheduleLocked(now time.Time, cfg paramstore.ArgosConfig) (time.Time, burstKind) {
	if cfg.CertTXEnable {
		if sch.lastCertTX.IsZero() {
			return now, burstCertification
		}
		return sch.lastCertTX.Add(time.Duration(cfg.CertTXRepetition) * time.Second), burstCertification
	}

	if cfg.Mode == paramstore.ArgosModeOff {
		return time.Time{}, burstNone
	}

	if cfg.TimeSyncBurstEnable && !sch.timeSyncBurstSent && sch.depthPile.Len() > 0 {
		return now, burstTimeSync
	}

	switch cfg.Mode {
	case paramstore.ArgosModeDutyCycle, paramstore.ArgosModeLegacy:
		when, ok := sch.schedulePeriodicLocked(now, cfg)
		if !ok {
			return time.Time{}, burstNone
		}
		return when, sch.burstKindFor()
	case paramstore.ArgosModePassPrediction:
		if !cfg.GNSSEnable {
			return time.Time{}, burstNone
		}
		fix := sch.store.GetLastFix()
		if !fix.Valid {
			return time.Time{}, burstNone
		}
		when, ok := sch.schedulePrepassLocked(now, cfg, fix)
		if !ok {
			return time.Time{}, burstNone
		}
		return when, sch.burstKindFor()
	}
	return time.Time{}, burstNone
}

func (sch *Scheduler) burstKindFor() burstKind {
	if sch.depthPile.Len() == 0 {
		return burstDoppler
	}
	return burstShort
}

// isInDutyCycle tests bit (23-hour) of the 24-bit DUTY_CYCLE mask; the
// DUTY_CYCLE/LEGACY sentinel 0xFFFFFF permits every hour.
func isInDutyCycle(mask uint32, t time.Time) bool {
	hour := t.UTC().Hour()
	return mask&(1<<uint(23-hour)) != 0
}

// schedulePeriodicLocked implements schedule_periodic: an outstanding
// earliest_schedule (from a recent dry-transition) is honored first if it
// still lies in the future and in the duty cycle; otherwise the candidate
// advances in tr_nom steps from the last schedule (or now), searching up to
// 24h for a duty-cycle-permitted instant.
func (sch *Scheduler) schedulePeriodicLocked(now time.Time, cfg paramstore.ArgosConfig) (time.Time, bool) {
	trNom := time.Duration(cfg.TrNomSeconds) * time.Second
	if trNom <= 0 {
		trNom = time.Minute
	}

	if sch.earliestSchedule.After(now) {
		candidate := sch.earliestSchedule
		if sch.lastSchedule.After(candidate) {
			candidate = sch.lastSchedule
		}
		if isInDutyCycle(cfg.DutyCycleOrRepSeconds, candidate) {
			return candidate, true
		}
	}

	var candidate time.Time
	if !sch.lastSchedule.IsZero() {
		candidate = sch.lastSchedule.Add(trNom).Add(sch.jitterLocked(cfg))
	} else {
		jitter := sch.jitterLocked(cfg)
		if jitter < 0 {
			jitter = 0
		}
		candidate = now.Add(jitter)
	}

	for i := 0; i < 24*int(time.Hour/trNom)+1; i++ {
		if !candidate.Before(now) && isInDutyCycle(cfg.DutyCycleOrRepSeconds, candidate) {
			return candidate, true
		}
		candidate = candidate.Add(trNom)
		if candidate.Sub(now) > 24*time.Hour {
			break
		}
	}
	return time.Time{}, false
}

// schedulePrepassLocked implements schedule_prepass: it walks predicted
// passes forward from max(now, earliest_schedule), accepting the first one
// whose jittered candidate schedule still leaves ARGOS_TX_MARGIN_MSECS
// before the pass ends, and records an RX window on the first downlink-
// capable pass when RX is enabled (shouldOpenRX applies the AOP-freshness
// gate when the window is later driven).
func (sch *Scheduler) schedulePrepassLocked(now time.Time, cfg paramstore.ArgosConfig, fix paramstore.LastFix) (time.Time, bool) {
	start := now
	if sch.earliestSchedule.After(start) {
		start = sch.earliestSchedule
	}
	windowEnd := now.Add(24 * time.Hour)

	aop, err := sch.aopStore.Load()
	if err != nil {
		aop = AOPTable{}
	}

	trNom := time.Duration(cfg.TrNomSeconds) * time.Second
	rxWindowSet := false

	for i := uint32(0); i < cfg.PPMaxPasses || cfg.PPMaxPasses == 0; i++ {
		pass, ok := sch.predictor.NextPass(PassConfig{
			Now:             start,
			WindowEnd:       windowEnd,
			LatDeg:          fix.LatDeg,
			LonDeg:          fix.LonDeg,
			MinElevationDeg: cfg.PPMinElevation,
			MaxElevationDeg: cfg.PPMaxElevation,
			MinDurationSec:  cfg.PPMinDuration,
			MaxPasses:       cfg.PPMaxPasses,
		}, aop.Entries)
		if !ok {
			break
		}

		if !rxWindowSet && cfg.RxEnable && pass.DownlinkStatus != DownlinkOff {
			sch.rxWindow = rxWindow{start: pass.Epoch, end: pass.End(), valid: true}
			rxWindowSet = true
		}

		candidate := pass.Epoch
		if !sch.lastSchedule.IsZero() && sch.lastSchedule.Add(trNom).After(candidate) {
			candidate = sch.lastSchedule.Add(trNom)
		}
		candidate = candidate.Add(sch.jitterLocked(cfg))
		if candidate.Before(start) {
			candidate = start
		}
		if candidate.Before(now) {
			candidate = now
		}

		if candidate.Add(argosTxMarginMsecs * time.Millisecond).Before(pass.End()) {
			return candidate, true
		}

		start = pass.End()
		if !start.Before(windowEnd) {
			break
		}
	}
	return time.Time{}, false
}

func (sch *Scheduler) jitterLocked(cfg paramstore.ArgosConfig) time.Duration {
	if !cfg.TxJitterEnable || sch.rng == nil {
		return 0
	}
	n := sch.rng.Intn(2*txJitterRangeMs+1) - txJitterRangeMs
	return time.Duration(n) * time.Millisecond
}

// Initiate sends whatever burst NextScheduleInMs selected. Because Base's
// underwater-surfacing reschedule is immediate rather than delayed, Initiate
// re-checks the computed schedule and, if it's not actually due yet (an
// outstanding dry-time delay, typically), simply reschedules instead of
// transmitting.
func (sch *Scheduler) Initiate() {
	sch.mu.Lock()
	now := sch.now()
	cfg := sch.store.GetArgosConfiguration()
	when, kind := sch.computeScheduleLocked(now, cfg)
	if kind == burstNone {
		sch.mu.Unlock()
		sch.base.Complete(nil)
		return
	}
	if when.After(now) {
		sch.mu.Unlock()
		sch.base.Complete(nil)
		return
	}

	packet, bits, mode, resolvedKind, err := sch.buildBurstLocked(kind, cfg)
	if err != nil {
		sch.log.WithError(err).Warn("argos: failed to build burst")
		sch.mu.Unlock()
		sch.base.Complete(nil)
		return
	}

	sch.lastSchedule = now
	sch.isTxPending = true
	sch.pendingKind = resolvedKind
	sch.mu.Unlock()

	if err := sch.device.Send(hal.ArgosMode(mode), packet, bits); err != nil {
		sch.log.WithError(err).Warn("argos: send failed")
		sch.mu.Lock()
		sch.isTxPending = false
		sch.mu.Unlock()
		sch.base.Complete(nil)
		return
	}
	metrics.ArgosTxTotal.WithLabelValues(resolvedKind.label()).Inc()
}

func (k burstKind) label() string {
	switch k {
	case burstCertification:
		return "certification"
	case burstTimeSync:
		return "time_sync"
	case burstDoppler:
		return "doppler"
	case burstShort:
		return "short"
	case burstLong:
		return "long"
	default:
		return "none"
	}
}

func (sch *Scheduler) buildBurstLocked(kind burstKind, cfg paramstore.ArgosConfig) ([]byte, int, paramstore.ArgosModulation, burstKind, error) {
	battMV := uint16(0)
	if sch.battery != nil {
		battMV = sch.battery.GetVoltageMV()
	}
	lowBatt := sch.store.IsBatteryLow()
	outOfZone := sch.store.IsZoneExclusion()

	switch kind {
	case burstCertification:
		packet, bits, mode, err := BuildCertification(cfg.CertTXPayload, cfg.CertTXModulation)
		if err != nil {
			return nil, 0, 0, burstNone, err
		}
		return packet, bits, mode, burstCertification, nil

	case burstTimeSync, burstDoppler:
		sch.timeSyncBurstSent = sch.timeSyncBurstSent || kind == burstTimeSync
		return BuildDoppler(battMV, lowBatt), dopplerPacketBits, paramstore.ArgosModulationA2, kind, nil

	default:
		burst, ok := sch.depthPile.Retrieve(int(cfg.DepthPile))
		if !ok {
			return BuildDoppler(battMV, lowBatt), dopplerPacketBits, paramstore.ArgosModulationA2, burstDoppler, nil
		}
		if burst.Long == nil {
			return BuildShort(burst.Short, outOfZone, battMV, lowBatt), shortPacketBits, paramstore.ArgosModulationA2, burstShort, nil
		}
		dtl := sch.store.DeltaTimeLocFor(cfg.DlocArgSeconds)
		return BuildLong(burst.Long, outOfZone, battMV, lowBatt, dtl), longPacketBits, paramstore.ArgosModulationA2, burstLong, nil
	}
}

// Cancel aborts an in-flight transmission/receive, e.g. on submersion.
func (sch *Scheduler) Cancel() bool {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	cancelled := false
	if sch.isTxPending {
		sch.device.StopSend()
		sch.isTxPending = false
		cancelled = true
	}
	if sch.rxOpen {
		sch.device.StopReceive()
		sch.rxOpen = false
		cancelled = true
	}
	return cancelled
}

func (sch *Scheduler) IsUsableUnderwater() bool { return false }

// IsTriggeredOnSurfaced wakes the scheduler immediately on surfacing;
// Initiate's due-time recheck turns this into the dry-time-before-tx delay
// rather than an instant transmission.
func (sch *Scheduler) IsTriggeredOnSurfaced() bool { return true }

// IsTriggeredOnEvent consumes GNSS fixes into the depth pile and records the
// dry-time-before-tx deadline on a wet-to-dry transition; it never itself
// forces an immediate reschedule (that's IsTriggeredOnSurfaced's job).
func (sch *Scheduler) IsTriggeredOnEvent(e service.Event) bool {
	if e.Source == service.ServiceGNSS && e.Type == service.EventLogUpdated {
		sch.consumeLatestFix()
	}
	if e.Source == service.ServiceUnderwater && e.Type == service.EventLogUpdated {
		// Data is the detector's new underwater state: false means surfaced.
		if underwater, ok := e.Data.(bool); ok && !underwater {
			cfg := sch.store.GetArgosConfiguration()
			sch.mu.Lock()
			sch.earliestSchedule = sch.now().Add(time.Duration(cfg.DryTimeBeforeTXMs) * time.Millisecond)
			sch.mu.Unlock()
		}
	}
	return false
}

// consumeLatestFix reads the most recently logged GNSS fix and stores it in
// the depth pile, matching notify_sensor_log_update.
func (sch *Scheduler) consumeLatestFix() {
	if sch.gnssLogger == nil {
		return
	}
	n, err := sch.gnssLogger.NumEntries()
	if err != nil || n == 0 {
		return
	}
	raw, err := sch.gnssLogger.Read(n - 1)
	if err != nil {
		return
	}
	fix := gnss.DecodeFix(raw)

	cfg := sch.store.GetArgosConfiguration()
	sch.mu.Lock()
	sch.depthPile.Store(fix, cfg.Mode, cfg.NtryPerMessage)
	sch.mu.Unlock()
	metrics.ArgosDepthPileDepth.Set(float64(sch.depthPile.Len()))
}

// OnArgosEvent implements hal.ArgosListener, mapping device events onto
// handle_event's TX/RX bookkeeping.
func (sch *Scheduler) OnArgosEvent(e hal.ArgosEvent) {
	switch e.Type {
	case hal.ArgosTxStarted:
		// nothing to do beyond what Initiate already recorded.
	case hal.ArgosTxComplete:
		sch.sched.Post(func() { sch.onTxDone() }, "argos.tx_done", scheduler.DefaultPriority, 0)
	case hal.ArgosRxPacket:
		packet := e.RxPacket
		sch.sched.Post(func() { sch.onRxPacket(packet) }, "argos.rx_packet", scheduler.DefaultPriority, 0)
	case hal.ArgosDeviceError:
		sch.sched.Post(func() { sch.onDeviceError() }, "argos.device_error", scheduler.DefaultPriority, 0)
	case hal.ArgosPowerOff:
	}
}

func (sch *Scheduler) onTxDone() {
	sch.mu.Lock()
	kind := sch.pendingKind
	sch.isTxPending = false
	sch.pendingKind = burstNone
	if kind == burstCertification {
		sch.lastCertTX = sch.now()
	}
	sch.mu.Unlock()

	sch.store.SetLastTX(sch.now())
	sch.store.IncrementTxCounter()
	sch.store.Save()
	sch.processRx()
	sch.base.Complete(nil)
}

func (sch *Scheduler) onDeviceError() {
	sch.mu.Lock()
	wasPending := sch.isTxPending
	sch.isTxPending = false
	sch.pendingKind = burstNone
	sch.rxWindow = sch.rxWindow.closed()
	sch.mu.Unlock()
	if wasPending {
		sch.device.StopSend()
	}
	sch.processRx()
	sch.base.Complete(nil)
}

// onRxPacket is handle_rx_packet's counter/persist half (increment_rx_counter,
// save_params). The other half, PassPredictCodec::decode's satellite AOP
// bulletin wire format, is not part of this module: the reference source
// only ships its call sites (argos_scheduler.cpp, dte_handler.hpp), never
// PassPredictCodec's own implementation, so there is nothing here to port
// faithfully. MergeAOP/applyAOPUpdate (update_pass_predict) are fully
// implemented and reachable through Scheduler.MergeDownlink for whatever
// decoder is wired up once the real ARTIC downlink format is available;
// onRxPacket itself never calls it, so raw RxPacket bytes are only counted.
func (sch *Scheduler) onRxPacket(packet []byte) {
	sch.store.IncrementRxCounter()
	sch.store.Save()
	_ = packet
}

// processRx opens or closes the receiver according to shouldOpenRX's gate.
func (sch *Scheduler) processRx() {
	sch.mu.Lock()
	cfg := sch.store.GetArgosConfiguration()
	now := sch.now()
	open := shouldOpenRX(now, cfg, sch.rxWindow, cfg.CertTXEnable, sch.isTxPending)
	wasOpen := sch.rxOpen
	sch.mu.Unlock()

	if open && !wasOpen {
		if err := sch.device.StartReceive(hal.ArgosModeA3); err != nil {
			sch.log.WithError(err).Warn("argos: start receive failed")
			return
		}
		sch.mu.Lock()
		sch.rxOpen = true
		sch.rxOpenedAt = now
		sch.mu.Unlock()
	} else if !open && wasOpen {
		sch.device.StopReceive()
		sch.mu.Lock()
		sch.rxOpen = false
		elapsed := uint32(now.Sub(sch.rxOpenedAt).Seconds())
		sch.mu.Unlock()
		updateRxTime(sch.store, elapsed)
	}
}

// MergeDownlink feeds a caller-decoded batch of AOP records (from whatever
// decodes the Argos downlink wire format) through update_pass_predict, and
// closes the RX window once the merge completes.
func (sch *Scheduler) MergeDownlink(records []AOPEntry) {
	_, complete := applyAOPUpdate(sch.store, sch.aopStore, sch.now(), records)
	if complete {
		sch.mu.Lock()
		sch.rxWindow = sch.rxWindow.closed()
		sch.mu.Unlock()
		sch.processRx()
	}
}
