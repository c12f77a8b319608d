// Package service implements the cooperative service framework every
// sensor/radio component builds on: enable/schedule/timeout/cancel
// lifecycle, underwater gating, and a peer event bus (§4.4), grounded on
// the reference firmware's Service/ServiceManager.
package service

import (
	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/metrics"
	"github.com/arribada/horizon-core/scheduler"
)

// ServiceIdentifier names a service for logging, peer events and log lookup.
type ServiceIdentifier int

const (
	ServiceGNSS ServiceIdentifier = iota
	ServiceArgos
	ServiceUnderwater
	ServicePH
	ServiceConductivityDepthTemp
	ServicePressure
	ServiceAmbientLight
	ServiceSeaTemperature
	ServiceAccelerometer
	ServiceBattery
)

// EventType enumerates the notifications a Base emits to the manager's
// subscriber.
type EventType int

const (
	EventLogUpdated EventType = iota
	EventActive
	EventInactive
)

// Event is delivered to the ServiceManager's data-notification callback and
// rebroadcast to every other service as a peer event.
type Event struct {
	Type   EventType
	Source ServiceIdentifier
	Data   any
}

// ScheduleDisabled, returned from Behavior.NextScheduleInMs, means the
// service is currently not due to run at all.
const ScheduleDisabled = ^uint32(0)

// Behavior is the logic a concrete service (gnss.Service, sensors.Generic,
// argos.Scheduler, underwater.Detector, ...) must supply; Base drives it
// through the schedule/timeout/cancel lifecycle.
type Behavior interface {
	Init()
	Term()
	IsEnabled() bool
	NextScheduleInMs() uint32
	Initiate()
}

// Canceller lets a Behavior abort in-flight work, e.g. when forced
// underwater or stopped; the return value reports whether anything was
// actually cancelled (and so an Inactive event is due).
type Canceller interface {
	Cancel() bool
}

// Timeouter lets a Behavior bound how long Initiate is allowed to run before
// Base force-cancels it.
type Timeouter interface {
	NextTimeoutMs() uint32
}

// SurfaceTriggered lets a Behavior opt into an immediate reschedule the
// moment the vehicle surfaces, instead of waiting for its normal period.
type SurfaceTriggered interface {
	IsTriggeredOnSurfaced() bool
}

// UnderwaterUsable lets a Behavior opt out of underwater gating entirely
// (e.g. a pressure sensor that works underwater by design).
type UnderwaterUsable interface {
	IsUsableUnderwater() bool
}

// PeerEventTriggered lets a Behavior react to another service's event by
// requesting an immediate run.
type PeerEventTriggered interface {
	IsTriggeredOnEvent(e Event) bool
}

// Base is the generic service runtime: it owns the schedule/timeout task
// handles and underwater/started state, and forwards lifecycle calls to a
// Behavior. Concrete packages embed Base and supply a Behavior.
type Base struct {
	id         ServiceIdentifier
	name       string
	behavior   Behavior
	sched      *scheduler.Scheduler
	logger     hal.Logger
	log        logrus.FieldLogger
	notify     func(Event)
	started    bool
	underwater bool
	periodH    scheduler.Handle
	timeoutH   scheduler.Handle
}

// NewBase constructs a Base bound to behavior, driven by sched.
func NewBase(id ServiceIdentifier, name string, behavior Behavior, sched *scheduler.Scheduler, logger hal.Logger, log logrus.FieldLogger) *Base {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Base{id: id, name: name, behavior: behavior, sched: sched, logger: logger, log: log}
}

func (b *Base) ID() ServiceIdentifier { return b.id }
func (b *Base) Name() string          { return b.name }
func (b *Base) Logger() hal.Logger    { return b.logger }
func (b *Base) SetLogger(l hal.Logger) { b.logger = l }
func (b *Base) IsStarted() bool       { return b.started }

// Start brings the service up: notify is the callback future events (log
// updates, active/inactive transitions) are delivered through.
func (b *Base) Start(notify func(Event)) {
	b.log.WithField("service", b.name).Debug("service started")
	b.started = true
	b.notify = notify
	b.behavior.Init()
	b.reschedule(false)
}

// Stop tears the service down, cancelling any in-flight work.
func (b *Base) Stop() {
	b.log.WithField("service", b.name).Debug("service stopped")
	if !b.started {
		return
	}
	b.started = false
	b.deschedule()
	if b.cancel() {
		b.notifyInactive()
	}
	b.behavior.Term()
}

// NotifyUnderwaterState updates the cached underwater flag and reschedules:
// a usable-underwater service ignores this entirely; otherwise going
// underwater cancels in-flight work, and surfacing reschedules immediately
// if the behavior opted into SurfaceTriggered.
func (b *Base) NotifyUnderwaterState(underwater bool) {
	if uw, ok := b.behavior.(UnderwaterUsable); ok && uw.IsUsableUnderwater() {
		return
	}
	b.underwater = underwater
	if b.underwater {
		if b.cancel() {
			b.notifyInactive()
			b.reschedule(false)
		}
	} else if st, ok := b.behavior.(SurfaceTriggered); ok && st.IsTriggeredOnSurfaced() {
		b.reschedule(true)
	}
}

// NotifyPeerEvent offers event to the Behavior; if it implements
// PeerEventTriggered and opts in, the service is rescheduled immediately.
//
// Every service also gets a default reaction to the underwater detector's
// own events, mirroring the reference firmware where underwater gating
// rides the same peer event bus as any other cross-service trigger: a log
// update from ServiceUnderwater carries the new submerged/surfaced state,
// which is applied via NotifyUnderwaterState.
func (b *Base) NotifyPeerEvent(event Event) {
	if event.Source == ServiceUnderwater && event.Type == EventLogUpdated {
		if state, ok := event.Data.(bool); ok {
			b.NotifyUnderwaterState(state)
		}
	}
	if pt, ok := b.behavior.(PeerEventTriggered); ok && pt.IsTriggeredOnEvent(event) {
		b.reschedule(true)
	}
}

// Complete records a produced log entry (if any), notifies subscribers of
// the update, and reschedules the service for its next run.
func (b *Base) Complete(entry []byte) {
	b.complete(entry, true)
}

// CompleteNoReschedule is Complete without arming the next period; used by
// behaviors (e.g. sensors.Generic in oneshot-tx mode) that hold the service
// idle until a peer event (GNSS going inactive) triggers the next run.
func (b *Base) CompleteNoReschedule(entry []byte) {
	b.complete(entry, false)
}

func (b *Base) complete(entry []byte, reschedule bool) {
	if b.logger != nil && entry != nil {
		if err := b.logger.Write(entry); err != nil {
			b.log.WithError(err).WithField("service", b.name).Warn("service: log write failed")
		}
	}
	b.notifyLogUpdated()
	if reschedule {
		b.reschedule(false)
	}
}

// CompleteWithEvent is Complete but attaches data to the emitted
// EventLogUpdated, for behaviors (the underwater detector) whose completion
// itself carries the payload peers react to rather than a log entry.
func (b *Base) CompleteWithEvent(entry []byte, data any) {
	if b.logger != nil && entry != nil {
		if err := b.logger.Write(entry); err != nil {
			b.log.WithError(err).WithField("service", b.name).Warn("service: log write failed")
		}
	}
	b.emit(Event{Type: EventLogUpdated, Source: b.id, Data: data})
	b.reschedule(false)
}

// Reschedule lets a Behavior force an immediate (or normal) reschedule
// outside the regular period/timeout flow, e.g. sensors.Generic reacting to
// a GNSS-active peer event.
func (b *Base) Reschedule(immediate bool) {
	b.reschedule(immediate)
}

func (b *Base) cancel() bool {
	if c, ok := b.behavior.(Canceller); ok {
		return c.Cancel()
	}
	return false
}

func (b *Base) reschedule(immediate bool) {
	b.deschedule()
	if !b.started {
		return
	}
	if !b.behavior.IsEnabled() {
		return
	}

	next := uint64(0)
	if !immediate {
		n := b.behavior.NextScheduleInMs()
		if n == ScheduleDisabled {
			return
		}
		next = uint64(n)
	}

	b.periodH, _ = b.sched.Post(func() { b.onPeriod() }, b.name+".period", scheduler.DefaultPriority, next)
}

func (b *Base) onPeriod() {
	if timeouter, ok := b.behavior.(Timeouter); ok {
		if to := timeouter.NextTimeoutMs(); to != 0 {
			b.timeoutH, _ = b.sched.Post(func() { b.onTimeout() }, b.name+".timeout", scheduler.DefaultPriority, uint64(to))
		}
	}

	if !b.underwater {
		metrics.ServiceInitiations.WithLabelValues(b.name).Inc()
		metrics.ServiceActive.WithLabelValues(b.name).Set(1)
		b.notifyActive()
		b.behavior.Initiate()
	} else {
		b.reschedule(false)
	}
}

func (b *Base) onTimeout() {
	if b.cancel() {
		b.notifyInactive()
	}
	b.reschedule(false)
}

func (b *Base) deschedule() {
	b.sched.Cancel(b.timeoutH)
	b.sched.Cancel(b.periodH)
}

func (b *Base) notifyLogUpdated() { b.emit(Event{Type: EventLogUpdated, Source: b.id}) }
func (b *Base) notifyActive()     { b.emit(Event{Type: EventActive, Source: b.id}) }
func (b *Base) notifyInactive() {
	metrics.ServiceActive.WithLabelValues(b.name).Set(0)
	b.emit(Event{Type: EventInactive, Source: b.id})
}

func (b *Base) emit(e Event) {
	if b.notify != nil {
		b.notify(e)
	}
}
