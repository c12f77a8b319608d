// Package statemachine implements the device lifecycle FSM (§4.10):
// Boot/Off/Idle/Operational/Configuration/Error, driven by the scheduler
// (itself driven by a hal.Timer) and reed-switch gestures, wiring
// service.Manager and the local control transport on and off per state.
package statemachine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/scheduler"
	"github.com/arribada/horizon-core/service"
)

// State is one of the six exclusive device lifecycle states.
type State int

const (
	StateBoot State = iota
	StateOff
	StateIdle
	StateOperational
	StateConfiguration
	StateError
)

func (s State) String() string {
	switch s {
	case StateBoot:
		return "boot"
	case StateOff:
		return "off"
	case StateIdle:
		return "idle"
	case StateOperational:
		return "operational"
	case StateConfiguration:
		return "configuration"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is what a ProtocolHandler asks the machine to do once it has
// responded to the triggering command.
type Action int

const (
	ActionNone Action = iota
	ActionReboot
	ActionFactoryReset
	// ActionAgain asks the machine to re-invoke Handle with the same line
	// immediately, without waiting for further transport input. DUMPD uses
	// it to page a log dump out across several responses (mmm/MMM), per
	// dte_handler.hpp's AGAIN action.
	ActionAgain
)

// ProtocolHandler dispatches one framed command line to a response, matching
// the shape protocol.Handler implements.
type ProtocolHandler interface {
	Handle(line string) (response string, action Action, err error)
}

const (
	bootPeriodMs       = 1000
	idlePeriodMs       = 2000
	configInactivityMs = 6 * 60 * 1000
	errorPeriodMs      = 5000
)

// Machine is the device lifecycle FSM.
type Machine struct {
	sched     *scheduler.Scheduler
	fs        hal.Filesystem
	gestures  hal.GestureSource
	store     *paramstore.Store
	services  *service.Manager
	transport hal.Transport
	protocol  ProtocolHandler
	log       logrus.FieldLogger

	state         State
	pending       scheduler.Handle
	transportCtx  context.Context
	transportStop context.CancelFunc
	onEvent       func(service.Event)
}

// New constructs a Machine in StateBoot; call Start to enter it.
func New(sched *scheduler.Scheduler, fs hal.Filesystem, gestures hal.GestureSource, store *paramstore.Store, services *service.Manager, transport hal.Transport, protocolHandler ProtocolHandler, log logrus.FieldLogger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Machine{
		sched: sched, fs: fs, gestures: gestures, store: store,
		services: services, transport: transport, protocol: protocolHandler,
		log: log, state: StateBoot,
	}
}

// State reports the machine's current state.
func (m *Machine) State() State { return m.state }

// SetEventListener installs the callback Operational forwards service
// events (including underwater transitions) to.
func (m *Machine) SetEventListener(fn func(service.Event)) { m.onEvent = fn }

// Start enters StateBoot and begins driving transitions.
func (m *Machine) Start() {
	m.gestures.Subscribe(m.onGesture)
	m.enterBoot()
}

func (m *Machine) transitionAfter(delayMs uint64, name string, fn func()) {
	m.sched.Cancel(m.pending)
	h, _ := m.sched.Post(fn, name, scheduler.DefaultPriority, delayMs)
	m.pending = h
}

func (m *Machine) enterBoot() {
	m.state = StateBoot
	m.log.Info("statemachine: boot")

	if err := m.fs.Mount(); err != nil {
		m.log.WithError(err).Warn("statemachine: mount failed, formatting")
		if err := m.fs.Format(); err != nil {
			m.log.WithError(err).Error("statemachine: format failed")
			m.enterError()
			return
		}
		if err := m.fs.Mount(); err != nil {
			m.log.WithError(err).Error("statemachine: remount failed")
			m.enterError()
			return
		}
	}

	if err := m.store.Init(); err != nil {
		m.log.WithError(err).Warn("statemachine: parameter store corrupted, factory reset applied")
	}

	m.transitionAfter(bootPeriodMs, "statemachine.boot->off", m.enterOff)
}

func (m *Machine) enterOff() {
	m.state = StateOff
	m.log.Info("statemachine: off")
}

func (m *Machine) enterIdle() {
	m.state = StateIdle
	m.log.Info("statemachine: idle")

	if m.storeValid() {
		m.transitionAfter(idlePeriodMs, "statemachine.idle->operational", m.enterOperational)
	} else {
		m.transitionAfter(idlePeriodMs, "statemachine.idle->error", m.enterError)
	}
}

func (m *Machine) storeValid() bool { return m.store.Valid() }

func (m *Machine) enterOperational() {
	m.state = StateOperational
	m.log.Info("statemachine: operational")
	m.services.StartAll(func(e service.Event) {
		if m.onEvent != nil {
			m.onEvent(e)
		}
	})
}

func (m *Machine) enterConfiguration() {
	m.state = StateConfiguration
	m.log.Info("statemachine: configuration")

	ctx, cancel := context.WithCancel(context.Background())
	m.transportCtx, m.transportStop = ctx, cancel
	if err := m.transport.Start(ctx, nil, nil, m.onTransportLine); err != nil {
		m.log.WithError(err).Error("statemachine: transport start failed")
		m.enterOff()
		return
	}
	m.transitionAfter(configInactivityMs, "statemachine.config->off", m.leaveConfigurationToOff)
}

func (m *Machine) leaveConfigurationToOff() {
	if m.transportStop != nil {
		m.transportStop()
	}
	m.transport.Stop()
	m.enterOff()
}

func (m *Machine) onTransportLine(line string) {
	// Any traffic resets the inactivity timer.
	m.transitionAfter(configInactivityMs, "statemachine.config->off", m.leaveConfigurationToOff)

	if m.protocol == nil {
		return
	}
	resp, action, err := m.protocol.Handle(line)
	if err != nil {
		m.log.WithError(err).Warn("statemachine: protocol handler error")
	}
	if resp != "" {
		m.transport.Write(resp)
	}

	// DUMPD pages its response across multiple frames; the handler tracks
	// its own mmm/NNN cursor and asks to be re-invoked with the same
	// request line until the dump is exhausted. maxAgainIterations bounds
	// a misbehaving handler from looping forever.
	const maxAgainIterations = 4096
	for i := 0; action == ActionAgain && i < maxAgainIterations; i++ {
		resp, action, err = m.protocol.Handle(line)
		if err != nil {
			m.log.WithError(err).Warn("statemachine: protocol handler error")
		}
		if resp != "" {
			m.transport.Write(resp)
		}
	}

	switch action {
	case ActionReboot:
		m.transitionAfter(0, "statemachine.config->reboot", m.leaveConfigurationToOff)
	case ActionFactoryReset:
		m.transitionAfter(0, "statemachine.config->factory-reset", func() {
			m.store.FactoryReset()
			m.leaveConfigurationToOff()
		})
	}
}

func (m *Machine) enterError() {
	m.state = StateError
	m.log.Error("statemachine: error")
	m.transitionAfter(errorPeriodMs, "statemachine.error->off", m.enterOff)
}

func (m *Machine) onGesture(g hal.Gesture) {
	switch m.state {
	case StateOff:
		if g == hal.GestureSwipe {
			m.enterIdle()
		}
	case StateOperational:
		switch g {
		case hal.GestureShortHold:
			m.services.StopAll()
			m.enterConfiguration()
		case hal.GestureLongHold:
			m.services.StopAll()
			m.enterOff()
		}
	}
}
