// Package battery implements the periodic battery poll that feeds the
// low-battery mode switch and the critical-voltage shutdown path (§4.2,
// §4.8), wrapping hal.BatteryMonitor as a service.Behavior.
package battery

import (
	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/metrics"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/service"
)

// pollPeriodMs is the fixed battery sample interval; the reference firmware
// does not expose this as a tunable parameter.
const pollPeriodMs = 60000

// Monitor polls hal.BatteryMonitor, updates the paramstore's cached
// battery-low flag used by the mode priority projection, and edge-triggers
// an EventLogUpdated carrying Data true the first time the voltage crosses
// CRITICAL_VOLTAGE_MV so the device state machine can drop to a safe
// shutdown state.
type Monitor struct {
	battery  hal.BatteryMonitor
	store    *paramstore.Store
	base     *service.Base
	log      logrus.FieldLogger
	critical bool
}

// New constructs a Monitor.
func New(batteryMonitor hal.BatteryMonitor, store *paramstore.Store, log logrus.FieldLogger) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Monitor{battery: batteryMonitor, store: store, log: log}
}

// SetBase wires the owning service.Base.
func (m *Monitor) SetBase(b *service.Base) { m.base = b }

func (m *Monitor) Init() { m.critical = false }

func (m *Monitor) Term() {}

func (m *Monitor) IsEnabled() bool { return true }

func (m *Monitor) NextScheduleInMs() uint32 { return pollPeriodMs }

// IsUsableUnderwater: battery state is relevant submerged too.
func (m *Monitor) IsUsableUnderwater() bool { return true }

func (m *Monitor) Initiate() {
	m.battery.Update()
	low := m.battery.IsBatteryLow()
	m.store.SetBatteryLow(low)
	metrics.BatteryVoltageMV.Set(float64(m.battery.GetVoltageMV()))

	if m.battery.IsBatteryCritical() {
		if !m.critical {
			m.critical = true
			m.log.Warn("battery: critical voltage reached")
			m.base.CompleteWithEvent(nil, true)
			return
		}
		m.base.Complete(nil)
		return
	}
	m.critical = false
	m.base.Complete(nil)
}

// SOCSource adapts a hal.BatteryMonitor into paramstore.DynamicSource, so
// Store.Read can refresh BATT_SOC from the live battery driver on every
// access instead of trusting whatever was last persisted or defaulted —
// config_store.hpp's read_param calls update_battery_level() the same way
// ahead of returning BATT_SOC.
type SOCSource struct {
	battery hal.BatteryMonitor
}

// NewSOCSource constructs a SOCSource wrapping battery.
func NewSOCSource(battery hal.BatteryMonitor) SOCSource {
	return SOCSource{battery: battery}
}

// BatterySOCPercent implements paramstore.DynamicSource.
func (s SOCSource) BatterySOCPercent() (uint8, bool) {
	if s.battery == nil {
		return 0, false
	}
	s.battery.Update()
	return s.battery.GetLevelPercent(), true
}

var _ paramstore.DynamicSource = SOCSource{}
