package sim

import (
	"sync"

	"github.com/arribada/horizon-core/hal"
)

// batteryLowMV and batteryCriticalMV pick round simulated thresholds for a
// single-cell LiPo; a real BatteryMonitor would source these from ADC
// calibration rather than constants.
const (
	batteryLowMV      = 3500
	batteryCriticalMV = 3300
	batteryMaxMV      = 4200
)

// Battery implements hal.BatteryMonitor with a settable voltage in place of
// the ADC/fuel-gauge read §1 places out of scope. Update is a no-op; Set
// lets a caller such as a test drive battery.Monitor's low/critical
// transitions directly.
type Battery struct {
	mu        sync.Mutex
	voltageMV uint16
}

// NewBattery constructs a Battery starting at initialMV.
func NewBattery(initialMV uint16) *Battery {
	return &Battery{voltageMV: initialMV}
}

// Set overrides the reported voltage.
func (b *Battery) Set(mv uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voltageMV = mv
}

func (b *Battery) GetVoltageMV() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.voltageMV
}

func (b *Battery) GetLevelPercent() uint8 {
	mv := int(b.GetVoltageMV())
	if mv <= batteryCriticalMV {
		return 0
	}
	if mv >= batteryMaxMV {
		return 100
	}
	pct := (mv - batteryCriticalMV) * 100 / (batteryMaxMV - batteryCriticalMV)
	return uint8(pct)
}

func (b *Battery) IsBatteryLow() bool { return b.GetVoltageMV() <= batteryLowMV }

func (b *Battery) IsBatteryCritical() bool { return b.GetVoltageMV() <= batteryCriticalMV }

func (b *Battery) Update() {}

var _ hal.BatteryMonitor = (*Battery)(nil)
