package argos

import (
	"math"
	"time"
)

// PassConfig is the search window and beacon parameters schedule_prepass
// feeds to the pass predictor: a 24h window starting at max(now,
// earliest_schedule), the beacon's last-known position, and the
// elevation/duration acceptance thresholds from the Argos configuration.
type PassConfig struct {
	Now             time.Time
	WindowEnd       time.Time
	LatDeg, LonDeg  float64
	MinElevationDeg float64
	MaxElevationDeg float64
	MinDurationSec  uint32
	MaxPasses       uint32
}

// Pass is one predicted satellite overpass.
type Pass struct {
	SatHexID       byte
	Epoch          time.Time
	Duration       time.Duration
	UplinkStatus   UplinkStatus
	DownlinkStatus DownlinkStatus
}

// End is the moment the pass is no longer usable for transmission.
func (p Pass) End() time.Time { return p.Epoch.Add(p.Duration) }

// PassPredictor finds the next usable satellite pass within cfg's window,
// given the beacon's current AOP table. NextPass reports false when no
// satellite has a valid bulletin producing a pass before cfg.WindowEnd.
type PassPredictor interface {
	NextPass(cfg PassConfig, aop []AOPEntry) (Pass, bool)
}

// LinearPassPredictor is a simplified, pure-Go stand-in for the reference
// firmware's PREVIPASS routine: rather than propagating orbital elements
// (semi-major axis, inclination, node drift) into a true elevation/azimuth
// track, it treats each satellite's bulletin epoch as one confirmed
// overhead instant and projects forward by whole orbital periods to find
// the earliest repeat inside the search window. It does not evaluate
// ground-station elevation against LatDeg/LonDeg; MinDurationSec is used
// as the usable window length for every candidate pass.
type LinearPassPredictor struct{}

func (LinearPassPredictor) NextPass(cfg PassConfig, aop []AOPEntry) (Pass, bool) {
	var best *Pass

	duration := time.Duration(cfg.MinDurationSec) * time.Second
	if duration <= 0 {
		duration = 10 * time.Minute
	}

	for _, e := range aop {
		if !e.hasValidBulletin() || !e.hasStatus() {
			continue
		}
		periodSec := e.Bulletin.OrbitPeriodMin * 60
		if periodSec <= 0 {
			continue
		}

		elapsed := cfg.Now.Sub(e.Bulletin.Epoch).Seconds()
		k := math.Ceil(elapsed / periodSec)
		if k < 0 {
			k = 0
		}
		candidate := e.Bulletin.Epoch.Add(time.Duration(k*periodSec) * time.Second)
		if candidate.Before(cfg.Now) {
			candidate = candidate.Add(time.Duration(periodSec) * time.Second)
		}
		if !candidate.Before(cfg.WindowEnd) {
			continue
		}

		p := Pass{
			SatHexID:       e.SatHexID,
			Epoch:          candidate,
			Duration:       duration,
			UplinkStatus:   e.UplinkStatus,
			DownlinkStatus: e.DownlinkStatus,
		}
		if best == nil || p.Epoch.Before(best.Epoch) {
			best = &p
		}
	}

	if best == nil {
		return Pass{}, false
	}
	return *best, true
}
