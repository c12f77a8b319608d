package sim

import (
	"sync"
	"time"

	"github.com/arribada/horizon-core/hal"
)

// RTC implements hal.RTC as a wall-clock offset: GetTime returns the real
// clock adjusted by whatever SetTime last asked for, rather than an
// unsynchronised zero-value clock, so gnss.Service's RTC-set-from-fix path
// has an observable effect.
type RTC struct {
	mu     sync.Mutex
	offset time.Duration
	set    bool
}

// NewRTC constructs an RTC that reports IsSet()==false until SetTime is
// called once, matching a coin-cell RTC's power-on state.
func NewRTC() *RTC {
	return &RTC{}
}

func (r *RTC) GetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Now().UTC().Add(r.offset)
}

func (r *RTC) SetTime(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offset = t.UTC().Sub(time.Now().UTC())
	r.set = true
}

func (r *RTC) IsSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

var _ hal.RTC = (*RTC)(nil)
