// Package systimer implements hal.Timer on top of time.AfterFunc,
// the real tick source cmd/beacon wires in place of the per-package fake
// timers used under test.
package systimer

import (
	"sync"
	"time"

	"github.com/arribada/horizon-core/hal"
)

type schedule struct {
	fn    func()
	timer *time.Timer
}

// Timer is a millisecond-resolution hal.Timer backed by a free-running
// monotonic clock and a set of one-shot time.Timers for AddSchedule.
type Timer struct {
	mu        sync.Mutex
	start     time.Time
	running   bool
	nextID    uint64
	schedules map[uint64]*schedule
}

// New constructs a stopped Timer.
func New() *Timer {
	return &Timer{schedules: make(map[uint64]*schedule)}
}

func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = time.Now()
	t.running = true
	return nil
}

func (t *Timer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	for id, s := range t.schedules {
		s.timer.Stop()
		delete(t.schedules, id)
	}
	return nil
}

func (t *Timer) GetCounterMs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return uint64(time.Since(t.start).Milliseconds())
}

// AddSchedule arms fn to run once the counter reported by GetCounterMs
// reaches deadlineMs, on its own goroutine — callers (scheduler.Scheduler)
// must be safe for that, which the scheduler's timer callback is.
func (t *Timer) AddSchedule(fn func(), deadlineMs uint64) hal.TimerHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	delayMs := deadlineMs
	if t.running {
		if now := uint64(time.Since(t.start).Milliseconds()); deadlineMs > now {
			delayMs = deadlineMs - now
		} else {
			delayMs = 0
		}
	}
	tm := time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		t.mu.Lock()
		_, ok := t.schedules[id]
		if ok {
			delete(t.schedules, id)
		}
		t.mu.Unlock()
		if ok {
			fn()
		}
	})
	t.schedules[id] = &schedule{fn: fn, timer: tm}
	return id
}

func (t *Timer) CancelSchedule(h hal.TimerHandle) {
	id, ok := h.(uint64)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.schedules[id]; ok {
		s.timer.Stop()
		delete(t.schedules, id)
	}
}
