package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/scheduler"
)

type fakeTimer struct {
	now       uint64
	schedules map[hal.TimerHandle]struct {
		fn       func()
		deadline uint64
	}
	nextID int
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{schedules: make(map[hal.TimerHandle]struct {
		fn       func()
		deadline uint64
	})}
}

func (f *fakeTimer) Start() error         { return nil }
func (f *fakeTimer) Stop() error          { return nil }
func (f *fakeTimer) GetCounterMs() uint64 { return f.now }

func (f *fakeTimer) AddSchedule(fn func(), deadlineMs uint64) hal.TimerHandle {
	f.nextID++
	h := f.nextID
	f.schedules[h] = struct {
		fn       func()
		deadline uint64
	}{fn, deadlineMs}
	return h
}

func (f *fakeTimer) CancelSchedule(h hal.TimerHandle) { delete(f.schedules, h) }

func (f *fakeTimer) Advance(ms uint64) {
	f.now += ms
	for h, s := range f.schedules {
		if s.deadline <= f.now {
			delete(f.schedules, h)
			s.fn()
		}
	}
}

// countingBehavior runs forever on a fixed period, counting invocations.
type countingBehavior struct {
	enabled    bool
	periodMs   uint32
	initiated  int
	cancelled  int
	usableUW   bool
}

func (b *countingBehavior) Init()                    {}
func (b *countingBehavior) Term()                    {}
func (b *countingBehavior) IsEnabled() bool           { return b.enabled }
func (b *countingBehavior) NextScheduleInMs() uint32  { return b.periodMs }
func (b *countingBehavior) Initiate()                 { b.initiated++ }
func (b *countingBehavior) Cancel() bool              { b.cancelled++; return true }
func (b *countingBehavior) IsUsableUnderwater() bool  { return b.usableUW }

func TestBaseStartRunsOnPeriod(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	bh := &countingBehavior{enabled: true, periodMs: 1000}
	base := NewBase(ServiceGNSS, "gnss", bh, sched, nil, nil)

	var events []Event
	base.Start(func(e Event) { events = append(events, e) })
	sched.Run()
	assert.Equal(t, 0, bh.initiated, "first run is one period after Start")

	base.Complete(nil)
	sched.Run()
	assert.Equal(t, 0, bh.initiated, "not due yet")

	timer.Advance(1000)
	sched.Run()
	assert.Equal(t, 1, bh.initiated)

	found := false
	for _, e := range events {
		if e.Type == EventLogUpdated {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUnderwaterGatingCancelsAndDefersUnlessUsable(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	bh := &countingBehavior{enabled: true, periodMs: 0}
	base := NewBase(ServicePH, "ph", bh, sched, nil, nil)

	base.Start(func(Event) {})
	sched.Run()
	require.Equal(t, 1, bh.initiated)

	base.NotifyUnderwaterState(true)
	assert.Equal(t, 1, bh.cancelled)
}

func TestUsableUnderwaterIgnoresGating(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	bh := &countingBehavior{enabled: true, periodMs: 0, usableUW: true}
	base := NewBase(ServicePressure, "pressure", bh, sched, nil, nil)

	base.Start(func(Event) {})
	sched.Run()
	base.NotifyUnderwaterState(true)
	assert.Equal(t, 0, bh.cancelled, "usable-underwater service must not be gated")
}

func TestManagerPeerEventBroadcastsExcludingSource(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)

	mgr := NewManager()
	bhA := &countingBehavior{enabled: true, periodMs: scheduler.DefaultPriority}
	bhB := &triggerOnEventBehavior{}

	baseA := NewBase(ServiceGNSS, "a", bhA, sched, nil, nil)
	baseB := NewBase(ServiceArgos, "b", bhB, sched, nil, nil)
	mgr.Add(baseA)
	mgr.Add(baseB)

	mgr.StartAll(func(Event) {})
	sched.Run()

	baseA.Complete(nil) // emits EventLogUpdated from ServiceGNSS
	assert.True(t, bhB.triggered, "peer must see the event since it wasn't the source")
}

type triggerOnEventBehavior struct {
	triggered bool
}

func (b *triggerOnEventBehavior) Init()                   {}
func (b *triggerOnEventBehavior) Term()                   {}
func (b *triggerOnEventBehavior) IsEnabled() bool          { return true }
func (b *triggerOnEventBehavior) NextScheduleInMs() uint32 { return ScheduleDisabled }
func (b *triggerOnEventBehavior) Initiate()                {}
func (b *triggerOnEventBehavior) IsTriggeredOnEvent(e Event) bool {
	b.triggered = true
	return false
}
