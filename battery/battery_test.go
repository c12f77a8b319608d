package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/scheduler"
	"github.com/arribada/horizon-core/service"
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

type fakeBattery struct {
	low      bool
	critical bool
}

func (b *fakeBattery) GetVoltageMV() uint16    { return 3500 }
func (b *fakeBattery) GetLevelPercent() uint8  { return 20 }
func (b *fakeBattery) IsBatteryLow() bool      { return b.low }
func (b *fakeBattery) IsBatteryCritical() bool { return b.critical }
func (b *fakeBattery) Update()                 {}

func TestLowBatteryUpdatesParamStore(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())
	require.NoError(t, store.Write(paramstore.LBEn, paramstore.BoolValue(true)))
	require.NoError(t, store.Write(paramstore.GNSSEn, paramstore.BoolValue(true)))
	require.NoError(t, store.Write(paramstore.LBGNSSEn, paramstore.BoolValue(false)))

	bat := &fakeBattery{low: true}
	m := New(bat, store, nil)
	base := service.NewBase(service.ServiceBattery, "battery", m, sched, nil, nil)
	m.SetBase(base)

	assert.True(t, store.GetGNSSConfiguration().Enable) // LB_EN alone isn't enough

	base.Start(func(service.Event) {})
	timer.Advance(pollPeriodMs) // the first poll is due one period after Start
	sched.Run()

	assert.False(t, store.GetGNSSConfiguration().Enable) // battery poll flipped into low-battery mode
}

func TestCriticalVoltageEmitsEventOnce(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())

	bat := &fakeBattery{critical: true}
	m := New(bat, store, nil)
	base := service.NewBase(service.ServiceBattery, "battery", m, sched, nil, nil)
	m.SetBase(base)

	var criticalEvents int
	base.Start(func(e service.Event) {
		if v, ok := e.Data.(bool); ok && v {
			criticalEvents++
		}
	})
	sched.Run()
	timer.Advance(pollPeriodMs)
	sched.Run()
	timer.Advance(pollPeriodMs)
	sched.Run()

	assert.Equal(t, 1, criticalEvents) // two critical polls, one event
}
