package gnss

import (
	"testing"
	"time"

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

type fakeRTC struct {
	set  bool
	time time.Time
}

func (r *fakeRTC) GetTime() time.Time { return r.time }
func (r *fakeRTC) SetTime(t time.Time) {
	r.time = t
	r.set = true
}
func (r *fakeRTC) IsSet() bool { return r.set }

type fakeBattery struct{}

func (fakeBattery) GetVoltageMV() uint16    { return 3700 }
func (fakeBattery) GetLevelPercent() uint8  { return 80 }
func (fakeBattery) IsBatteryLow() bool      { return false }
func (fakeBattery) IsBatteryCritical() bool { return false }
func (fakeBattery) Update()                 {}

type fakeGNSSDevice struct {
	onPowerOn func(settings hal.NavSettings, listener hal.GNSSListener)
	poweredOn bool
}

func (d *fakeGNSSDevice) PowerOn(settings hal.NavSettings, listener hal.GNSSListener) error {
	d.poweredOn = true
	if d.onPowerOn != nil {
		d.onPowerOn(settings, listener)
	}
	return nil
}
func (d *fakeGNSSDevice) PowerOff() error { d.poweredOn = false; return nil }

func TestFirstFixSetsRTCAndClearsFirstSchedule(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())
	require.NoError(t, store.Write(paramstore.GNSSEn, paramstore.BoolValue(true)))
	require.NoError(t, store.Write(paramstore.DlocArgNom, paramstore.UintValue(600)))

	rtc := &fakeRTC{}
	device := &fakeGNSSDevice{}
	svc := New(device, store, rtc, fakeBattery{}, sched, nil)
	base := service.NewBase(service.ServiceGNSS, "gnss", svc, sched, nil, nil)
	svc.SetBase(base)

	fixTime := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	device.onPowerOn = func(settings hal.NavSettings, listener hal.GNSSListener) {
		listener.OnGNSSEvent(hal.GNSSEvent{Type: hal.GNSSPVT, PVT: hal.PVTData{
			Time: fixTime, LonDeg: 1.5, LatDeg: 51.5, NumSV: 8, HDOP: 1.2,
		}})
	}

	var logged int
	base.Start(func(e service.Event) {
		if e.Type == service.EventLogUpdated {
			logged++
		}
	})
	sched.Run() // runs first accelerated acquisition
	sched.Run() // runs the deferred processFix task

	assert.True(t, rtc.IsSet())
	assert.Equal(t, fixTime, rtc.GetTime())
	assert.Equal(t, 1, logged)
	assert.False(t, device.poweredOn)
	assert.False(t, svc.firstSchedule)
}

func TestDisabledWhenGNSSOff(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())
	require.NoError(t, store.Write(paramstore.GNSSEn, paramstore.BoolValue(false)))

	svc := New(&fakeGNSSDevice{}, store, &fakeRTC{}, fakeBattery{}, sched, nil)
	base := service.NewBase(service.ServiceGNSS, "gnss", svc, sched, nil, nil)
	svc.SetBase(base)

	base.Start(func(service.Event) {})
	assert.False(t, sched.Run())
}
