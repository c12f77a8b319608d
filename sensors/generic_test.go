package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/logentry"
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

type fakeSensor struct {
	values []float64
	calls  int
}

func (s *fakeSensor) Sample(channel int) (float64, error) {
	s.calls++
	return s.values[channel%len(s.values)], nil
}
func (s *fakeSensor) NumChannels() int { return len(s.values) }

func TestOffModeLogsEverySample(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)

	sensor := &fakeSensor{values: []float64{7.5}}
	enabled := true
	periodic := uint32(1000)

	ph, _ := NewPH(sensor, func() bool { return enabled }, func() uint32 { return periodic }, func() uint32 { return 0 }, func() TxMode { return TxModeOff })
	base := service.NewBase(service.ServicePH, "ph", ph, sched, nil, nil)
	ph.SetBase(base)

	var logged int
	base.Start(func(e service.Event) {
		if e.Type == service.EventLogUpdated {
			logged++
		}
	})
	timer.Advance(1000) // the first sample is due one period after Start
	sched.Run()
	assert.Equal(t, 1, logged)
	assert.Equal(t, 1, sensor.calls)

	timer.Advance(1000)
	sched.Run()
	assert.Equal(t, 2, logged)
}

func TestGNSSActiveAccumulatesAndMeanAggregates(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)

	call := 0
	sampler := func(channel int) (float64, error) {
		call++
		return float64(call), nil
	}

	cfg := Config{
		NumChannels:  1,
		Enabled:      func() bool { return true },
		PeriodicMs:   func() uint32 { return service.ScheduleDisabled },
		TxPeriodicMs: func() uint32 { return 500 },
		TxMode:       func() TxMode { return TxModeMean },
		Now:          time.Now,
	}
	g := NewGeneric(cfg, sensorFunc(sampler), populateN(logentry.TypeInfo, 1))
	base := service.NewBase(service.ServicePressure, "accum", g, sched, nil, nil)
	g.SetBase(base)

	var readings [][]byte
	base.Start(func(e service.Event) {})

	// Simulate GNSS going active: triggers immediate sample.
	require.True(t, g.IsTriggeredOnEvent(service.Event{Type: service.EventActive, Source: service.ServiceGNSS}))
	base.Reschedule(true)
	sched.Run()
	timer.Advance(500)
	sched.Run()

	// GNSS goes inactive: flush aggregated mean.
	base.SetLogger(captureLogger(&readings))
	g.IsTriggeredOnEvent(service.Event{Type: service.EventInactive, Source: service.ServiceGNSS})

	require.Len(t, readings, 1)
	_, payload := logentry.Decode(readings[0])
	assert.InDelta(t, 1.5, logentry.Float64(payload, 0), 0.001)
}

type sensorFunc func(int) (float64, error)

func (f sensorFunc) Sample(channel int) (float64, error) { return f(channel) }
func (f sensorFunc) NumChannels() int                    { return 1 }

type memLogger struct {
	out *[][]byte
}

func captureLogger(out *[][]byte) *memLogger { return &memLogger{out: out} }

func (l *memLogger) Create() error                     { return nil }
func (l *memLogger) Truncate() error                    { return nil }
func (l *memLogger) Write(entry []byte) error           { *l.out = append(*l.out, entry); return nil }
func (l *memLogger) Read(index int) ([]byte, error)     { return (*l.out)[index], nil }
func (l *memLogger) NumEntries() (int, error)            { return len(*l.out), nil }
func (l *memLogger) Formatter() hal.LogFormatter          { return nil }
