package statemachine

import (
	"context"
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

type fakeFS struct {
	mountErr   error
	mountCalls int
}

func (f *fakeFS) Mount() error {
	f.mountCalls++
	if f.mountCalls == 1 {
		return f.mountErr
	}
	return nil
}
func (f *fakeFS) Format() error  { return nil }
func (f *fakeFS) Unmount() error { return nil }

type fakeGestures struct{ listener func(hal.Gesture) }

func (g *fakeGestures) Subscribe(l func(hal.Gesture)) { g.listener = l }
func (g *fakeGestures) Fire(gesture hal.Gesture)      { g.listener(gesture) }

type fakeTransport struct {
	started bool
	onLine  func(string)
	written []string
}

func (t *fakeTransport) Start(ctx context.Context, onConnected func(), onDisconnected func(), onReceived func(string)) error {
	t.started = true
	t.onLine = onReceived
	return nil
}
func (t *fakeTransport) Stop() error              { t.started = false; return nil }
func (t *fakeTransport) Write(s string) error     { t.written = append(t.written, s); return nil }
func (t *fakeTransport) ReadLine() (string, error) { return "", nil }

func TestBootTransitionsThroughOffToIdleToOperational(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())
	require.NoError(t, store.Write(paramstore.GNSSEn, paramstore.BoolValue(false)))

	gestures := &fakeGestures{}
	mgr := service.NewManager()
	m := New(sched, &fakeFS{}, gestures, store, mgr, &fakeTransport{}, nil, nil)

	m.Start()
	assert.Equal(t, StateBoot, m.State())

	timer.Advance(bootPeriodMs)
	sched.Run()
	assert.Equal(t, StateOff, m.State())

	gestures.Fire(hal.GestureSwipe)
	assert.Equal(t, StateIdle, m.State())

	timer.Advance(idlePeriodMs)
	sched.Run()
	assert.Equal(t, StateOperational, m.State())
}

func TestShortHoldEntersConfigurationAndStartsTransport(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())

	gestures := &fakeGestures{}
	mgr := service.NewManager()
	transport := &fakeTransport{}
	m := New(sched, &fakeFS{}, gestures, store, mgr, transport, nil, nil)

	m.Start()
	timer.Advance(bootPeriodMs)
	sched.Run()
	gestures.Fire(hal.GestureSwipe)
	timer.Advance(idlePeriodMs)
	sched.Run()
	require.Equal(t, StateOperational, m.State())

	gestures.Fire(hal.GestureShortHold)
	assert.Equal(t, StateConfiguration, m.State())
	assert.True(t, transport.started)
}

func TestMountFailureFormatsThenRecovers(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := paramstore.New(paramstore.NewMemPersister())

	gestures := &fakeGestures{}
	mgr := service.NewManager()
	m := New(sched, &fakeFS{mountErr: assertErr{}}, gestures, store, mgr, &fakeTransport{}, nil, nil)

	m.Start()
	timer.Advance(bootPeriodMs)
	sched.Run()
	assert.Equal(t, StateOff, m.State())
}

type assertErr struct{}

func (assertErr) Error() string { return "mount failed" }
