package underwater

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

type fakeSource struct {
	wet []bool
	i   int
}

func (s *fakeSource) IsWet() (bool, error) {
	v := s.wet[s.i%len(s.wet)]
	s.i++
	return v, nil
}

func newStore(t *testing.T, src paramstore.UnderwaterSource, maxSamples, minDry uint32) *paramstore.Store {
	store := paramstore.New(paramstore.NewMemPersister())
	require.NoError(t, store.Write(paramstore.UnderwaterEn, paramstore.BoolValue(true)))
	require.NoError(t, store.Write(paramstore.UnderwaterDetectSource, paramstore.EnumValue(int(src))))
	require.NoError(t, store.Write(paramstore.UWMaxSamples, paramstore.UintValue(uint64(maxSamples))))
	require.NoError(t, store.Write(paramstore.UWMinDrySamples, paramstore.UintValue(uint64(minDry))))
	require.NoError(t, store.Write(paramstore.UWSampleGapMs, paramstore.UintValue(10)))
	require.NoError(t, store.Write(paramstore.SamplingUnderFreqMs, paramstore.UintValue(5000)))
	require.NoError(t, store.Write(paramstore.SamplingSurfFreqMs, paramstore.UintValue(1000)))
	return store
}

func TestSWSMajorityVoteSubmergesAfterMaxSamples(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := newStore(t, paramstore.UnderwaterSourceSWS, 3, 3)

	src := &fakeSource{wet: []bool{true, true, true}}
	d := New(src, store, nil)
	base := service.NewBase(service.ServiceUnderwater, "underwater", d, sched, nil, nil)
	d.SetBase(base)

	var events []service.Event
	base.Start(func(e service.Event) { events = append(events, e) })

	sched.Run()
	timer.Advance(10)
	sched.Run()
	timer.Advance(10)
	sched.Run()

	state := lastStateEvent(t, events)
	assert.Equal(t, true, state)
}

func TestSWSEarlyTerminatesOnDryRun(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := newStore(t, paramstore.UnderwaterSourceSWS, 10, 2)

	src := &fakeSource{wet: []bool{false, false}}
	d := New(src, store, nil)
	base := service.NewBase(service.ServiceUnderwater, "underwater", d, sched, nil, nil)
	d.SetBase(base)

	var events []service.Event
	base.Start(func(e service.Event) { events = append(events, e) })

	sched.Run()
	timer.Advance(10)
	sched.Run()

	state := lastStateEvent(t, events)
	assert.Equal(t, false, state)
}

func TestNonSWSSourceSkipsVoting(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := newStore(t, paramstore.UnderwaterSourcePressure, 0, 0)

	src := &fakeSource{wet: []bool{true}}
	d := New(src, store, nil)
	base := service.NewBase(service.ServiceUnderwater, "underwater", d, sched, nil, nil)
	d.SetBase(base)

	var events []service.Event
	base.Start(func(e service.Event) { events = append(events, e) })
	sched.Run()

	state := lastStateEvent(t, events)
	assert.Equal(t, true, state)
}

func lastStateEvent(t *testing.T, events []service.Event) bool {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if v, ok := events[i].Data.(bool); ok {
			return v
		}
	}
	t.Fatal("no underwater state event observed")
	return false
}

func TestPeerServiceGatedOnUnderwaterEvent(t *testing.T) {
	timer := newFakeTimer()
	sched := scheduler.New(timer, nil)
	store := newStore(t, paramstore.UnderwaterSourceSWS, 1, 1)

	src := &fakeSource{wet: []bool{true}}
	d := New(src, store, nil)
	uwBase := service.NewBase(service.ServiceUnderwater, "underwater", d, sched, nil, nil)
	d.SetBase(uwBase)

	mgr := service.NewManager()
	mgr.Add(uwBase)

	peer := &countingBehavior{enabled: true, usableUnderwater: false}
	peerBase := service.NewBase(service.ServiceAmbientLight, "als", peer, sched, nil, nil)
	peer.base = peerBase
	mgr.Add(peerBase)

	mgr.StartAll(func(service.Event) {})
	sched.Run()

	assert.Equal(t, 1, peer.cancelled)
}

type countingBehavior struct {
	enabled          bool
	usableUnderwater bool
	base             *service.Base
	cancelled        int
}

func (b *countingBehavior) Init()                      {}
func (b *countingBehavior) Term()                      {}
func (b *countingBehavior) IsEnabled() bool             { return b.enabled }
func (b *countingBehavior) NextScheduleInMs() uint32    { return 100000 }
func (b *countingBehavior) Initiate()                   { b.base.Complete(nil) }
func (b *countingBehavior) IsUsableUnderwater() bool    { return b.usableUnderwater }
func (b *countingBehavior) Cancel() bool                { b.cancelled++; return true }
