// Package scheduler implements the single-threaded cooperative task queue
// that drives every service callback, protocol handler, and radio
// completion handler in the beacon core (§4.3, §5). A tick source (hal.Timer)
// only arms and fires callbacks; Scheduler.Run is the sole place user code
// executes, on whichever goroutine the caller dedicates to it.
package scheduler

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/metrics"
)

// MaxNumTasks bounds the number of tasks pending at any instant (immediate
// plus deferred), matching the reference firmware's MAX_NUM_TASKS.
const MaxNumTasks = 48

// Priority levels; lower numeric value runs first among eligible tasks.
const (
	HighestPriority = 0
	DefaultPriority = 7
)

// Handle identifies a posted task for cancellation/query.
type Handle struct {
	id    uuid.UUID
	valid bool
}

type task struct {
	id       uuid.UUID
	name     string
	priority uint
	fn       func()
}

// Scheduler is the deferred-task queue ordered by (absolute deadline,
// priority). The tick source's callback only moves a due task onto the
// immediate queue and may run on another goroutine; a single mutex stands
// in for the original firmware's nestable interrupt lock, guarding the
// queues against that callback running alongside Post/Cancel/Run.
type Scheduler struct {
	mu        sync.Mutex
	timer     hal.Timer
	log       logrus.FieldLogger
	immediate []task
	deferred  map[uuid.UUID]hal.TimerHandle
}

// New constructs a Scheduler driven by timer.
func New(timer hal.Timer, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		timer:    timer,
		log:      log,
		deferred: make(map[uuid.UUID]hal.TimerHandle),
	}
}

// Post enqueues fn with the given name/priority to run after delayMs have
// elapsed (0 means eligible on the next Run). Returns a Handle for
// cancellation/query, or the zero Handle with ok=false if the queue is full.
func (s *Scheduler) Post(fn func(), name string, priority uint, delayMs uint64) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.immediate)+len(s.deferred) >= MaxNumTasks {
		s.log.WithField("task", name).Warn("scheduler: task queue full")
		return Handle{}, false
	}

	t := task{id: uuid.New(), name: name, priority: priority, fn: fn}
	metrics.TasksPosted.WithLabelValues(name).Inc()

	if delayMs == 0 {
		s.insertImmediateLocked(t)
	} else {
		deadline := s.timer.GetCounterMs() + delayMs
		id := t.id
		th := s.timer.AddSchedule(func() { s.onTimerFired(id, t) }, deadline)
		s.deferred[id] = th
	}
	metrics.TaskQueueDepth.Set(float64(len(s.immediate) + len(s.deferred)))

	return Handle{id: t.id, valid: true}, true
}

func (s *Scheduler) onTimerFired(id uuid.UUID, t task) {
	s.mu.Lock()
	delete(s.deferred, id)
	s.insertImmediateLocked(t)
	s.mu.Unlock()
}

// insertImmediateLocked inserts t into the priority-ordered immediate queue;
// callers must hold s.mu. Stable among equal priorities (ties keep posting
// order), matching the original's etl::list insertion-before-first-lower-
// priority scan.
func (s *Scheduler) insertImmediateLocked(t task) {
	idx := len(s.immediate)
	for i, existing := range s.immediate {
		if existing.priority > t.priority {
			idx = i
			break
		}
	}
	s.immediate = append(s.immediate, task{})
	copy(s.immediate[idx+1:], s.immediate[idx:])
	s.immediate[idx] = t
}

// Cancel invalidates h. A no-op if h is unknown or already run.
func (s *Scheduler) Cancel(h Handle) {
	if !h.valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.immediate {
		if t.id == h.id {
			s.immediate = append(s.immediate[:i], s.immediate[i+1:]...)
			return
		}
	}
	if th, ok := s.deferred[h.id]; ok {
		s.timer.CancelSchedule(th)
		delete(s.deferred, h.id)
	}
}

// IsScheduled reports whether h is still pending (immediate or deferred).
func (s *Scheduler) IsScheduled(h Handle) bool {
	if !h.valid {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.immediate {
		if t.id == h.id {
			return true
		}
	}
	_, ok := s.deferred[h.id]
	return ok
}

// ClearAll drops every pending task, immediate and deferred.
func (s *Scheduler) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.immediate = nil
	for id, th := range s.deferred {
		s.timer.CancelSchedule(th)
		delete(s.deferred, id)
	}
}

// IsAnyTaskScheduled reports whether any task, immediate or deferred, is
// pending.
func (s *Scheduler) IsAnyTaskScheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.immediate) > 0 || len(s.deferred) > 0
}

// Run drains every task currently eligible (the immediate queue), popping
// each before invocation so it may re-schedule itself. Returns whether any
// task ran.
func (s *Scheduler) Run() bool {
	ran := false
	for {
		s.mu.Lock()
		if len(s.immediate) == 0 {
			s.mu.Unlock()
			return ran
		}
		t := s.immediate[0]
		s.immediate = s.immediate[1:]
		metrics.TaskQueueDepth.Set(float64(len(s.immediate) + len(s.deferred)))
		s.mu.Unlock()

		if t.fn != nil {
			ran = true
			t.fn()
		}
	}
}
