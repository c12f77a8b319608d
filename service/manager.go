package service

import (
	"sync"

	"github.com/arribada/horizon-core/hal"
)

// Manager is the explicit, constructed replacement for the reference
// firmware's static ServiceManager (DESIGN NOTE "Global singletons" — §9):
// one instance is created by cmd/beacon and threaded through every
// subsystem instead of being reached via package-level state.
type Manager struct {
	mu       sync.Mutex
	services map[ServiceIdentifier]*Base
	order    []ServiceIdentifier
	notify   func(Event)
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{services: make(map[ServiceIdentifier]*Base)}
}

// Add registers s; a service already registered under the same ID is
// replaced.
func (m *Manager) Add(s *Base) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.services[s.ID()]; !exists {
		m.order = append(m.order, s.ID())
	}
	m.services[s.ID()] = s
}

// Remove unregisters the service identified by id.
func (m *Manager) Remove(id ServiceIdentifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.services, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// StartAll starts every registered service, routing its events (and peer
// rebroadcast) through notify.
func (m *Manager) StartAll(notify func(Event)) {
	m.mu.Lock()
	m.notify = notify
	services := m.snapshotLocked()
	m.mu.Unlock()

	for _, s := range services {
		s.Start(func(e Event) {
			m.dispatch(e)
		})
	}
}

// StopAll stops every registered service.
func (m *Manager) StopAll() {
	for _, s := range m.snapshot() {
		s.Stop()
	}
}

// NotifyUnderwaterState forwards the underwater/surfaced transition to every
// registered service.
func (m *Manager) NotifyUnderwaterState(state bool) {
	for _, s := range m.snapshot() {
		s.NotifyUnderwaterState(state)
	}
}

// Logger returns the hal.Logger registered for id, or nil.
func (m *Manager) Logger(id ServiceIdentifier) hal.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.services[id]; ok {
		return s.Logger()
	}
	return nil
}

// dispatch delivers e to the manager's subscriber, then rebroadcasts it to
// every service other than its source as a peer event.
func (m *Manager) dispatch(e Event) {
	m.mu.Lock()
	notify := m.notify
	services := m.snapshotLocked()
	m.mu.Unlock()

	if notify != nil {
		notify(e)
	}
	for _, s := range services {
		if s.ID() != e.Source {
			s.NotifyPeerEvent(e)
		}
	}
}

func (m *Manager) snapshot() []*Base {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() []*Base {
	out := make([]*Base, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.services[id])
	}
	return out
}
