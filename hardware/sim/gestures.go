package sim

import (
	"sync"

	"github.com/arribada/horizon-core/hal"
)

// Gestures implements hal.GestureSource with a manual Trigger method in
// place of the reed-switch interrupt line §1 places out of scope; Trigger
// delivers a gesture to every subscriber, so the statemachine's gesture
// transitions can be driven without real enclosure hardware.
type Gestures struct {
	mu        sync.Mutex
	listeners []func(hal.Gesture)
}

func NewGestures() *Gestures {
	return &Gestures{}
}

func (g *Gestures) Subscribe(listener func(hal.Gesture)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, listener)
}

// Trigger delivers g to every subscriber, synchronously and in order.
func (g *Gestures) Trigger(gesture hal.Gesture) {
	g.mu.Lock()
	listeners := append([]func(hal.Gesture){}, g.listeners...)
	g.mu.Unlock()
	for _, l := range listeners {
		l(gesture)
	}
}

var _ hal.GestureSource = (*Gestures)(nil)
