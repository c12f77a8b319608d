package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arribada/horizon-core/hal"
)

func TestGesturesTriggerFansOutToAllSubscribers(t *testing.T) {
	g := NewGestures()
	var got1, got2 hal.Gesture
	got1, got2 = -1, -1
	g.Subscribe(func(gesture hal.Gesture) { got1 = gesture })
	g.Subscribe(func(gesture hal.Gesture) { got2 = gesture })

	g.Trigger(hal.GestureLongHold)

	assert.Equal(t, hal.GestureLongHold, got1)
	assert.Equal(t, hal.GestureLongHold, got2)
}
