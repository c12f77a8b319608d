package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRTCUnsetUntilSetTime(t *testing.T) {
	r := NewRTC()
	assert.False(t, r.IsSet())

	fix := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)
	r.SetTime(fix)
	assert.True(t, r.IsSet())
	assert.WithinDuration(t, fix, r.GetTime(), time.Second)
}
