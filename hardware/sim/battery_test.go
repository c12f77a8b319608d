package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatteryThresholds(t *testing.T) {
	b := NewBattery(4200)
	assert.False(t, b.IsBatteryLow())
	assert.False(t, b.IsBatteryCritical())
	assert.Equal(t, uint8(100), b.GetLevelPercent())

	b.Set(3500)
	assert.True(t, b.IsBatteryLow())
	assert.False(t, b.IsBatteryCritical())

	b.Set(3300)
	assert.True(t, b.IsBatteryCritical())
	assert.Equal(t, uint8(0), b.GetLevelPercent())
}
