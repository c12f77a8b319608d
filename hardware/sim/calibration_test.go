package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationWriteThenRead(t *testing.T) {
	c := NewCalibration()

	got, err := c.CalibrationRead(0)
	require.NoError(t, err)
	assert.Zero(t, got)

	require.NoError(t, c.CalibrationWrite(0, 1.5))
	got, err = c.CalibrationRead(0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)
}
