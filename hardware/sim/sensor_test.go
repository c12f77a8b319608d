package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorSetThenSample(t *testing.T) {
	s := NewSensor(2)
	assert.Equal(t, 2, s.NumChannels())

	s.Set(1, 12.3)
	got, err := s.Sample(1)
	require.NoError(t, err)
	assert.Equal(t, 12.3, got)
}

func TestSensorSampleRejectsBadChannel(t *testing.T) {
	s := NewSensor(1)
	_, err := s.Sample(5)
	assert.Error(t, err)
}
