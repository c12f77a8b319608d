package sim

import (
	"fmt"
	"sync"

	"github.com/arribada/horizon-core/errs"
	"github.com/arribada/horizon-core/hal"
)

// Sensor implements hal.Sensor with settable per-channel values, standing in
// for the I2C/SPI sensor peripherals (pH, conductivity/depth/temperature,
// pressure, ambient light, sea temperature, accelerometer) §1 places out of
// scope.
type Sensor struct {
	mu       sync.Mutex
	channels []float64
}

// NewSensor constructs a Sensor with numChannels channels, each starting at
// 0.
func NewSensor(numChannels int) *Sensor {
	return &Sensor{channels: make([]float64, numChannels)}
}

// Set overrides the value reported for channel.
func (s *Sensor) Set(channel int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= len(s.channels) {
		return
	}
	s.channels[channel] = value
}

func (s *Sensor) Sample(channel int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= len(s.channels) {
		return 0, fmt.Errorf("%w: channel %d", errs.ErrResourceUnavailable, channel)
	}
	return s.channels[channel], nil
}

func (s *Sensor) NumChannels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

var _ hal.Sensor = (*Sensor)(nil)
