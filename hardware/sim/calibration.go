package sim

import (
	"sync"

	"github.com/arribada/horizon-core/hal"
)

// Calibration implements hal.Calibratable as an in-memory offset table
// keyed by SCALR/SCALW's numeric offset argument, standing in for whatever
// persisted calibration store a concrete sensor driver would own.
type Calibration struct {
	mu      sync.Mutex
	offsets map[int]float64
}

func NewCalibration() *Calibration {
	return &Calibration{offsets: make(map[int]float64)}
}

func (c *Calibration) CalibrationRead(offset int) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offsets[offset], nil
}

func (c *Calibration) CalibrationWrite(offset int, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets[offset] = value
	return nil
}

var _ hal.Calibratable = (*Calibration)(nil)
