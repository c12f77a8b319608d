package sim

import (
	"fmt"

	"github.com/arribada/horizon-core/hal"
)

// MemoryDiagnostic implements hal.MemoryReader over a fixed in-memory
// buffer, standing in for the diagnostic RAM window DUMPM reads on the
// original firmware.
type MemoryDiagnostic struct {
	buf []byte
}

// NewMemoryDiagnostic constructs a MemoryDiagnostic serving reads out of
// buf, addressed from 0.
func NewMemoryDiagnostic(buf []byte) *MemoryDiagnostic {
	return &MemoryDiagnostic{buf: buf}
}

func (m *MemoryDiagnostic) ReadMemory(address uint32, length uint32) ([]byte, error) {
	end := uint64(address) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, fmt.Errorf("sim: address range [%d,%d) out of bounds (size %d)", address, end, len(m.buf))
	}
	out := make([]byte, length)
	copy(out, m.buf[address:end])
	return out, nil
}

var _ hal.MemoryReader = (*MemoryDiagnostic)(nil)
