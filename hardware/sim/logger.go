package sim

import (
	"os"
	"sync"

	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/logentry"
)

// FileLog implements hal.Logger as an append-only file of logentry.MaxSize
// records, the on-disk shape the reference firmware's flash log partitions
// use. Each named log (system, gnss, argos, underwater, battery, ...) gets
// its own FileLog and hal.LogFormatter, the latter supplied by the caller
// (sensors.NewPH and friends each return one bound to their own payload
// layout).
type FileLog struct {
	path      string
	formatter hal.LogFormatter

	mu sync.Mutex
}

// NewFileLog constructs a FileLog backed by the file at path, rendering
// entries with formatter.
func NewFileLog(path string, formatter hal.LogFormatter) *FileLog {
	return &FileLog{path: path, formatter: formatter}
}

func (l *FileLog) Create() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (l *FileLog) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Write appends entry, padded or truncated to logentry.MaxSize so every
// record in the file stays at a fixed offset (index*MaxSize).
func (l *FileLog) Write(entry []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	record := entry
	if len(record) != logentry.MaxSize {
		record = make([]byte, logentry.MaxSize)
		copy(record, entry)
	}
	_, err = f.Write(record)
	return err
}

func (l *FileLog) Read(index int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, logentry.MaxSize)
	if _, err := f.ReadAt(buf, int64(index)*logentry.MaxSize); err != nil {
		return nil, err
	}
	return buf, nil
}

func (l *FileLog) NumEntries() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return int(info.Size() / logentry.MaxSize), nil
}

func (l *FileLog) Formatter() hal.LogFormatter { return l.formatter }

var _ hal.Logger = (*FileLog)(nil)
