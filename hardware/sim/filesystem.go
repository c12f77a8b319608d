// Package sim implements small disk/memory-backed hal collaborators used by
// cmd/beacon for bring-up on a development machine and by package tests,
// standing in for the chip-level drivers §1 places out of scope: a
// directory-backed hal.Filesystem, a wall-clock hal.RTC, a manually-triggered
// hal.GestureSource, a settable-voltage hal.BatteryMonitor, a loopback
// hal.ArgosDevice, a fixed-buffer hal.MemoryReader, a map-backed
// hal.Calibratable and a settable-value hal.Sensor, plus a file-backed hal.Logger using logentry's
// fixed-record format.
package sim

import (
	"os"
	"path/filepath"

	"github.com/arribada/horizon-core/hal"
)

// Filesystem implements hal.Filesystem over a plain OS directory. Mount
// fails if the directory does not exist so Machine.enterBoot's
// mount-fails-then-format fallback has something to exercise on first run.
type Filesystem struct {
	baseDir string
}

// NewFilesystem constructs a Filesystem rooted at baseDir.
func NewFilesystem(baseDir string) *Filesystem {
	return &Filesystem{baseDir: baseDir}
}

func (f *Filesystem) Mount() error {
	info, err := os.Stat(f.baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.ErrInvalid
	}
	return nil
}

func (f *Filesystem) Format() error {
	if err := os.RemoveAll(f.baseDir); err != nil {
		return err
	}
	return os.MkdirAll(f.baseDir, 0o755)
}

func (f *Filesystem) Unmount() error { return nil }

// Open returns a func() (hal.File, error) suitable for paramstore.NewFilePersister
// and argos.NewFileAOPPersister: each call opens (creating if absent) name
// under baseDir fresh at offset 0. Save implementations in this repo write
// the whole blob in a single Write call without an explicit truncate, so
// osFile truncates the file to exactly what was written the moment Flush is
// called, instead of leaving a longer earlier blob's tail behind.
func (f *Filesystem) Open(name string) func() (hal.File, error) {
	path := filepath.Join(f.baseDir, name)
	return func() (hal.File, error) {
		fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}
		return &osFile{f: fh}, nil
	}
}

// osFile adapts *os.File to hal.File, truncating on Flush to the high-water
// mark of bytes actually written so a shorter Save never leaves stale
// trailing bytes from a previous, longer one.
type osFile struct {
	f        *os.File
	written  int64
	wroteAny bool
}

func (o *osFile) Read(p []byte) (int, error) { return o.f.Read(p) }

func (o *osFile) Write(p []byte) (int, error) {
	n, err := o.f.Write(p)
	if n > 0 {
		o.wroteAny = true
		pos, perr := o.f.Seek(0, 1)
		if perr == nil && pos > o.written {
			o.written = pos
		}
	}
	return n, err
}

func (o *osFile) Seek(offset int64, whence int) (int64, error) { return o.f.Seek(offset, whence) }

func (o *osFile) Tell() (int64, error) { return o.f.Seek(0, 1) }

func (o *osFile) Flush() error {
	if o.wroteAny {
		if err := o.f.Truncate(o.written); err != nil {
			return err
		}
	}
	if err := o.f.Sync(); err != nil {
		return err
	}
	return o.f.Close()
}

func (o *osFile) Size() (int64, error) {
	info, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

var _ hal.Filesystem = (*Filesystem)(nil)
var _ hal.File = (*osFile)(nil)
