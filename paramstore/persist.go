package paramstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/arribada/horizon-core/errs"
	"github.com/arribada/horizon-core/hal"
)

// paramsBlobMagic tags a persisted parameter table; the low byte is a
// schema version bumped whenever the on-disk layout changes (§6).
const paramsBlobMagic uint32 = 0x1c07e800 | 0x13

// Persister loads and saves the full parameter table as an opaque blob.
type Persister interface {
	Load() ([paramCount]Value, error)
	Save(values []Value) error
}

// FilePersister persists the parameter table to a single hal.File record via
// a fixed binary encoding, versioned with paramsBlobMagic.
type FilePersister struct {
	fs   hal.Filesystem
	open func() (hal.File, error)
}

// NewFilePersister constructs a Persister backed by a file opened through
// open, matching the reference firmware's use of a dedicated config
// partition rather than a general filesystem path.
func NewFilePersister(fs hal.Filesystem, open func() (hal.File, error)) *FilePersister {
	return &FilePersister{fs: fs, open: open}
}

func (p *FilePersister) Load() ([paramCount]Value, error) {
	var out [paramCount]Value
	f, err := p.open()
	if err != nil {
		return out, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}
	defer f.Flush()

	size, err := f.Size()
	if err != nil || size == 0 {
		return out, fmt.Errorf("%w: empty config store", errs.ErrConfigStoreCorrupted)
	}
	buf := make([]byte, size)
	if _, err := f.Read(buf); err != nil {
		return out, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}
	return decodeBlob(buf)
}

func (p *FilePersister) Save(values []Value) error {
	f, err := p.open()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBadFilesystem, err)
	}
	defer f.Flush()

	buf := encodeBlob(values)
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBadFilesystem, err)
	}
	return f.Flush()
}

// encodeBlob renders values as a self-describing binary record: magic,
// count, then one tagged entry per value.
func encodeBlob(values []Value) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, paramsBlobMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(len(values)))
	for _, val := range values {
		buf.WriteByte(byte(val.kind))
		switch val.kind {
		case KindUint:
			binary.Write(&buf, binary.LittleEndian, val.u)
		case KindInt:
			binary.Write(&buf, binary.LittleEndian, val.i)
		case KindFloat:
			binary.Write(&buf, binary.LittleEndian, val.f)
		case KindString:
			s := []byte(val.s)
			binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
			buf.Write(s)
		case KindTime:
			sec := val.t.Unix()
			binary.Write(&buf, binary.LittleEndian, sec)
		case KindBool:
			if val.b {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case KindEnum:
			binary.Write(&buf, binary.LittleEndian, int32(val.e))
		}
	}
	return buf.Bytes()
}

func decodeBlob(data []byte) ([paramCount]Value, error) {
	var out [paramCount]Value
	r := bytes.NewReader(data)

	var magic, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != paramsBlobMagic {
		return out, fmt.Errorf("%w: bad magic", errs.ErrConfigStoreCorrupted)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return out, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}

	for i := uint32(0); i < count && int(i) < len(out); i++ {
		var kindByte byte
		if err := binary.Read(r, binary.LittleEndian, &kindByte); err != nil {
			return out, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
		}
		switch Kind(kindByte) {
		case KindUint:
			var x uint64
			binary.Read(r, binary.LittleEndian, &x)
			out[i] = UintValue(x)
		case KindInt:
			var x int64
			binary.Read(r, binary.LittleEndian, &x)
			out[i] = IntValue(x)
		case KindFloat:
			var x float64
			binary.Read(r, binary.LittleEndian, &x)
			out[i] = FloatValue(x)
		case KindString:
			var n uint32
			binary.Read(r, binary.LittleEndian, &n)
			s := make([]byte, n)
			r.Read(s)
			out[i] = StringValue(string(s))
		case KindTime:
			var sec int64
			binary.Read(r, binary.LittleEndian, &sec)
			out[i] = TimeValue(time.Unix(sec, 0).UTC())
		case KindBool:
			var x byte
			binary.Read(r, binary.LittleEndian, &x)
			out[i] = BoolValue(x != 0)
		case KindEnum:
			var x int32
			binary.Read(r, binary.LittleEndian, &x)
			out[i] = EnumValue(int(x))
		default:
			return out, fmt.Errorf("%w: unknown kind byte %d", errs.ErrConfigStoreCorrupted, kindByte)
		}
	}
	return out, nil
}

// MemPersister is an in-memory Persister for tests and the certification
// build, round-tripping through the same binary encoding as FilePersister so
// corruption/versioning tests exercise real code paths.
type MemPersister struct {
	blob []byte
}

func NewMemPersister() *MemPersister { return &MemPersister{} }

func (m *MemPersister) Load() ([paramCount]Value, error) {
	if m.blob == nil {
		return [paramCount]Value{}, fmt.Errorf("%w: no data saved", errs.ErrConfigStoreCorrupted)
	}
	return decodeBlob(m.blob)
}

func (m *MemPersister) Save(values []Value) error {
	m.blob = encodeBlob(values)
	return nil
}
