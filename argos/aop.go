package argos

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/arribada/horizon-core/errs"
	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/paramstore"
)

// MaxAOPSatelliteEntries bounds the AOP table (§3 AOP Satellite Entry).
const MaxAOPSatelliteEntries = 40

// DownlinkStatus is a satellite's downlink (allcast) capability.
type DownlinkStatus int

const (
	DownlinkOff DownlinkStatus = iota
	DownlinkA3
	DownlinkA4
)

// UplinkStatus is a satellite's uplink (beacon transmit) capability.
type UplinkStatus int

const (
	UplinkOff UplinkStatus = iota
	UplinkA2
	UplinkA3
	UplinkA4
	UplinkNEO
)

// Bulletin is one satellite's orbital parameters as broadcast in an AOP
// update.
type Bulletin struct {
	Epoch               time.Time
	SemiMajorAxisKM     float64
	InclinationDeg      float64
	AscNodeLongitudeDeg float64
	AscNodeDriftDeg     float64
	OrbitPeriodMin      float64
	SMADriftMPerDay     float64
}

// AOPEntry is one satellite's record in the AOP table.
type AOPEntry struct {
	SatHexID       byte
	DCSAddress     uint32
	DownlinkStatus DownlinkStatus
	UplinkStatus   UplinkStatus
	Bulletin       Bulletin
}

// AOPTable is the merged orbit-parameter database (§3 "at most
// MAX_AOP_SATELLITE_ENTRIES; merging a new table updates records by
// satHexId").
type AOPTable struct {
	Entries []AOPEntry
}

func (e AOPEntry) hasValidBulletin() bool {
	return !e.Bulletin.Epoch.IsZero()
}

func (e AOPEntry) hasStatus() bool {
	return e.DownlinkStatus != DownlinkOff || e.UplinkStatus != UplinkOff
}

// MergeAOP merges incoming records into existing by satHexId, matching
// update_pass_predict: a matching record with a nonzero status and a valid
// bulletin replaces the existing entry wholesale; a matching record with
// both statuses zero only clears the existing entry's status fields
// (leaving its bulletin intact); a satHexId not already present is appended
// (full or status-only) as space permits. Returns the merged table and the
// number of incoming records actually applied.
func MergeAOP(existing AOPTable, incoming []AOPEntry) (AOPTable, int) {
	merged := AOPTable{Entries: append([]AOPEntry(nil), existing.Entries...)}
	updated := 0

	for _, rec := range incoming {
		idx := -1
		for j, ex := range merged.Entries {
			if ex.SatHexID == rec.SatHexID {
				idx = j
				break
			}
		}

		switch {
		case idx >= 0 && rec.hasStatus() && rec.hasValidBulletin():
			merged.Entries[idx] = rec
			updated++
		case idx >= 0 && !rec.hasStatus():
			merged.Entries[idx].DownlinkStatus = DownlinkOff
			merged.Entries[idx].UplinkStatus = UplinkOff
			updated++
		case idx < 0 && len(merged.Entries) < MaxAOPSatelliteEntries:
			if rec.hasStatus() && rec.hasValidBulletin() {
				merged.Entries = append(merged.Entries, rec)
				updated++
			} else if !rec.hasStatus() {
				merged.Entries = append(merged.Entries, AOPEntry{SatHexID: rec.SatHexID})
				updated++
			}
		}
	}

	return merged, updated
}

// IsFullUpdate reports whether every incoming record was applied and the
// applied count is at least the merged table's entry count, the commit gate
// used by update_pass_predict before refreshing ARGOS_AOP_DATE and persisting.
func IsFullUpdate(merged AOPTable, numIncoming, numUpdated int) bool {
	return numUpdated == numIncoming && numUpdated >= len(merged.Entries)
}

// aopBlobMagic tags a persisted pass-predict blob (§6: "leading version
// 0x1c07e800 | 0x03").
const aopBlobMagic uint32 = 0x1c07e800 | 0x03

// AOPPersister loads and saves the AOP table as an opaque blob, mirroring
// paramstore.Persister's shape for the sibling pass-predict partition.
type AOPPersister interface {
	Load() (AOPTable, error)
	Save(AOPTable) error
}

// FileAOPPersister persists the AOP table to a hal.File record.
type FileAOPPersister struct {
	open func() (hal.File, error)
}

// NewFileAOPPersister constructs a FileAOPPersister backed by a file opened
// through open.
func NewFileAOPPersister(open func() (hal.File, error)) *FileAOPPersister {
	return &FileAOPPersister{open: open}
}

func (p *FileAOPPersister) Load() (AOPTable, error) {
	f, err := p.open()
	if err != nil {
		return AOPTable{}, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}
	defer f.Flush()

	size, err := f.Size()
	if err != nil || size == 0 {
		return AOPTable{}, fmt.Errorf("%w: empty pass predict store", errs.ErrConfigStoreCorrupted)
	}
	buf := make([]byte, size)
	if _, err := f.Read(buf); err != nil {
		return AOPTable{}, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}
	return decodeAOPBlob(buf)
}

func (p *FileAOPPersister) Save(table AOPTable) error {
	f, err := p.open()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBadFilesystem, err)
	}
	defer f.Flush()

	if _, err := f.Write(encodeAOPBlob(table)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBadFilesystem, err)
	}
	return f.Flush()
}

func encodeAOPBlob(table AOPTable) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, aopBlobMagic)
	buf.WriteByte(byte(len(table.Entries)))
	for _, e := range table.Entries {
		buf.WriteByte(e.SatHexID)
		binary.Write(&buf, binary.LittleEndian, e.DCSAddress)
		buf.WriteByte(byte(e.DownlinkStatus))
		buf.WriteByte(byte(e.UplinkStatus))
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.Epoch.Unix())
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.SemiMajorAxisKM)
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.InclinationDeg)
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.AscNodeLongitudeDeg)
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.AscNodeDriftDeg)
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.OrbitPeriodMin)
		binary.Write(&buf, binary.LittleEndian, e.Bulletin.SMADriftMPerDay)
	}
	return buf.Bytes()
}

func decodeAOPBlob(data []byte) (AOPTable, error) {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != aopBlobMagic {
		return AOPTable{}, fmt.Errorf("%w: bad magic", errs.ErrConfigStoreCorrupted)
	}
	count, err := r.ReadByte()
	if err != nil {
		return AOPTable{}, fmt.Errorf("%w: %v", errs.ErrConfigStoreCorrupted, err)
	}

	var table AOPTable
	for i := byte(0); i < count; i++ {
		var e AOPEntry
		var downlink, uplink byte
		var epochSec int64
		e.SatHexID, _ = r.ReadByte()
		binary.Read(r, binary.LittleEndian, &e.DCSAddress)
		downlink, _ = r.ReadByte()
		uplink, _ = r.ReadByte()
		binary.Read(r, binary.LittleEndian, &epochSec)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.SemiMajorAxisKM)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.InclinationDeg)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.AscNodeLongitudeDeg)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.AscNodeDriftDeg)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.OrbitPeriodMin)
		binary.Read(r, binary.LittleEndian, &e.Bulletin.SMADriftMPerDay)
		e.DownlinkStatus = DownlinkStatus(downlink)
		e.UplinkStatus = UplinkStatus(uplink)
		if epochSec != 0 {
			e.Bulletin.Epoch = time.Unix(epochSec, 0).UTC()
		}
		table.Entries = append(table.Entries, e)
	}
	return table, nil
}

// ApplyPassPredictUpdate decodes a PASPW wire payload (the same blob layout
// FileAOPPersister/MemAOPPersister persist) and merges it into the stored
// AOP table, matching PASPW_REQ: a payload that fails to decode, carries no
// records, or does not reach the merge commit gate is rejected without
// touching the configuration store.
func ApplyPassPredictUpdate(store *paramstore.Store, persister AOPPersister, now time.Time, raw []byte) error {
	table, err := decodeAOPBlob(raw)
	if err != nil {
		return err
	}
	if len(table.Entries) == 0 {
		return fmt.Errorf("%w: empty pass predict payload", errs.ErrIncorrectData)
	}
	if _, complete := applyAOPUpdate(store, persister, now, table.Entries); !complete {
		return fmt.Errorf("%w: pass predict update incomplete", errs.ErrIncorrectData)
	}
	return nil
}

// MemAOPPersister is an in-memory AOPPersister for tests.
type MemAOPPersister struct {
	blob []byte
}

func NewMemAOPPersister() *MemAOPPersister { return &MemAOPPersister{} }

func (m *MemAOPPersister) Load() (AOPTable, error) {
	if m.blob == nil {
		return AOPTable{}, fmt.Errorf("%w: no data saved", errs.ErrConfigStoreCorrupted)
	}
	return decodeAOPBlob(m.blob)
}

func (m *MemAOPPersister) Save(table AOPTable) error {
	m.blob = encodeAOPBlob(table)
	return nil
}
