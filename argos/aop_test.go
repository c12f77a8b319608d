package argos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulletinAt(t time.Time) Bulletin {
	return Bulletin{Epoch: t, SemiMajorAxisKM: 7200, InclinationDeg: 66.5, OrbitPeriodMin: 101}
}

func TestMergeAOPReplacesMatchingEntryWithValidStatus(t *testing.T) {
	existing := AOPTable{Entries: []AOPEntry{
		{SatHexID: 5, DownlinkStatus: DownlinkOff, UplinkStatus: UplinkOff},
	}}
	incoming := []AOPEntry{
		{SatHexID: 5, DownlinkStatus: DownlinkA3, UplinkStatus: UplinkA2, Bulletin: bulletinAt(time.Now())},
	}

	merged, updated := MergeAOP(existing, incoming)
	assert.Equal(t, 1, updated)
	require.Len(t, merged.Entries, 1)
	assert.Equal(t, DownlinkA3, merged.Entries[0].DownlinkStatus)
}

func TestMergeAOPClearsStatusOnlyLeavesBulletinIntact(t *testing.T) {
	epoch := time.Now()
	existing := AOPTable{Entries: []AOPEntry{
		{SatHexID: 9, DownlinkStatus: DownlinkA4, UplinkStatus: UplinkA3, Bulletin: bulletinAt(epoch)},
	}}
	incoming := []AOPEntry{{SatHexID: 9}}

	merged, updated := MergeAOP(existing, incoming)
	assert.Equal(t, 1, updated)
	assert.Equal(t, DownlinkOff, merged.Entries[0].DownlinkStatus)
	assert.Equal(t, UplinkOff, merged.Entries[0].UplinkStatus)
	assert.Equal(t, epoch, merged.Entries[0].Bulletin.Epoch)
}

func TestMergeAOPAppendsNewSatelliteWhenRoomRemains(t *testing.T) {
	incoming := []AOPEntry{
		{SatHexID: 11, DownlinkStatus: DownlinkA3, UplinkStatus: UplinkA2, Bulletin: bulletinAt(time.Now())},
	}
	merged, updated := MergeAOP(AOPTable{}, incoming)
	assert.Equal(t, 1, updated)
	require.Len(t, merged.Entries, 1)
	assert.EqualValues(t, 11, merged.Entries[0].SatHexID)
}

func TestMergeAOPDropsNewSatelliteOnceTableIsFull(t *testing.T) {
	var existing AOPTable
	for i := 0; i < MaxAOPSatelliteEntries; i++ {
		existing.Entries = append(existing.Entries, AOPEntry{SatHexID: byte(i)})
	}
	incoming := []AOPEntry{
		{SatHexID: 200, DownlinkStatus: DownlinkA3, UplinkStatus: UplinkA2, Bulletin: bulletinAt(time.Now())},
	}
	merged, updated := MergeAOP(existing, incoming)
	assert.Equal(t, 0, updated)
	assert.Len(t, merged.Entries, MaxAOPSatelliteEntries)
}

func TestIsFullUpdateRequiresEveryIncomingRecordApplied(t *testing.T) {
	merged := AOPTable{Entries: []AOPEntry{{SatHexID: 1}, {SatHexID: 2}}}
	assert.True(t, IsFullUpdate(merged, 2, 2))
	assert.False(t, IsFullUpdate(merged, 2, 1))
	assert.False(t, IsFullUpdate(merged, 3, 2))
}

func TestAOPBlobRoundTrip(t *testing.T) {
	table := AOPTable{Entries: []AOPEntry{
		{SatHexID: 3, DCSAddress: 0xABCDEF, DownlinkStatus: DownlinkA4, UplinkStatus: UplinkNEO,
			Bulletin: bulletinAt(time.Unix(1700000000, 0).UTC())},
		{SatHexID: 7},
	}}

	blob := encodeAOPBlob(table)
	decoded, err := decodeAOPBlob(blob)
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, table.Entries[0].SatHexID, decoded.Entries[0].SatHexID)
	assert.Equal(t, table.Entries[0].DCSAddress, decoded.Entries[0].DCSAddress)
	assert.Equal(t, table.Entries[0].DownlinkStatus, decoded.Entries[0].DownlinkStatus)
	assert.Equal(t, table.Entries[0].UplinkStatus, decoded.Entries[0].UplinkStatus)
	assert.True(t, table.Entries[0].Bulletin.Epoch.Equal(decoded.Entries[0].Bulletin.Epoch))
	assert.InDelta(t, table.Entries[0].Bulletin.SemiMajorAxisKM, decoded.Entries[0].Bulletin.SemiMajorAxisKM, 0.001)
	assert.True(t, decoded.Entries[1].Bulletin.Epoch.IsZero())
}

func TestDecodeAOPBlobRejectsBadMagic(t *testing.T) {
	_, err := decodeAOPBlob([]byte{0, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestMemAOPPersisterLoadBeforeSaveErrors(t *testing.T) {
	p := NewMemAOPPersister()
	_, err := p.Load()
	assert.Error(t, err)
}

func TestMemAOPPersisterSaveThenLoadRoundTrips(t *testing.T) {
	p := NewMemAOPPersister()
	table := AOPTable{Entries: []AOPEntry{{SatHexID: 1, Bulletin: bulletinAt(time.Unix(1, 0).UTC())}}}
	require.NoError(t, p.Save(table))

	got, err := p.Load()
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.EqualValues(t, 1, got.Entries[0].SatHexID)
}
