package paramstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/errs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(NewMemPersister())
	require.NoError(t, s.Write(ZoneRadius, UintValue(1000)))
	return s
}

func TestZoneExclusionScenario(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(ZoneEnableOutOfZoneDetectionMode, BoolValue(true)))
	require.NoError(t, s.Write(ZoneTypeParam, EnumValue(int(ZoneTypeCircle))))
	require.NoError(t, s.Write(ZoneCenterLongitude, FloatValue(0)))
	require.NoError(t, s.Write(ZoneCenterLatitude, FloatValue(0)))
	require.NoError(t, s.Write(ZoneRadius, UintValue(1000))) // 1km

	// No fix yet: not excluded.
	assert.False(t, s.IsZoneExclusion())

	// Fix well within the zone.
	s.SetLastFix(LastFix{Valid: true, LonDeg: 0, LatDeg: 0.001})
	assert.False(t, s.IsZoneExclusion())

	// Fix far outside the zone (~1 degree away, >100km).
	s.SetLastFix(LastFix{Valid: true, LonDeg: 0, LatDeg: 1.0})
	assert.True(t, s.IsZoneExclusion())
}

func TestZoneExclusionGatedByActivationDate(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(ZoneEnableOutOfZoneDetectionMode, BoolValue(true)))
	require.NoError(t, s.Write(ZoneTypeParam, EnumValue(int(ZoneTypeCircle))))
	require.NoError(t, s.Write(ZoneEnableActivationDate, BoolValue(true)))
	require.NoError(t, s.Write(ZoneActivationDate, TimeValue(time.Now().Add(24*time.Hour))))
	s.SetLastFix(LastFix{Valid: true, LonDeg: 0, LatDeg: 1.0})

	assert.False(t, s.IsZoneExclusion(), "zone not yet active")
}

func TestConfigModePriorityLowBatteryBeatsOutOfZone(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(LBEn, BoolValue(true)))
	s.SetBatteryLow(true)

	require.NoError(t, s.Write(ZoneEnableOutOfZoneDetectionMode, BoolValue(true)))
	require.NoError(t, s.Write(ZoneTypeParam, EnumValue(int(ZoneTypeCircle))))
	s.SetLastFix(LastFix{Valid: true, LonDeg: 0, LatDeg: 1.0})

	require.NoError(t, s.Write(LBGNSSEn, BoolValue(true)))
	require.NoError(t, s.Write(GNSSEn, BoolValue(false)))

	cfg := s.GetGNSSConfiguration()
	assert.True(t, cfg.Enable, "low-battery branch must win over out-of-zone")
}

func TestCertTxEnableForcesGNSSAndArgosDisabled(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(GNSSEn, BoolValue(true)))
	require.NoError(t, s.Write(CertTXEnable, BoolValue(true)))

	gnssCfg := s.GetGNSSConfiguration()
	assert.False(t, gnssCfg.Enable)

	argosCfg := s.GetArgosConfiguration()
	assert.False(t, argosCfg.GNSSEnable)
	assert.True(t, argosCfg.CertTXEnable)
}

func TestDeltaTimeLocBoundary(t *testing.T) {
	assert.Equal(t, DeltaT15Min, calcDeltaTimeLoc(900))
	assert.Equal(t, DeltaT30Min, calcDeltaTimeLoc(1799))
	assert.Equal(t, DeltaT30Min, calcDeltaTimeLoc(1800))
	assert.Equal(t, DeltaT1Hour, calcDeltaTimeLoc(1801))
}

func TestWriteRejectsReadOnlyAndWrongKind(t *testing.T) {
	s := newTestStore(t)

	err := s.Write(TxCounter, UintValue(5))
	assert.ErrorIs(t, err, errs.ErrParamReadOnly)

	err = s.Write(GNSSEn, UintValue(1))
	assert.ErrorIs(t, err, errs.ErrParamWrongKind)
}

func TestInitOnEmptyPersisterReportsCorruptedAndClearsValid(t *testing.T) {
	s := New(NewMemPersister())
	require.True(t, s.Valid(), "a freshly factory-reset store is valid")

	err := s.Init()
	assert.ErrorIs(t, err, errs.ErrConfigStoreCorrupted)
	assert.False(t, s.Valid())
}

func TestReadFailsWithConfigStoreCorruptedWhenInvalid(t *testing.T) {
	s := New(NewMemPersister())
	require.Error(t, s.Init())
	require.False(t, s.Valid())

	_, err := s.Read(GNSSEn)
	assert.ErrorIs(t, err, errs.ErrConfigStoreCorrupted)
}

func TestWriteFailsWithConfigStoreCorruptedWhenInvalid(t *testing.T) {
	s := New(NewMemPersister())
	require.Error(t, s.Init())
	require.False(t, s.Valid())

	err := s.Write(GNSSEn, BoolValue(true))
	assert.ErrorIs(t, err, errs.ErrConfigStoreCorrupted)
}

func TestAlwaysAccessibleParamsSurviveCorruptedStore(t *testing.T) {
	s := New(NewMemPersister())
	require.Error(t, s.Init())
	require.False(t, s.Valid())

	v, err := s.Read(BattSOC)
	require.NoError(t, err)
	soc, err := v.AsUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), soc)

	v, err = s.Read(DeviceModel)
	require.NoError(t, err)
	model, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "HORIZON-1", model)

	require.NoError(t, s.Write(ArgosHexID, UintValue(42)))
}

func TestFactoryResetRestoresValidity(t *testing.T) {
	s := New(NewMemPersister())
	require.Error(t, s.Init())
	require.False(t, s.Valid())

	s.FactoryReset()
	assert.True(t, s.Valid())
	_, err := s.Read(GNSSEn)
	assert.NoError(t, err)
}

type fakeBattery struct {
	percent uint8
	updated bool
}

func (f *fakeBattery) BatterySOCPercent() (uint8, bool) {
	f.updated = true
	return f.percent, true
}

func TestReadRefreshesBattSOCFromDynamicSource(t *testing.T) {
	s := newTestStore(t)
	source := &fakeBattery{percent: 42}
	s.SetDynamicSource(source)

	v, err := s.Read(BattSOC)
	require.NoError(t, err)
	assert.True(t, source.updated)
	soc, err := v.AsUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), soc)
}

func TestReadLeavesBattSOCAloneWithoutDynamicSource(t *testing.T) {
	s := newTestStore(t)

	v, err := s.Read(BattSOC)
	require.NoError(t, err)
	soc, err := v.AsUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), soc)
}
