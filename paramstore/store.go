package paramstore

import (
	"fmt"
	"time"

	"github.com/arribada/horizon-core/bitpack"
	"github.com/arribada/horizon-core/errs"
)

// GNSSConfig is the mode-projected GNSS runtime configuration returned by
// Store.GetGNSSConfiguration (§4.2, mirroring config_store.hpp's
// get_gnss_configuration).
type GNSSConfig struct {
	Enable                bool
	AcqTimeoutMs          uint32
	ColdAcqTimeoutMs      uint32
	ColdStartRetryPeriod  uint32
	HDOPFilterEnable      bool
	HDOPFilterThreshold   uint32
	HAccFilterEnable      bool
	HAccFilterThreshold   uint32
	UnderwaterEnable      bool
	FixMode               GNSSFixMode
	DynModel              GNSSDynModel
	MinNumFixes           uint32
	DlocArgSeconds        uint32
	AssistNowEnable       bool
	AssistNowOfflineEn    bool
	TriggerOnSurfaced     bool
}

// ArgosConfig is the mode-projected Argos runtime configuration returned by
// Store.GetArgosConfiguration.
type ArgosConfig struct {
	Mode                  ArgosMode
	Power                 ArgosPower
	DepthPile             ArgosDepthPile
	NtryPerMessage        uint32
	DutyCycleOrRepSeconds uint32
	DlocArgSeconds        uint32
	Freq                  float64
	DryTimeBeforeTXMs     uint32
	UnderwaterEnable      bool
	HexID                 uint32
	GNSSEnable            bool
	PPMinElevation        float64
	PPMaxElevation        float64
	PPMinDuration         uint32
	PPMaxPasses           uint32
	PPLinearMargin        uint32
	PPCompStep            uint32
	AOPDate               time.Time
	RxAOPUpdatePeriod     uint32
	RxMaxWindow           uint32
	RxEnable              bool
	TxJitterEnable        bool
	TimeSyncBurstEnable   bool
	TrNomSeconds          uint32
	CertTXEnable          bool
	CertTXModulation      ArgosModulation
	CertTXPayload         string
	CertTXRepetition      uint32
	TCXOWarmupTimeMs      uint32
	SensorTXEnable        uint32 // bitmask, bit i set when sensor i transmits
}

// ServiceBit positions sensors within ArgosConfig.SensorTXEnable, matching
// the original firmware's service_identifier ordering.
const (
	ServiceBitALS = iota
	ServiceBitPressure
	ServiceBitSeaTemp
	ServiceBitPH
)

// LastFix is the most recent GNSS fix snapshot used for zone evaluation.
type LastFix struct {
	Valid     bool
	LonDeg    float64
	LatDeg    float64
}

// DynamicSource supplies live values for parameters config_store.hpp's
// read_param recomputes on every access instead of trusting the
// persisted/default table — "these parameters must always be accessible"
// regardless of store validity. This port models only the one such source
// with a live driver in this repo: battery state of charge: HW_VERSION,
// DEVICE_DECID and the per-sensor *_SENSOR_VALUE overrides the original
// also recomputes here have no corresponding capability wired into this
// tree (see DESIGN.md). Store.Read calls BatterySOCPercent, when a source
// is set, before returning BattSOC so callers never see a stale value.
type DynamicSource interface {
	BatterySOCPercent() (percent uint8, ok bool)
}

// alwaysAccessibleParams are the ParamIDs config_store.hpp's read_param
// exempts from the store-validity gate outright, whether or not this port
// also refreshes them from a DynamicSource: BATT_SOC, FW_APP_VERSION,
// DEVICE_MODEL, ARGOS_HEXID and ARGOS_DECID always set b_is_valid = true
// ahead of (and independent of) the general is_valid() check.
var alwaysAccessibleParams = map[ParamID]bool{
	BattSOC:      true,
	FWAppVersion: true,
	DeviceModel:  true,
	ArgosHexID:   true,
	ArgosDecID:   true,
}

// Store holds the full in-memory parameter table plus the runtime snapshots
// (battery state, last fix) needed to resolve ConfigMode and project
// GNSS/Argos configuration.
type Store struct {
	values      [paramCount]Value
	persist     Persister
	batteryLow  bool
	lastFix     LastFix
	now         func() time.Time
	valid       bool
	dynamic     DynamicSource
}

// New constructs a Store backed by persist, loaded with factory defaults
// before Init overlays any persisted values.
func New(persist Persister) *Store {
	s := &Store{persist: persist, now: time.Now}
	s.FactoryReset()
	return s
}

// SetDynamicSource wires the live battery-level source Read consults for
// BattSOC. A nil source (the default) leaves BattSOC at whatever was last
// stored/defaulted, same as any other static parameter.
func (s *Store) SetDynamicSource(d DynamicSource) { s.dynamic = d }

// Valid reports whether the store last initialised from a readable,
// uncorrupted persisted blob (or has since been factory-reset) — the
// condition spec.md's Configuration Store invariant gates Read/Write on,
// except for the always-accessible dynamic parameters.
func (s *Store) Valid() bool { return s.valid }

// Init loads persisted parameter values over the factory defaults. A
// corrupted or absent store is reported via errs.ErrConfigStoreCorrupted,
// leaves the Store at factory defaults, and clears Valid.
func (s *Store) Init() error {
	saved, err := s.persist.Load()
	if err != nil {
		s.valid = false
		return fmt.Errorf("paramstore: %w: %v", errs.ErrConfigStoreCorrupted, err)
	}
	for id, v := range saved {
		if id < 0 || int(id) >= int(paramCount) {
			continue
		}
		s.values[id] = v
	}
	s.valid = true
	return nil
}

// FactoryReset resets every parameter to its compiled-in default and marks
// the store valid again: a freshly defaulted table is well-formed by
// construction.
func (s *Store) FactoryReset() {
	s.values = defaultValues()
	s.valid = true
}

// Save persists the current parameter table.
func (s *Store) Save() error {
	return s.persist.Save(s.values[:])
}

// Read returns the current Value for id. Once Init has reported a
// corrupted store, Read fails with errs.ErrConfigStoreCorrupted for every
// parameter except the always-accessible ones (see alwaysAccessibleParams),
// matching config_store.hpp's read_param gate.
func (s *Store) Read(id ParamID) (Value, error) {
	if id < 0 || int(id) >= int(paramCount) || !table[id].implemented {
		return Value{}, fmt.Errorf("paramstore: %w: %s", errs.ErrUnknownParam, id.Name())
	}
	alwaysAccessible := alwaysAccessibleParams[id]
	if !s.valid && !alwaysAccessible {
		return Value{}, fmt.Errorf("paramstore: %w: %s", errs.ErrConfigStoreCorrupted, id.Name())
	}
	if id == BattSOC && s.dynamic != nil {
		if pct, ok := s.dynamic.BatterySOCPercent(); ok {
			s.values[BattSOC] = UintValue(uint64(pct))
		}
	}
	return s.values[id], nil
}

// Write sets id to v, enforcing writability and kind-matching. Write is
// gated by store validity the same way Read is, except for the
// always-accessible parameters (e.g. ARGOS_HEXID must be settable during
// provisioning even if the persisted blob was found corrupted).
func (s *Store) Write(id ParamID, v Value) error {
	if id < 0 || int(id) >= int(paramCount) || !table[id].implemented {
		return fmt.Errorf("paramstore: %w: %s", errs.ErrUnknownParam, id.Name())
	}
	if !s.valid && !alwaysAccessibleParams[id] {
		return fmt.Errorf("paramstore: %w: %s", errs.ErrConfigStoreCorrupted, id.Name())
	}
	if !table[id].writable {
		return fmt.Errorf("paramstore: %w: %s", errs.ErrParamReadOnly, id.Name())
	}
	if v.Kind() != table[id].kind {
		return fmt.Errorf("paramstore: %w: %s", errs.ErrParamWrongKind, id.Name())
	}
	s.values[id] = v
	return nil
}

// SetBatteryLow updates the cached battery-low edge used to select
// ConfigModeLowBattery.
func (s *Store) SetBatteryLow(low bool) { s.batteryLow = low }

// SetLastFix updates the last-known position used by IsZoneExclusion.
func (s *Store) SetLastFix(fix LastFix) { s.lastFix = fix }

// GetLastFix returns the last-known position snapshot, consulted by the
// Argos pass-prediction scheduler when no depth-pile entry is fresher.
func (s *Store) GetLastFix() LastFix { return s.lastFix }

// IsBatteryLow reports the cached low-battery edge, packed as the Argos
// frame's lb-flag bit.
func (s *Store) IsBatteryLow() bool { return s.batteryLow }

func (s *Store) uint(id ParamID) uint32 {
	v, _ := s.values[id].AsUint()
	return uint32(v)
}

func (s *Store) boolean(id ParamID) bool {
	v, _ := s.values[id].AsBool()
	return v
}

func (s *Store) float(id ParamID) float64 {
	v, _ := s.values[id].AsFloat()
	return v
}

func (s *Store) enum(id ParamID) int {
	v, _ := s.values[id].AsEnum()
	return v
}

func (s *Store) str(id ParamID) string {
	v, _ := s.values[id].AsString()
	return v
}

func (s *Store) tm(id ParamID) time.Time {
	v, _ := s.values[id].AsTime()
	return v
}

// mode resolves the current ConfigMode by priority: LOW_BATTERY takes
// precedence over OUT_OF_ZONE, which takes precedence over NORMAL.
func (s *Store) mode() ConfigMode {
	if s.boolean(LBEn) && s.batteryLow {
		return ConfigModeLowBattery
	}
	if s.IsZoneExclusion() {
		return ConfigModeOutOfZone
	}
	return ConfigModeNormal
}

// IsZoneExclusion reports whether the last known fix lies outside the
// configured circular exclusion zone, gated by the zone feature enable and
// (if set) its activation date (§4.2, §8 scenario 7).
func (s *Store) IsZoneExclusion() bool {
	if !s.boolean(ZoneEnableOutOfZoneDetectionMode) {
		return false
	}
	if ZoneType(s.enum(ZoneTypeParam)) != ZoneTypeCircle {
		return false
	}
	if s.boolean(ZoneEnableActivationDate) {
		if s.now().Before(s.tm(ZoneActivationDate)) {
			return false
		}
	}
	if !s.lastFix.Valid {
		return false
	}
	centerLon := s.float(ZoneCenterLongitude)
	centerLat := s.float(ZoneCenterLatitude)
	radiusM := float64(s.uint(ZoneRadius))

	distKM := bitpack.Haversine(s.lastFix.LonDeg, s.lastFix.LatDeg, centerLon, centerLat)
	return distKM*1000.0 > radiusM
}

// GetGNSSConfiguration projects the mode-selected GNSS settings (§4.2).
func (s *Store) GetGNSSConfiguration() GNSSConfig {
	var cfg GNSSConfig
	switch s.mode() {
	case ConfigModeLowBattery:
		cfg = GNSSConfig{
			Enable:               s.boolean(LBGNSSEn),
			DlocArgSeconds:       s.uint(DlocArgLB),
			AcqTimeoutMs:         s.uint(LBGNSSAcqTimeout),
			ColdAcqTimeoutMs:     s.uint(GNSSColdAcqTimeout),
			HDOPFilterEnable:     s.boolean(GNSSHDOPFiltEn),
			HDOPFilterThreshold:  s.uint(LBGNSSHDOPFiltThr),
			HAccFilterEnable:     s.boolean(GNSSHACCFiltEn),
			HAccFilterThreshold:  s.uint(LBGNSSHACCFiltThr),
			UnderwaterEnable:     s.boolean(UnderwaterEn),
		}
	case ConfigModeOutOfZone:
		cfg = GNSSConfig{
			Enable:               s.boolean(GNSSEn),
			DlocArgSeconds:       s.uint(ZoneGNSSDeltaArgLocArgosSeconds),
			AcqTimeoutMs:         s.uint(ZoneGNSSAcqTimeout),
			ColdAcqTimeoutMs:     s.uint(GNSSColdAcqTimeout),
			HDOPFilterEnable:     s.boolean(GNSSHDOPFiltEn),
			HDOPFilterThreshold:  s.uint(ZoneGNSSHDOPFiltThr),
			HAccFilterEnable:     s.boolean(GNSSHACCFiltEn),
			HAccFilterThreshold:  s.uint(ZoneGNSSHACCFiltThr),
			UnderwaterEnable:     s.boolean(UnderwaterEn),
		}
	default:
		cfg = GNSSConfig{
			Enable:               s.boolean(GNSSEn),
			DlocArgSeconds:       s.uint(DlocArgNom),
			AcqTimeoutMs:         s.uint(GNSSAcqTimeout),
			ColdAcqTimeoutMs:     s.uint(GNSSColdAcqTimeout),
			HDOPFilterEnable:     s.boolean(GNSSHDOPFiltEn),
			HDOPFilterThreshold:  s.uint(GNSSHDOPFiltThr),
			HAccFilterEnable:     s.boolean(GNSSHACCFiltEn),
			HAccFilterThreshold:  s.uint(GNSSHACCFiltThr),
			UnderwaterEnable:     s.boolean(UnderwaterEn),
		}
	}

	cfg.ColdStartRetryPeriod = s.uint(GNSSColdStartRetryPeriod)
	cfg.FixMode = GNSSFixMode(s.enum(GNSSFixModeParam))
	cfg.DynModel = GNSSDynModel(s.enum(GNSSDynModelParam))
	cfg.MinNumFixes = s.uint(GNSSMinNumFixes)
	cfg.AssistNowEnable = s.boolean(GNSSAssistNowEn)
	cfg.AssistNowOfflineEn = s.boolean(GNSSAssistNowOfflineEn)
	cfg.TriggerOnSurfaced = s.boolean(GNSSTriggerOnSurfaced)

	if s.boolean(CertTXEnable) {
		cfg.Enable = false
	}
	return cfg
}

// GetArgosConfiguration projects the mode-selected Argos settings (§4.2).
func (s *Store) GetArgosConfiguration() ArgosConfig {
	var cfg ArgosConfig
	switch s.mode() {
	case ConfigModeLowBattery:
		cfg = ArgosConfig{
			Mode:                  ArgosMode(s.enum(LBArgosMode)),
			DepthPile:             ArgosDepthPile(s.enum(LBArgosDepthPile)),
			DutyCycleOrRepSeconds: s.uint(LBArgosDutyCycle),
			NtryPerMessage:        s.uint(LBNtryPerMessage),
			Power:                 ArgosPower(s.enum(LBArgosPower)),
			TrNomSeconds:          s.uint(TrLB),
			DlocArgSeconds:        s.uint(DlocArgLB),
		}
	case ConfigModeOutOfZone:
		cfg = ArgosConfig{
			Mode:                  ArgosMode(s.enum(ZoneArgosMode)),
			DepthPile:             ArgosDepthPile(s.enum(ZoneArgosDepthPile)),
			DutyCycleOrRepSeconds: s.uint(ZoneArgosDutyCycle),
			NtryPerMessage:        s.uint(ZoneArgosNtryPerMessage),
			Power:                 ArgosPower(s.enum(ZoneArgosPower)),
			TrNomSeconds:          s.uint(ZoneArgosRepetitionSeconds),
			DlocArgSeconds:        s.uint(ZoneGNSSDeltaArgLocArgosSeconds),
		}
	default:
		cfg = ArgosConfig{
			Mode:                  ArgosMode(s.enum(ArgosModeParam)),
			DepthPile:             ArgosDepthPile(s.enum(ArgosDepthPileParam)),
			DutyCycleOrRepSeconds: s.uint(DutyCycle),
			NtryPerMessage:        s.uint(NtryPerMessage),
			Power:                 ArgosPower(s.enum(ArgosPowerParam)),
			TrNomSeconds:          s.uint(TrNom),
			DlocArgSeconds:        s.uint(DlocArgNom),
		}
	}

	cfg.Freq = s.float(ArgosFreq)
	cfg.DryTimeBeforeTXMs = s.uint(DryTimeBeforeTX)
	cfg.UnderwaterEnable = s.boolean(UnderwaterEn)
	cfg.HexID = s.uint(ArgosHexID)
	cfg.PPMinElevation = s.float(PPMinElevation)
	cfg.PPMaxElevation = s.float(PPMaxElevation)
	cfg.PPMinDuration = s.uint(PPMinDuration)
	cfg.PPMaxPasses = s.uint(PPMaxPasses)
	cfg.PPLinearMargin = s.uint(PPLinearMargin)
	cfg.PPCompStep = s.uint(PPCompStep)
	cfg.AOPDate = s.tm(ArgosAOPDate)
	cfg.RxAOPUpdatePeriod = s.uint(ArgosRxAOPUpdatePeriod)
	cfg.RxMaxWindow = s.uint(ArgosRxMaxWindow)
	cfg.RxEnable = s.boolean(ArgosRxEn)
	cfg.TxJitterEnable = s.boolean(ArgosTxJitterEn)
	cfg.TimeSyncBurstEnable = s.boolean(ArgosTimeSyncBurstEn)
	cfg.GNSSEnable = s.boolean(GNSSEn)

	cfg.CertTXEnable = s.boolean(CertTXEnable)
	cfg.CertTXModulation = ArgosModulation(s.enum(CertTXModulation))
	cfg.CertTXPayload = s.str(CertTXPayload)
	cfg.CertTXRepetition = s.uint(CertTXRepetition)
	cfg.TCXOWarmupTimeMs = s.uint(ArgosTCXOWarmupTime)

	if cfg.CertTXEnable {
		cfg.GNSSEnable = false
	}

	if cfg.GNSSEnable {
		var mask uint32
		// The *TxMode parameters are enums; 0 is OFF.
		if s.boolean(ALSSensorEnable) && s.enum(ALSSensorEnableTxMode) != 0 {
			mask |= 1 << ServiceBitALS
		}
		if s.boolean(PressureSensorEnable) && s.enum(PressureSensorEnableTxMode) != 0 {
			mask |= 1 << ServiceBitPressure
		}
		if s.boolean(SeaTempSensorEnable) && s.enum(SeaTempSensorEnableTxMode) != 0 {
			mask |= 1 << ServiceBitSeaTemp
		}
		if s.boolean(PHSensorEnable) && s.enum(PHSensorEnableTxMode) != 0 {
			mask |= 1 << ServiceBitPH
		}
		cfg.SensorTXEnable = mask
	}

	return cfg
}

// calcDeltaTimeLoc maps a requested location-reporting interval in seconds
// to the smallest DeltaTimeLoc bucket at least that long; an exactly-on-
// boundary value maps to that bucket (§8: 1799s and 1800s -> DeltaT30Min,
// 1801s -> DeltaT1Hour), and anything above 86400s maps to DeltaT24Hour.
func calcDeltaTimeLoc(seconds uint32) DeltaTimeLoc {
	thresholds := []struct {
		secs   uint32
		bucket DeltaTimeLoc
	}{
		{600, DeltaT10Min},
		{900, DeltaT15Min},
		{1800, DeltaT30Min},
		{3600, DeltaT1Hour},
		{7200, DeltaT2Hour},
		{10800, DeltaT3Hour},
		{14400, DeltaT4Hour},
		{21600, DeltaT6Hour},
		{43200, DeltaT12Hour},
		{86400, DeltaT24Hour},
	}
	for _, th := range thresholds {
		if seconds <= th.secs {
			return th.bucket
		}
	}
	return DeltaT24Hour
}

// DeltaTimeLocFor exposes calcDeltaTimeLoc to callers outside the package
// (the Argos long-packet builder) without making the bucket table itself
// public API.
func (s *Store) DeltaTimeLocFor(seconds uint32) DeltaTimeLoc { return calcDeltaTimeLoc(seconds) }

// SetLastTX records the time of the most recently completed transmission.
// LAST_TX is a read-only technical key (like TX_COUNTER), so this bypasses
// Write's writability check the same way IncrementTxCounter does.
func (s *Store) SetLastTX(t time.Time) { s.values[LastTX] = TimeValue(t) }

// IncrementTxCounter increments TX_COUNTER by one and returns the new value.
func (s *Store) IncrementTxCounter() uint32 {
	v := s.uint(TxCounter) + 1
	s.values[TxCounter] = UintValue(uint64(v))
	return v
}

// IncrementRxCounter increments ARGOS_RX_COUNTER by one.
func (s *Store) IncrementRxCounter() uint32 {
	v := s.uint(ArgosRxCounter) + 1
	s.values[ArgosRxCounter] = UintValue(uint64(v))
	return v
}

// IncrementRxTime adds inc seconds to ARGOS_RX_TIME.
func (s *Store) IncrementRxTime(inc uint32) uint32 {
	v := s.uint(ArgosRxTime) + inc
	s.values[ArgosRxTime] = UintValue(uint64(v))
	return v
}

// SetAOPDate records the time a complete AOP update was last merged.
// ARGOS_AOP_DATE is a read-only technical key, so this bypasses Write's
// writability check the same way SetLastTX does.
func (s *Store) SetAOPDate(t time.Time) { s.values[ArgosAOPDate] = TimeValue(t) }
