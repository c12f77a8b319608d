package paramstore

// ParamID indexes the compile-time parameter metadata table. Values mirror
// the grouping of the reference firmware's config_store.hpp (NORMAL / LB /
// ZONE variants of the same logical setting), not its numeric ordinals.
type ParamID int

const (
	ArgosDecID ParamID = iota
	ArgosHexID
	DeviceModel
	FWAppVersion
	LastTX
	TxCounter
	BattSOC
	LastFullChargeDate
	ProfileName
	AOPStatus
	ArgosAOPDate
	ArgosFreq
	ArgosPowerParam
	TrNom
	ArgosModeParam
	NtryPerMessage
	DutyCycle
	ArgosDepthPileParam
	DlocArgNom
	ArgosRxEn
	ArgosRxMaxWindow
	ArgosRxAOPUpdatePeriod
	ArgosRxCounter
	ArgosRxTime
	ArgosTxJitterEn
	ArgosTimeSyncBurstEn
	ArgosTCXOWarmupTime
	DryTimeBeforeTX

	LBEn
	LBThreshold
	TrLB
	LBArgosMode
	LBArgosPower
	LBArgosDepthPile
	LBArgosDutyCycle
	LBNtryPerMessage
	LBGNSSEn
	DlocArgLB
	LBGNSSAcqTimeout
	LBGNSSHDOPFiltThr
	LBGNSSHACCFiltThr

	ZoneTypeParam
	ZoneEnableOutOfZoneDetectionMode
	ZoneEnableActivationDate
	ZoneActivationDate
	ZoneCenterLongitude
	ZoneCenterLatitude
	ZoneRadius
	ZoneArgosMode
	ZoneArgosPower
	ZoneArgosDepthPile
	ZoneArgosDutyCycle
	ZoneArgosNtryPerMessage
	ZoneArgosRepetitionSeconds
	ZoneGNSSDeltaArgLocArgosSeconds
	ZoneGNSSAcqTimeout
	ZoneGNSSHDOPFiltThr
	ZoneGNSSHACCFiltThr

	GNSSEn
	GNSSAcqTimeout
	GNSSColdAcqTimeout
	GNSSColdStartRetryPeriod
	GNSSHDOPFiltEn
	GNSSHDOPFiltThr
	GNSSHACCFiltEn
	GNSSHACCFiltThr
	GNSSFixModeParam
	GNSSDynModelParam
	GNSSMinNumFixes
	GNSSAssistNowEn
	GNSSAssistNowOfflineEn
	GNSSTriggerOnSurfaced
	GNSSTriggerOnAxlWakeup

	UnderwaterEn
	UnderwaterDetectSource
	UnderwaterDetectThreshold
	UWSampleGapMs
	UWMaxSamples
	UWMinDrySamples
	UWPinSampleDelayMs
	SamplingUnderFreqMs
	SamplingSurfFreqMs

	PPMinElevation
	PPMaxElevation
	PPMinDuration
	PPMaxPasses
	PPLinearMargin
	PPCompStep
	PassPredictPoolSize

	CertTXEnable
	CertTXModulation
	CertTXPayload
	CertTXRepetition

	ALSSensorEnable
	ALSSensorEnableTxMode
	PressureSensorEnable
	PressureSensorEnableTxMode
	SeaTempSensorEnable
	SeaTempSensorEnableTxMode
	PHSensorEnable
	PHSensorEnableTxMode

	CriticalVoltageMV

	paramCount
)

// meta describes one ParamID's static characteristics.
type meta struct {
	name       string
	wireKey    string
	kind       Kind
	implemented bool
	writable   bool
}

var table = buildTable()

func buildTable() [paramCount]meta {
	var t [paramCount]meta
	set := func(id ParamID, name, wireKey string, kind Kind, writable bool) {
		t[id] = meta{name: name, wireKey: wireKey, kind: kind, implemented: true, writable: writable}
	}

	set(ArgosDecID, "ARGOS_DECID", "IDT6", KindUint, false)
	set(ArgosHexID, "ARGOS_HEXID", "IDT7", KindUint, true)
	set(DeviceModel, "DEVICE_MODEL", "MOD1", KindString, false)
	set(FWAppVersion, "FW_APP_VERSION", "FWV1", KindString, false)
	set(LastTX, "LAST_TX", "LTX1", KindTime, false)
	set(TxCounter, "TX_COUNTER", "TXC1", KindUint, false)
	set(BattSOC, "BATT_SOC", "BAT1", KindUint, false)
	set(LastFullChargeDate, "LAST_FULL_CHARGE_DATE", "LFC1", KindTime, false)
	set(ProfileName, "PROFILE_NAME", "PRF1", KindString, true)
	set(AOPStatus, "AOP_STATUS", "AOP1", KindUint, false)
	set(ArgosAOPDate, "ARGOS_AOP_DATE", "AOPD", KindTime, false)
	set(ArgosFreq, "ARGOS_FREQ", "AFRQ", KindFloat, true)
	set(ArgosPowerParam, "ARGOS_POWER", "APWR", KindEnum, true)
	set(TrNom, "TR_NOM", "ATRN", KindUint, true)
	set(ArgosModeParam, "ARGOS_MODE", "AMOD", KindEnum, true)
	set(NtryPerMessage, "NTRY_PER_MESSAGE", "ANTM", KindUint, true)
	set(DutyCycle, "DUTY_CYCLE", "ADTY", KindUint, true)
	set(ArgosDepthPileParam, "ARGOS_DEPTH_PILE", "ADPT", KindEnum, true)
	set(DlocArgNom, "DLOC_ARG_NOM", "ADLN", KindUint, true)
	set(ArgosRxEn, "ARGOS_RX_EN", "ARXE", KindBool, true)
	set(ArgosRxMaxWindow, "ARGOS_RX_MAX_WINDOW", "ARXW", KindUint, true)
	set(ArgosRxAOPUpdatePeriod, "ARGOS_RX_AOP_UPDATE_PERIOD", "ARXP", KindUint, true)
	set(ArgosRxCounter, "ARGOS_RX_COUNTER", "ARXC", KindUint, false)
	set(ArgosRxTime, "ARGOS_RX_TIME", "ARXT", KindUint, false)
	set(ArgosTxJitterEn, "ARGOS_TX_JITTER_EN", "ATXJ", KindBool, true)
	set(ArgosTimeSyncBurstEn, "ARGOS_TIME_SYNC_BURST_EN", "ATSB", KindBool, true)
	set(ArgosTCXOWarmupTime, "ARGOS_TCXO_WARMUP_TIME", "ATCX", KindUint, true)
	set(DryTimeBeforeTX, "DRY_TIME_BEFORE_TX", "ADRY", KindUint, true)

	set(LBEn, "LB_EN", "LBEN", KindBool, true)
	set(LBThreshold, "LB_TRESHOLD", "LBTH", KindUint, true)
	set(TrLB, "TR_LB", "LBTR", KindUint, true)
	set(LBArgosMode, "LB_ARGOS_MODE", "LBAM", KindEnum, true)
	set(LBArgosPower, "LB_ARGOS_POWER", "LBAP", KindEnum, true)
	set(LBArgosDepthPile, "LB_ARGOS_DEPTH_PILE", "LBAD", KindEnum, true)
	set(LBArgosDutyCycle, "LB_ARGOS_DUTY_CYCLE", "LBDT", KindUint, true)
	set(LBNtryPerMessage, "LB_NTRY_PER_MESSAGE", "LBNT", KindUint, true)
	set(LBGNSSEn, "LB_GNSS_EN", "LBGE", KindBool, true)
	set(DlocArgLB, "DLOC_ARG_LB", "LBDL", KindUint, true)
	set(LBGNSSAcqTimeout, "LB_GNSS_ACQ_TIMEOUT", "LBGA", KindUint, true)
	set(LBGNSSHDOPFiltThr, "LB_GNSS_HDOPFILT_THR", "LBGH", KindUint, true)
	set(LBGNSSHACCFiltThr, "LB_GNSS_HACCFILT_THR", "LBGC", KindUint, true)

	set(ZoneTypeParam, "ZONE_TYPE", "ZTYP", KindEnum, true)
	set(ZoneEnableOutOfZoneDetectionMode, "ZONE_ENABLE_OUT_OF_ZONE_DETECTION_MODE", "ZOOZ", KindBool, true)
	set(ZoneEnableActivationDate, "ZONE_ENABLE_ACTIVATION_DATE", "ZOAD", KindBool, true)
	set(ZoneActivationDate, "ZONE_ACTIVATION_DATE", "ZACD", KindTime, true)
	set(ZoneCenterLongitude, "ZONE_CENTER_LONGITUDE", "ZCLO", KindFloat, true)
	set(ZoneCenterLatitude, "ZONE_CENTER_LATITUDE", "ZCLA", KindFloat, true)
	set(ZoneRadius, "ZONE_RADIUS", "ZRAD", KindUint, true)
	set(ZoneArgosMode, "ZONE_ARGOS_MODE", "ZAMD", KindEnum, true)
	set(ZoneArgosPower, "ZONE_ARGOS_POWER", "ZAPW", KindEnum, true)
	set(ZoneArgosDepthPile, "ZONE_ARGOS_DEPTH_PILE", "ZADP", KindEnum, true)
	set(ZoneArgosDutyCycle, "ZONE_ARGOS_DUTY_CYCLE", "ZADT", KindUint, true)
	set(ZoneArgosNtryPerMessage, "ZONE_ARGOS_NTRY_PER_MESSAGE", "ZANT", KindUint, true)
	set(ZoneArgosRepetitionSeconds, "ZONE_ARGOS_REPETITION_SECONDS", "ZARP", KindUint, true)
	set(ZoneGNSSDeltaArgLocArgosSeconds, "ZONE_GNSS_DELTA_ARG_LOC_ARGOS_SECONDS", "ZGDL", KindUint, true)
	set(ZoneGNSSAcqTimeout, "ZONE_GNSS_ACQ_TIMEOUT", "ZGAQ", KindUint, true)
	set(ZoneGNSSHDOPFiltThr, "ZONE_GNSS_HDOPFILT_THR", "ZGHD", KindUint, true)
	set(ZoneGNSSHACCFiltThr, "ZONE_GNSS_HACCFILT_THR", "ZGHC", KindUint, true)

	set(GNSSEn, "GNSS_EN", "GPSE", KindBool, true)
	set(GNSSAcqTimeout, "GNSS_ACQ_TIMEOUT", "GACQ", KindUint, true)
	set(GNSSColdAcqTimeout, "GNSS_COLD_ACQ_TIMEOUT", "GCAQ", KindUint, true)
	set(GNSSColdStartRetryPeriod, "GNSS_COLD_START_RETRY_PERIOD", "GCRP", KindUint, true)
	set(GNSSHDOPFiltEn, "GNSS_HDOPFILT_EN", "GHDE", KindBool, true)
	set(GNSSHDOPFiltThr, "GNSS_HDOPFILT_THR", "GHDT", KindUint, true)
	set(GNSSHACCFiltEn, "GNSS_HACCFILT_EN", "GHAE", KindBool, true)
	set(GNSSHACCFiltThr, "GNSS_HACCFILT_THR", "GHAT", KindUint, true)
	set(GNSSFixModeParam, "GNSS_FIX_MODE", "GFXM", KindEnum, true)
	set(GNSSDynModelParam, "GNSS_DYN_MODEL", "GDYN", KindEnum, true)
	set(GNSSMinNumFixes, "GNSS_MIN_NUM_FIXES", "GMNF", KindUint, true)
	set(GNSSAssistNowEn, "GNSS_ASSISTNOW_EN", "GASE", KindBool, true)
	set(GNSSAssistNowOfflineEn, "GNSS_ASSISTNOW_OFFLINE_EN", "GASO", KindBool, true)
	set(GNSSTriggerOnSurfaced, "GNSS_TRIGGER_ON_SURFACED", "GTOS", KindBool, true)
	set(GNSSTriggerOnAxlWakeup, "GNSS_TRIGGER_ON_AXL_WAKEUP", "GTOA", KindBool, true)

	set(UnderwaterEn, "UNDERWATER_EN", "UWEN", KindBool, true)
	set(UnderwaterDetectSource, "UNDERWATER_DETECT_SOURCE", "UWSR", KindEnum, true)
	set(UnderwaterDetectThreshold, "UNDERWATER_DETECT_THRESH", "UWTH", KindFloat, true)
	set(UWSampleGapMs, "UW_SAMPLE_GAP", "UWSG", KindUint, true)
	set(UWMaxSamples, "UW_MAX_SAMPLES", "UWMX", KindUint, true)
	set(UWMinDrySamples, "UW_MIN_DRY_SAMPLES", "UWMD", KindUint, true)
	set(UWPinSampleDelayMs, "UW_PIN_SAMPLE_DELAY", "UWPD", KindUint, true)
	set(SamplingUnderFreqMs, "SAMPLING_UNDER_FREQ", "UWUF", KindUint, true)
	set(SamplingSurfFreqMs, "SAMPLING_SURF_FREQ", "UWSF", KindUint, true)

	set(PPMinElevation, "PP_MIN_ELEVATION", "PPME", KindFloat, true)
	set(PPMaxElevation, "PP_MAX_ELEVATION", "PPMX", KindFloat, true)
	set(PPMinDuration, "PP_MIN_DURATION", "PPMD", KindUint, true)
	set(PPMaxPasses, "PP_MAX_PASSES", "PPMP", KindUint, true)
	set(PPLinearMargin, "PP_LINEAR_MARGIN", "PPLM", KindUint, true)
	set(PPCompStep, "PP_COMP_STEP", "PPCS", KindUint, true)
	set(PassPredictPoolSize, "PASS_PREDICT_POOL_SIZE", "PPPS", KindUint, true)

	set(CertTXEnable, "CERT_TX_ENABLE", "CTXE", KindBool, true)
	set(CertTXModulation, "CERT_TX_MODULATION", "CTXM", KindEnum, true)
	set(CertTXPayload, "CERT_TX_PAYLOAD", "CTXP", KindString, true)
	set(CertTXRepetition, "CERT_TX_REPETITION", "CTXR", KindUint, true)

	set(ALSSensorEnable, "ALS_SENSOR_ENABLE", "ALSE", KindBool, true)
	set(ALSSensorEnableTxMode, "ALS_SENSOR_ENABLE_TX_MODE", "ALST", KindEnum, true)
	set(PressureSensorEnable, "PRESSURE_SENSOR_ENABLE", "PSSE", KindBool, true)
	set(PressureSensorEnableTxMode, "PRESSURE_SENSOR_ENABLE_TX_MODE", "PSST", KindEnum, true)
	set(SeaTempSensorEnable, "SEA_TEMP_SENSOR_ENABLE", "STSE", KindBool, true)
	set(SeaTempSensorEnableTxMode, "SEA_TEMP_SENSOR_ENABLE_TX_MODE", "STST", KindEnum, true)
	set(PHSensorEnable, "PH_SENSOR_ENABLE", "PHSE", KindBool, true)
	set(PHSensorEnableTxMode, "PH_SENSOR_ENABLE_TX_MODE", "PHST", KindEnum, true)

	set(CriticalVoltageMV, "CRITICAL_VOLTAGE_MV", "CRVM", KindUint, true)

	return t
}

// Name returns the parameter's wire/display name.
func (id ParamID) Name() string {
	if int(id) < 0 || int(id) >= int(paramCount) {
		return "UNKNOWN"
	}
	return table[id].name
}

// Count is the number of parameter slots in the table, implemented or not.
func Count() int { return int(paramCount) }

// ParamIDByName resolves a wire/display name (e.g. "GNSS_EN") back to its
// ParamID. Only implemented parameters are matched.
func ParamIDByName(name string) (ParamID, bool) {
	for id := ParamID(0); id < paramCount; id++ {
		if table[id].implemented && table[id].name == name {
			return id, true
		}
	}
	return 0, false
}
