package paramstore

import "time"

// defaultValues returns the factory-default parameter table. Defaults are
// chosen to mirror the reference firmware's default_params array: radios
// and GNSS disabled until configured, NORMAL-mode cadences conservative,
// zone/low-battery overrides inert until armed.
func defaultValues() [paramCount]Value {
	var v [paramCount]Value

	str := func(id ParamID, s string) { v[id] = StringValue(s) }
	u := func(id ParamID, n uint64) { v[id] = UintValue(n) }
	f := func(id ParamID, x float64) { v[id] = FloatValue(x) }
	b := func(id ParamID, x bool) { v[id] = BoolValue(x) }
	e := func(id ParamID, x int) { v[id] = EnumValue(x) }
	t := func(id ParamID, x time.Time) { v[id] = TimeValue(x) }

	u(ArgosDecID, 0)
	u(ArgosHexID, 0)
	str(DeviceModel, "HORIZON-1")
	str(FWAppVersion, "0.0.0")
	t(LastTX, time.Time{})
	u(TxCounter, 0)
	u(BattSOC, 100)
	t(LastFullChargeDate, time.Time{})
	str(ProfileName, "default")
	u(AOPStatus, 0)
	t(ArgosAOPDate, time.Time{})
	f(ArgosFreq, 401.65)
	e(ArgosPowerParam, int(ArgosPower500mW))
	u(TrNom, 60)
	e(ArgosModeParam, int(ArgosModeOff))
	u(NtryPerMessage, 1)
	u(DutyCycle, 0xFFFFFF)
	e(ArgosDepthPileParam, 16)
	u(DlocArgNom, 600)
	b(ArgosRxEn, false)
	u(ArgosRxMaxWindow, 60)
	u(ArgosRxAOPUpdatePeriod, 0)
	u(ArgosRxCounter, 0)
	u(ArgosRxTime, 0)
	b(ArgosTxJitterEn, true)
	b(ArgosTimeSyncBurstEn, false)
	u(ArgosTCXOWarmupTime, 5000)
	u(DryTimeBeforeTX, 60)

	b(LBEn, false)
	u(LBThreshold, 20)
	u(TrLB, 120)
	e(LBArgosMode, int(ArgosModeOff))
	e(LBArgosPower, int(ArgosPower500mW))
	e(LBArgosDepthPile, 1)
	u(LBArgosDutyCycle, 0)
	u(LBNtryPerMessage, 1)
	b(LBGNSSEn, false)
	u(DlocArgLB, 3600)
	u(LBGNSSAcqTimeout, 60)
	u(LBGNSSHDOPFiltThr, 2)
	u(LBGNSSHACCFiltThr, 50)

	e(ZoneTypeParam, int(ZoneTypeCircle))
	b(ZoneEnableOutOfZoneDetectionMode, false)
	b(ZoneEnableActivationDate, false)
	t(ZoneActivationDate, time.Time{})
	f(ZoneCenterLongitude, 0)
	f(ZoneCenterLatitude, 0)
	u(ZoneRadius, 0)
	e(ZoneArgosMode, int(ArgosModeOff))
	e(ZoneArgosPower, int(ArgosPower500mW))
	e(ZoneArgosDepthPile, 1)
	u(ZoneArgosDutyCycle, 0)
	u(ZoneArgosNtryPerMessage, 1)
	u(ZoneArgosRepetitionSeconds, 120)
	u(ZoneGNSSDeltaArgLocArgosSeconds, 600)
	u(ZoneGNSSAcqTimeout, 60)
	u(ZoneGNSSHDOPFiltThr, 2)
	u(ZoneGNSSHACCFiltThr, 50)

	b(GNSSEn, false)
	u(GNSSAcqTimeout, 60)
	u(GNSSColdAcqTimeout, 120)
	u(GNSSColdStartRetryPeriod, 3600)
	b(GNSSHDOPFiltEn, true)
	u(GNSSHDOPFiltThr, 2)
	b(GNSSHACCFiltEn, true)
	u(GNSSHACCFiltThr, 50)
	e(GNSSFixModeParam, 0)
	e(GNSSDynModelParam, 0)
	u(GNSSMinNumFixes, 1)
	b(GNSSAssistNowEn, false)
	b(GNSSAssistNowOfflineEn, false)
	b(GNSSTriggerOnSurfaced, false)
	b(GNSSTriggerOnAxlWakeup, false)

	b(UnderwaterEn, false)
	e(UnderwaterDetectSource, int(UnderwaterSourceSWS))
	f(UnderwaterDetectThreshold, 1.5)
	u(UWSampleGapMs, 1000)
	u(UWMaxSamples, 60)
	u(UWMinDrySamples, 3)
	u(UWPinSampleDelayMs, 100)
	u(SamplingUnderFreqMs, 60000)
	u(SamplingSurfFreqMs, 10000)

	f(PPMinElevation, 5.0)
	f(PPMaxElevation, 90.0)
	u(PPMinDuration, 30)
	u(PPMaxPasses, 1)
	u(PPLinearMargin, 1000)
	u(PPCompStep, 30)
	u(PassPredictPoolSize, 8)

	b(CertTXEnable, false)
	e(CertTXModulation, 0)
	str(CertTXPayload, "")
	u(CertTXRepetition, 1)

	b(ALSSensorEnable, false)
	e(ALSSensorEnableTxMode, 0)
	b(PressureSensorEnable, false)
	e(PressureSensorEnableTxMode, 0)
	b(SeaTempSensorEnable, false)
	e(SeaTempSensorEnableTxMode, 0)
	b(PHSensorEnable, false)
	e(PHSensorEnableTxMode, 0)

	u(CriticalVoltageMV, 3300)

	return v
}
