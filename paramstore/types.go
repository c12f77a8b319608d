// Package paramstore implements the typed, indexed parameter table with
// factory defaults, persistence, zone/exclusion evaluation, and the
// mode-dependent GNSS/Argos configuration projection (§3, §4.2).
package paramstore

import (
	"fmt"
	"time"

	"github.com/arribada/horizon-core/errs"
)

// Kind tags the scalar variant held by a Value.
type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
	KindBool
	KindEnum
)

// Value is the tagged union over a parameter's possible scalar types,
// replacing the original firmware's std::variant-backed BaseType with an
// explicit sum type per DESIGN NOTE §9 ("Dynamic typing of parameter
// values"). Unknown-arm access fails with errs.ErrParamWrongKind.
type Value struct {
	kind Kind
	u    uint64
	i    int64
	f    float64
	s    string
	t    time.Time
	b    bool
	e    int
}

func UintValue(v uint64) Value   { return Value{kind: KindUint, u: v} }
func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func TimeValue(v time.Time) Value { return Value{kind: KindTime, t: v} }
func BoolValue(v bool) Value     { return Value{kind: KindBool, b: v} }
func EnumValue(v int) Value      { return Value{kind: KindEnum, e: v} }

// Kind returns the held variant tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) AsUint() (uint64, error) {
	if v.kind != KindUint {
		return 0, fmt.Errorf("%w: want uint got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.u, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("%w: want int got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("%w: want float got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.f, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: want string got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.s, nil
}

func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, fmt.Errorf("%w: want time got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.t, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: want bool got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.b, nil
}

func (v Value) AsEnum() (int, error) {
	if v.kind != KindEnum {
		return 0, fmt.Errorf("%w: want enum got %v", errs.ErrParamWrongKind, v.kind)
	}
	return v.e, nil
}

// Enumerated types used by one or more parameters.
type (
	ArgosMode         int
	ArgosPower        int
	ArgosDepthPile    int
	ArgosModulation   int
	GNSSFixMode       int
	GNSSDynModel      int
	LEDMode           int
	ZoneType          int
	SensorTxMode      int
	UnderwaterSource  int
	PressureLogMode   int
	DeltaTimeLoc      int
)

const (
	ArgosModeOff ArgosMode = iota
	ArgosModeLegacy
	ArgosModeDutyCycle
	ArgosModePassPrediction
)

const (
	ZoneTypeCircle ZoneType = iota
	ZoneTypePolygon
)

const (
	UnderwaterSourceSWS UnderwaterSource = iota
	UnderwaterSourcePressure
	UnderwaterSourceGNSS
)

// ArgosPower values name the transceiver's fixed output power steps.
const (
	ArgosPower3mW ArgosPower = iota
	ArgosPower40mW
	ArgosPower200mW
	ArgosPower500mW
)

// Milliwatts returns the nominal transmit power in milliwatts.
func (p ArgosPower) Milliwatts() int {
	switch p {
	case ArgosPower3mW:
		return 3
	case ArgosPower40mW:
		return 40
	case ArgosPower200mW:
		return 200
	case ArgosPower500mW:
		return 500
	default:
		return 0
	}
}

// ArgosPowerFromMilliwatts is Milliwatts' inverse, matching
// argos_integer_to_power: a value between steps rounds down to the nearest
// step at or below it (anything under 40 gives 3mW) rather than erroring,
// since ARGOSTX's power argument comes straight off the wire.
func ArgosPowerFromMilliwatts(mw int) ArgosPower {
	switch {
	case mw >= 500:
		return ArgosPower500mW
	case mw >= 200:
		return ArgosPower200mW
	case mw >= 40:
		return ArgosPower40mW
	default:
		return ArgosPower3mW
	}
}

// ArgosModulation selects the uplink/downlink modulation family, ordered to
// match hal.ArgosMode (A2/A3/A4) so a cast between them is direct.
const (
	ArgosModulationA2 ArgosModulation = iota
	ArgosModulationA3
	ArgosModulationA4
)

const (
	DeltaT10Min DeltaTimeLoc = iota
	DeltaT15Min
	DeltaT30Min
	DeltaT1Hour
	DeltaT2Hour
	DeltaT3Hour
	DeltaT4Hour
	DeltaT6Hour
	DeltaT12Hour
	DeltaT24Hour
)

// ConfigMode is the priority-selected runtime mode (§4.2).
type ConfigMode int

const (
	ConfigModeNormal ConfigMode = iota
	ConfigModeLowBattery
	ConfigModeOutOfZone
)
