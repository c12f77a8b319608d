package protocol

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/argos"
	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/statemachine"
)

// Action is an alias for statemachine.Action: what the caller must do once
// it has delivered the handler's response, since RSTBW/FACTW must be
// deferred until after the DTE has the acknowledgement on the wire. Handler
// satisfies statemachine.ProtocolHandler by construction.
type Action = statemachine.Action

const (
	ActionNone         = statemachine.ActionNone
	ActionReboot       = statemachine.ActionReboot
	ActionFactoryReset = statemachine.ActionFactoryReset
	// ActionAgain asks the caller to re-invoke Handle with the same line,
	// used by DUMPD to page a log dump across several responses.
	ActionAgain = statemachine.ActionAgain
)

// maxLogDumpEntries bounds a single DUMPD response to 8 log records,
// matching DTE_HANDLER_MAX_LOG_DUMP_ENTRIES.
const maxLogDumpEntries = 8

// Handler dispatches decoded command frames against a paramstore.Store and
// a set of named logs, matching dte_handler.hpp's per-command handlers.
type Handler struct {
	store       *paramstore.Store
	logs        map[string]hal.Logger
	log         logrus.FieldLogger
	argosDevice hal.ArgosDevice
	aopStore    argos.AOPPersister
	calibrated  map[string]hal.Calibratable
	mem         hal.MemoryReader
	now         func() time.Time

	// dumpNNN/dumpMmm track DUMPD's paging cursor across the ActionAgain
	// re-invocations driven by the state machine; 0 means "idle".
	dumpNNN int
	dumpMmm int
}

// New constructs a Handler. logs maps the log names used by DUMPD/ERASE
// (e.g. "system", "sensor") to their hal.Logger. argosDevice and aopStore
// back ARGTX/PASPW and may be nil if those commands are unused; likewise
// calibrated (keyed by device name, backing SCALR/SCALW) and mem (backing
// DUMPM) are optional.
func New(store *paramstore.Store, logs map[string]hal.Logger, log logrus.FieldLogger,
	argosDevice hal.ArgosDevice, aopStore argos.AOPPersister,
	calibrated map[string]hal.Calibratable, mem hal.MemoryReader) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		store:       store,
		logs:        logs,
		log:         log,
		argosDevice: argosDevice,
		aopStore:    aopStore,
		calibrated:  calibrated,
		mem:         mem,
		now:         time.Now,
	}
}

// Handle decodes line and dispatches it, returning the wire response to
// send back verbatim.
func (h *Handler) Handle(line string) (string, Action, error) {
	frame, decErr := Decode(line)
	if decErr != ErrOK {
		return EncodeError("ERROR", decErr), ActionNone, nil
	}

	switch frame.Key {
	case "PARML":
		return h.handlePARML(), ActionNone, nil
	case "PARMR":
		return h.handlePARMR(frame.Args), ActionNone, nil
	case "PARMW":
		return h.handlePARMW(frame.Args)
	case "STATR":
		return h.handleSTATR(frame.Args), ActionNone, nil
	case "RSTVW":
		return h.handleRSTVW(frame.Args), ActionNone, nil
	case "RSTBW":
		return Encode("RSTBW"), ActionReboot, nil
	case "FACTW":
		return Encode("FACTW"), ActionFactoryReset, nil
	case "ERASE":
		return h.handleERASE(frame.Args), ActionNone, nil
	case "PROFR":
		return h.handlePROFR(), ActionNone, nil
	case "PROFW":
		return h.handlePROFW(frame.Args)
	case "SECUR":
		// The access-code argument is presently unchecked: there is no
		// OTA firmware-update command yet for it to gate.
		return Encode("SECUR"), ActionNone, nil
	case "DUMPM":
		return h.handleDUMPM(frame.Args), ActionNone, nil
	case "PASPW":
		return h.handlePASPW(frame.Args), ActionNone, nil
	case "DUMPD":
		return h.handleDUMPD(frame.Args)
	case "SCALW":
		return h.handleSCALW(frame.Args), ActionNone, nil
	case "SCALR":
		return h.handleSCALR(frame.Args), ActionNone, nil
	case "ARGTX":
		return h.handleARGOSTX(frame.Args), ActionNone, nil
	default:
		return EncodeError(frame.Key, ErrIncorrectCommand), ActionNone, nil
	}
}

// handlePARML lists every implemented parameter's name (ParamID.Name).
func (h *Handler) handlePARML() string {
	var keys []string
	for i := 0; i < paramstore.Count(); i++ {
		id := paramstore.ParamID(i)
		if name := id.Name(); name != "" && name != "UNKNOWN" {
			keys = append(keys, name)
		}
	}
	return Encode("PARMR", keys...)
}

func (h *Handler) handlePARMR(args []string) string {
	var parts []string
	for _, name := range args {
		id, ok := paramstore.ParamIDByName(name)
		if !ok {
			return EncodeError("PARMR", ErrIncorrectData)
		}
		v, err := h.store.Read(id)
		if err != nil {
			return EncodeError("PARMR", ErrIncorrectData)
		}
		parts = append(parts, name+"="+formatValue(v))
	}
	return Encode("PARMR", parts...)
}

func (h *Handler) handlePARMW(args []string) (string, Action, error) {
	for _, kv := range args {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return EncodeError("PARMW", ErrIncorrectData), ActionNone, nil
		}
		id, ok := paramstore.ParamIDByName(name)
		if !ok {
			return EncodeError("PARMW", ErrIncorrectData), ActionNone, nil
		}
		current, err := h.store.Read(id)
		if err != nil {
			return EncodeError("PARMW", ErrIncorrectData), ActionNone, nil
		}
		v, err := parseValue(current.Kind(), raw)
		if err != nil {
			return EncodeError("PARMW", ErrIncorrectData), ActionNone, nil
		}
		if err := h.store.Write(id, v); err != nil {
			h.log.WithError(err).WithField("param", name).Warn("protocol: PARMW rejected")
		}
	}
	if err := h.store.Save(); err != nil {
		h.log.WithError(err).Warn("protocol: PARMW save failed")
	}
	return Encode("PARMW"), ActionNone, nil
}

func (h *Handler) handleSTATR(args []string) string {
	return h.handlePARMR(args)
}

func (h *Handler) handleRSTVW(args []string) string {
	if len(args) != 1 {
		return EncodeError("RSTVW", ErrIncorrectData)
	}
	switch args[0] {
	case "TX_COUNTER":
		h.store.IncrementTxCounter()
	case "RX_COUNTER":
		h.store.IncrementRxCounter()
	default:
		return EncodeError("RSTVW", ErrIncorrectData)
	}
	return Encode("RSTVW")
}

func (h *Handler) handleERASE(args []string) string {
	if len(args) != 1 {
		return EncodeError("ERASE", ErrIncorrectData)
	}
	name := args[0]
	if name == "ALL" {
		for _, l := range h.logs {
			if err := l.Truncate(); err != nil {
				return EncodeError("ERASE", ErrIncorrectData)
			}
		}
		return Encode("ERASE")
	}
	l, ok := h.logs[name]
	if !ok {
		return EncodeError("ERASE", ErrIncorrectData)
	}
	if err := l.Truncate(); err != nil {
		return EncodeError("ERASE", ErrIncorrectData)
	}
	return Encode("ERASE")
}

// handlePROFR reads the active profile name.
func (h *Handler) handlePROFR() string {
	v, err := h.store.Read(paramstore.ProfileName)
	if err != nil {
		return EncodeError("PROFR", ErrIncorrectData)
	}
	name, _ := v.AsString()
	return Encode("PROFR", name)
}

// handlePROFW sets the active profile name.
func (h *Handler) handlePROFW(args []string) (string, Action, error) {
	if len(args) != 1 {
		return EncodeError("PROFW", ErrIncorrectData), ActionNone, nil
	}
	if err := h.store.Write(paramstore.ProfileName, paramstore.StringValue(args[0])); err != nil {
		return EncodeError("PROFW", ErrIncorrectData), ActionNone, nil
	}
	h.store.Save()
	return Encode("PROFW"), ActionNone, nil
}

// handleDUMPM returns a hex-encoded read of a physical address range.
func (h *Handler) handleDUMPM(args []string) string {
	if h.mem == nil || len(args) != 2 {
		return EncodeError("DUMPM", ErrIncorrectData)
	}
	address, err1 := strconv.ParseUint(args[0], 0, 32)
	length, err2 := strconv.ParseUint(args[1], 0, 32)
	if err1 != nil || err2 != nil {
		return EncodeError("DUMPM", ErrIncorrectData)
	}
	raw, err := h.mem.ReadMemory(uint32(address), uint32(length))
	if err != nil {
		return EncodeError("DUMPM", ErrIncorrectData)
	}
	return Encode("DUMPM", hex.EncodeToString(raw))
}

// handlePASPW decodes a hex-encoded AOP blob and merges it into the stored
// pass-predict table, matching PASPW_REQ.
func (h *Handler) handlePASPW(args []string) string {
	if h.aopStore == nil || len(args) != 1 {
		return EncodeError("PASPW", ErrIncorrectData)
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return EncodeError("PASPW", ErrIncorrectData)
	}
	if err := argos.ApplyPassPredictUpdate(h.store, h.aopStore, h.now(), raw); err != nil {
		h.log.WithError(err).Warn("protocol: PASPW rejected")
		return EncodeError("PASPW", ErrIncorrectData)
	}
	return Encode("PASPW")
}

// handleDUMPD pages a named log's CSV rendering out 8 entries per response,
// asking the caller (via ActionAgain) to re-invoke it with the same request
// until mmm reaches MMM.
func (h *Handler) handleDUMPD(args []string) (string, Action, error) {
	if len(args) != 1 {
		h.resetDumpD()
		return EncodeError("DUMPD", ErrIncorrectData), ActionNone, nil
	}
	logger, ok := h.logs[args[0]]
	if !ok {
		h.resetDumpD()
		return EncodeError("DUMPD", ErrIncorrectData), ActionNone, nil
	}
	total, err := logger.NumEntries()
	if err != nil {
		h.resetDumpD()
		return EncodeError("DUMPD", ErrIncorrectData), ActionNone, nil
	}

	if h.dumpNNN == 0 {
		h.dumpNNN = (total + maxLogDumpEntries - 1) / maxLogDumpEntries
		if h.dumpNNN == 0 {
			h.dumpNNN = 1
		}
		h.dumpMmm = 0
	}

	start := h.dumpMmm * maxLogDumpEntries
	n := total - start
	if n > maxLogDumpEntries {
		n = maxLogDumpEntries
	}
	if n < 0 {
		n = 0
	}

	var csv strings.Builder
	formatter := logger.Formatter()
	if h.dumpMmm == 0 && formatter != nil {
		csv.WriteString(formatter.Header())
	}
	for i := 0; i < n; i++ {
		entry, err := logger.Read(start + i)
		if err != nil {
			break
		}
		if formatter != nil {
			csv.WriteString(formatter.LogEntry(entry))
		}
	}

	mmm := h.dumpMmm
	resp := Encode("DUMPD", strconv.Itoa(mmm), strconv.Itoa(h.dumpNNN-1), csv.String())

	h.dumpMmm++
	action := ActionAgain
	if h.dumpMmm >= h.dumpNNN {
		h.resetDumpD()
		action = ActionNone
	}
	return resp, action, nil
}

func (h *Handler) resetDumpD() {
	h.dumpNNN = 0
	h.dumpMmm = 0
}

// handleSCALW writes a calibration offset on a named device.
func (h *Handler) handleSCALW(args []string) string {
	if len(args) != 3 {
		return EncodeError("SCALW", ErrIncorrectData)
	}
	cal, ok := h.calibrated[args[0]]
	if !ok {
		return EncodeError("SCALW", ErrIncorrectData)
	}
	offset, err1 := strconv.Atoi(args[1])
	value, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return EncodeError("SCALW", ErrIncorrectData)
	}
	if err := cal.CalibrationWrite(offset, value); err != nil {
		return EncodeError("SCALW", ErrIncorrectData)
	}
	return Encode("SCALW")
}

// handleSCALR reads a calibration offset on a named device.
func (h *Handler) handleSCALR(args []string) string {
	if len(args) != 2 {
		return EncodeError("SCALR", ErrIncorrectData)
	}
	cal, ok := h.calibrated[args[0]]
	if !ok {
		return EncodeError("SCALR", ErrIncorrectData)
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil {
		return EncodeError("SCALR", ErrIncorrectData)
	}
	value, err := cal.CalibrationRead(offset)
	if err != nil {
		return EncodeError("SCALR", ErrIncorrectData)
	}
	return Encode("SCALR", strconv.FormatFloat(value, 'f', -1, 64))
}

// handleARGOSTX fires a single manual Argos transmission of num_bytes of
// 0xFF filler, matching ARGOSTX_REQ's certification/bench-test use. The
// original firmware's command_map has no entry for this request under the
// 5-character key constraint every other command observes, so ARGTX is used
// on the wire here instead of the full ARGOSTX_REQ enum name.
func (h *Handler) handleARGOSTX(args []string) string {
	if h.argosDevice == nil || len(args) != 5 {
		return EncodeError("ARGTX", ErrIncorrectData)
	}
	modVal, err1 := strconv.Atoi(args[0])
	powerMW, err2 := strconv.Atoi(args[1])
	freq, err3 := strconv.ParseFloat(args[2], 64)
	numBytes, err4 := strconv.Atoi(args[3])
	tcxoMs, err5 := strconv.Atoi(args[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return EncodeError("ARGTX", ErrIncorrectData)
	}
	if modVal < int(hal.ArgosModeA2) || modVal > int(hal.ArgosModeA4) || numBytes <= 0 {
		return EncodeError("ARGTX", ErrIncorrectData)
	}

	h.argosDevice.SetTxPower(int(paramstore.ArgosPowerFromMilliwatts(powerMW)))
	h.argosDevice.SetTCXOWarmupTime(uint32(tcxoMs))
	h.argosDevice.SetFrequency(freq)

	packet := make([]byte, numBytes)
	for i := range packet {
		packet[i] = 0xFF
	}
	if err := h.argosDevice.Send(hal.ArgosMode(modVal), packet, 8*numBytes); err != nil {
		return EncodeError("ARGTX", ErrIncorrectData)
	}
	return Encode("ARGTX")
}

func formatValue(v paramstore.Value) string {
	switch v.Kind() {
	case paramstore.KindUint:
		u, _ := v.AsUint()
		return strconv.FormatUint(u, 10)
	case paramstore.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case paramstore.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'f', -1, 64)
	case paramstore.KindString:
		s, _ := v.AsString()
		return s
	case paramstore.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case paramstore.KindEnum:
		e, _ := v.AsEnum()
		return strconv.Itoa(e)
	case paramstore.KindTime:
		t, _ := v.AsTime()
		return t.UTC().Format("2006-01-02T15:04:05Z")
	default:
		return ""
	}
}

func parseValue(kind paramstore.Kind, raw string) (paramstore.Value, error) {
	switch kind {
	case paramstore.KindUint:
		u, err := strconv.ParseUint(raw, 10, 64)
		return paramstore.UintValue(u), err
	case paramstore.KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		return paramstore.IntValue(i), err
	case paramstore.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		return paramstore.FloatValue(f), err
	case paramstore.KindString:
		return paramstore.StringValue(raw), nil
	case paramstore.KindBool:
		b, err := strconv.ParseBool(raw)
		return paramstore.BoolValue(b), err
	case paramstore.KindEnum:
		e, err := strconv.Atoi(raw)
		return paramstore.EnumValue(e), err
	default:
		return paramstore.Value{}, strconv.ErrSyntax
	}
}
