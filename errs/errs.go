// Package errs collects the sentinel error kinds shared across the beacon
// core so callers can classify failures with errors.Is instead of string
// matching, per the configuration/resource/radio/protocol taxonomy.
package errs

import "errors"

var (
	// ErrConfigStoreCorrupted is returned by paramstore reads/writes once the
	// persisted blob fails its version check and no factory reset has run.
	ErrConfigStoreCorrupted = errors.New("configuration store corrupted")
	// ErrUnknownParam is returned when a ParamID has no metadata entry.
	ErrUnknownParam = errors.New("unknown parameter id")
	// ErrParamReadOnly is returned by Store.Write for a write attempt against
	// a read-only key; the stored value is left unchanged.
	ErrParamReadOnly = errors.New("parameter is read-only")
	// ErrParamWrongKind is returned when a typed accessor is used against a
	// parameter whose Value holds a different Kind.
	ErrParamWrongKind = errors.New("parameter value kind mismatch")
	// ErrParamOutOfRange names a write value outside a parameter's range or
	// permitted enum set. Store.Write does not range-check values and does
	// not return it.
	ErrParamOutOfRange = errors.New("parameter value out of range")

	// ErrResourceUnavailable covers a missing sensor, missing wireless
	// charger, or an empty depth pile when a transmit was expected.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrInvalidSchedule names the case where no legal transmission instant
	// can be found (duty cycle empty, no pass found, no known location for
	// pass-prediction mode). argos.Scheduler does not return it.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrBadFilesystem is dispatched as a BadFilesystem event to the device
	// state machine on an unrecoverable mount failure.
	ErrBadFilesystem = errors.New("filesystem unavailable")

	// ErrPassPredictPoolFull names a pass-prediction search that would
	// overflow its working-set pool (Open Question in spec.md §9). The pass
	// predictor in this module does not return it.
	ErrPassPredictPoolFull = errors.New("pass predict pool exhausted")

	// ErrTaskQueueFull names a post that would exceed MAX_NUM_TASKS.
	// scheduler.Post reports a full queue through its ok result and does not
	// return this error.
	ErrTaskQueueFull = errors.New("scheduler task queue full")

	// ErrIncorrectData mirrors the control protocol's INCORRECT_DATA wire
	// error for callers below the protocol package that need to reject a
	// malformed command payload (e.g. an empty or undecodable PASPW upload)
	// before it reaches the wire encoder.
	ErrIncorrectData = errors.New("incorrect data")
)
