package control

import (
	"errors"
	"fmt"

	"zonectl/internal/models"
)

// Configuration errors, returned synchronously from set operations. These map
// one-to-one onto API responses; nothing here is retried automatically.
var (
	ErrInvalidIndex         = errors.New("output index out of range")
	ErrInvalidRange         = errors.New("value out of allowed range")
	ErrIncompatibleHardware = errors.New("device class incompatible with channel hardware")
	ErrInvalidMode          = errors.New("unknown control mode")
)

// ErrSafeModeActive is returned when exiting safe mode is required before the
// requested operation can proceed.
var ErrSafeModeActive = errors.New("safe mode active")

// FaultStillActiveError is returned by ClearFault when the underlying
// condition has not gone away (or not by enough margin). It carries the fault
// so callers can report it.
type FaultStillActiveError struct {
	Fault models.FaultKind
}

func (e *FaultStillActiveError) Error() string {
	return fmt.Sprintf("fault still active: %s", e.Fault)
}

// IsFaultStillActive reports whether err is a FaultStillActiveError and
// returns the fault it carries.
func IsFaultStillActive(err error) (models.FaultKind, bool) {
	var fe *FaultStillActiveError
	if errors.As(err, &fe) {
		return fe.Fault, true
	}
	return models.FaultNone, false
}
