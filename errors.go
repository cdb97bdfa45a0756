package margin

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the structured errors below.
var (
	ErrValidation              = errors.New("validation error")
	ErrInsufficientLotQuantity = errors.New("insufficient lot quantity")
	ErrInvalidRateSchedule     = errors.New("invalid rate schedule")
)

// ValidationError reports a malformed field of a trade, a lot or the broker settings.
// Several of them are usually combined with errors.Join.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// invalid is a shortcut to build a *ValidationError.
func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientLotQuantityError is returned when a closing trade asks for more
// shares than are open for its ticker.
type InsufficientLotQuantityError struct {
	Ticker    string
	Side      LotSide
	Requested Quantity
	Available Quantity
}

func (e *InsufficientLotQuantityError) Error() string {
	return fmt.Sprintf("cannot close %v %s shares of %s, only %v open", e.Requested, e.Side, e.Ticker, e.Available)
}

func (e *InsufficientLotQuantityError) Is(target error) bool {
	return target == ErrInsufficientLotQuantity
}

// InvalidRateScheduleError is returned when a tier schedule would become empty
// or is otherwise unusable.
type InvalidRateScheduleError struct {
	Reason string
}

func (e *InvalidRateScheduleError) Error() string {
	return "invalid rate schedule: " + e.Reason
}

func (e *InvalidRateScheduleError) Is(target error) bool { return target == ErrInvalidRateSchedule }

// ValidationErrors extracts every *ValidationError from err, unwrapping joined errors.
func ValidationErrors(err error) []*ValidationError {
	var res []*ValidationError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if v, ok := err.(*ValidationError); ok {
			res = append(res, v)
			return
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				walk(e)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return res
}
