package hd44780

import "errors"

var (
	// ErrMissingPin is returned when a line required by the interface mode is not bound.
	ErrMissingPin = errors.New("hd44780: missing pin")
	// ErrPinConflict is returned when two lines are bound to the same pin.
	ErrPinConflict = errors.New("hd44780: pin bound to more than one line")
	// ErrUnknownPin is returned when a pin name cannot be resolved.
	ErrUnknownPin       = errors.New("hd44780: unknown pin")
	ErrInvalidMode      = errors.New("hd44780: invalid interface mode")
	ErrInvalidDirection = errors.New("hd44780: invalid cursor direction")
	ErrInvalidEntryMode = errors.New("hd44780: invalid entry mode")
	ErrOutOfRange       = errors.New("hd44780: cursor position out of range")
)
