package hd44780

import (
	"fmt"
	"reflect"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Pins binds each controller line to a GPIO output.
// Data3..Data0 are ignored in 4-bit mode.
type Pins struct {
	RS gpio.PinOut
	RW gpio.PinOut
	E  gpio.PinOut

	Data7 gpio.PinOut
	Data6 gpio.PinOut
	Data5 gpio.PinOut
	Data4 gpio.PinOut
	Data3 gpio.PinOut
	Data2 gpio.PinOut
	Data1 gpio.PinOut
	Data0 gpio.PinOut
}

// line is a pin together with the controller signal it carries.
type line struct {
	name string
	pin  gpio.PinOut
}

func (l line) out(v gpio.Level) error {
	if err := l.pin.Out(v); err != nil {
		return fmt.Errorf("hd44780: drive %s: %w", l.name, err)
	}
	return nil
}

// lines returns the lines used by mode in RS, RW, E, D7 .. D0 order.
func (p Pins) lines(mode InterfaceMode) []line {
	ls := []line{
		{"RS", p.RS}, {"RW", p.RW}, {"E", p.E},
		{"D7", p.Data7}, {"D6", p.Data6}, {"D5", p.Data5}, {"D4", p.Data4},
	}
	if mode == Interface8Bit {
		ls = append(ls, line{"D3", p.Data3}, line{"D2", p.Data2}, line{"D1", p.Data1}, line{"D0", p.Data0})
	}
	return ls
}

func (p Pins) validate(mode InterfaceMode) error {
	ls := p.lines(mode)
	for i, a := range ls {
		if a.pin == nil {
			return fmt.Errorf("%w: %s", ErrMissingPin, a.name)
		}
		for _, b := range ls[i+1:] {
			if b.pin != nil && samePin(a.pin, b.pin) {
				return fmt.Errorf("%w: %s and %s share %s", ErrPinConflict, a.name, b.name, a.pin)
			}
		}
	}
	return nil
}

// samePin reports whether a and b address the same physical pin. Named pins compare by
// name, anonymous ones by identity.
func samePin(a, b gpio.PinOut) bool {
	if a.Name() != "" && a.Name() == b.Name() {
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}

// Lookup resolves a pin name to a pin, returning nil when the name is unknown.
// gpioreg.ByName is the default.
type Lookup func(name string) gpio.PinIO

// Wiring names the pin behind each line, for hosts where pins are addressed by name
// rather than held as values.
type Wiring struct {
	Mode InterfaceMode

	RS string
	RW string
	E  string

	Data7 string
	Data6 string
	Data5 string
	Data4 string
	Data3 string
	Data2 string
	Data1 string
	Data0 string
}

// Resolve turns the names into pins. Empty names stay unbound so New reports them.
func (w Wiring) Resolve(lookup Lookup) (Pins, error) {
	if lookup == nil {
		lookup = gpioreg.ByName
	}
	var err error
	resolve := func(lineName, pinName string) gpio.PinOut {
		if pinName == "" || err != nil {
			return nil
		}
		p := lookup(pinName)
		if p == nil {
			err = fmt.Errorf("%w: %s=%q", ErrUnknownPin, lineName, pinName)
			return nil
		}
		return p
	}

	pins := Pins{
		RS:    resolve("RS", w.RS),
		RW:    resolve("RW", w.RW),
		E:     resolve("E", w.E),
		Data7: resolve("D7", w.Data7),
		Data6: resolve("D6", w.Data6),
		Data5: resolve("D5", w.Data5),
		Data4: resolve("D4", w.Data4),
	}
	if w.Mode == Interface8Bit {
		pins.Data3 = resolve("D3", w.Data3)
		pins.Data2 = resolve("D2", w.Data2)
		pins.Data1 = resolve("D1", w.Data1)
		pins.Data0 = resolve("D0", w.Data0)
	}
	if err != nil {
		return Pins{}, err
	}
	return pins, nil
}

// Open resolves the wiring and initializes the display.
func (w Wiring) Open(lookup Lookup, opts ...Option) (*LCD, error) {
	pins, err := w.Resolve(lookup)
	if err != nil {
		return nil, err
	}
	return New(w.Mode, pins, opts...)
}
