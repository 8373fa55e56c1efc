package hd44780

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// InterfaceMode selects the width of the data bus.
type InterfaceMode int

const (
	Interface4Bit InterfaceMode = iota
	Interface8Bit
)

func (m InterfaceMode) String() string {
	switch m {
	case Interface4Bit:
		return "4bit"
	case Interface8Bit:
		return "8bit"
	}
	return fmt.Sprintf("InterfaceMode(%d)", int(m))
}

// ParseInterfaceMode accepts "4", "4bit", "8" and "8bit".
func ParseInterfaceMode(s string) (InterfaceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "4", "4bit", "4-bit":
		return Interface4Bit, nil
	case "8", "8bit", "8-bit":
		return Interface8Bit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Timing holds the fixed delays used in place of busy-flag polling.
type Timing struct {
	PowerOn     time.Duration // before the first transfer
	Enable      time.Duration // E high time
	Step        time.Duration // between power-on steps
	FunctionSet time.Duration // after the switch to 4-bit transfers
	Command     time.Duration // after every command or data byte
}

// DefaultTiming returns delays that suit the common 2x16 modules.
func DefaultTiming() Timing {
	return Timing{
		PowerOn:     50 * time.Millisecond,
		Enable:      100 * time.Microsecond,
		Step:        10 * time.Millisecond,
		FunctionSet: 5 * time.Millisecond,
		Command:     2 * time.Millisecond,
	}
}

type Option func(*LCD)

func WithTiming(t Timing) Option {
	return func(l *LCD) { l.timing = t }
}

// WithSleep replaces time.Sleep for every delay the driver waits.
func WithSleep(sleep func(time.Duration)) Option {
	return func(l *LCD) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *LCD) {
		if log != nil {
			l.log = log
		}
	}
}

// LCD is an initialized display. It is safe for concurrent use; every operation holds
// the bus for its whole transfer.
type LCD struct {
	mu     sync.Mutex
	mode   InterfaceMode
	rs     line
	rw     line
	e      line
	data   []line // D7 first
	timing Timing
	sleep  func(time.Duration)
	log    *zap.Logger
}

// New validates the pins, drives every used line low and runs the power-on sequence.
// On error nothing is returned and the display state is undefined.
func New(mode InterfaceMode, pins Pins, opts ...Option) (*LCD, error) {
	if mode != Interface4Bit && mode != Interface8Bit {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if err := pins.validate(mode); err != nil {
		return nil, err
	}

	l := &LCD{
		mode:   mode,
		timing: DefaultTiming(),
		sleep:  time.Sleep,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	ls := pins.lines(mode)
	l.rs, l.rw, l.e, l.data = ls[0], ls[1], ls[2], ls[3:]

	for _, ln := range ls {
		if err := ln.out(gpio.Low); err != nil {
			return nil, err
		}
	}
	if err := l.powerOn(); err != nil {
		return nil, fmt.Errorf("hd44780: power-on sequence: %w", err)
	}

	l.log.Debug("lcd initialized",
		zap.Stringer("mode", mode),
		zap.String("rs", l.rs.pin.String()),
		zap.String("e", l.e.pin.String()))
	return l, nil
}

// Init4 initializes a display wired with a 4-bit bus.
func Init4(rs, rw, e, d7, d6, d5, d4 gpio.PinOut, opts ...Option) (*LCD, error) {
	return New(Interface4Bit, Pins{
		RS: rs, RW: rw, E: e,
		Data7: d7, Data6: d6, Data5: d5, Data4: d4,
	}, opts...)
}

// Init8 initializes a display wired with an 8-bit bus.
func Init8(rs, rw, e, d7, d6, d5, d4, d3, d2, d1, d0 gpio.PinOut, opts ...Option) (*LCD, error) {
	return New(Interface8Bit, Pins{
		RS: rs, RW: rw, E: e,
		Data7: d7, Data6: d6, Data5: d5, Data4: d4,
		Data3: d3, Data2: d2, Data1: d1, Data0: d0,
	}, opts...)
}

// Init4ByName is Init4 with pins given by name. A nil lookup uses gpioreg.
func Init4ByName(lookup Lookup, rs, rw, e, d7, d6, d5, d4 string, opts ...Option) (*LCD, error) {
	w := Wiring{
		Mode: Interface4Bit,
		RS:   rs, RW: rw, E: e,
		Data7: d7, Data6: d6, Data5: d5, Data4: d4,
	}
	return w.Open(lookup, opts...)
}

// Init8ByName is Init8 with pins given by name. A nil lookup uses gpioreg.
func Init8ByName(lookup Lookup, rs, rw, e, d7, d6, d5, d4, d3, d2, d1, d0 string, opts ...Option) (*LCD, error) {
	w := Wiring{
		Mode: Interface8Bit,
		RS:   rs, RW: rw, E: e,
		Data7: d7, Data6: d6, Data5: d5, Data4: d4,
		Data3: d3, Data2: d2, Data1: d1, Data0: d0,
	}
	return w.Open(lookup, opts...)
}

func (l *LCD) InterfaceMode() InterfaceMode {
	return l.mode
}

func (l *LCD) String() string {
	return fmt.Sprintf("hd44780{%s, E=%s}", l.mode, l.e.pin)
}

// Halt switches the display off. The pins stay configured.
func (l *LCD) Halt() error {
	return l.DisplayOff()
}

// powerOn performs the reset-by-instruction sequence. The controller powers up in
// 8-bit mode, so the wake-up pattern is sent as a single transfer in both modes.
func (l *LCD) powerOn() error {
	l.sleep(l.timing.PowerOn)
	if err := l.rs.out(gpio.Low); err != nil {
		return err
	}
	if err := l.rw.out(gpio.Low); err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		if err := l.latch(wakeUp); err != nil {
			return err
		}
		l.sleep(l.timing.Step)
	}

	functionSet := byte(cmdFunctionSet8Bit)
	if l.mode == Interface4Bit {
		if err := l.latch(switchTo4Bit); err != nil {
			return err
		}
		l.sleep(l.timing.FunctionSet)
		functionSet = cmdFunctionSet4Bit
	}

	for _, cmd := range []byte{functionSet, cmdDisplayOff, cmdClear, byte(EntryIncrement), cmdCursorBlink} {
		if err := l.transfer(cmd); err != nil {
			return err
		}
		l.sleep(l.timing.Step)
	}
	return nil
}

// putBits places the high bits of v on the data lines, D7 first.
func (l *LCD) putBits(v byte) error {
	for i, ln := range l.data {
		level := gpio.Level(v&(0x80>>uint(i)) != 0)
		if err := ln.out(level); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) pulse() error {
	if err := l.e.out(gpio.High); err != nil {
		return err
	}
	l.sleep(l.timing.Enable)
	return l.e.out(gpio.Low)
}

// latch performs one bus cycle with v on the data lines.
func (l *LCD) latch(v byte) error {
	if err := l.putBits(v); err != nil {
		return err
	}
	return l.pulse()
}

// transfer moves a whole byte: one cycle on an 8-bit bus, high then low nibble on a
// 4-bit bus.
func (l *LCD) transfer(b byte) error {
	if err := l.latch(b); err != nil {
		return err
	}
	if l.mode == Interface4Bit {
		return l.latch(b << 4)
	}
	return nil
}

// write sends b to the instruction (rs Low) or data (rs High) register.
// The caller holds l.mu.
func (l *LCD) write(rs gpio.Level, b byte) error {
	if err := l.rw.out(gpio.Low); err != nil {
		return err
	}
	if err := l.rs.out(rs); err != nil {
		return err
	}
	if err := l.transfer(b); err != nil {
		return err
	}
	l.sleep(l.timing.Command)
	return nil
}

func (l *LCD) command(cmd byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(gpio.Low, cmd)
}
