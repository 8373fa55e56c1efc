// Package hd44780test emulates an HD44780 controller at the pin level.
//
// A Controller hands out gpio pins for every bus line, latches transfers on the falling
// edge of E exactly like the chip does and executes the instruction set against an
// internal display RAM, so tests can assert on what the display would show.
package hd44780test

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"lcddoc/internal/hd44780"
)

// Line identifies one signal of the controller bus.
type Line int

const (
	RS Line = iota
	RW
	E
	D0
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	numLines
)

func (ln Line) String() string {
	switch ln {
	case RS:
		return "RS"
	case RW:
		return "RW"
	case E:
		return "E"
	}
	if ln >= D0 && ln <= D7 {
		return fmt.Sprintf("D%d", int(ln-D0))
	}
	return fmt.Sprintf("Line(%d)", int(ln))
}

const ramSize = 0x80

// Controller is an emulated HD44780. The zero value is not usable; call New.
type Controller struct {
	mu     sync.Mutex
	pins   [numLines]*linePin
	levels [numLines]gpio.Level
	fail   map[Line]error

	eightBit bool
	twoLines bool
	pending  bool
	high     byte

	ddram     [ramSize]byte
	addr      byte
	cgram     bool
	increment bool
	shift     bool
	displayOn bool
	cursorOn  bool
	blink     bool

	commands []byte
	data     []byte
	elapsed  time.Duration
}

// New returns a controller in its power-on reset state: 8-bit interface, one line,
// display off, blank RAM.
func New() *Controller {
	c := &Controller{
		eightBit:  true,
		increment: true,
		fail:      map[Line]error{},
	}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	for ln := RS; ln < numLines; ln++ {
		c.pins[ln] = &linePin{
			Pin:  gpiotest.Pin{N: "LCD_" + ln.String(), Num: int(ln)},
			c:    c,
			line: ln,
		}
	}
	return c
}

// Pins returns the controller's lines wired for mode.
func (c *Controller) Pins(mode hd44780.InterfaceMode) hd44780.Pins {
	p := hd44780.Pins{
		RS: c.pins[RS], RW: c.pins[RW], E: c.pins[E],
		Data7: c.pins[D7], Data6: c.pins[D6], Data5: c.pins[D5], Data4: c.pins[D4],
	}
	if mode == hd44780.Interface8Bit {
		p.Data3, p.Data2, p.Data1, p.Data0 = c.pins[D3], c.pins[D2], c.pins[D1], c.pins[D0]
	}
	return p
}

// Pin returns the pin of one line.
func (c *Controller) Pin(ln Line) gpio.PinIO {
	return c.pins[ln]
}

// Lookup resolves the names "LCD_RS", "LCD_RW", "LCD_E" and "LCD_D0" .. "LCD_D7".
func (c *Controller) Lookup() hd44780.Lookup {
	return func(name string) gpio.PinIO {
		for _, p := range c.pins {
			if p.N == name {
				return p
			}
		}
		return nil
	}
}

// FailOn makes every later write to ln return err. A nil err clears the failure.
func (c *Controller) FailOn(ln Line, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, ln)
		return
	}
	c.fail[ln] = err
}

// Sleep accounts d as elapsed instead of blocking. Pass it to hd44780.WithSleep.
func (c *Controller) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += d
}

func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Level reports the last level driven on ln.
func (c *Controller) Level(ln Line) gpio.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels[ln]
}

// Commands returns every instruction byte executed so far.
func (c *Controller) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.commands...)
}

// Data returns every data byte written so far.
func (c *Controller) Data() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.data...)
}

// Row returns the first width cells of row n (zero based).
func (c *Controller) Row(n, width int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width > hd44780.RowCapacity {
		width = hd44780.RowCapacity
	}
	start := n * 0x40
	if width < 0 || start < 0 || start+width > ramSize {
		return ""
	}
	return string(c.ddram[start : start+width])
}

// Address returns the address counter.
func (c *Controller) Address() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

func (c *Controller) DisplayOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayOn
}

func (c *Controller) CursorOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursorOn
}

func (c *Controller) Blink() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blink
}

// FourBit reports whether the controller expects nibble transfers.
func (c *Controller) FourBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.eightBit
}

func (c *Controller) TwoLines() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoLines
}

func (c *Controller) drive(ln Line, v gpio.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail[ln]; err != nil {
		return err
	}
	prev := c.levels[ln]
	c.levels[ln] = v
	if ln == E && prev == gpio.High && v == gpio.Low {
		c.latch()
	}
	return nil
}

func (c *Controller) bus() byte {
	var b byte
	for ln := D0; ln <= D7; ln++ {
		if c.levels[ln] {
			b |= 1 << uint(ln-D0)
		}
	}
	return b
}

// latch runs on the falling edge of E.
func (c *Controller) latch() {
	if c.levels[RW] {
		return
	}
	v := c.bus()
	if c.eightBit {
		c.exec(v)
		return
	}
	if !c.pending {
		c.high = v & 0xF0
		c.pending = true
		return
	}
	c.pending = false
	c.exec(c.high | v>>4)
}

func (c *Controller) exec(b byte) {
	if c.levels[RS] {
		c.writeData(b)
		return
	}
	c.commands = append(c.commands, b)
	switch {
	case b&0x80 != 0:
		c.addr = b & 0x7F
		c.cgram = false
	case b&0x40 != 0:
		c.cgram = true
	case b&0x20 != 0:
		c.eightBit = b&0x10 != 0
		c.twoLines = b&0x08 != 0
		c.pending = false
	case b&0x10 != 0:
		// display shift (S/C set) leaves the address counter alone
		if b&0x08 == 0 {
			c.step(b&0x04 != 0)
		}
	case b&0x08 != 0:
		c.displayOn = b&0x04 != 0
		c.cursorOn = b&0x02 != 0
		c.blink = b&0x01 != 0
	case b&0x04 != 0:
		c.increment = b&0x02 != 0
		c.shift = b&0x01 != 0
	case b&0x02 != 0:
		c.addr = 0
	case b&0x01 != 0:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.addr = 0
		c.increment = true
	}
}

func (c *Controller) writeData(b byte) {
	c.data = append(c.data, b)
	if c.cgram {
		return
	}
	c.ddram[c.addr] = b
	c.step(c.increment)
}

// step moves the address counter one cell, wrapping the way the chip does:
// 0x00-0x4F in one-line mode, 0x00-0x27 then 0x40-0x67 in two-line mode.
func (c *Controller) step(forward bool) {
	if !c.twoLines {
		switch {
		case forward && c.addr >= 0x4F:
			c.addr = 0
		case !forward && c.addr == 0:
			c.addr = 0x4F
		case forward:
			c.addr++
		default:
			c.addr--
		}
		return
	}
	if forward {
		switch c.addr {
		case 0x27:
			c.addr = 0x40
		case 0x67:
			c.addr = 0x00
		default:
			c.addr++
		}
		return
	}
	switch c.addr {
	case 0x00:
		c.addr = 0x67
	case 0x40:
		c.addr = 0x27
	default:
		c.addr--
	}
}

// linePin is a gpiotest pin that reports every write to its controller.
type linePin struct {
	gpiotest.Pin
	c    *Controller
	line Line
}

func (p *linePin) Out(l gpio.Level) error {
	if err := p.c.drive(p.line, l); err != nil {
		return err
	}
	return p.Pin.Out(l)
}
