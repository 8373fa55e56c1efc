package hd44780

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/gpio"
)

var (
	_ io.Writer       = (*LCD)(nil)
	_ io.StringWriter = (*LCD)(nil)
)

// Printc writes one character code at the cursor.
func (l *LCD) Printc(c byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(gpio.High, c)
}

// Print writes every byte of s, interpreted as HD44780 character codes.
func (l *LCD) Print(s string) error {
	_, err := l.WriteString(s)
	return err
}

func (l *LCD) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, b := range p {
		if err := l.write(gpio.High, b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (l *LCD) WriteString(s string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < len(s); i++ {
		if err := l.write(gpio.High, s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// PrintBinary8 prints b as 8 binary digits, most significant first.
func (l *LCD) PrintBinary8(b uint8) error { return l.printBinary(uint64(b), 8) }

// PrintBinary32 prints w as 32 binary digits, most significant first.
func (l *LCD) PrintBinary32(w uint32) error { return l.printBinary(uint64(w), 32) }

// PrintBinary64 prints w as 64 binary digits, most significant first.
func (l *LCD) PrintBinary64(w uint64) error { return l.printBinary(w, 64) }

// PrintHex8 prints b as 2 uppercase hex digits.
func (l *LCD) PrintHex8(b uint8) error { return l.printHex(uint64(b), 8) }

// PrintHex32 prints w as 8 uppercase hex digits.
func (l *LCD) PrintHex32(w uint32) error { return l.printHex(uint64(w), 32) }

// PrintHex64 prints w as 16 uppercase hex digits.
func (l *LCD) PrintHex64(w uint64) error { return l.printHex(w, 64) }

func (l *LCD) printBinary(v uint64, bits int) error {
	return l.Print(fmt.Sprintf("%0*b", bits, v))
}

func (l *LCD) printHex(v uint64, bits int) error {
	return l.Print(fmt.Sprintf("%0*X", bits/4, v))
}
