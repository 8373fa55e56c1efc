package sample

import "fmt"

// Version is the driver version.
const Version = "1.0.0"

// Direction moves the cursor.
type Direction int

const (
	// CursorLeft shifts left.
	CursorLeft Direction = iota
	CursorRight
)

// DefaultWidth is the width of common modules.
var DefaultWidth = 16

// Rows and Columns size the character grid.
const Rows, Columns = 2, 40

// Pins binds the lines.
type Pins struct {
	RS, RW string
	E      string `yaml:"e"`
	*Extra
}

// Extra holds optional lines.
type Extra struct{}

// Display is what a console needs.
type Display interface {
	fmt.Stringer
	Print(s string) error
	Clear() error
}

// LCD is a display.
type LCD struct {
	pins Pins
}

// Init4 initializes a display.
func Init4(rs, rw string, opts ...int) (*LCD, error) {
	type local struct{}
	_ = local{}
	return &LCD{}, nil
}

// Print writes s.
func (l *LCD) Print(s string) error {
	return nil
}

func (l LCD) mode() (m int, err error) { return 0, nil }
