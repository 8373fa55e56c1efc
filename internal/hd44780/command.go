package hd44780

import "fmt"

const (
	cmdClear           = 0x01
	cmdHome            = 0x02
	cmdDisplayOff      = 0x08
	cmdCursorOff       = 0x0C
	cmdCursorOn        = 0x0E
	cmdCursorBlink     = 0x0F
	cmdCursorLeft      = 0x10
	cmdCursorRight     = 0x14
	cmdFunctionSet4Bit = 0x28 // 4-bit bus, two lines, 5x8 font
	cmdFunctionSet8Bit = 0x38 // 8-bit bus, two lines, 5x8 font
	cmdSetAddress      = 0x80
	cmdRow1            = 0x80
	cmdRow2            = 0xC0

	wakeUp       = 0x30
	switchTo4Bit = 0x20
)

// Geometry of the display RAM in two-line mode.
const (
	Rows        = 2
	RowCapacity = 40
	row2Address = 0x40
)

// Direction is the way MoveCursor shifts the cursor.
type Direction int

const (
	CursorLeft Direction = iota
	CursorRight
)

func (d Direction) String() string {
	switch d {
	case CursorLeft:
		return "left"
	case CursorRight:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// EntryMode sets how the address counter and the display move after a data write.
type EntryMode byte

const (
	EntryDecrement      EntryMode = 0x04
	EntryDecrementShift EntryMode = 0x05
	EntryIncrement      EntryMode = 0x06
	EntryIncrementShift EntryMode = 0x07
)

// Clear blanks the display and returns the cursor to the first cell.
func (l *LCD) Clear() error { return l.command(cmdClear) }

// Home returns the cursor to the first cell without clearing.
func (l *LCD) Home() error { return l.command(cmdHome) }

func (l *LCD) MoveToRow1() error { return l.command(cmdRow1) }

func (l *LCD) MoveToRow2() error { return l.command(cmdRow2) }

// MoveCursor shifts the cursor by one cell.
func (l *LCD) MoveCursor(dir Direction) error {
	switch dir {
	case CursorLeft:
		return l.command(cmdCursorLeft)
	case CursorRight:
		return l.command(cmdCursorRight)
	}
	return fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
}

func (l *LCD) DisplayOff() error { return l.command(cmdDisplayOff) }

// CursorOff turns the display on with the cursor hidden.
func (l *LCD) CursorOff() error { return l.command(cmdCursorOff) }

// CursorOn turns the display on with an underline cursor.
func (l *LCD) CursorOn() error { return l.command(cmdCursorOn) }

// CursorBlink turns the display on with a blinking cursor.
func (l *LCD) CursorBlink() error { return l.command(cmdCursorBlink) }

func (l *LCD) SetEntryMode(m EntryMode) error {
	if m < EntryDecrement || m > EntryIncrementShift {
		return fmt.Errorf("%w: %#02x", ErrInvalidEntryMode, byte(m))
	}
	return l.command(byte(m))
}

// SetCursor moves the cursor to col of row, both zero based.
func (l *LCD) SetCursor(row, col int) error {
	if row < 0 || row >= Rows || col < 0 || col >= RowCapacity {
		return fmt.Errorf("%w: row %d col %d", ErrOutOfRange, row, col)
	}
	return l.command(cmdSetAddress | byte(row*row2Address+col))
}
