// Package hd44780 drives a Hitachi HD44780 character LCD over a parallel GPIO bus.
//
// The controller is wired with three control lines (RS, RW, E) and either four
// (D7..D4) or eight (D7..D0) data lines. Every line is a periph.io gpio.PinOut, so the
// driver runs on any host periph supports and against the emulator in hd44780test.
//
// # Wiring
//
//	Display Pin → Host
//	RS          → GPIO (register select: 0 command, 1 data)
//	RW          → GPIO (held low, the driver never reads back)
//	E           → GPIO (enable strobe, latched on the falling edge)
//	D7..D4      → GPIO (both modes)
//	D3..D0      → GPIO (8-bit mode only)
//
// # Basic Usage
//
//	if _, err := host.Init(); err != nil {
//		return err
//	}
//	lcd, err := hd44780.Init4ByName(nil,
//		"GPIO25", "GPIO24", "GPIO23",
//		"GPIO18", "GPIO17", "GPIO27", "GPIO22")
//	if err != nil {
//		return err
//	}
//	defer lcd.Halt()
//
//	lcd.Clear()
//	lcd.Print("Temperature:")
//	lcd.MoveToRow2()
//	fmt.Fprintf(lcd, "%d C", 21)
//
// # Timing
//
// The driver never polls the busy flag. It waits fixed delays after every transfer
// (see Timing); hosts with slow GPIO access can shorten them, slow modules may need
// them longer.
package hd44780
