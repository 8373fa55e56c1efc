package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"lcddoc/internal/console"
	"lcddoc/internal/hd44780"
	"lcddoc/internal/hd44780/hd44780test"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"periph.io/x/host/v3"
)

// openDisplay initializes the configured display. The returned function releases
// it; with --sim it also prints the emulated rows to out.
func (a *app) openDisplay(out io.Writer) (*hd44780.LCD, func(), error) {
	opts := []hd44780.Option{hd44780.WithLogger(a.logger), hd44780.WithTiming(a.cfg.Timing())}

	if a.sim {
		mode, err := hd44780.ParseInterfaceMode(a.cfg.Display.Mode)
		if err != nil {
			return nil, nil, err
		}
		ctrl := hd44780test.New()
		lcd, err := hd44780.New(mode, ctrl.Pins(mode), append(opts, hd44780.WithSleep(ctrl.Sleep))...)
		if err != nil {
			return nil, nil, err
		}
		return lcd, func() {
			width := a.cfg.Display.Width
			border := "+" + strings.Repeat("-", width) + "+"
			fmt.Fprintln(out, border)
			for row := 0; row < hd44780.Rows; row++ {
				fmt.Fprintf(out, "|%s|\n", ctrl.Row(row, width))
			}
			fmt.Fprintln(out, border)
			a.logger.Debug("emulated display", zap.Duration("bus_time", ctrl.Elapsed()))
		}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	wiring, err := a.cfg.Wiring()
	if err != nil {
		return nil, nil, err
	}
	lcd, err := wiring.Open(nil, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open display: %w", err)
	}
	return lcd, func() {}, nil
}

// withDisplay runs fn against an open display.
func (a *app) withDisplay(cmd *cobra.Command, fn func(lcd *hd44780.LCD) error) error {
	lcd, release, err := a.openDisplay(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer release()
	return fn(lcd)
}

func (a *app) printCmd() *cobra.Command {
	var row2 string
	cmd := &cobra.Command{
		Use:   "print TEXT",
		Short: "Clear the display and print TEXT on the first row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDisplay(cmd, func(lcd *hd44780.LCD) error {
				if err := lcd.Clear(); err != nil {
					return err
				}
				if err := lcd.Print(args[0]); err != nil {
					return err
				}
				if row2 == "" {
					return nil
				}
				if err := lcd.MoveToRow2(); err != nil {
					return err
				}
				return lcd.Print(row2)
			})
		},
	}
	cmd.Flags().StringVar(&row2, "row2", "", "Text for the second row")
	return cmd
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Blank the display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDisplay(cmd, func(lcd *hd44780.LCD) error {
				return lcd.Clear()
			})
		},
	}
}

// parseNumber accepts decimal, 0x, 0o and 0b notation.
func parseNumber(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// fitBits returns the narrowest of 8, 32 and 64 bits that holds v, or want when set.
func fitBits(v uint64, want int) (int, error) {
	switch want {
	case 0:
		switch {
		case v <= 0xFF:
			return 8, nil
		case v <= 0xFFFFFFFF:
			return 32, nil
		}
		return 64, nil
	case 8, 32, 64:
		if want < 64 && v>>want != 0 {
			return 0, fmt.Errorf("%d does not fit in %d bits", v, want)
		}
		return want, nil
	}
	return 0, fmt.Errorf("--bits must be 8, 32 or 64, got %d", want)
}

func (a *app) numberCmd(use, short string, print func(lcd *hd44780.LCD, v uint64, bits int) error) *cobra.Command {
	var bits int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			n, err := fitBits(v, bits)
			if err != nil {
				return err
			}
			return a.withDisplay(cmd, func(lcd *hd44780.LCD) error {
				if err := lcd.Clear(); err != nil {
					return err
				}
				return print(lcd, v, n)
			})
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 0, "Width: 8, 32 or 64 (default: narrowest that fits)")
	return cmd
}

func (a *app) hexCmd() *cobra.Command {
	return a.numberCmd("hex N", "Print N in hexadecimal", func(lcd *hd44780.LCD, v uint64, bits int) error {
		switch bits {
		case 8:
			return lcd.PrintHex8(uint8(v))
		case 32:
			return lcd.PrintHex32(uint32(v))
		}
		return lcd.PrintHex64(v)
	})
}

func (a *app) binCmd() *cobra.Command {
	return a.numberCmd("bin N", "Print N in binary", func(lcd *hd44780.LCD, v uint64, bits int) error {
		switch bits {
		case 8:
			return lcd.PrintBinary8(uint8(v))
		case 32:
			return lcd.PrintBinary32(uint32(v))
		}
		return lcd.PrintBinary64(v)
	})
}

func (a *app) clockCmd() *cobra.Command {
	var interval, duration time.Duration
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Show the time until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %v", interval)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			return a.withDisplay(cmd, func(lcd *hd44780.LCD) error {
				con := console.New(lcd, a.cfg.Display.Width, a.logger)
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error { return con.Run(ctx) })
				g.Go(func() error { return console.Clock(ctx, con, interval, time.Now) })
				if err := g.Wait(); err != nil {
					return err
				}
				a.logger.Info("clock stopped")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Refresh interval")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (default: run until interrupted)")
	return cmd
}
