// Package console serializes whole-screen updates of a two-row character display.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Display is the subset of the LCD driver a console needs.
type Display interface {
	Clear() error
	MoveToRow1() error
	MoveToRow2() error
	Print(s string) error
	CursorOff() error
}

// Frame is the full content of the display, one string per row.
type Frame struct {
	Lines [2]string
}

var (
	// ErrClosed is returned by Show once Run has returned, and by Run when it is
	// called again.
	ErrClosed = errors.New("console: closed")
	// ErrInterval is returned by Clock for a non-positive refresh interval.
	ErrInterval = errors.New("console: interval must be positive")
)

type Console struct {
	display Display
	width   int
	frames  chan Frame
	done    chan struct{}
	started sync.Once
	log     *zap.Logger
}

// New creates a console rendering at most width characters per row.
func New(display Display, width int, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		display: display,
		width:   width,
		frames:  make(chan Frame),
		done:    make(chan struct{}),
		log:     log,
	}
}

// Show hands f to the running console and waits until it has been accepted.
func (c *Console) Show(ctx context.Context, f Frame) error {
	select {
	case c.frames <- f:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run renders frames until ctx is cancelled or a render fails. A console runs once;
// later calls return ErrClosed.
func (c *Console) Run(ctx context.Context) error {
	first := false
	c.started.Do(func() { first = true })
	if !first {
		return ErrClosed
	}
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-c.frames:
			if err := c.render(f); err != nil {
				c.log.Error("render failed", zap.Error(err))
				return err
			}
		}
	}
}

func (c *Console) render(f Frame) error {
	if err := c.display.Clear(); err != nil {
		return fmt.Errorf("console: clear: %w", err)
	}
	if err := c.display.MoveToRow1(); err != nil {
		return fmt.Errorf("console: row 1: %w", err)
	}
	if err := c.display.Print(c.fit(f.Lines[0])); err != nil {
		return fmt.Errorf("console: print row 1: %w", err)
	}
	if err := c.display.MoveToRow2(); err != nil {
		return fmt.Errorf("console: row 2: %w", err)
	}
	if err := c.display.Print(c.fit(f.Lines[1])); err != nil {
		return fmt.Errorf("console: print row 2: %w", err)
	}
	if err := c.display.CursorOff(); err != nil {
		return fmt.Errorf("console: cursor off: %w", err)
	}
	c.log.Debug("frame rendered", zap.String("row1", f.Lines[0]), zap.String("row2", f.Lines[1]))
	return nil
}

// fit drops line breaks and truncates to the console width.
func (c *Console) fit(s string) string {
	s = strings.NewReplacer("\r", "", "\n", " ").Replace(s)
	if c.width > 0 && len(s) > c.width {
		s = s[:c.width]
	}
	return s
}

// Clock shows the current time every interval until ctx is cancelled.
// A nil now uses time.Now.
func Clock(ctx context.Context, c *Console, interval time.Duration, now func() time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInterval, interval)
	}
	if now == nil {
		now = time.Now
	}
	show := func() error {
		t := now()
		return c.Show(ctx, Frame{Lines: [2]string{
			"Time: " + t.Format("15:04:05"),
			t.Format("Mon 02 Jan 2006"),
		}})
	}

	if err := show(); err != nil {
		return stopped(ctx, err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := show(); err != nil {
				return stopped(ctx, err)
			}
		}
	}
}

// stopped drops err when it only reports that ctx ended the clock.
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
