package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lcddoc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes lcdctl with a config in a temporary directory and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "lcdctl.yaml"),
		"--db", filepath.Join(dir, "lcddoc.db"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func displayRows(out string) []string {
	var rows []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") {
			rows = append(rows, strings.Trim(line, "|"))
		}
	}
	return rows
}

func TestPrintSim(t *testing.T) {
	out, err := run(t, t.TempDir(), "--sim", "print", "Hello", "--row2", "World")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Hello           ",
		"World           ",
	}, displayRows(out))
}

func TestPrintSim_EightBitWide(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lcdctl.yaml"), []byte("display:\n  mode: 8bit\n  width: 20\n"), 0o644))

	out, err := run(t, dir, "--sim", "print", "eight bit bus")
	require.NoError(t, err)
	rows := displayRows(out)
	require.Len(t, rows, 2)
	assert.Equal(t, "eight bit bus       ", rows[0])
}

func TestNumbersSim(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"hex", "0xBE"}, "BE"},
		{[]string{"hex", "48879", "--bits", "32"}, "0000BEEF"},
		{[]string{"bin", "5"}, "00000101"},
		{[]string{"bin", "0xFFFF0000", "--bits", "32"}, "1111111111111111"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, err := run(t, t.TempDir(), append([]string{"--sim"}, tc.args...)...)
			require.NoError(t, err)
			rows := displayRows(out)
			require.NotEmpty(t, rows)
			assert.True(t, strings.HasPrefix(rows[0], tc.want), rows[0])
		})
	}

	t.Run("too wide", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "--sim", "hex", "0x1FF", "--bits", "8")
		assert.Error(t, err)
	})

	t.Run("unsupported width", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "--sim", "hex", "1", "--bits", "16")
		require.Error(t, err)
		assert.Equal(t, "--bits must be 8, 32 or 64, got 16", err.Error())
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "--sim", "bin", "twelve")
		assert.Error(t, err)
	})
}

func TestClockSim(t *testing.T) {
	out, err := run(t, t.TempDir(), "--sim", "clock", "--interval", "10ms", "--duration", "200ms")
	require.NoError(t, err)
	rows := displayRows(out)
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "Time: "), rows[0])

	for _, interval := range []string{"0s", "-1s"} {
		t.Run("interval "+interval, func(t *testing.T) {
			var out string
			var err error
			assert.NotPanics(t, func() {
				out, err = run(t, t.TempDir(), "--sim", "clock", "--interval", interval, "--duration", "50ms")
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--interval must be positive")
			assert.Empty(t, displayRows(out), "display must not be opened")
		})
	}
}

func TestIndexAndLookup(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join("..", "..", "internal", "navtree", "testdata", "group___h_d44780.js")
	src := filepath.Join("..", "..", "internal", "hd44780")

	out, err := run(t, dir, "index", docs, "--src", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 trees")
	assert.Contains(t, out, "Go declarations")

	out, err = run(t, dir, "lookup", "HD44780_Clear")
	require.NoError(t, err)
	assert.Contains(t, out, "doc  group___h_d44780:HD44780_Clear  group___h_d44780.html#")
	assert.Contains(t, out, "go   hd44780.LCD.Clear")

	out, err = run(t, dir, "lookup", "RS")
	require.NoError(t, err)
	assert.Contains(t, out, "HD44780_LCD_t/RS")

	_, err = run(t, dir, "lookup", "HD44780_Scroll")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheck(t *testing.T) {
	src := filepath.Join("..", "..", "internal", "hd44780")

	t.Run("complete", func(t *testing.T) {
		docs := filepath.Join("..", "..", "internal", "navtree", "testdata", "group___h_d44780.js")
		out, err := run(t, t.TempDir(), "check", "--docs", docs, "--src", src, "--undocumented")
		require.NoError(t, err)
		assert.Contains(t, out, "group___h_d44780: 40 matched, 0 missing")
		assert.Contains(t, out, "undocumented  Wiring")
	})

	t.Run("missing symbols fail", func(t *testing.T) {
		docs := filepath.Join("..", "..", "internal", "navtree", "testdata")
		out, err := run(t, t.TempDir(), "check", "--docs", docs, "--src", src)
		require.Error(t, err)
		assert.Contains(t, out, "missing  SerialBus/Data Structures/Data Structures/PortPinPair_t (want PortPinPair)")
	})
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lcdctl.yaml"), []byte("display:\n  mode: 5bit\n"), 0o644))
	_, err := run(t, dir, "--sim", "clear")
	assert.Error(t, err)
}
