package apicheck

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverUnits(t *testing.T) []*extractor.CodeUnit {
	t.Helper()
	ext, err := extractor.NewExtractor("go")
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join("..", "hd44780", "*.go"))
	require.NoError(t, err)

	var units []*extractor.CodeUnit
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		u, err := ext.ExtractFromFile(context.Background(), f)
		require.NoError(t, err)
		units = append(units, u...)
	}
	require.NotEmpty(t, units)
	return units
}

func TestGoName(t *testing.T) {
	cases := map[string]string{
		"HD44780_LCD_t":           "LCD",
		"HD44780_Direction_t":     "Direction",
		"HD44780_InterfaceMode_t": "InterfaceMode",
		"HD44780_INTERFACE_4bit":  "Interface4Bit",
		"HD44780_INTERFACE_8bit":  "Interface8Bit",
		"HD44780_CursorLeft":      "CursorLeft",
		"HD44780_Init4_v2":        "Init4ByName",
		"HD44780_Init8_v2":        "Init8ByName",
		"HD44780_printHex32":      "PrintHex32",
		"HD44780_Printc":          "Printc",
		"Data7":                   "Data7",
		"InterfaceMode":           "InterfaceMode",
	}
	for in, want := range cases {
		assert.Equal(t, want, GoName(in), in)
	}
}

func TestCheck_DriverIndex(t *testing.T) {
	trees, err := navtree.ParseFile(context.Background(), filepath.Join("..", "navtree", "testdata", "group___h_d44780.js"))
	require.NoError(t, err)
	require.Len(t, trees, 1)

	rep := Check(trees[0], driverUnits(t))
	assert.Empty(t, rep.Missing)
	assert.True(t, rep.Complete())
	assert.Len(t, rep.Matched, 40)

	byDoc := map[string]Match{}
	for _, m := range rep.Matched {
		byDoc[m.Path] = m
	}
	assert.Equal(t, "Pins.RS", byDoc["HD44780_LCD_t/RS"].Go)
	assert.Equal(t, "LCD.InterfaceMode", byDoc["HD44780_LCD_t/InterfaceMode"].Go)
	assert.Equal(t, "CursorRight", byDoc["HD44780_Direction_t/HD44780_CursorRight"].Go)
	assert.Equal(t, "LCD.Clear", byDoc["HD44780_Clear"].Go)
	assert.Equal(t, "Init8ByName", byDoc["HD44780_Init8_v2"].Go)

	clear := byDoc["HD44780_Clear"]
	assert.Equal(t, "command.go", filepath.Base(clear.File))
	assert.Positive(t, clear.Line)

	assert.Contains(t, rep.Undocumented, "Wiring")
	assert.Contains(t, rep.Undocumented, "LCD.SetCursor")
	assert.NotContains(t, rep.Undocumented, "LCD.Clear")
	assert.NotContains(t, rep.Undocumented, "LCD.powerOn")
}

func TestCheck_ResolvedNavTree(t *testing.T) {
	trees, err := navtree.NewLoader(filepath.Join("..", "navtree", "testdata"), nil).LoadFile(context.Background(), "navtreedata.js")
	require.NoError(t, err)
	require.Len(t, trees, 1)

	rep := Check(trees[0], driverUnits(t))
	assert.Equal(t, []Missing{{
		Path: "SerialBus/Data Structures/Data Structures/PortPinPair_t",
		Doc:  "PortPinPair_t",
		Go:   "PortPinPair",
	}}, rep.Missing)
	// group nodes are containers; the structure page appears twice
	var paths []string
	for _, m := range rep.Matched {
		if m.Doc == "HD44780_LCD_t" {
			paths = append(paths, m.Path)
		}
	}
	assert.Equal(t, []string{
		"SerialBus/Modules/LCD/HD44780/HD44780_LCD_t",
		"SerialBus/Data Structures/Data Structures/HD44780_LCD_t",
	}, paths)
}

func TestCheck_Missing(t *testing.T) {
	tree := &navtree.Tree{Name: "x", Entries: []*navtree.Entry{
		{Name: "HD44780_Scroll", Anchor: "group___h_d44780.html#ga01"},
		{Name: "HD44780_LCD_t", Anchor: "struct_h_d44780___l_c_d__t.html", Children: []*navtree.Entry{
			{Name: "Backlight", Anchor: "struct_h_d44780___l_c_d__t.html#a02"},
			{Name: "RS", Anchor: "struct_h_d44780___l_c_d__t.html#a03"},
		}},
	}}

	rep := Check(tree, driverUnits(t))
	assert.False(t, rep.Complete())
	assert.Equal(t, []Missing{
		{Path: "HD44780_Scroll", Doc: "HD44780_Scroll", Go: "Scroll"},
		{Path: "HD44780_LCD_t/Backlight", Doc: "Backlight", Go: "Backlight"},
	}, rep.Missing)
	assert.Len(t, rep.Matched, 2)
}
