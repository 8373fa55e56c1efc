package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawler_ScanProject(t *testing.T) {
	ext, err := extractor.NewExtractor("go")
	require.NoError(t, err)

	c := NewCrawler(ext, nil)
	root, _ := filepath.Abs("../hd44780")

	units := map[string]*extractor.CodeUnit{}
	err = c.ScanProject(context.Background(), root, func(unit *extractor.CodeUnit) {
		units[unit.QualifiedName()] = unit
	})
	require.NoError(t, err)

	t.Run("driver symbols", func(t *testing.T) {
		for _, name := range []string{"LCD", "Pins", "Init4", "Init8ByName", "LCD.Clear", "LCD.PrintHex64", "CursorLeft"} {
			assert.Contains(t, units, name)
		}
		assert.Equal(t, "hd44780", units["LCD"].Package)
	})

	t.Run("emulator sources are included", func(t *testing.T) {
		ctrl, ok := units["Controller"]
		require.True(t, ok)
		assert.Equal(t, "hd44780test", ctrl.Package)
	})

	t.Run("tests are skipped", func(t *testing.T) {
		for _, u := range units {
			assert.NotContains(t, filepath.Base(u.Filepath), "_test.go")
		}
	})
}

func TestCrawler_ScanNavTrees(t *testing.T) {
	root := t.TempDir()
	src, err := os.ReadFile(filepath.Join("..", "navtree", "testdata", "group___h_d44780.js"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "group___h_d44780.js"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "navtree.js"), []byte("function initNavTree() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "navtreeindex0.js"), []byte(`var NAVTREEINDEX0 = { "a.html": [0] };`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.js"), []byte("var x = [ [ 'a', "), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "search"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "search", "all_0.js"), []byte(`var searchData = [ [ "a", [ "b" ] ] ];`), 0o644))

	got := map[string]*navtree.Tree{}
	c := NewCrawler(nil, nil)
	err = c.ScanNavTrees(context.Background(), root, func(file string, tree *navtree.Tree) {
		got[file] = tree
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	tree := got["group___h_d44780.js"]
	require.NotNil(t, tree)
	assert.Equal(t, "group___h_d44780", tree.Name)
	assert.Equal(t, 40, tree.Len())
}

func TestCrawler_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCrawler(nil, nil)
	err := c.ScanNavTrees(ctx, t.TempDir(), func(string, *navtree.Tree) {})
	assert.ErrorIs(t, err, context.Canceled)
}
