package storage

import (
	"context"
	"path/filepath"
	"testing"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveTree_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	trees, err := navtree.ParseFile(ctx, filepath.Join("..", "navtree", "testdata", "group___h_d44780.js"))
	require.NoError(t, err)
	require.Len(t, trees, 1)
	require.NoError(t, store.SaveTree(ctx, "group___h_d44780.js", trees[0]))

	loaded, err := store.LoadTree(ctx, "group___h_d44780")
	require.NoError(t, err)
	if diff := cmp.Diff(trees[0], loaded); diff != "" {
		t.Errorf("LoadTree() mismatch (-want +got):\n%s", diff)
	}

	infos, err := store.ListTrees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TreeInfo{{Name: "group___h_d44780", Source: "group___h_d44780.js", Symbols: 40}}, infos)
}

func TestSQLiteStore_SaveTree_SnapshotSync(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	v1 := &navtree.Tree{Name: "idx", Entries: []*navtree.Entry{
		{Name: "A", Anchor: "a.html", Children: []*navtree.Entry{{Name: "A1", Anchor: "a.html#1"}}},
		{Name: "B", Ref: "b_file"},
	}}
	require.NoError(t, store.SaveTree(ctx, "v1.js", v1))

	v2 := &navtree.Tree{Name: "idx", Entries: []*navtree.Entry{
		{Name: "C", Anchor: "c.html"},
	}}
	require.NoError(t, store.SaveTree(ctx, "v2.js", v2))

	loaded, err := store.LoadTree(ctx, "idx")
	require.NoError(t, err)
	if diff := cmp.Diff(v2, loaded); diff != "" {
		t.Errorf("LoadTree() mismatch (-want +got):\n%s", diff)
	}

	hits, err := store.FindSymbol(ctx, "A1")
	require.NoError(t, err)
	assert.Empty(t, hits)

	infos, err := store.ListTrees(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "v2.js", infos[0].Source)
	assert.Equal(t, 1, infos[0].Symbols)
}

func TestSQLiteStore_FindSymbol(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTree(ctx, "one.js", &navtree.Tree{Name: "one", Entries: []*navtree.Entry{
		{Name: "HD44780_LCD_t", Anchor: "s.html", Children: []*navtree.Entry{{Name: "RS", Anchor: "s.html#rs"}}},
	}}))
	require.NoError(t, store.SaveTree(ctx, "two.js", &navtree.Tree{Name: "two", Entries: []*navtree.Entry{
		{Name: "RS", Anchor: "t.html#rs"},
	}}))

	hits, err := store.FindSymbol(ctx, "RS")
	require.NoError(t, err)
	assert.Equal(t, []SymbolHit{
		{Tree: "one", Path: "HD44780_LCD_t/RS", Name: "RS", Anchor: "s.html#rs"},
		{Tree: "two", Path: "RS", Name: "RS", Anchor: "t.html#rs"},
	}, hits)
}

func TestSQLiteStore_LoadTree_NotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.LoadTree(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Units(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	clear := testUnit("a.go:LCD.Clear:10", "Clear", "LCD", "a.go", 10)
	clear.Details = extractor.GoFunctionDetails{Signature: "func (l *LCD) Clear() error"}
	require.NoError(t, store.ReplaceUnits(ctx, []*extractor.CodeUnit{
		clear,
		testUnit("b.go:Clear:3", "Clear", "", "b.go", 3),
		testUnit("b.go:Home:9", "Home", "", "b.go", 9),
	}))

	found, err := store.FindUnits(ctx, "Clear")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a.go", found[0].Filepath)
	assert.Equal(t, "LCD", found[0].Receiver)
	details, ok := found[0].Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "func (l *LCD) Clear() error", details["signature"])

	found, err = store.FindUnits(ctx, "LCD.Clear")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a.go:LCD.Clear:10", found[0].ID)

	// a new snapshot drops units that are gone
	require.NoError(t, store.ReplaceUnits(ctx, []*extractor.CodeUnit{testUnit("b.go:Home:9", "Home", "", "b.go", 9)}))
	found, err = store.FindUnits(ctx, "Clear")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testUnit(id, name, receiver, path string, startLine int) *extractor.CodeUnit {
	unitType := "function"
	if receiver != "" {
		unitType = "method"
	}
	return &extractor.CodeUnit{
		ID:        id,
		Name:      name,
		Receiver:  receiver,
		Filepath:  path,
		StartLine: startLine,
		EndLine:   startLine + 2,
		UnitType:  unitType,
		Language:  "go",
		Package:   "hd44780",
	}
}
