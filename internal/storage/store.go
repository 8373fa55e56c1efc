package storage

import (
	"context"
	"errors"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"
)

// ErrNotFound is returned when a requested tree does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store combines documentation and source symbol storage.
type Store interface {
	TreeStore
	UnitStore
	Close() error
}

// TreeStore persists navigation index trees.
type TreeStore interface {
	// SaveTree replaces the stored snapshot of the tree with the same name.
	SaveTree(ctx context.Context, source string, t *navtree.Tree) error

	// LoadTree rebuilds a stored tree.
	LoadTree(ctx context.Context, name string) (*navtree.Tree, error)

	// ListTrees returns the stored trees, ordered by name.
	ListTrees(ctx context.Context) ([]TreeInfo, error)

	// FindSymbol returns every stored entry named name.
	FindSymbol(ctx context.Context, name string) ([]SymbolHit, error)
}

// UnitStore persists declarations extracted from Go sources.
type UnitStore interface {
	// ReplaceUnits replaces every stored unit with units.
	ReplaceUnits(ctx context.Context, units []*extractor.CodeUnit) error

	// FindUnits returns units whose name or qualified name is name.
	FindUnits(ctx context.Context, name string) ([]*extractor.CodeUnit, error)
}

// TreeInfo describes a stored tree.
type TreeInfo struct {
	Name    string
	Source  string
	Symbols int
}

// SymbolHit is a stored entry with its location.
type SymbolHit struct {
	Tree   string
	Path   string
	Name   string
	Anchor string
}
