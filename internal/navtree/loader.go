package navtree

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrCycle is returned when index files reference each other in a loop.
var ErrCycle = errors.New("navtree: reference cycle")

// Loader reads index files from one documentation directory and inlines entries whose
// children live in another file ("<ref>.js" declaring "var <ref>").
type Loader struct {
	dir   string
	log   *zap.Logger
	cache map[string][]*Tree
}

func NewLoader(dir string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, log: log, cache: map[string][]*Tree{}}
}

// Load returns the tree declared as name in name.js with every reference resolved.
func (l *Loader) Load(ctx context.Context, name string) (*Tree, error) {
	t, err := l.tree(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := l.resolve(ctx, t.Entries, map[string]bool{name: true}); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile parses every index declared in file, such as navtreedata.js, and resolves
// their references.
func (l *Loader) LoadFile(ctx context.Context, file string) ([]*Tree, error) {
	trees, err := ParseFile(ctx, filepath.Join(l.dir, file))
	if err != nil {
		return nil, err
	}
	for _, t := range trees {
		if err := l.Resolve(ctx, t); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return trees, nil
}

// Resolve inlines the references below t in place.
func (l *Loader) Resolve(ctx context.Context, t *Tree) error {
	return l.resolve(ctx, t.Entries, map[string]bool{t.Name: true})
}

func (l *Loader) resolve(ctx context.Context, entries []*Entry, active map[string]bool) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Ref != "" && len(e.Children) == 0 {
			ref := e.Ref
			if active[ref] {
				return fmt.Errorf("%w: %s", ErrCycle, ref)
			}
			child, err := l.tree(ctx, ref)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", e.Name, err)
			}
			active[ref] = true
			err = l.resolve(ctx, child.Entries, active)
			delete(active, ref)
			if err != nil {
				return err
			}
			e.Children = child.Entries
			e.Ref = ""
			l.log.Debug("reference resolved", zap.String("entry", e.Name), zap.String("file", ref+".js"))
			continue
		}
		if err := l.resolve(ctx, e.Children, active); err != nil {
			return err
		}
	}
	return nil
}

// tree returns a fresh copy of the declaration name from name.js so callers may
// modify it.
func (l *Loader) tree(ctx context.Context, name string) (*Tree, error) {
	trees, ok := l.cache[name]
	if !ok {
		var err error
		trees, err = ParseFile(ctx, filepath.Join(l.dir, name+".js"))
		if err != nil {
			return nil, err
		}
		l.cache[name] = trees
	}
	for _, t := range trees {
		if t.Name == name {
			return &Tree{Name: t.Name, Entries: cloneEntries(t.Entries)}, nil
		}
	}
	return nil, fmt.Errorf("navtree: %s.js does not declare %s", name, name)
}

func cloneEntries(entries []*Entry) []*Entry {
	if entries == nil {
		return nil
	}
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		c := *e
		c.Children = cloneEntries(e.Children)
		out[i] = &c
	}
	return out
}
