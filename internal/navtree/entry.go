// Package navtree reads the navigation index Doxygen writes next to its HTML pages.
//
// Each index file declares one or more JavaScript arrays of symbol entries:
//
//	var group___h_d44780 =
//	[
//	    [ "HD44780_LCD_t", "struct_h_d44780___l_c_d__t.html", [
//	      [ "Data0", "struct_h_d44780___l_c_d__t.html#a08bb...", null ],
//	    ] ],
//	    [ "HD44780_Clear", "group___h_d44780.html#ga38ca...", null ],
//	];
//
// An entry is [name, anchor, children] where anchor may be null and children is null,
// a nested array, or the name of another index file holding the children.
package navtree

import "strings"

// Entry is one documented symbol.
type Entry struct {
	Name   string
	Anchor string
	// Ref names the index file holding the children when they were not inlined.
	// It is cleared once a Loader has resolved it.
	Ref      string
	Children []*Entry
}

// File returns the page part of the anchor.
func (e *Entry) File() string {
	file, _, _ := strings.Cut(e.Anchor, "#")
	return file
}

// Fragment returns the part of the anchor after '#', if any.
func (e *Entry) Fragment() string {
	_, frag, _ := strings.Cut(e.Anchor, "#")
	return frag
}

// Tree is one declared index: the variable name and its top-level entries.
type Tree struct {
	Name    string
	Entries []*Entry
}

// Visit is called for every entry with the chain of its ancestors, outermost first.
// Returning false skips the entry's children.
type Visit func(parents []*Entry, e *Entry) bool

// Walk visits the entries depth-first in declaration order.
func (t *Tree) Walk(fn Visit) {
	walk(nil, t.Entries, fn)
}

func walk(parents []*Entry, entries []*Entry, fn Visit) {
	for _, e := range entries {
		if !fn(parents, e) {
			continue
		}
		if len(e.Children) > 0 {
			walk(append(parents[:len(parents):len(parents)], e), e.Children, fn)
		}
	}
}

// Symbol is an entry together with its position in the tree.
type Symbol struct {
	Path  string // ancestor names joined with '/', ending with the entry name
	Depth int
	Entry *Entry
}

// Flatten lists every entry depth-first.
func (t *Tree) Flatten() []Symbol {
	var out []Symbol
	t.Walk(func(parents []*Entry, e *Entry) bool {
		out = append(out, Symbol{Path: path(parents, e), Depth: len(parents), Entry: e})
		return true
	})
	return out
}

// Find returns every entry named name, at any depth.
func (t *Tree) Find(name string) []Symbol {
	var out []Symbol
	t.Walk(func(parents []*Entry, e *Entry) bool {
		if e.Name == name {
			out = append(out, Symbol{Path: path(parents, e), Depth: len(parents), Entry: e})
		}
		return true
	})
	return out
}

// Len counts the entries at every depth.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func([]*Entry, *Entry) bool {
		n++
		return true
	})
	return n
}

func path(parents []*Entry, e *Entry) string {
	parts := make([]string, 0, len(parents)+1)
	for _, p := range parents {
		parts = append(parts, p.Name)
	}
	return strings.Join(append(parts, e.Name), "/")
}
