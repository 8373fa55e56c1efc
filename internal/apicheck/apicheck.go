// Package apicheck cross-references a documentation index with the Go declarations
// extracted from source, reporting which documented symbols have a Go counterpart.
package apicheck

import (
	"sort"
	"strings"
	"unicode"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"
)

// Checker maps documented names to Go identifiers.
type Checker struct {
	// Prefix is stripped from documented names before the rules apply.
	Prefix string
	// Aliases override the naming rules for individual documented names.
	Aliases map[string]string
	// Receivers are the types whose methods stand in for documented free functions
	// taking the handle as first argument.
	Receivers []string
	// Members lists, per Go type, other structs whose fields count as its members.
	Members map[string][]string
}

// Default returns the checker for the HD44780 driver documentation.
func Default() *Checker {
	return &Checker{
		Prefix: "HD44780_",
		Aliases: map[string]string{
			"HD44780_INTERFACE_4bit": "Interface4Bit",
			"HD44780_INTERFACE_8bit": "Interface8Bit",
		},
		Receivers: []string{"LCD"},
		Members:   map[string][]string{"LCD": {"Pins"}},
	}
}

// GoName converts a documented name with the default checker.
func GoName(sym string) string {
	return Default().GoName(sym)
}

// GoName converts a documented C name to the Go identifier expected for it:
// the prefix is stripped, a "_t" type suffix is dropped, "_v2" variants become
// "ByName" and the first letter is upper-cased.
func (c *Checker) GoName(sym string) string {
	if alias, ok := c.Aliases[sym]; ok {
		return alias
	}
	name := strings.TrimPrefix(sym, c.Prefix)
	name = strings.TrimSuffix(name, "_t")
	if base, ok := strings.CutSuffix(name, "_v2"); ok {
		name = base + "ByName"
	}
	if name == "" {
		return ""
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Match is a documented symbol with its Go counterpart.
type Match struct {
	Path string // position in the index
	Doc  string // documented name
	Go   string // qualified Go name, such as "LCD.Clear" or "Pins.RS"
	File string
	Line int
}

// Missing is a documented symbol without a Go counterpart.
type Missing struct {
	Path string
	Doc  string
	Go   string // the name that was looked for
}

// Report is the result of Check.
type Report struct {
	Matched []Match
	Missing []Missing
	// Undocumented lists exported Go symbols no index entry matched, sorted.
	Undocumented []string
}

// Complete reports whether every documented symbol was found.
func (r Report) Complete() bool { return len(r.Missing) == 0 }

// Check compares tree against units with the default checker.
func Check(tree *navtree.Tree, units []*extractor.CodeUnit) Report {
	return Default().Check(tree, units)
}

type index struct {
	units  map[string]*extractor.CodeUnit // qualified name
	fields map[string]bool                // "Type.Field"
}

func newIndex(units []*extractor.CodeUnit) index {
	idx := index{units: map[string]*extractor.CodeUnit{}, fields: map[string]bool{}}
	for _, u := range units {
		qn := u.QualifiedName()
		if _, dup := idx.units[qn]; !dup {
			idx.units[qn] = u
		}
		if d, ok := u.Details.(extractor.GoTypeDetails); ok {
			for _, f := range d.Fields {
				idx.fields[u.Name+"."+f.Name] = true
			}
		}
	}
	return idx
}

// Check walks tree and resolves every symbol entry against units. Entries without
// an in-page anchor that are not structures, such as groups and pages, are
// containers: they are descended into but not checked themselves.
func (c *Checker) Check(tree *navtree.Tree, units []*extractor.CodeUnit) Report {
	idx := newIndex(units)
	used := map[string]bool{}
	var rep Report

	var visit func(parents []string, owner string, entries []*navtree.Entry)
	visit = func(parents []string, owner string, entries []*navtree.Entry) {
		for _, e := range entries {
			p := strings.Join(append(parents[:len(parents):len(parents)], e.Name), "/")
			if !symbolEntry(e) {
				visit(append(parents[:len(parents):len(parents)], e.Name), "", e.Children)
				continue
			}

			goName := c.GoName(e.Name)
			qn, ok := c.resolve(idx, owner, goName)
			if !ok {
				rep.Missing = append(rep.Missing, Missing{Path: p, Doc: e.Name, Go: goName})
			} else {
				used[qn] = true
				m := Match{Path: p, Doc: e.Name, Go: qn}
				if u := idx.units[qn]; u != nil {
					m.File, m.Line = u.Filepath, u.StartLine
				}
				rep.Matched = append(rep.Matched, m)
			}
			childOwner := ""
			if ok {
				childOwner = qn
			}
			visit(append(parents[:len(parents):len(parents)], e.Name), childOwner, e.Children)
		}
	}
	visit(nil, "", tree.Entries)

	for qn, u := range idx.units {
		if used[qn] || !u.Exported() || (u.Receiver != "" && !exported(u.Receiver)) {
			continue
		}
		rep.Undocumented = append(rep.Undocumented, qn)
	}
	sort.Strings(rep.Undocumented)
	return rep
}

// resolve finds the qualified Go name for goName declared under owner, falling
// back to package-level declarations and receiver methods.
func (c *Checker) resolve(idx index, owner, goName string) (string, bool) {
	if owner != "" {
		if idx.fields[owner+"."+goName] {
			return owner + "." + goName, true
		}
		for _, m := range c.Members[owner] {
			if idx.fields[m+"."+goName] {
				return m + "." + goName, true
			}
		}
		if _, ok := idx.units[owner+"."+goName]; ok {
			return owner + "." + goName, true
		}
	}
	if _, ok := idx.units[goName]; ok {
		return goName, true
	}
	for _, r := range c.Receivers {
		if _, ok := idx.units[r+"."+goName]; ok {
			return r + "." + goName, true
		}
	}
	return "", false
}

func symbolEntry(e *navtree.Entry) bool {
	if e.Fragment() != "" {
		return true
	}
	file := e.File()
	for _, kind := range []string{"struct_", "union_", "class_"} {
		if strings.HasPrefix(file, kind) {
			return true
		}
	}
	return false
}

func exported(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}
