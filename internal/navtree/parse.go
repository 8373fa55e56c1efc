package navtree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

var (
	// ErrSyntax is returned for sources the JavaScript grammar rejects.
	ErrSyntax = errors.New("navtree: syntax error")
	// ErrMalformed is returned for an index whose nested entries do not have the
	// [name, anchor, children] shape.
	ErrMalformed = errors.New("navtree: malformed entry")
)

// errNotIndex marks a top-level array that is not a symbol index.
var errNotIndex = errors.New("not an index")

// Parse extracts every index declared in src. Declarations that are not arrays of
// entries, such as NAVTREEINDEX page lists, are skipped.
func Parse(ctx context.Context, src []byte) ([]*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("navtree: parse: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			return nil, fmt.Errorf("%w at %d:%d", ErrSyntax, p.Row+1, p.Column+1)
		}
		return nil, ErrSyntax
	}

	var trees []*Tree
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() != "variable_declaration" && decl.Type() != "lexical_declaration" {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			d := decl.NamedChild(j)
			if d.Type() != "variable_declarator" {
				continue
			}
			name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")
			if name == nil || value == nil || value.Type() != "array" {
				continue
			}
			entries, err := entryList(value, src, true)
			if errors.Is(err, errNotIndex) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name.Content(src), err)
			}
			trees = append(trees, &Tree{Name: name.Content(src), Entries: entries})
		}
	}
	return trees, nil
}

// ParseFile parses the index file at path.
func ParseFile(ctx context.Context, path string) ([]*Tree, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	trees, err := Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trees, nil
}

// entryList converts an array of entries. At the top level a first element without
// the entry shape means the array is something else and errNotIndex is returned.
func entryList(arr *sitter.Node, src []byte, top bool) ([]*Entry, error) {
	elems := elements(arr)
	if top && len(elems) > 0 && !entryShaped(elems[0]) {
		return nil, errNotIndex
	}
	entries := make([]*Entry, 0, len(elems))
	for _, el := range elems {
		e, err := entry(el, src)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entryShaped(n *sitter.Node) bool {
	if n.Type() != "array" {
		return false
	}
	fields := elements(n)
	return len(fields) > 0 && fields[0].Type() == "string"
}

func entry(n *sitter.Node, src []byte) (*Entry, error) {
	pos := func() string {
		p := n.StartPoint()
		return fmt.Sprintf("%d:%d", p.Row+1, p.Column+1)
	}
	if n.Type() != "array" {
		return nil, fmt.Errorf("%w at %s: %s is not an array", ErrMalformed, pos(), n.Type())
	}
	fields := elements(n)
	if len(fields) == 0 || fields[0].Type() != "string" {
		return nil, fmt.Errorf("%w at %s: missing name", ErrMalformed, pos())
	}

	name, err := unquote(fields[0].Content(src))
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, pos(), err)
	}
	e := &Entry{Name: name}

	if len(fields) > 1 {
		switch fields[1].Type() {
		case "null":
		case "string":
			if e.Anchor, err = unquote(fields[1].Content(src)); err != nil {
				return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, pos(), err)
			}
		default:
			return nil, fmt.Errorf("%w at %s: anchor is %s", ErrMalformed, pos(), fields[1].Type())
		}
	}

	if len(fields) > 2 {
		switch fields[2].Type() {
		case "null":
		case "string":
			if e.Ref, err = unquote(fields[2].Content(src)); err != nil {
				return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, pos(), err)
			}
		case "array":
			if e.Children, err = entryList(fields[2], src, false); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w at %s: children is %s", ErrMalformed, pos(), fields[2].Type())
		}
	}
	return e, nil
}

// elements returns the array members, skipping comments.
func elements(arr *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(arr.NamedChildCount()); i++ {
		if c := arr.NamedChild(i); c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// unquote decodes a JavaScript string literal in single or double quotes.
func unquote(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("bad string literal %s", lit)
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch esc := body[i]; esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'x', 'u':
			size := 2
			if esc == 'u' {
				size = 4
			}
			if i+1+size > len(body) {
				return "", fmt.Errorf("short escape in %s", lit)
			}
			r, err := strconv.ParseUint(body[i+1:i+1+size], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad escape in %s: %w", lit, err)
			}
			b.WriteRune(rune(r))
			i += size
		default:
			b.WriteByte(esc)
		}
	}
	return b.String(), nil
}
