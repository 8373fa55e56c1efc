package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor turns source files into code units with a LanguageExtractor.
// It is safe for concurrent use.
type Extractor struct {
	lang  LanguageExtractor
	query *sitter.Query
}

// NewExtractor creates an extractor for lang. Only "go" is supported.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case "go":
		return newExtractor(&GoExtractor{})
	}
	return nil, fmt.Errorf("unsupported language: %s", lang)
}

func newExtractor(lang LanguageExtractor) (*Extractor, error) {
	query, err := sitter.NewQuery([]byte(lang.GetQuery()), lang.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to compile declaration query: %w", err)
	}
	return &Extractor{lang: lang, query: query}, nil
}

// ExtractFromFile parses a single source file and extracts its declarations.
func (e *Extractor) ExtractFromFile(ctx context.Context, filepath string) ([]*CodeUnit, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.Extract(ctx, filepath, sourceCode)
}

// Extract parses sourceCode, reporting units as coming from filepath.
func (e *Extractor) Extract(ctx context.Context, filepath string, sourceCode []byte) ([]*CodeUnit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.lang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	root := tree.RootNode()
	pkg := e.lang.PackageName(root, sourceCode)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(e.query, root)

	var units []*CodeUnit
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			units = append(units, e.lang.ExtractUnits(e.query.CaptureNameForId(c.Index), c.Node, sourceCode, filepath, pkg)...)
		}
	}
	return units, nil
}
