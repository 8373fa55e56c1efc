package crawler

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"

	"go.uber.org/zap"
)

// Crawler scans a directory for Go sources and documentation indexes.
type Crawler struct {
	extractor *extractor.Extractor
	log       *zap.Logger
	ignored   []string
}

// navtree.js support files shipped by doxygen that never hold an index.
var scriptFiles = map[string]bool{
	"jquery.js":          true,
	"dynsections.js":     true,
	"navtree.js":         true,
	"resize.js":          true,
	"menu.js":            true,
	"menudata.js":        true,
	"clipboard.js":       true,
	"cookie.js":          true,
	"darkmode_toggle.js": true,
}

// NewCrawler creates a new crawler instance. log may be nil.
func NewCrawler(ext *extractor.Extractor, log *zap.Logger) *Crawler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Crawler{
		extractor: ext,
		log:       log,
		ignored:   []string{".git", "vendor", "node_modules", "testdata", "search"},
	}
}

func (c *Crawler) skipDir(d fs.DirEntry, path, root string) bool {
	if path == root {
		return false
	}
	for _, ign := range c.ignored {
		if d.Name() == ign {
			return true
		}
	}
	return false
}

// ScanProject walks the root directory and extracts every non-test Go file.
// It uses a callback to stream CodeUnits, preventing large memory buildup.
func (c *Crawler) ScanProject(ctx context.Context, root string, onUnit func(*extractor.CodeUnit)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if c.skipDir(d, path, root) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		units, err := c.extractor.ExtractFromFile(ctx, path)
		if err != nil {
			// one unreadable file does not fail the scan
			c.log.Warn("extract failed", zap.String("file", path), zap.Error(err))
			return nil
		}

		for _, unit := range units {
			onUnit(unit)
		}
		return nil
	})
}

// ScanNavTrees parses every navigation index below root and streams the declared
// trees. References between files are left unresolved; see navtree.Loader.
func (c *Crawler) ScanNavTrees(ctx context.Context, root string, onTree func(file string, t *navtree.Tree)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if c.skipDir(d, path, root) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(name, ".js") || scriptFiles[name] || strings.HasPrefix(name, "navtreeindex") {
			return nil
		}

		trees, err := navtree.ParseFile(ctx, path)
		if err != nil {
			c.log.Warn("navtree parse failed", zap.String("file", path), zap.Error(err))
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		for _, t := range trees {
			onTree(rel, t)
		}
		return nil
	})
}
