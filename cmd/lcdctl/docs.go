package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"lcddoc/internal/apicheck"
	"lcddoc/internal/crawler"
	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"
	"lcddoc/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// navRoot is the file Doxygen writes the root of the navigation tree to.
const navRoot = "navtreedata.js"

func (a *app) openStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(a.cfg.Index.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", a.cfg.Index.DB, err)
	}
	return store, nil
}

// scanUnits extracts the Go declarations below root.
func (a *app) scanUnits(ctx context.Context, root string) ([]*extractor.CodeUnit, error) {
	ext, err := extractor.NewExtractor("go")
	if err != nil {
		return nil, err
	}
	var units []*extractor.CodeUnit
	err = crawler.NewCrawler(ext, a.logger).ScanProject(ctx, root, func(u *extractor.CodeUnit) {
		units = append(units, u)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return units, nil
}

// loadTrees reads the documentation at path: a single index file, or a directory.
// A directory holding navtreedata.js yields the fully resolved navigation tree;
// any other directory yields each index file it contains.
func (a *app) loadTrees(ctx context.Context, path string) (map[string]*navtree.Tree, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	trees := map[string]*navtree.Tree{}

	if !info.IsDir() {
		parsed, err := navtree.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, t := range parsed {
			trees[t.Name] = t
		}
		return trees, nil
	}

	if _, err := os.Stat(filepath.Join(path, navRoot)); err == nil {
		resolved, err := navtree.NewLoader(path, a.logger).LoadFile(ctx, navRoot)
		if err != nil {
			return nil, err
		}
		for _, t := range resolved {
			trees[t.Name] = t
		}
		return trees, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	err = crawler.NewCrawler(nil, a.logger).ScanNavTrees(ctx, path, func(_ string, t *navtree.Tree) {
		trees[t.Name] = t
	})
	return trees, err
}

func (a *app) indexCmd() *cobra.Command {
	var src string
	cmd := &cobra.Command{
		Use:   "index PATH...",
		Short: "Store documentation indexes (and optionally Go declarations) in the database",
		Long: `Parses the navtree index files at each PATH, a file or a Doxygen HTML
directory, and replaces their snapshot in the database. With --src the Go
declarations below that directory are stored as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			start := time.Now()
			for _, path := range args {
				trees, err := a.loadTrees(ctx, path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				for name, t := range trees {
					if err := store.SaveTree(ctx, path, t); err != nil {
						return err
					}
					a.logger.Debug("tree stored", zap.String("tree", name), zap.Int("symbols", t.Len()))
				}
				fmt.Fprintf(out, "Indexed %d trees from %s\n", len(trees), path)
			}

			if src != "" {
				units, err := a.scanUnits(ctx, src)
				if err != nil {
					return err
				}
				if err := store.ReplaceUnits(ctx, units); err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored %d Go declarations from %s\n", len(units), src)
			}

			a.logger.Info("index complete", zap.Duration("elapsed", time.Since(start)), zap.String("db", a.cfg.Index.DB))
			return nil
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Also store the Go declarations below this directory")
	return cmd
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup NAME",
		Short: "Find a documented symbol and its Go counterpart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			hits, err := store.FindSymbol(ctx, args[0])
			if err != nil {
				return err
			}
			goName := apicheck.GoName(args[0])
			units, err := store.FindUnits(ctx, goName)
			if err != nil {
				return err
			}
			if len(units) == 0 {
				// documented free functions are methods of the display
				if units, err = store.FindUnits(ctx, "LCD."+goName); err != nil {
					return err
				}
			}

			if len(hits) == 0 && len(units) == 0 {
				return fmt.Errorf("%s: %w", args[0], storage.ErrNotFound)
			}
			for _, h := range hits {
				fmt.Fprintf(out, "doc  %s:%s  %s\n", h.Tree, h.Path, h.Anchor)
			}
			for _, u := range units {
				fmt.Fprintf(out, "go   %s.%s  %s:%d\n", u.Package, u.QualifiedName(), u.Filepath, u.StartLine)
			}
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var docs, src string
	var undocumented bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report documented symbols that have no Go declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if docs == "" {
				docs = a.cfg.Index.Docs
			}
			if src == "" {
				src = a.cfg.Index.Src
			}

			trees, err := a.loadTrees(ctx, docs)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", docs, err)
			}
			units, err := a.scanUnits(ctx, src)
			if err != nil {
				return err
			}

			missing := 0
			for _, name := range sortedNames(trees) {
				rep := apicheck.Check(trees[name], units)
				missing += len(rep.Missing)
				printReport(cmd.OutOrStdout(), name, rep, undocumented)
			}
			if missing > 0 {
				return fmt.Errorf("%d documented symbols have no Go declaration", missing)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docs, "docs", "", "Documentation file or directory (default: index.docs)")
	cmd.Flags().StringVar(&src, "src", "", "Go source directory (default: index.src)")
	cmd.Flags().BoolVar(&undocumented, "undocumented", false, "Also list exported Go symbols without documentation")
	return cmd
}

func printReport(out io.Writer, tree string, rep apicheck.Report, undocumented bool) {
	fmt.Fprintf(out, "%s: %d matched, %d missing\n", tree, len(rep.Matched), len(rep.Missing))
	for _, m := range rep.Missing {
		fmt.Fprintf(out, "  missing  %s (want %s)\n", m.Path, m.Go)
	}
	if undocumented {
		for _, name := range rep.Undocumented {
			fmt.Fprintf(out, "  undocumented  %s\n", name)
		}
	}
}

func sortedNames(trees map[string]*navtree.Tree) []string {
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
