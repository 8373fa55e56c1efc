package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lcddoc/internal/extractor"
	"lcddoc/internal/navtree"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trees (
			name TEXT PRIMARY KEY,
			source TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS symbols (
			tree TEXT NOT NULL REFERENCES trees(name) ON DELETE CASCADE,
			id INTEGER NOT NULL,
			parent INTEGER,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			anchor TEXT,
			ref TEXT,
			path TEXT NOT NULL,
			PRIMARY KEY (tree, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);`,
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			name TEXT,
			receiver TEXT,
			package TEXT,
			language TEXT,
			unit_type TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			description TEXT,
			details JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_units_name ON units(name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- TreeStore Implementation ---

func (s *SQLiteStore) SaveTree(ctx context.Context, source string, t *navtree.Tree) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Snapshot semantics: the previous version of the tree is dropped entirely.
	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE tree = ?`, t.Name); err != nil {
		return fmt.Errorf("failed to clear tree %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trees (name, source) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET source=excluded.source
	`, t.Name, source); err != nil {
		return fmt.Errorf("failed to save tree %s: %w", t.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (tree, id, parent, position, name, anchor, ref, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Entries are numbered in depth-first order, so a parent always has a lower id.
	next := 0
	var insert func(parent sql.NullInt64, prefix string, entries []*navtree.Entry) error
	insert = func(parent sql.NullInt64, prefix string, entries []*navtree.Entry) error {
		for pos, e := range entries {
			id := next
			next++
			path := e.Name
			if prefix != "" {
				path = prefix + "/" + e.Name
			}
			if _, err := stmt.ExecContext(ctx, t.Name, id, parent, pos, e.Name, e.Anchor, e.Ref, path); err != nil {
				return fmt.Errorf("failed to save %s: %w", path, err)
			}
			if err := insert(sql.NullInt64{Int64: int64(id), Valid: true}, path, e.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(sql.NullInt64{}, "", t.Entries); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadTree(ctx context.Context, name string) (*navtree.Tree, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM trees WHERE name = ?", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tree %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent, name, anchor, ref FROM symbols
		WHERE tree = ? ORDER BY id
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	t := &navtree.Tree{Name: name}
	byID := map[int64]*navtree.Entry{}
	for rows.Next() {
		var id int64
		var parent sql.NullInt64
		var anchor, ref sql.NullString
		e := &navtree.Entry{}
		if err := rows.Scan(&id, &parent, &e.Name, &anchor, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		e.Anchor, e.Ref = anchor.String, ref.String
		byID[id] = e

		if !parent.Valid {
			t.Entries = append(t.Entries, e)
			continue
		}
		p, ok := byID[parent.Int64]
		if !ok {
			return nil, fmt.Errorf("symbol %s: parent %d not loaded", e.Name, parent.Int64)
		}
		p.Children = append(p.Children, e)
	}
	return t, rows.Err()
}

func (s *SQLiteStore) ListTrees(ctx context.Context) ([]TreeInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.source, COUNT(s.id) FROM trees t
		LEFT JOIN symbols s ON s.tree = t.name
		GROUP BY t.name ORDER BY t.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TreeInfo
	for rows.Next() {
		var info TreeInfo
		var source sql.NullString
		if err := rows.Scan(&info.Name, &source, &info.Symbols); err != nil {
			return nil, err
		}
		info.Source = source.String
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindSymbol(ctx context.Context, name string) ([]SymbolHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tree, path, name, anchor FROM symbols
		WHERE name = ? ORDER BY tree, id
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SymbolHit
	for rows.Next() {
		var h SymbolHit
		var anchor sql.NullString
		if err := rows.Scan(&h.Tree, &h.Path, &h.Name, &anchor); err != nil {
			return nil, err
		}
		h.Anchor = anchor.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// --- UnitStore Implementation ---

func (s *SQLiteStore) ReplaceUnits(ctx context.Context, units []*extractor.CodeUnit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM units`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (id, name, receiver, package, language, unit_type, filepath, start_line, end_line, description, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			receiver=excluded.receiver,
			package=excluded.package,
			language=excluded.language,
			unit_type=excluded.unit_type,
			filepath=excluded.filepath,
			start_line=excluded.start_line,
			end_line=excluded.end_line,
			description=excluded.description,
			details=excluded.details
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range units {
		details, err := json.Marshal(u.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details of %s: %w", u.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, u.ID, u.Name, u.Receiver, u.Package, u.Language, u.UnitType, u.Filepath, u.StartLine, u.EndLine, u.Description, details); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) FindUnits(ctx context.Context, name string) ([]*extractor.CodeUnit, error) {
	recv, method, qualified := strings.Cut(name, ".")
	query := "SELECT id, name, receiver, package, language, unit_type, filepath, start_line, end_line, description, details FROM units WHERE name = ?"
	args := []any{name}
	if qualified {
		query = "SELECT id, name, receiver, package, language, unit_type, filepath, start_line, end_line, description, details FROM units WHERE receiver = ? AND name = ?"
		args = []any{recv, method}
	}

	rows, err := s.db.QueryContext(ctx, query+" ORDER BY filepath, start_line", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*extractor.CodeUnit
	for rows.Next() {
		var u extractor.CodeUnit
		var details []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.Receiver, &u.Package, &u.Language, &u.UnitType, &u.Filepath, &u.StartLine, &u.EndLine, &u.Description, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &u.Details)
		}
		units = append(units, &u)
	}
	return units, rows.Err()
}
