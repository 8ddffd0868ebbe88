package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"documentor/internal/extractor"
	"documentor/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
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
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			filepath TEXT,
			package TEXT,
			language TEXT,
			scope TEXT,
			start_line INTEGER,
			end_line INTEGER,
			unit_type TEXT,
			name TEXT,
			owner TEXT,
			parents JSON,
			signature TEXT,
			raw_doc TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_units_file ON units(filepath);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

const unitColumns = "id, filepath, package, language, scope, start_line, end_line, unit_type, name, owner, parents, signature, raw_doc"

const insertUnit = `
	INSERT INTO units (` + unitColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		filepath=excluded.filepath,
		package=excluded.package,
		language=excluded.language,
		scope=excluded.scope,
		start_line=excluded.start_line,
		end_line=excluded.end_line,
		unit_type=excluded.unit_type,
		name=excluded.name,
		owner=excluded.owner,
		parents=excluded.parents,
		signature=excluded.signature,
		raw_doc=excluded.raw_doc
`

// --- UnitStore Implementation ---

func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Snapshot semantics: units missing from g are dropped.
	if _, err := tx.ExecContext(ctx, "DELETE FROM units"); err != nil {
		return err
	}

	units := make([]*extractor.CodeUnit, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		units = append(units, node.Unit)
	}
	if err := insertUnits(ctx, tx, units); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) ReplaceFiles(ctx context.Context, paths []string, units []*extractor.CodeUnit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del, err := tx.PrepareContext(ctx, "DELETE FROM units WHERE filepath = ?")
	if err != nil {
		return err
	}
	defer del.Close()

	for _, path := range paths {
		if _, err := del.ExecContext(ctx, path); err != nil {
			return err
		}
	}
	if err := insertUnits(ctx, tx, units); err != nil {
		return err
	}

	return tx.Commit()
}

func insertUnits(ctx context.Context, tx *sql.Tx, units []*extractor.CodeUnit) error {
	stmt, err := tx.PrepareContext(ctx, insertUnit)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range units {
		parents, err := json.Marshal(u.Parents)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, u.ID, u.Filepath, u.Package, u.Language, u.Scope, u.StartLine, u.EndLine,
			u.UnitType, u.Name, u.Owner, parents, u.Signature, u.RawDoc); err != nil {
			return fmt.Errorf("failed to save unit %s: %w", u.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+unitColumns+" FROM units")
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	units, err := scanUnits(rows)
	if err != nil {
		return nil, err
	}

	g := graph.NewGraph()
	for _, u := range units {
		g.AddUnit(u)
	}
	g.LinkRelations()

	return g, nil
}

func (s *SQLiteStore) GetUnit(ctx context.Context, id string) (*extractor.CodeUnit, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+unitColumns+" FROM units WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units, err := scanUnits(rows)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, sql.ErrNoRows
	}
	return units[0], nil
}

func (s *SQLiteStore) FindUnitsByFile(ctx context.Context, filepath string) ([]*extractor.CodeUnit, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+unitColumns+" FROM units WHERE filepath = ? ORDER BY start_line", filepath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUnits(rows)
}

func scanUnits(rows *sql.Rows) ([]*extractor.CodeUnit, error) {
	var units []*extractor.CodeUnit
	for rows.Next() {
		var u extractor.CodeUnit
		var parents []byte
		if err := rows.Scan(&u.ID, &u.Filepath, &u.Package, &u.Language, &u.Scope, &u.StartLine, &u.EndLine,
			&u.UnitType, &u.Name, &u.Owner, &parents, &u.Signature, &u.RawDoc); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		if len(parents) > 0 {
			if err := json.Unmarshal(parents, &u.Parents); err != nil {
				return nil, fmt.Errorf("failed to decode parents of %s: %w", u.ID, err)
			}
		}
		units = append(units, &u)
	}
	return units, rows.Err()
}

// --- MetaStore Implementation ---

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
