package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// Connection pragmas applied on open.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// Compile-time interface check: Gateway must implement types.Gateway.
var _ types.Gateway = (*Gateway)(nil)

// Gateway executes statements against a SQLite database through a single
// pinned connection, so free-form transaction verbs ("BEGIN IMMEDIATE",
// "COMMIT", "ROLLBACK") issued through Run bind to the same session as the
// statements between them.
type Gateway struct {
	db   *sql.DB
	conn *sql.Conn
}

// Open opens or creates the database at path, applies the connection
// pragmas, and ensures the schema exists. Use ":memory:" for an ephemeral
// database.
func Open(path string) (*Gateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinning connection: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(context.Background(), pragma); err != nil {
			_ = conn.Close()
			_ = db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.ExecContext(context.Background(), createPages); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Gateway{db: db, conn: conn}, nil
}

// Close releases the pinned connection and the underlying database.
func (g *Gateway) Close() error {
	if err := g.conn.Close(); err != nil {
		_ = g.db.Close()
		return fmt.Errorf("closing connection: %w", err)
	}
	return g.db.Close()
}

// Run executes a mutating statement and reports rows affected and the last
// insert rowid.
func (g *Gateway) Run(ctx context.Context, stmt string, args ...any) (types.RunResult, error) {
	res, err := g.conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return types.RunResult{}, wrapStatementError(err)
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return types.RunResult{}, wrapStatementError(err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return types.RunResult{}, wrapStatementError(err)
	}
	return types.RunResult{Changes: changes, LastID: lastID}, nil
}

// Get executes a query and returns the first row as a column-keyed map, or
// nil when no row matches.
func (g *Gateway) Get(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	rows, err := g.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapStatementError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapStatementError(err)
		}
		return nil, nil
	}
	return scanRow(rows)
}

// All executes a query and returns every row as a column-keyed map.
func (g *Gateway) All(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	rows, err := g.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapStatementError(err)
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStatementError(err)
	}
	return results, nil
}

// scanRow scans the current row into a column-keyed map.
func scanRow(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapStatementError(err)
	}
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, wrapStatementError(err)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = values[i]
	}
	return row, nil
}

// wrapStatementError converts a driver failure into the structured error
// shape the core's taxonomy expects.
func wrapStatementError(err error) error {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		return &types.StatementError{Code: se.Code(), Message: err.Error()}
	}
	return &types.StatementError{Message: err.Error()}
}
