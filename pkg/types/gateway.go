package types

import (
	"context"
	"fmt"
)

// RunResult reports the outcome of a mutating statement.
type RunResult struct {
	Changes int64 // Rows affected.
	LastID  int64 // Rowid of the last insert, when applicable.
}

// Gateway executes parameterized statements against the durable store. It is
// the only path to the storage engine; transaction control is issued as
// free-form statements ("BEGIN IMMEDIATE", "COMMIT", "ROLLBACK") through Run.
//
// Get returns a nil row, not an error, when no row matches.
type Gateway interface {
	Run(ctx context.Context, stmt string, args ...any) (RunResult, error)
	Get(ctx context.Context, stmt string, args ...any) (map[string]any, error)
	All(ctx context.Context, stmt string, args ...any) ([]map[string]any, error)
}

// StatementError is a structured failure reported by the gateway for a
// specific statement.
type StatementError struct {
	Code    int
	Message string
}

func (e *StatementError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("statement error (code %d): %s", e.Code, e.Message)
	}
	return "statement error: " + e.Message
}
