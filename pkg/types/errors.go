package types

import "errors"

// Page operation errors.
var (
	// ErrNotFound reports a read that required a row and found none.
	ErrNotFound = errors.New("page not found")

	// ErrRevisionConflict reports a conditional write whose expected
	// revision no longer matched the stored one. No row was changed.
	ErrRevisionConflict = errors.New("revision conflict")

	ErrInvalidID = errors.New("invalid page ID")
)

// Cross-page move precondition errors.
var (
	ErrSamePage = errors.New("source and target are the same page")
	ErrNoBlocks = errors.New("no blocks to move")
)

// ErrRetryExhausted marks the terminal failure of a save retry sequence.
// It is only ever carried inside a lifecycle event, never returned to a
// caller: the debounce timer that started the sequence has no one to
// report to synchronously.
var ErrRetryExhausted = errors.New("save retry attempts exhausted")
