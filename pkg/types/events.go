package types

// ChangeKind classifies a page-change event.
type ChangeKind string

const (
	PageCreated   ChangeKind = "created"
	PageUpdated   ChangeKind = "updated"
	PageDeleted   ChangeKind = "deleted"
	PageMoved     ChangeKind = "moved"
	PageReordered ChangeKind = "reordered"
)

// SaveState is one step of the per-page save lifecycle:
// Idle -> Pending -> Flushing -> {Saved | Failed | Retrying}.
type SaveState string

const (
	SavePending  SaveState = "pending"
	SaveFlushing SaveState = "flushing"
	SaveSaved    SaveState = "saved"
	SaveFailed   SaveState = "failed"
	SaveRetrying SaveState = "retrying"
)

// SaveSource tags which pathway produced a save-lifecycle event.
type SaveSource string

const (
	SourceDebounce SaveSource = "debounce"
	SourceFlush    SaveSource = "flush"
	SourceRepair   SaveSource = "repair"
)

// ChangeEvent announces that a page entity changed.
type ChangeEvent struct {
	Kind   ChangeKind
	PageID string
	Page   *Page // Post-change snapshot; nil for hard deletes and reorders.
}

// SaveEvent announces a save-lifecycle transition for a page.
type SaveEvent struct {
	PageID string
	State  SaveState
	Source SaveSource
	Err    string // Failure message for SaveFailed and SaveRetrying.
}
