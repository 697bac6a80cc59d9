package types

import "time"

// Font families selectable per page.
const (
	FontDefault = "default"
	FontSerif   = "serif"
	FontMono    = "mono"
)

// Page represents one document in the page tree. It is the sole persisted
// entity; block content lives inside Content as an encoded payload that is
// opaque to everything except the content codec.
type Page struct {
	PageID        string    // UUID v7, generated on creation, immutable.
	ParentID      *string   // Containing page, nil for root-level pages.
	Title         string    // Display title.
	Icon          *string   // Emoji or icon reference, nil when unset.
	Content       string    // Encoded document payload.
	SchemaVersion int       // Encoding version of Content.
	Revision      int64     // Optimistic-concurrency token, starts at 1.
	SortOrder     float64   // Position among siblings; fractional for midpoint inserts.
	IsArchived    bool      // Soft-delete flag.
	CoverURL      *string   // Cover image, nil when unset.
	CoverYOffset  float64   // Vertical cover crop position.
	FontFamily    string    // One of the Font constants.
	FullWidth     bool
	SmallText     bool
	IsLocked      bool
	IsFavorited   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time // Refreshed on every mutating write.
}

// PageNode is a page with its resolved children, as produced by tree assembly.
type PageNode struct {
	Page     *Page
	Children []*PageNode
}

// UpdatePageParams carries the optional fields for a page update. Only
// non-nil fields are written; an update with no fields supplied is a no-op
// that returns the current page unchanged. For the nullable columns (Icon,
// CoverURL) supplying an empty string stores NULL.
type UpdatePageParams struct {
	Title        *string
	Icon         *string
	Content      *string // Normalized through the codec before the write.
	CoverURL     *string
	CoverYOffset *float64
	FontFamily   *string
	FullWidth    *bool
	SmallText    *bool
	IsLocked     *bool
	IsFavorited  *bool

	// ExpectedRevision, when set, makes the write conditional on the stored
	// revision still matching. A zero-row-affected update then reports
	// ErrRevisionConflict instead of mutating anything.
	ExpectedRevision *int64
}

// IsEmpty reports whether the params carry no field to write.
func (p UpdatePageParams) IsEmpty() bool {
	return p.Title == nil && p.Icon == nil && p.Content == nil &&
		p.CoverURL == nil && p.CoverYOffset == nil && p.FontFamily == nil &&
		p.FullWidth == nil && p.SmallText == nil && p.IsLocked == nil &&
		p.IsFavorited == nil
}
