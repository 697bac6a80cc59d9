package pages

import (
	"fmt"
	"time"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// hydratePage converts a column-keyed gateway row into a *types.Page.
func hydratePage(row map[string]any) (*types.Page, error) {
	createdAt, err := rowTime(row, "created_at")
	if err != nil {
		return nil, err
	}
	updatedAt, err := rowTime(row, "updated_at")
	if err != nil {
		return nil, err
	}
	return &types.Page{
		PageID:        rowString(row, "page_id"),
		ParentID:      rowNullString(row, "parent_id"),
		Title:         rowString(row, "title"),
		Icon:          rowNullString(row, "icon"),
		Content:       rowString(row, "content"),
		SchemaVersion: int(rowInt(row, "schema_version")),
		Revision:      rowInt(row, "revision"),
		SortOrder:     rowFloat(row, "sort_order"),
		IsArchived:    rowInt(row, "is_archived") != 0,
		CoverURL:      rowNullString(row, "cover_url"),
		CoverYOffset:  rowFloat(row, "cover_y_offset"),
		FontFamily:    rowString(row, "font_family"),
		FullWidth:     rowInt(row, "full_width") != 0,
		SmallText:     rowInt(row, "small_text") != 0,
		IsLocked:      rowInt(row, "is_locked") != 0,
		IsFavorited:   rowInt(row, "is_favorited") != 0,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func rowString(row map[string]any, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func rowNullString(row map[string]any, col string) *string {
	if row[col] == nil {
		return nil
	}
	s := rowString(row, col)
	return &s
}

func rowInt(row map[string]any, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func rowFloat(row map[string]any, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func rowTime(row map[string]any, col string) (time.Time, error) {
	s := rowString(row, col)
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", col, err)
	}
	return t, nil
}
