// Package sqlite implements the persistence gateway over an embedded SQLite
// database using the pure-Go modernc driver.
package sqlite

// Schema DDL for the pages table. Deleting a page cascades to all
// descendants through the parent_id constraint; the core never walks the
// subtree itself on delete.
const createPages = `CREATE TABLE IF NOT EXISTS pages (
    page_id        TEXT PRIMARY KEY,
    parent_id      TEXT REFERENCES pages(page_id) ON DELETE CASCADE,
    title          TEXT NOT NULL DEFAULT '',
    icon           TEXT,
    content        TEXT NOT NULL DEFAULT '',
    schema_version INTEGER NOT NULL DEFAULT 1,
    revision       INTEGER NOT NULL DEFAULT 1,
    sort_order     REAL NOT NULL DEFAULT 1,
    is_archived    INTEGER NOT NULL DEFAULT 0,
    cover_url      TEXT,
    cover_y_offset REAL NOT NULL DEFAULT 0,
    font_family    TEXT NOT NULL DEFAULT 'default',
    full_width     INTEGER NOT NULL DEFAULT 0,
    small_text     INTEGER NOT NULL DEFAULT 0,
    is_locked      INTEGER NOT NULL DEFAULT 0,
    is_favorited   INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_id);
CREATE INDEX IF NOT EXISTS idx_pages_archived ON pages(is_archived);
CREATE INDEX IF NOT EXISTS idx_pages_favorited ON pages(is_favorited);`
