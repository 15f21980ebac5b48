//go:build !sqlite_fts5

package store

import "database/sql"

func initFTS(_ *sql.DB) error {
	// FTS5 not available; text search uses a LIKE fallback on the
	// package columns.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _ string, _, _ []string) error {
	// Searchable columns already live in the package table; nothing
	// extra to do.
	return nil
}

// textFilter returns a LIKE predicate over id, name, and keyword columns
// (fallback when FTS5 is not compiled in).
func textFilter(query string) (string, []any) {
	like := "%" + query + "%"
	return `(p.package_id LIKE ? OR p.name LIKE ? OR p.keywords LIKE ? OR p.sys_keywords LIKE ?)`,
		[]any{like, like, like, like}
}
