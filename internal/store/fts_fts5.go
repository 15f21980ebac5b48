//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS package_fts USING fts5(
			package_id UNINDEXED,
			name,
			keywords,
			sys_keywords,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, packageID, name string, keywords, sysKeywords []string) error {
	_, _ = tx.Exec(`DELETE FROM package_fts WHERE package_id = ?`, packageID)
	_, err := tx.Exec(`INSERT INTO package_fts (package_id, name, keywords, sys_keywords) VALUES (?, ?, ?, ?)`,
		packageID, name, strings.Join(keywords, " "), strings.Join(sysKeywords, " "))
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

// textFilter returns an FTS5 MATCH predicate over the package_fts table.
func textFilter(query string) (string, []any) {
	return `p.package_id IN (SELECT package_id FROM package_fts WHERE package_fts MATCH ?)`, []any{query}
}
