package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/models"
)

// Summary is a package joined with its details counters, as returned by
// list and detail queries.
type Summary struct {
	Package models.Package
	Details models.PackageDetails
}

// SearchQuery describes a package search: optional text query, category
// and owner filters, ordering, and pagination.
type SearchQuery struct {
	Query    string
	Category string
	UserID   string
	Sort     string // "package_id" (default), "name", "likes"
	Limit    int
	Offset   int
}

const defaultPageSize = 20

// InsertPackage inserts a package with a zeroed details row and its FTS
// entry within a transaction. A duplicate package_id yields
// apperr.ErrConflict; existing rows are never overwritten.
func (db *DB) InsertPackage(pkg models.Package) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	keywordsJSON, _ := json.Marshal(pkg.Keywords)
	sysKeywordsJSON, _ := json.Marshal(pkg.SysKeywords)

	now := pkg.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO package (package_id, name, description, category, user_id, keywords, sys_keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, pkg.PackageID, pkg.Name, pkg.Description, string(pkg.Category), pkg.UserID,
		string(keywordsJSON), string(sysKeywordsJSON), now)
	if err != nil {
		if isConstraintErr(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("store: insert package: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO package_details (package_id, like_count, rating_count, rating_sum, last_updated)
		VALUES (?, 0, 0, 0, ?)
	`, pkg.PackageID, now)
	if err != nil {
		return fmt.Errorf("store: insert package details: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, pkg.PackageID, pkg.Name, pkg.Keywords, pkg.SysKeywords); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPackage returns a package joined with its details counters.
func (db *DB) GetPackage(packageID string) (*Summary, error) {
	row := db.conn.QueryRow(`
		SELECT p.package_id, p.name, p.description, p.category, p.user_id,
		       p.keywords, p.sys_keywords, p.created_at,
		       d.like_count, d.rating_count, d.rating_sum, d.last_updated
		FROM package p
		JOIN package_details d ON d.package_id = p.package_id
		WHERE p.package_id = ?
	`, packageID)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get package: %w", err)
	}
	return s, nil
}

// SearchPackages returns a page of packages matching the query plus the
// total match count. The text filter uses FTS5 when compiled in and a
// LIKE fallback otherwise.
func (db *DB) SearchPackages(q SearchQuery) ([]Summary, int, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := "1=1"
	args := []any{}
	if q.Query != "" {
		pred, predArgs := textFilter(q.Query)
		where += " AND " + pred
		args = append(args, predArgs...)
	}
	if q.Category != "" {
		where += " AND p.category = ?"
		args = append(args, q.Category)
	}
	if q.UserID != "" {
		where += " AND p.user_id = ?"
		args = append(args, q.UserID)
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM package p WHERE ` + where
	if err := db.conn.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count packages: %w", err)
	}

	order := "p.package_id ASC"
	switch q.Sort {
	case "", "package_id":
	case "name":
		order = "p.name ASC, p.package_id ASC"
	case "likes":
		order = "d.like_count DESC, p.package_id ASC"
	default:
		return nil, 0, fmt.Errorf("store: %w: unknown sort %q", apperr.ErrBadRequest, q.Sort)
	}

	pageSQL := `
		SELECT p.package_id, p.name, p.description, p.category, p.user_id,
		       p.keywords, p.sys_keywords, p.created_at,
		       d.like_count, d.rating_count, d.rating_sum, d.last_updated
		FROM package p
		JOIN package_details d ON d.package_id = p.package_id
		WHERE ` + where + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := db.conn.Query(pageSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: search packages: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// Like records that a user likes a package and bumps like_count in the
// same transaction. Returns the new like count. A duplicate like yields
// apperr.ErrConflict; an unknown package apperr.ErrNotFound.
func (db *DB) Like(packageID, userID string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := packageExists(tx, packageID); err != nil {
		return 0, err
	}

	_, err = tx.Exec(`INSERT INTO package_like (package_id, user_id, date) VALUES (?, ?, ?)`,
		packageID, userID, time.Now())
	if err != nil {
		if isConstraintErr(err) {
			return 0, apperr.ErrConflict
		}
		return 0, fmt.Errorf("store: insert like: %w", err)
	}

	count, err := adjustLikeCount(tx, packageID, +1)
	if err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

// Unlike removes a user's like and decrements like_count. Returns the new
// like count, or apperr.ErrNotFound when no like existed.
func (db *DB) Unlike(packageID, userID string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM package_like WHERE package_id = ? AND user_id = ?`, packageID, userID)
	if err != nil {
		return 0, fmt.Errorf("store: delete like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, apperr.ErrNotFound
	}

	count, err := adjustLikeCount(tx, packageID, -1)
	if err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

// Rate upserts a user's 1-5 rating and recomputes the aggregate counters
// in the same transaction. Returns the updated details row.
func (db *DB) Rate(packageID, userID string, rating int) (*models.PackageDetails, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := packageExists(tx, packageID); err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO package_rating (package_id, user_id, rating, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(package_id, user_id) DO UPDATE SET
			rating       = excluded.rating,
			last_updated = excluded.last_updated
	`, packageID, userID, rating, now)
	if err != nil {
		return nil, fmt.Errorf("store: upsert rating: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE package_details SET
			rating_count = (SELECT COUNT(*) FROM package_rating WHERE package_id = ?),
			rating_sum   = (SELECT COALESCE(SUM(rating), 0) FROM package_rating WHERE package_id = ?),
			last_updated = ?
		WHERE package_id = ?
	`, packageID, packageID, now, packageID)
	if err != nil {
		return nil, fmt.Errorf("store: update rating counters: %w", err)
	}

	var d models.PackageDetails
	err = tx.QueryRow(`
		SELECT package_id, like_count, rating_count, rating_sum, last_updated
		FROM package_details WHERE package_id = ?
	`, packageID).Scan(&d.PackageID, &d.LikeCount, &d.RatingCount, &d.RatingSum, &d.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("store: read details: %w", err)
	}
	return &d, tx.Commit()
}

// GetReadme returns the cached README for an exact (package_id, version)
// pair, or apperr.ErrNotFound on a cache miss.
func (db *DB) GetReadme(packageID, version string) (string, error) {
	var readme string
	err := db.conn.QueryRow(`
		SELECT readme FROM package_readme WHERE package_id = ? AND package_version = ?
	`, packageID, version).Scan(&readme)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get readme: %w", err)
	}
	return readme, nil
}

// ReplaceReadme purges every cached row for the package and inserts the
// new version, keeping at most one version per package_id.
func (db *DB) ReplaceReadme(packageID, version, readme string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM package_readme WHERE package_id = ?`, packageID); err != nil {
		return fmt.Errorf("store: purge readme: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO package_readme (package_id, package_version, readme, last_updated)
		VALUES (?, ?, ?, ?)
	`, packageID, version, readme, time.Now())
	if err != nil {
		return fmt.Errorf("store: insert readme: %w", err)
	}
	return tx.Commit()
}

// CreateSession stores a bearer session.
func (db *DB) CreateSession(s models.Session) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO session (token, user_id, email, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.Token, s.UserID, s.Email, created, s.ExpiresAt)
	if err != nil {
		if isConstraintErr(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("store: insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for a token, or apperr.ErrNotFound.
func (db *DB) GetSession(token string) (*models.Session, error) {
	var s models.Session
	err := db.conn.QueryRow(`
		SELECT token, user_id, email, created_at, expires_at FROM session WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &s.Email, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	return &s, nil
}

func packageExists(tx *sql.Tx, packageID string) error {
	var one int
	err := tx.QueryRow(`SELECT 1 FROM package WHERE package_id = ?`, packageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: package exists: %w", err)
	}
	return nil
}

func adjustLikeCount(tx *sql.Tx, packageID string, delta int) (int, error) {
	_, err := tx.Exec(`
		UPDATE package_details SET
			like_count   = like_count + ?,
			last_updated = ?
		WHERE package_id = ?
	`, delta, time.Now(), packageID)
	if err != nil {
		return 0, fmt.Errorf("store: adjust like count: %w", err)
	}
	var count int
	if err := tx.QueryRow(`SELECT like_count FROM package_details WHERE package_id = ?`, packageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: read like count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*Summary, error) {
	var (
		s            Summary
		keywordsJSON string
		sysKeywords  string
	)
	err := row.Scan(
		&s.Package.PackageID, &s.Package.Name, &s.Package.Description, &s.Package.Category,
		&s.Package.UserID, &keywordsJSON, &sysKeywords, &s.Package.CreatedAt,
		&s.Details.LikeCount, &s.Details.RatingCount, &s.Details.RatingSum, &s.Details.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	s.Details.PackageID = s.Package.PackageID
	_ = json.Unmarshal([]byte(keywordsJSON), &s.Package.Keywords)
	_ = json.Unmarshal([]byte(sysKeywords), &s.Package.SysKeywords)
	if s.Package.Keywords == nil {
		s.Package.Keywords = []string{}
	}
	if s.Package.SysKeywords == nil {
		s.Package.SysKeywords = []string{}
	}
	return &s, nil
}

func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}
