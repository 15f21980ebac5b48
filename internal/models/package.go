// Package models defines the domain types for the plugin registry.
package models

import "time"

// Category is one of the fixed plugin categories.
type Category string

// The nine plugin categories. Keys are stored in the package table;
// values are the human-readable labels the frontend shows.
var Categories = map[Category]string{
	"authentication": "Authentication",
	"storage":        "Storage",
	"hardware":       "Hardware",
	"communication":  "Communication",
	"sdkintegration": "SDK Integration",
	"analytics":      "Analytics",
	"platform":       "Platform",
	"behavior":       "Behavior",
	"security":       "Security",
}

// Valid reports whether c is one of the fixed category keys.
func (c Category) Valid() bool {
	_, ok := Categories[c]
	return ok
}

// Package is a plugin indexed by the registry. PackageID is the
// lowercase-trimmed npm identifier; it is unique and immutable.
type Package struct {
	PackageID   string    `json:"package_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	UserID      string    `json:"user_id"`
	Keywords    []string  `json:"keywords"`
	SysKeywords []string  `json:"sys_keywords"`
	CreatedAt   time.Time `json:"created_at"`
}

// PackageDetails aggregates per-package counters, 1:1 with Package.
// Mutated only by like/unlike and rating operations.
type PackageDetails struct {
	PackageID   string    `json:"package_id"`
	LikeCount   int       `json:"like_count"`
	RatingCount int       `json:"rating_count"`
	RatingSum   int       `json:"rating_sum"`
	LastUpdated time.Time `json:"last_updated"`
}

// PackageLike records that a user likes a package. At most one row per
// (package_id, user_id).
type PackageLike struct {
	PackageID string    `json:"package_id"`
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"`
}

// PackageRating is a user's 1-5 rating of a package.
type PackageRating struct {
	PackageID   string    `json:"package_id"`
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	LastUpdated time.Time `json:"last_updated"`
}

// PackageReadme is the cached README for a package version. It is a
// last-write cache, not a version history: at most one row per
// package_id is retained.
type PackageReadme struct {
	PackageID      string    `json:"package_id"`
	PackageVersion string    `json:"package_version"`
	Readme         string    `json:"readme"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Session is a bearer session minted for an authenticated user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
