package api

import (
	"time"

	"github.com/plugreg/plugreg/internal/store"
)

// Plugin is a registry entry with its counters, as returned by the API.
// Field names follow the frontend's camelCase convention.
type Plugin struct {
	PackageID   string    `json:"packageId" example:"@capacitor/camera" validate:"required"`
	Name        string    `json:"name" example:"Camera" validate:"required"`
	Description string    `json:"description,omitempty" example:"Native camera access"`
	Category    string    `json:"category" example:"hardware" validate:"required"`
	UserID      string    `json:"userId" validate:"required"`
	Keywords    []string  `json:"keywords" validate:"required"`
	SysKeywords []string  `json:"sysKeywords" validate:"required"`
	CreatedAt   time.Time `json:"createdAt" validate:"required"`
	LikeCount   int       `json:"likeCount" example:"12" validate:"required"`
	RatingCount int       `json:"ratingCount" example:"4" validate:"required"`
	RatingSum   int       `json:"ratingSum" example:"17" validate:"required"`
	LastUpdated time.Time `json:"lastUpdated" validate:"required"`
}

func toPlugin(s store.Summary) Plugin {
	return Plugin{
		PackageID:   s.Package.PackageID,
		Name:        s.Package.Name,
		Description: s.Package.Description,
		Category:    string(s.Package.Category),
		UserID:      s.Package.UserID,
		Keywords:    s.Package.Keywords,
		SysKeywords: s.Package.SysKeywords,
		CreatedAt:   s.Package.CreatedAt,
		LikeCount:   s.Details.LikeCount,
		RatingCount: s.Details.RatingCount,
		RatingSum:   s.Details.RatingSum,
		LastUpdated: s.Details.LastUpdated,
	}
}

// PluginListResponse wraps paginated plugin listings.
type PluginListResponse struct {
	Plugins []Plugin `json:"plugins" validate:"required"`
	Total   int      `json:"total" example:"42" validate:"required"`
}

// SubmitResponse acknowledges a successful submission.
type SubmitResponse struct {
	PackageID string `json:"packageId" example:"@capacitor/camera" validate:"required"`
}

// ReadmeResponse carries extracted README contents.
type ReadmeResponse struct {
	ReadmeContents string `json:"readmeContents" validate:"required"`
}

// LikeResponse carries the like count after a like or unlike.
type LikeResponse struct {
	LikeCount int `json:"likeCount" example:"13" validate:"required"`
}

// RatingRequest is the request body for rating a plugin.
type RatingRequest struct {
	Rating int `json:"rating" example:"4" validate:"required"`
}

// RatingResponse carries the rating counters after a rating.
type RatingResponse struct {
	RatingCount int `json:"ratingCount" example:"5" validate:"required"`
	RatingSum   int `json:"ratingSum" example:"21" validate:"required"`
}
