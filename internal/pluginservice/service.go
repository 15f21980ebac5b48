// Package pluginservice coordinates the npm registry client, the README
// extractor, and the package store behind the HTTP and MCP surfaces.
package pluginservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/auth"
	"github.com/plugreg/plugreg/internal/keywords"
	"github.com/plugreg/plugreg/internal/models"
	"github.com/plugreg/plugreg/internal/npm"
	"github.com/plugreg/plugreg/internal/store"
)

// Manifest shapes without the fields the README flow depends on.
var (
	ErrNoVersion = fmt.Errorf("%w: unable to locate package version", apperr.ErrBadRequest)
	ErrNoTarball = fmt.Errorf("%w: unable to locate package tarball", apperr.ErrBadRequest)
)

// SubmitRequest carries the fields of a plugin submission form.
type SubmitRequest struct {
	PackageID string
	Name      string
	Keywords  string // comma-separated
	Category  string
}

// Publisher announces registry events. Satisfied by *sse.Broker.
type Publisher interface {
	PublishPluginSubmitted(packageID, category string)
}

// Service coordinates npm lookups, README extraction, and store writes.
type Service struct {
	store     store.PackageStore
	npm       *npm.Client
	extractor *npm.Extractor
	events    Publisher
}

// NewService creates a plugin service. events may be nil.
func NewService(st store.PackageStore, client *npm.Client, extractor *npm.Extractor, events Publisher) *Service {
	return &Service{store: st, npm: client, extractor: extractor, events: events}
}

// NormalizeID returns the canonical form of a package id.
func NormalizeID(packageID string) string {
	return strings.ToLower(strings.TrimSpace(packageID))
}

// Lookup fetches the latest manifest for a package and verifies it is a
// Capacitor plugin.
func (s *Service) Lookup(ctx context.Context, packageID string) (*npm.Manifest, error) {
	id := NormalizeID(packageID)
	if id == "" {
		return nil, fmt.Errorf("%w: package id is required", apperr.ErrBadRequest)
	}
	return s.npm.FetchLatest(ctx, id)
}

// Readme returns the README contents for the latest version of a
// package, extracting and caching it on a miss. cached reports whether
// the contents came from the cache.
func (s *Service) Readme(ctx context.Context, packageID string) (contents string, cached bool, err error) {
	m, err := s.Lookup(ctx, packageID)
	if err != nil {
		return "", false, err
	}
	if m.Version == "" {
		return "", false, ErrNoVersion
	}
	if m.Dist.Tarball == "" {
		return "", false, ErrNoTarball
	}
	return s.extractor.Extract(ctx, NormalizeID(packageID), m.Version, m.Dist.Tarball)
}

// Submit registers a new plugin owned by user. The package must exist on
// the npm registry and carry the plugin marker; rejected submissions are
// never stored.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, user *auth.User) (*models.Package, error) {
	id := NormalizeID(req.PackageID)
	if id == "" {
		return nil, fmt.Errorf("%w: package id is required", apperr.ErrBadRequest)
	}
	category := models.Category(strings.ToLower(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrBadRequest, req.Category)
	}

	m, err := s.npm.FetchLatest(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}

	pkg := models.Package{
		PackageID:   id,
		Name:        name,
		Description: m.Description,
		Category:    category,
		UserID:      user.ID,
		Keywords:    keywords.Normalize(req.Keywords),
		SysKeywords: keywords.System(id),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertPackage(pkg); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishPluginSubmitted(pkg.PackageID, string(pkg.Category))
	}
	return &pkg, nil
}

// Search returns matching packages and the total match count.
func (s *Service) Search(_ context.Context, q store.SearchQuery) ([]store.Summary, int, error) {
	return s.store.SearchPackages(q)
}

// Get returns a single package with its counters.
func (s *Service) Get(_ context.Context, packageID string) (*store.Summary, error) {
	return s.store.GetPackage(NormalizeID(packageID))
}

// Like records that user likes a package and returns the new like count.
func (s *Service) Like(_ context.Context, packageID string, user *auth.User) (int, error) {
	return s.store.Like(NormalizeID(packageID), user.ID)
}

// Unlike removes a like and returns the new like count.
func (s *Service) Unlike(_ context.Context, packageID string, user *auth.User) (int, error) {
	return s.store.Unlike(NormalizeID(packageID), user.ID)
}

// Rate records or replaces a 1-5 rating and returns the updated
// counters.
func (s *Service) Rate(_ context.Context, packageID string, user *auth.User, rating int) (*models.PackageDetails, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrBadRequest)
	}
	return s.store.Rate(NormalizeID(packageID), user.ID, rating)
}
