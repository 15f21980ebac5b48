package store_test

import (
	"errors"
	"testing"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/models"
	"github.com/plugreg/plugreg/internal/store"
	"github.com/plugreg/plugreg/internal/testutil"
)

func insertPackage(t *testing.T, db *store.DB, id string) {
	t.Helper()
	err := db.InsertPackage(models.Package{
		PackageID:   id,
		Name:        id,
		Category:    "hardware",
		UserID:      "user-1",
		Keywords:    []string{"photo"},
		SysKeywords: []string{"capacitor", "camera"},
	})
	if err != nil {
		t.Fatalf("InsertPackage(%s): %v", id, err)
	}
}

func TestInsertAndGetPackage(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "@capacitor/camera")

	s, err := db.GetPackage("@capacitor/camera")
	if err != nil {
		t.Fatalf("GetPackage: %v", err)
	}
	if s.Package.Category != "hardware" {
		t.Errorf("category = %q", s.Package.Category)
	}
	if s.Details.LikeCount != 0 || s.Details.RatingCount != 0 {
		t.Errorf("fresh package should have zero counters: %+v", s.Details)
	}
	if len(s.Package.Keywords) != 1 || s.Package.Keywords[0] != "photo" {
		t.Errorf("keywords = %v", s.Package.Keywords)
	}
}

func TestInsertPackage_Duplicate(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "@capacitor/camera")

	err := db.InsertPackage(models.Package{
		PackageID: "@capacitor/camera",
		Name:      "other name",
		Category:  "storage",
		UserID:    "user-2",
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate insert = %v, want ErrConflict", err)
	}

	// Existing row must not be overwritten.
	s, err := db.GetPackage("@capacitor/camera")
	if err != nil {
		t.Fatal(err)
	}
	if s.Package.Category != "hardware" || s.Package.UserID != "user-1" {
		t.Errorf("existing row was modified: %+v", s.Package)
	}
}

func TestGetPackage_NotFound(t *testing.T) {
	db := testutil.TestStore(t)
	if _, err := db.GetPackage("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing package = %v, want ErrNotFound", err)
	}
}

func TestLikeUnlike(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "@capacitor/camera")

	count, err := db.Like("@capacitor/camera", "user-a")
	if err != nil {
		t.Fatalf("Like: %v", err)
	}
	if count != 1 {
		t.Errorf("like count = %d, want 1", count)
	}

	// Double like conflicts and leaves the counter untouched.
	if _, err := db.Like("@capacitor/camera", "user-a"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("double like = %v, want ErrConflict", err)
	}
	s, _ := db.GetPackage("@capacitor/camera")
	if s.Details.LikeCount != 1 {
		t.Errorf("like count after conflict = %d, want 1", s.Details.LikeCount)
	}

	count, err = db.Unlike("@capacitor/camera", "user-a")
	if err != nil {
		t.Fatalf("Unlike: %v", err)
	}
	if count != 0 {
		t.Errorf("like count after unlike = %d, want 0", count)
	}

	if _, err := db.Unlike("@capacitor/camera", "user-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unlike without like = %v, want ErrNotFound", err)
	}
}

func TestLike_UnknownPackage(t *testing.T) {
	db := testutil.TestStore(t)
	if _, err := db.Like("missing", "user-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("like unknown package = %v, want ErrNotFound", err)
	}
}

func TestRate_UpsertKeepsAggregatesConsistent(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "@capacitor/camera")

	d, err := db.Rate("@capacitor/camera", "user-a", 4)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if d.RatingCount != 1 || d.RatingSum != 4 {
		t.Errorf("after first rating: count=%d sum=%d", d.RatingCount, d.RatingSum)
	}

	d, err = db.Rate("@capacitor/camera", "user-b", 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.RatingCount != 2 || d.RatingSum != 6 {
		t.Errorf("after second rating: count=%d sum=%d", d.RatingCount, d.RatingSum)
	}

	// Re-rating replaces, not appends.
	d, err = db.Rate("@capacitor/camera", "user-a", 5)
	if err != nil {
		t.Fatal(err)
	}
	if d.RatingCount != 2 || d.RatingSum != 7 {
		t.Errorf("after re-rating: count=%d sum=%d", d.RatingCount, d.RatingSum)
	}
}

func TestReadmeCache_ReplaceKeepsSingleVersion(t *testing.T) {
	db := testutil.TestStore(t)

	if _, err := db.GetReadme("@capacitor/camera", "1.0.0"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("cold cache = %v, want ErrNotFound", err)
	}

	if err := db.ReplaceReadme("@capacitor/camera", "1.0.0", "# v1"); err != nil {
		t.Fatalf("ReplaceReadme: %v", err)
	}
	got, err := db.GetReadme("@capacitor/camera", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# v1" {
		t.Errorf("readme = %q", got)
	}

	// New version purges the old one.
	if err := db.ReplaceReadme("@capacitor/camera", "2.0.0", "# v2"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetReadme("@capacitor/camera", "1.0.0"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old version still cached: %v", err)
	}
	got, err = db.GetReadme("@capacitor/camera", "2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# v2" {
		t.Errorf("readme = %q", got)
	}
}

func TestSearchPackages_Filters(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "@capacitor/camera")
	err := db.InsertPackage(models.Package{
		PackageID:   "@capacitor-community/bluetooth-le",
		Name:        "Bluetooth LE",
		Category:    "communication",
		UserID:      "user-2",
		Keywords:    []string{"bluetooth"},
		SysKeywords: []string{"capacitor-community", "bluetooth-le"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Text query (LIKE fallback in the default build).
	got, total, err := db.SearchPackages(store.SearchQuery{Query: "bluetooth"})
	if err != nil {
		t.Fatalf("SearchPackages: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].Package.PackageID != "@capacitor-community/bluetooth-le" {
		t.Errorf("text search = %d results, total %d: %+v", len(got), total, got)
	}

	// Category filter.
	got, total, err = db.SearchPackages(store.SearchQuery{Category: "hardware"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || got[0].Package.PackageID != "@capacitor/camera" {
		t.Errorf("category search: total=%d got=%+v", total, got)
	}

	// Owner filter.
	_, total, err = db.SearchPackages(store.SearchQuery{UserID: "user-2"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("owner search total = %d, want 1", total)
	}

	// No filters returns everything ordered by package_id.
	got, total, err = db.SearchPackages(store.SearchQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || got[0].Package.PackageID != "@capacitor-community/bluetooth-le" {
		t.Errorf("full listing: total=%d first=%v", total, got[0].Package.PackageID)
	}
}

func TestSearchPackages_Pagination(t *testing.T) {
	db := testutil.TestStore(t)
	for _, id := range []string{"a-plugin", "b-plugin", "c-plugin"} {
		insertPackage(t, db, id)
	}

	got, total, err := db.SearchPackages(store.SearchQuery{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(got) != 2 {
		t.Errorf("page 1: total=%d len=%d", total, len(got))
	}

	got, _, err = db.SearchPackages(store.SearchQuery{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Package.PackageID != "c-plugin" {
		t.Errorf("page 2 = %+v", got)
	}
}

func TestSearchPackages_SortByLikes(t *testing.T) {
	db := testutil.TestStore(t)
	insertPackage(t, db, "a-plugin")
	insertPackage(t, db, "b-plugin")
	if _, err := db.Like("b-plugin", "user-x"); err != nil {
		t.Fatal(err)
	}

	got, _, err := db.SearchPackages(store.SearchQuery{Sort: "likes"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Package.PackageID != "b-plugin" {
		t.Errorf("likes sort first = %s, want b-plugin", got[0].Package.PackageID)
	}
}

func TestSearchPackages_UnknownSort(t *testing.T) {
	db := testutil.TestStore(t)
	if _, _, err := db.SearchPackages(store.SearchQuery{Sort: "bogus"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("unknown sort = %v, want ErrBadRequest", err)
	}
}

func TestSessions(t *testing.T) {
	db := testutil.TestStore(t)

	if _, err := db.GetSession("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing session = %v, want ErrNotFound", err)
	}

	s := models.Session{Token: "tok-1", UserID: "user-1", Email: "dev@example.com"}
	s.ExpiresAt = s.CreatedAt.AddDate(0, 1, 0)
	if err := db.CreateSession(s); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := db.GetSession("tok-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "user-1" || got.Email != "dev@example.com" {
		t.Errorf("session = %+v", got)
	}

	if err := db.CreateSession(s); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate token = %v, want ErrConflict", err)
	}
}
