package store

import "github.com/plugreg/plugreg/internal/models"

// PackageStore defines the registry store operations. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type PackageStore interface {
	InsertPackage(pkg models.Package) error
	GetPackage(packageID string) (*Summary, error)
	SearchPackages(q SearchQuery) ([]Summary, int, error)
	Like(packageID, userID string) (int, error)
	Unlike(packageID, userID string) (int, error)
	Rate(packageID, userID string, rating int) (*models.PackageDetails, error)
	GetReadme(packageID, version string) (string, error)
	ReplaceReadme(packageID, version, readme string) error
	CreateSession(s models.Session) error
	GetSession(token string) (*models.Session, error)
	Close() error
}

// Verify *DB satisfies PackageStore at compile time.
var _ PackageStore = (*DB)(nil)
