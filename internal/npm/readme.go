package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/scratch"
)

const tarballFileName = "package.tgz"

// ReadmeCache is the store surface the extractor needs: version-exact
// lookup and last-write replacement.
type ReadmeCache interface {
	GetReadme(packageID, version string) (string, error)
	ReplaceReadme(packageID, version, readme string) error
}

// Extractor downloads a package tarball, unpacks it in an isolated
// scratch workspace, locates the README, and caches its contents.
type Extractor struct {
	cache       ReadmeCache
	http        *http.Client
	scratchRoot string
}

// NewExtractor creates an Extractor. A nil httpClient gets a
// 60s-timeout default; an empty scratchRoot uses the system temp dir.
func NewExtractor(cache ReadmeCache, httpClient *http.Client, scratchRoot string) *Extractor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Extractor{cache: cache, http: httpClient, scratchRoot: scratchRoot}
}

// Extract returns the README text for a package version. A cache hit
// returns immediately with cached=true and performs no network I/O.
// Otherwise the tarball is downloaded and unpacked in a fresh workspace
// (removed on every exit path), the README located, and the cache row
// replaced. A failed cache write is logged and does not fail the
// extraction; the contents are still returned with cached=false.
func (e *Extractor) Extract(ctx context.Context, packageID, version, tarballURL string) (string, bool, error) {
	contents, err := e.cache.GetReadme(packageID, version)
	if err == nil {
		return contents, true, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", false, fmt.Errorf("npm: readme cache read: %w", err)
	}

	ws, err := scratch.New(e.scratchRoot)
	if err != nil {
		return "", false, err
	}
	defer ws.Close() //nolint:errcheck // scratch cleanup is best-effort

	tarPath, err := e.download(ctx, tarballURL, ws)
	if err != nil {
		return "", false, err
	}

	f, err := os.Open(tarPath)
	if err != nil {
		return "", false, fmt.Errorf("npm: open tarball: %w", err)
	}
	err = untar(f, ws)
	f.Close()
	if err != nil {
		return "", false, err
	}

	readmePath, err := findReadme(ws.Dir())
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(readmePath)
	if err != nil {
		return "", false, fmt.Errorf("npm: read readme: %w", err)
	}
	contents = string(data)

	if err := e.cache.ReplaceReadme(packageID, version, contents); err != nil {
		slog.Warn("readme cache write failed",
			slog.String("package_id", packageID),
			slog.String("version", version),
			slog.String("error", err.Error()))
	}
	return contents, false, nil
}

// download saves the tarball into the workspace and returns its path.
func (e *Extractor) download(ctx context.Context, tarballURL string, ws *scratch.Workspace) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tarballURL, nil)
	if err != nil {
		return "", fmt.Errorf("npm: build download request: %w", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("npm: download tarball: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("npm: download tarball: status %d", resp.StatusCode)
	}

	dest, err := ws.Path(tarballFileName)
	if err != nil {
		return "", err
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("npm: create tarball file: %w", err)
	}
	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("npm: save tarball: %w", err)
	}
	return dest, nil
}

// findReadme walks the unpacked tree for files whose name matches
// "readme.md" case-insensitively. The tie-break is explicit: shallowest
// directory first, then shortest path, then lexicographic.
func findReadme(root string) (string, error) {
	var candidates []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), "readme.md") {
			candidates = append(candidates, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("npm: scan unpacked tree: %w", err)
	}
	if len(candidates) == 0 {
		return "", apperr.ErrReadmeNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		di := strings.Count(candidates[i], string(os.PathSeparator))
		dj := strings.Count(candidates[j], string(os.PathSeparator))
		if di != dj {
			return di < dj
		}
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], nil
}
