// Package npm talks to the public npm registry: manifest lookup for the
// latest published version of a package, plugin validation, and tarball
// README extraction.
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plugreg/plugreg/internal/apperr"
)

// MarkerDependency must appear in one of a package's dependency maps for
// the package to count as a Capacitor plugin.
const MarkerDependency = "@capacitor/core"

const maxManifestBytes = 10 << 20 // 10 MB

// Dist describes where a package version's tarball lives.
type Dist struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum,omitempty"`
}

// Repository is a package's source repository reference.
type Repository struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Maintainer is an npm package maintainer.
type Maintainer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Manifest is the registry's metadata document for a package version.
// Raw preserves the registry response byte-for-byte so the lookup
// endpoint can pass it through unmodified.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Description      string            `json:"description"`
	Dist             Dist              `json:"dist"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Repository       Repository        `json:"repository"`
	GitHead          string            `json:"gitHead"`
	License          string            `json:"license"`
	Keywords         []string          `json:"keywords"`
	Maintainers      []Maintainer      `json:"maintainers"`

	Raw json.RawMessage `json:"-"`
}

// IsPlugin reports whether the manifest declares the marker dependency in
// any of its dependency maps.
func (m *Manifest) IsPlugin() bool {
	for _, deps := range []map[string]string{m.Dependencies, m.DevDependencies, m.PeerDependencies} {
		if _, ok := deps[MarkerDependency]; ok {
			return true
		}
	}
	return false
}

// Client fetches package manifests from an npm-compatible registry.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client. An empty baseURL falls back to the
// public npm registry; a nil httpClient gets a 30s-timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://registry.npmjs.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchLatest retrieves the manifest of a package's latest version and
// validates plugin eligibility. An absent package (or any transport
// failure) yields apperr.ErrNotFound; a present package without the
// marker dependency yields apperr.ErrNotAPlugin. There is exactly one
// outbound GET and no retry.
func (c *Client) FetchLatest(ctx context.Context, packageID string) (*Manifest, error) {
	reqURL := fmt.Sprintf("%s/%s/latest", c.baseURL, url.PathEscape(packageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("npm: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("npm: fetch %s: %w", packageID, apperr.ErrNotFound)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("npm: read %s: %w", packageID, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("npm: %s: registry status %d: %w", packageID, resp.StatusCode, apperr.ErrNotFound)
	}

	// The registry answers a bare JSON string (e.g. "Not Found") for
	// unknown packages.
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("npm: decode %s: %w", packageID, apperr.ErrNotFound)
	}
	if _, isString := probe.(string); isString {
		return nil, fmt.Errorf("npm: %s: %w", packageID, apperr.ErrNotFound)
	}

	m, err := decodeManifest(body)
	if err != nil {
		return nil, fmt.Errorf("npm: decode %s: %w", packageID, apperr.ErrNotFound)
	}
	if !m.IsPlugin() {
		return nil, fmt.Errorf("npm: %s: %w", packageID, apperr.ErrNotAPlugin)
	}
	return m, nil
}

// decodeManifest parses a manifest while tolerating the registry's union
// field shapes (license as string or object, keywords and repository in
// several forms).
func decodeManifest(body []byte) (*Manifest, error) {
	var raw struct {
		Name             string            `json:"name"`
		Version          string            `json:"version"`
		Description      string            `json:"description"`
		Dist             Dist              `json:"dist"`
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
		Repository       any               `json:"repository"`
		GitHead          string            `json:"gitHead"`
		License          any               `json:"license"`
		Keywords         any               `json:"keywords"`
		Maintainers      []Maintainer      `json:"maintainers"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &Manifest{
		Name:             raw.Name,
		Version:          raw.Version,
		Description:      raw.Description,
		Dist:             raw.Dist,
		Dependencies:     raw.Dependencies,
		DevDependencies:  raw.DevDependencies,
		PeerDependencies: raw.PeerDependencies,
		Repository:       extractRepository(raw.Repository),
		GitHead:          raw.GitHead,
		License:          extractLicense(raw.License),
		Keywords:         extractKeywords(raw.Keywords),
		Maintainers:      raw.Maintainers,
		Raw:              body,
	}, nil
}

func extractRepository(v any) Repository {
	switch r := v.(type) {
	case string:
		return Repository{URL: r}
	case map[string]any:
		var out Repository
		if t, ok := r["type"].(string); ok {
			out.Type = t
		}
		if u, ok := r["url"].(string); ok {
			out.URL = u
		}
		return out
	}
	return Repository{}
}

func extractLicense(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]any:
		if t, ok := l["type"].(string); ok {
			return t
		}
	}
	return ""
}

func extractKeywords(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	keywords := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			keywords = append(keywords, s)
		}
	}
	return keywords
}
