package npm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plugreg/plugreg/internal/apperr"
)

func manifestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLatest_Plugin(t *testing.T) {
	srv := manifestServer(t, `{
		"name": "@capacitor/camera",
		"version": "5.0.1",
		"description": "Camera plugin",
		"dist": {"tarball": "https://registry.npmjs.com/@capacitor/camera/-/camera-5.0.1.tgz"},
		"peerDependencies": {"@capacitor/core": "^5.0.0"},
		"repository": {"type": "git", "url": "git+https://github.com/ionic-team/capacitor-plugins.git"},
		"gitHead": "abc123",
		"license": "MIT",
		"keywords": ["capacitor", "camera"]
	}`, http.StatusOK)

	c := NewClient(srv.URL, srv.Client())
	m, err := c.FetchLatest(context.Background(), "@capacitor/camera")
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if m.Version != "5.0.1" {
		t.Errorf("version = %q", m.Version)
	}
	if m.Dist.Tarball == "" {
		t.Error("tarball URL missing")
	}
	if m.Repository.Type != "git" {
		t.Errorf("repository type = %q", m.Repository.Type)
	}
	if len(m.Raw) == 0 {
		t.Error("raw body not preserved")
	}
}

func TestFetchLatest_MarkerInEachDependencyMap(t *testing.T) {
	for _, field := range []string{"dependencies", "devDependencies", "peerDependencies"} {
		srv := manifestServer(t, `{
			"name": "some-plugin",
			"version": "1.0.0",
			"`+field+`": {"@capacitor/core": "^5.0.0"}
		}`, http.StatusOK)

		c := NewClient(srv.URL, srv.Client())
		if _, err := c.FetchLatest(context.Background(), "some-plugin"); err != nil {
			t.Errorf("marker in %s rejected: %v", field, err)
		}
	}
}

func TestFetchLatest_NotAPlugin(t *testing.T) {
	srv := manifestServer(t, `{
		"name": "left-pad",
		"version": "1.3.0",
		"dependencies": {"lodash": "^4.0.0"}
	}`, http.StatusOK)

	c := NewClient(srv.URL, srv.Client())
	_, err := c.FetchLatest(context.Background(), "left-pad")
	if !errors.Is(err, apperr.ErrNotAPlugin) {
		t.Errorf("missing marker = %v, want ErrNotAPlugin", err)
	}
}

func TestFetchLatest_BareStringSentinel(t *testing.T) {
	srv := manifestServer(t, `"Not Found"`, http.StatusOK)

	c := NewClient(srv.URL, srv.Client())
	_, err := c.FetchLatest(context.Background(), "cordova-not-real")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("bare string body = %v, want ErrNotFound", err)
	}
}

func TestFetchLatest_RegistryError(t *testing.T) {
	srv := manifestServer(t, `{"error": "Not found"}`, http.StatusNotFound)

	c := NewClient(srv.URL, srv.Client())
	_, err := c.FetchLatest(context.Background(), "cordova-not-real")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("404 response = %v, want ErrNotFound", err)
	}
}

func TestFetchLatest_NetworkFailure(t *testing.T) {
	srv := manifestServer(t, `{}`, http.StatusOK)
	srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchLatest(context.Background(), "anything")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("network failure = %v, want ErrNotFound", err)
	}
}

func TestDecodeManifest_UnionShapes(t *testing.T) {
	m, err := decodeManifest([]byte(`{
		"name": "x",
		"version": "1.0.0",
		"license": {"type": "Apache-2.0", "url": "https://example.com"},
		"repository": "github:user/repo",
		"keywords": ["a", 1, "b", ""]
	}`))
	if err != nil {
		t.Fatalf("decodeManifest: %v", err)
	}
	if m.License != "Apache-2.0" {
		t.Errorf("license = %q", m.License)
	}
	if m.Repository.URL != "github:user/repo" {
		t.Errorf("repository = %+v", m.Repository)
	}
	if len(m.Keywords) != 2 || m.Keywords[0] != "a" || m.Keywords[1] != "b" {
		t.Errorf("keywords = %v", m.Keywords)
	}
}
