package npm

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/testutil"
)

func makeTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tarballServer(t *testing.T, tgz []byte, downloads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if downloads != nil {
			downloads.Add(1)
		}
		_, _ = w.Write(tgz)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_CachesAndSkipsRedownload(t *testing.T) {
	db := testutil.TestStore(t)
	tgz := makeTarball(t, map[string]string{
		"package/package.json": `{"name":"@capacitor/camera"}`,
		"package/README.md":    "# Camera\n",
	})
	var downloads atomic.Int32
	srv := tarballServer(t, tgz, &downloads)

	e := NewExtractor(db, srv.Client(), t.TempDir())

	contents, cached, err := e.Extract(context.Background(), "@capacitor/camera", "5.0.1", srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cached {
		t.Error("first extraction reported as cached")
	}
	if contents != "# Camera\n" {
		t.Errorf("contents = %q", contents)
	}

	// Repeated calls for the same version hit the cache; the tarball is
	// downloaded at most once.
	for i := 0; i < 3; i++ {
		contents, cached, err = e.Extract(context.Background(), "@capacitor/camera", "5.0.1", srv.URL)
		if err != nil {
			t.Fatalf("Extract #%d: %v", i+2, err)
		}
		if !cached {
			t.Errorf("Extract #%d not served from cache", i+2)
		}
		if contents != "# Camera\n" {
			t.Errorf("Extract #%d contents = %q", i+2, contents)
		}
	}
	if n := downloads.Load(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
}

func TestExtract_NewVersionReplacesCache(t *testing.T) {
	db := testutil.TestStore(t)
	tgz := makeTarball(t, map[string]string{"package/README.md": "# v2\n"})
	srv := tarballServer(t, tgz, nil)

	if err := db.ReplaceReadme("@capacitor/camera", "1.0.0", "# v1\n"); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(db, srv.Client(), t.TempDir())
	contents, cached, err := e.Extract(context.Background(), "@capacitor/camera", "2.0.0", srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cached || contents != "# v2\n" {
		t.Errorf("cached=%v contents=%q", cached, contents)
	}

	// Old version purged.
	if _, err := db.GetReadme("@capacitor/camera", "1.0.0"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old version still cached: %v", err)
	}
}

func TestExtract_ReadmeNotFound(t *testing.T) {
	db := testutil.TestStore(t)
	tgz := makeTarball(t, map[string]string{"package/index.js": "module.exports = {}"})
	srv := tarballServer(t, tgz, nil)

	e := NewExtractor(db, srv.Client(), t.TempDir())
	_, _, err := e.Extract(context.Background(), "no-readme", "1.0.0", srv.URL)
	if !errors.Is(err, apperr.ErrReadmeNotFound) {
		t.Errorf("missing readme = %v, want ErrReadmeNotFound", err)
	}
}

func TestExtract_PrefersRootReadme(t *testing.T) {
	db := testutil.TestStore(t)
	tgz := makeTarball(t, map[string]string{
		"package/docs/readme.md": "# docs copy\n",
		"package/README.md":      "# root copy\n",
	})
	srv := tarballServer(t, tgz, nil)

	e := NewExtractor(db, srv.Client(), t.TempDir())
	contents, _, err := e.Extract(context.Background(), "tie-break", "1.0.0", srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if contents != "# root copy\n" {
		t.Errorf("contents = %q, want root README", contents)
	}
}

func TestExtract_DownloadFailure(t *testing.T) {
	db := testutil.TestStore(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	e := NewExtractor(db, srv.Client(), t.TempDir())
	_, _, err := e.Extract(context.Background(), "broken", "1.0.0", srv.URL)
	if err == nil {
		t.Fatal("download failure should error")
	}
}

func TestExtract_CorruptTarball(t *testing.T) {
	db := testutil.TestStore(t)
	srv := tarballServer(t, []byte("definitely not a tarball"), nil)

	e := NewExtractor(db, srv.Client(), t.TempDir())
	_, _, err := e.Extract(context.Background(), "corrupt", "1.0.0", srv.URL)
	if err == nil {
		t.Fatal("corrupt tarball should error")
	}
}

// failingCache always misses and refuses writes.
type failingCache struct{}

func (failingCache) GetReadme(_, _ string) (string, error) { return "", apperr.ErrNotFound }
func (failingCache) ReplaceReadme(_, _, _ string) error    { return errors.New("disk full") }

func TestExtract_CacheWriteFailureStillReturnsContents(t *testing.T) {
	tgz := makeTarball(t, map[string]string{"package/README.md": "# still here\n"})
	srv := tarballServer(t, tgz, nil)

	e := NewExtractor(failingCache{}, srv.Client(), t.TempDir())
	contents, cached, err := e.Extract(context.Background(), "degraded", "1.0.0", srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cached {
		t.Error("degraded extraction reported as cached")
	}
	if contents != "# still here\n" {
		t.Errorf("contents = %q", contents)
	}
}

func TestExtract_HostileEntryName(t *testing.T) {
	db := testutil.TestStore(t)
	tgz := makeTarball(t, map[string]string{
		"../escape.md":      "outside\n",
		"package/README.md": "# ok\n",
	})
	srv := tarballServer(t, tgz, nil)

	e := NewExtractor(db, srv.Client(), t.TempDir())
	if _, _, err := e.Extract(context.Background(), "hostile", "1.0.0", srv.URL); err == nil {
		t.Fatal("hostile entry name should be rejected")
	}
}
