package scratch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_UniqueDirs(t *testing.T) {
	root := t.TempDir()
	a, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	b, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	if a.Dir() == b.Dir() {
		t.Errorf("workspaces share a directory: %s", a.Dir())
	}
}

func TestClose_RemovesTree(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, err := w.Path("package/readme.md")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(w.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after Close")
	}
}

func TestPath_RejectsTraversal(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for _, rel := range []string{"../escape", "a/../../escape", "/etc/passwd"} {
		if _, err := w.Path(rel); err == nil {
			t.Errorf("Path(%q) should be rejected", rel)
		}
	}
}

func TestPath_AllowsNested(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	p, err := w.Path("package/docs/readme.md")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if !filepath.IsAbs(p) {
		t.Errorf("Path returned relative path: %s", p)
	}
}
