// Package scratch provides per-request temporary workspaces for tarball
// download and extraction. Every invocation gets a unique directory, so
// concurrent requests never share paths.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a uniquely-named temporary directory. Callers must Close
// it on every exit path.
type Workspace struct {
	dir string
}

// New creates a workspace under root. An empty root means the system
// temp directory.
func New(root string) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("scratch: create root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(root, "plugreg-*")
	if err != nil {
		return nil, fmt.Errorf("scratch: create workspace: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("scratch: resolve workspace: %w", err)
	}
	return &Workspace{dir: abs}, nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path resolves rel against the workspace and rejects any result that
// escapes it (directory traversal, including hostile tar entry names).
func (w *Workspace) Path(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("scratch: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(w.dir, cleaned))
	if err != nil {
		return "", fmt.Errorf("scratch: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, w.dir+string(os.PathSeparator)) && abs != w.dir {
		return "", fmt.Errorf("scratch: path escapes workspace: %s", rel)
	}
	return abs, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
