package npm

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/plugreg/plugreg/internal/scratch"
)

const maxTarballEntryBytes = 50 << 20 // 50 MB per file

// untar unpacks a gzip-compressed tarball into the workspace. Entry
// names are resolved through the workspace so hostile paths cannot
// escape it. Non-regular entries other than directories are skipped.
func untar(r io.Reader, ws *scratch.Workspace) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("npm: open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("npm: read tar entry: %w", err)
		}

		dest, err := ws.Path(hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("npm: create dir %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("npm: create dir for %s: %w", hdr.Name, err)
			}
			if err := writeEntry(dest, tr); err != nil {
				return fmt.Errorf("npm: write %s: %w", hdr.Name, err)
			}
		}
	}
}

func writeEntry(dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, io.LimitReader(r, maxTarballEntryBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
