package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// TempPath returns a fresh path in dir for a temporary artifact owned by one
// participant: <kind>-<owner>-<uuid><ext>. dir defaults to os.TempDir().
func TempPath(dir, kind, owner, ext string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%s%s", kind, SafeName(owner), uuid.NewString(), ext))
}

// RemoveQuietly deletes path, ignoring a file that is already gone.
func RemoveQuietly(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// SafeName turns s into a file name component: runs of spaces and path
// separators become "_", other control characters are dropped.
func SafeName(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ' || r == '\t' || r == '/' || r == '\\' || r == ':':
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
			continue
		case r < 0x20 || r == 0x7f:
			continue
		}
		b.WriteRune(r)
		underscore = false
	}
	out := strings.TrimRight(b.String(), "_")
	if out == "" || out == "." || out == ".." {
		return "unnamed"
	}
	return out
}
