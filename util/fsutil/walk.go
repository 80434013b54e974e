package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Hostfile describes a regular file found by WalkFiles.
type Hostfile struct {
	// Slash separated path relative to the walk root.
	Rel string
	Abs string
	// Size in bytes.
	Size         int64
	LastModified time.Time
}

// WalkFiles returns every regular file below root in lexical order.
// Directories, symlinks and other special files are skipped.
func WalkFiles(root string) ([]Hostfile, error) {
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%s does not exist or is not a directory", root)
	}

	var files []Hostfile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, Hostfile{
			Rel:          filepath.ToSlash(rel),
			Abs:          p,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	return files, err
}

// EnsureDir creates directory p and its parents as needed.
func EnsureDir(p string) error {
	if err := os.MkdirAll(p, 0775); err != nil {
		return fmt.Errorf("creating directory %s: %v", p, err)
	}
	return nil
}

// EnsurePath creates the parent directory of file p.
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}
