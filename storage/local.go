package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zizibee/zizibee/util/fsutil"
)

// Local is a Gateway whose "remote" side is a directory on the local disk.
// Remote paths are resolved below Root. It backs dry runs and tests.
type Local struct {
	Root string
}

// NewLocal returns a Local gateway rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Path returns the local path backing the given remote path.
func (local *Local) Path(remote string) string {
	return filepath.Join(local.Root, filepath.FromSlash(remote))
}

// Upload copies localPath into the directory backing remoteDir.
func (local *Local) Upload(ctx context.Context, localPath, remoteDir string) (string, error) {
	dest := filepath.Join(local.Path(remoteDir), filepath.Base(localPath))
	if err := fsutil.EnsurePath(dest); err != nil {
		return "", err
	}
	if err := copyFile(ctx, localPath, dest); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(remoteDir, filepath.Base(localPath))), nil
}

// Mirror copies new or changed files from the directory backing remoteDir
// into localDir.
func (local *Local) Mirror(ctx context.Context, remoteDir, localDir string) error {
	if err := fsutil.EnsureDir(localDir); err != nil {
		return err
	}
	files, err := fsutil.WalkFiles(local.Path(remoteDir))
	if err != nil {
		return err
	}
	for _, f := range files {
		dest := filepath.Join(localDir, filepath.FromSlash(f.Rel))
		if st, err := os.Stat(dest); err == nil && st.Size() == f.Size && st.ModTime().Equal(f.LastModified) {
			continue
		}
		if err := fsutil.EnsurePath(dest); err != nil {
			return err
		}
		if err := copyFile(ctx, f.Abs, dest); err != nil {
			return err
		}
		if err := os.Chtimes(dest, f.LastModified, f.LastModified); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies source to dest through a temporary file in dest's
// directory, so dest is either the old or the new content.
func copyFile(ctx context.Context, source, dest string) error {
	sf, err := os.Open(source)
	if err != nil {
		return err
	}
	defer sf.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	_, err = fsutil.Copy(ctx, tmp, sf)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
