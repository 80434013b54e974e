package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/sftp"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
	"github.com/zizibee/zizibee/util/fsutil"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

// SFTP uploads files to, and mirrors directories from, the cluster over an
// SFTP subsystem of an existing SSH connection.
type SFTP struct {
	client   *sftp.Client
	parallel int
	log      *logger.Logger
}

// NewSFTP starts the SFTP subsystem on conn.
func NewSFTP(conn *ssh.Client, conf config.Transfer, log *logger.Logger) (*SFTP, error) {
	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("unable to start sftp subsystem: %v", err)
	}
	return newSFTP(client, conf, log), nil
}

func newSFTP(client *sftp.Client, conf config.Transfer, log *logger.Logger) *SFTP {
	parallel := conf.Parallel
	if parallel < 1 {
		parallel = 1
	}
	return &SFTP{client: client, parallel: parallel, log: log.Sub("sftp")}
}

// Upload copies a local file into remoteDir, creating remoteDir if needed.
func (s *SFTP) Upload(ctx context.Context, localPath, remoteDir string) (string, error) {
	dest := path.Join(remoteDir, filepath.Base(localPath))

	sf, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer sf.Close()

	if _, err := s.client.Stat(remoteDir); err != nil {
		if err := s.client.MkdirAll(remoteDir); err != nil {
			return "", fmt.Errorf("creating remote directory %s: %v", remoteDir, err)
		}
	}

	df, err := s.client.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating remote file %s: %v", dest, err)
	}
	n, err := fsutil.Copy(ctx, df, sf)
	cerr := df.Close()
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", localPath, err)
	}
	if cerr != nil {
		return "", cerr
	}

	metrics.Uploaded(n)
	s.log.Info("Uploaded", "from", localPath, "to", dest, "size", humanize.Bytes(uint64(n)))
	return dest, nil
}

// Mirror downloads new or changed regular files below remoteDir into
// localDir, up to "parallel" at a time. Each file is written to a temporary
// name and renamed into place, so partially downloaded files are never
// visible under their final name.
func (s *SFTP) Mirror(ctx context.Context, remoteDir, localDir string) error {
	if err := fsutil.EnsureDir(localDir); err != nil {
		return err
	}

	var pending []remoteFile
	walker := s.client.Walk(remoteDir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return fmt.Errorf("listing %s: %v", remoteDir, err)
		}
		info := walker.Stat()
		if !info.Mode().IsRegular() {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), remoteDir), "/")
		f := remoteFile{
			path:  walker.Path(),
			local: filepath.Join(localDir, filepath.FromSlash(rel)),
			info:  info,
		}
		if f.upToDate() {
			continue
		}
		pending = append(pending, f)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for _, f := range pending {
		f := f
		g.Go(func() error {
			return s.download(ctx, f)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(pending) > 0 {
		s.log.Debug("Mirrored", "from", remoteDir, "to", localDir, "files", len(pending))
	}
	return nil
}

type remoteFile struct {
	path  string
	local string
	info  os.FileInfo
}

func (f remoteFile) upToDate() bool {
	st, err := os.Stat(f.local)
	if err != nil {
		return false
	}
	return st.Size() == f.info.Size() && st.ModTime().Equal(f.info.ModTime())
}

func (s *SFTP) download(ctx context.Context, f remoteFile) error {
	sf, err := s.client.Open(f.path)
	if err != nil {
		return err
	}
	defer sf.Close()

	if err := fsutil.EnsurePath(f.local); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(f.local), "."+filepath.Base(f.local)+".part")
	df, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := fsutil.Copy(ctx, df, sf)
	cerr := df.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("downloading %s: %w", f.path, err)
	}

	if err := os.Chtimes(tmp, f.info.ModTime(), f.info.ModTime()); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, f.local); err != nil {
		return err
	}
	metrics.Downloaded(n)
	return nil
}

// Close closes the SFTP subsystem.
func (s *SFTP) Close() error {
	return s.client.Close()
}
