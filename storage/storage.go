// Package storage moves files between the local host and the cluster:
// uploads over SFTP and one-way mirroring of remote directories with rsync
// or SFTP.
package storage

import (
	"context"
	"fmt"

	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"golang.org/x/crypto/ssh"
)

// Uploader copies a local file into a remote directory, keeping its base
// name, and returns the remote path. Existing remote files are overwritten.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteDir string) (string, error)
}

// Mirrorer downloads the contents of a remote directory into a local
// directory. Files already present locally with the same size and
// modification time are skipped. Nothing is ever deleted locally.
type Mirrorer interface {
	Mirror(ctx context.Context, remoteDir, localDir string) error
}

// Gateway provides both directions of transfer.
type Gateway interface {
	Uploader
	Mirrorer
}

// Transfer is the Gateway used against the cluster. Uploads always go over
// SFTP; the mirror backend is selected by config.Transfer.Mirror.
type Transfer struct {
	up     Uploader
	mirror Mirrorer
	sftp   *SFTP
}

// NewTransfer opens an SFTP subsystem on conn and selects the mirror backend.
func NewTransfer(conf config.Config, conn *ssh.Client, log *logger.Logger) (*Transfer, error) {
	s, err := NewSFTP(conn, conf.Transfer, log)
	if err != nil {
		return nil, err
	}

	t := &Transfer{up: s, sftp: s}
	switch conf.Transfer.Mirror {
	case "sftp":
		t.mirror = s
	case "rsync", "":
		t.mirror = NewRsync(conf, log)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown mirror backend: %s", conf.Transfer.Mirror)
	}
	return t, nil
}

// Upload implements Uploader.
func (t *Transfer) Upload(ctx context.Context, localPath, remoteDir string) (string, error) {
	return t.up.Upload(ctx, localPath, remoteDir)
}

// Mirror implements Mirrorer.
func (t *Transfer) Mirror(ctx context.Context, remoteDir, localDir string) error {
	return t.mirror.Mirror(ctx, remoteDir, localDir)
}

// Close closes the SFTP subsystem.
func (t *Transfer) Close() error {
	if t.sftp == nil {
		return nil
	}
	return t.sftp.Close()
}
