package storage

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/armon/circbuf"
	"github.com/kballard/go-shellquote"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/util/fsutil"
)

// stderr beyond this many bytes is dropped from error messages.
const rsyncStderrSize = 4096

// Rsync mirrors remote directories by running the local rsync binary over
// the user's own ssh setup.
type Rsync struct {
	path string
	args []string
	user string
	host string
	port int
	log  *logger.Logger
}

// NewRsync returns an Rsync mirror for the cluster's transfer host.
func NewRsync(conf config.Config, log *logger.Logger) *Rsync {
	p := conf.Transfer.RsyncPath
	if p == "" {
		p = "rsync"
	}
	return &Rsync{
		path: p,
		args: conf.Transfer.RsyncArgs,
		user: conf.Cluster.Username,
		host: conf.Cluster.TransferHostName(),
		port: conf.Cluster.Port,
		log:  log.Sub("rsync"),
	}
}

// Mirror runs "rsync <args> user@host:remoteDir/ localDir/".
func (r *Rsync) Mirror(ctx context.Context, remoteDir, localDir string) error {
	if err := fsutil.EnsureDir(localDir); err != nil {
		return err
	}

	stderr, _ := circbuf.NewBuffer(rsyncStderrSize)
	cmd := r.command(ctx, remoteDir, localDir)
	cmd.Stderr = stderr

	r.log.Debug("running", "cmd", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("rsync %s: %w", remoteDir, ctx.Err())
		}
		return fmt.Errorf("rsync %s: %v: %s", remoteDir, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (r *Rsync) command(ctx context.Context, remoteDir, localDir string) *exec.Cmd {
	args := append([]string{}, r.args...)
	if r.port != 0 && r.port != 22 {
		args = append(args, "-e", "ssh -p "+strconv.Itoa(r.port))
	}
	// the remote path is expanded by the remote shell
	src := fmt.Sprintf("%s@%s:%s/", r.user, r.host, shellquote.Join(strings.TrimSuffix(remoteDir, "/")))
	dst := strings.TrimSuffix(localDir, "/") + "/"
	args = append(args, src, dst)
	return exec.CommandContext(ctx, r.path, args...)
}
