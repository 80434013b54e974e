package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
)

func testRsyncConfig() config.Config {
	conf := config.DefaultConfig()
	conf.Cluster.Host = "ssh.example.edu"
	conf.Cluster.TransferHost = "transfer.example.edu"
	conf.Cluster.Username = "alice"
	return conf
}

func TestRsyncCommand(t *testing.T) {
	r := NewRsync(testRsyncConfig(), logger.NoopLogger())
	cmd := r.command(context.Background(), "/users/alice/data/alice/demo/", "/home/alice/ccv/data/demo")
	assert.Equal(t, []string{
		"rsync", "-avz",
		"alice@transfer.example.edu:/users/alice/data/alice/demo/",
		"/home/alice/ccv/data/demo/",
	}, cmd.Args)
}

func TestRsyncCommandQuotesAndPort(t *testing.T) {
	conf := testRsyncConfig()
	conf.Cluster.Port = 2222
	r := NewRsync(conf, logger.NoopLogger())
	cmd := r.command(context.Background(), "/users/alice/my jobs", "/tmp/out")
	assert.Equal(t, []string{
		"rsync", "-avz", "-e", "ssh -p 2222",
		"alice@transfer.example.edu:'/users/alice/my jobs'/",
		"/tmp/out/",
	}, cmd.Args)
}

func TestRsyncFailure(t *testing.T) {
	conf := testRsyncConfig()
	conf.Transfer.RsyncPath = "false"
	r := NewRsync(conf, logger.NoopLogger())
	err := r.Mirror(context.Background(), "/remote", filepath.Join(t.TempDir(), "out"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rsync /remote")
}
