package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/compute"
	"github.com/zizibee/zizibee/config"
)

const jobYAML = `
jobName: sweep
numJobs: 4
numCores: 2
memInGB: 8
functionName: run
importBlock: import numpy as np
units:
  - work.py
  - /abs/nb.ipynb#2
extraFiles:
  - helpers
bindings:
  - name: alpha
    value: 0.5
`

func TestParseJobFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(p, []byte(jobYAML), 0644))

	cfg, err := ParseJobFile(p)
	require.NoError(t, err)
	assert.Equal(t, "sweep", cfg.JobName)
	assert.Equal(t, 4, cfg.NumJobs)
	assert.Equal(t, []compute.Unit{
		{Path: filepath.Join(dir, "work.py"), Cell: -1},
		{Path: "/abs/nb.ipynb", Cell: 2},
	}, cfg.Units)
	assert.Equal(t, []string{filepath.Join(dir, "helpers")}, cfg.ExtraFiles)
	assert.Equal(t, []compute.Binding{{Name: "alpha", Value: 0.5}}, cfg.Bindings)
}

func TestParseJobFileErrors(t *testing.T) {
	_, err := ParseJobFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("units: [nb.py#1]"), 0644))
	_, err = ParseJobFile(p)
	assert.Error(t, err)
}

func TestDispatchFlags(t *testing.T) {
	cmd, h := newCommandHooks()

	called := false
	h.Run = func(ctx context.Context, conf config.Config, files []string, opts Options, w io.Writer) error {
		called = true
		assert.Equal(t, []string{"a.yaml", "b.yaml"}, files)
		assert.Equal(t, "login.example.org", conf.Cluster.Host)
		assert.Equal(t, "alice", conf.Cluster.Username)
		assert.Equal(t, "bash", conf.Dispatch.Dialect)
		assert.Equal(t, "linear", conf.Collect.Backoff)
		assert.True(t, opts.Wait)
		assert.Equal(t, "out.json", opts.Output)
		return nil
	}

	cmd.SetArgs([]string{
		"--cluster-host", "login.example.org",
		"-u", "alice",
		"--dispatch.dialect", "bash",
		"--collect_backoff", "linear",
		"--wait", "-o", "out.json",
		"a.yaml", "b.yaml",
	})
	require.NoError(t, cmd.Execute())
	assert.True(t, called)
}
