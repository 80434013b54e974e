package collect

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/collect"
	"github.com/zizibee/zizibee/config"
)

func TestCollectByID(t *testing.T) {
	cmd, h := newCommandHooks()
	var got Options
	h.Run = func(ctx context.Context, conf config.Config, opts Options, w io.Writer) error {
		got = opts
		return nil
	}
	cmd.SetArgs([]string{"-u", "alice", "c2v5k1s1234"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "c2v5k1s1234", got.JobID)
}

func TestCollectByName(t *testing.T) {
	cmd, h := newCommandHooks()
	var got Options
	var gotConf config.Config
	h.Run = func(ctx context.Context, conf config.Config, opts Options, w io.Writer) error {
		got, gotConf = opts, conf
		return nil
	}
	cmd.SetArgs([]string{"-u", "alice", "-n", "sweep", "-N", "4", "--collect.timeout", "1m"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sweep", got.JobName)
	assert.Equal(t, 4, got.NumJobs)
	assert.Equal(t, "1m0s", gotConf.Collect.Timeout.String())
}

func TestCollectRequiresJob(t *testing.T) {
	cmd, h := newCommandHooks()
	h.Run = func(ctx context.Context, conf config.Config, opts Options, w io.Writer) error {
		t.Error("unexpected call")
		return nil
	}
	cmd.SetArgs([]string{"-u", "alice", "-n", "sweep"})
	assert.Error(t, cmd.Execute())
}

func TestWriteSummary(t *testing.T) {
	l := collect.NewLookup()
	l.Add(collect.Tuple{1, "a"}, 2.5)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteSummary(buf, l))
	assert.Equal(t, "[1,\"a\"]\t2.5\n", buf.String())
}
