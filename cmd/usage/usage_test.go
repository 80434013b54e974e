package usage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/config/testconfig"
)

const listing = `1 batch sim alice 4 R 1:00 1
2 batch sim bob 2 R 1:00 1
3 batch sim alice 4 R 1:00 1
`

func TestUsageLocal(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Run(context.Background(), testconfig.DefaultConfig(), Options{Local: true}, strings.NewReader(listing), buf)
	require.NoError(t, err)
	assert.Equal(t, "alice\t8\nbob\t2\n", buf.String())
}

func TestUsageLocalNoStdin(t *testing.T) {
	err := Run(context.Background(), testconfig.DefaultConfig(), Options{Local: true}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, util.ErrNoStdin)
}

func TestUsageGraph(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Report(strings.NewReader(listing), Options{Graph: true, Width: 4}, buf))
	assert.Contains(t, buf.String(), "alice | ████ 8")
}

func TestUsageFlags(t *testing.T) {
	cmd, h := newCommandHooks()
	var got Options
	h.Run = func(ctx context.Context, conf config.Config, opts Options, stdin io.Reader, w io.Writer) error {
		got = opts
		assert.Equal(t, "allq", conf.Usage.Command)
		return nil
	}
	cmd.SetArgs([]string{"-u", "alice", "--local", "-g"})
	require.NoError(t, cmd.Execute())
	assert.True(t, got.Local)
	assert.True(t, got.Graph)
	assert.Equal(t, 50, got.Width)
}
