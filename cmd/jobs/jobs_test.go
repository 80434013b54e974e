package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/config/testconfig"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/database/storetest"
	"github.com/zizibee/zizibee/dispatch"
)

func seed(t *testing.T, conf config.Config, n int) []*dispatch.Job {
	store, err := util.OpenStore(conf)
	require.NoError(t, err)
	defer store.Close()

	var jobs []*dispatch.Job
	for i := 0; i < n; i++ {
		j := storetest.NewJob(fmt.Sprintf("job-%d", i))
		require.NoError(t, store.PutJob(context.Background(), j))
		jobs = append(jobs, j)
	}
	return jobs
}

func TestListAndGet(t *testing.T) {
	for _, db := range []string{"boltdb", "sqlite"} {
		conf := testconfig.DefaultConfig()
		conf.Database = db
		jobs := seed(t, conf, 3)

		buf := &bytes.Buffer{}
		opts := ListOptions{ListOptions: database.ListOptions{PageSize: 2}}
		require.NoError(t, List(context.Background(), conf, opts, buf))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3, db)
		assert.True(t, strings.HasPrefix(lines[0], jobs[2].ID))
		assert.Equal(t, "next page token: "+jobs[1].ID, lines[2])

		buf.Reset()
		opts.All = true
		require.NoError(t, List(context.Background(), conf, opts, buf))
		lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 3, db)

		buf.Reset()
		require.NoError(t, Get(context.Background(), conf, []string{jobs[0].ID}, buf))
		assert.Contains(t, buf.String(), `"jobName": "job-0"`)

		err := Get(context.Background(), conf, []string{"missing"}, buf)
		assert.True(t, errors.Is(err, database.ErrNotFound), db)
	}
}

func TestListFlags(t *testing.T) {
	cmd, h := newCommandHooks()
	var got ListOptions
	h.List = func(ctx context.Context, conf config.Config, opts ListOptions, w io.Writer) error {
		got = opts
		assert.Equal(t, "sqlite", conf.Database)
		return nil
	}
	cmd.SetArgs([]string{"list", "--database", "sqlite", "-n", "sweep", "--state", "SUBMITTED", "--all"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sweep", got.NamePrefix)
	assert.Equal(t, dispatch.Submitted, got.State)
	assert.True(t, got.All)
}
