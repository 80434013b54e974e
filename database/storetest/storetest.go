// Package storetest checks the behaviour shared by every database.JobStore.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/compute"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/dispatch"
	"github.com/zizibee/zizibee/util"
)

// NewJob returns a submitted job record named "name".
func NewJob(name string) *dispatch.Job {
	return &dispatch.Job{
		ID: util.GenJobID(),
		JobConfig: dispatch.JobConfig{
			Username:     "tester",
			NumCores:     2,
			NumJobs:      4,
			MemInGB:      8,
			FunctionName: "run",
			JobName:      name,
			Units:        []compute.Unit{{Path: "work.py", Cell: -1}},
			Bindings:     []compute.Binding{{Name: "alpha", Value: 0.5}},
		},
		RemoteDataDir: "/users/tester/data/tester/" + name,
		SchedulerID:   "1234",
		State:         dispatch.Submitted,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run runs the shared job store tests against stores returned by open.
func Run(t *testing.T, open func(t *testing.T) database.JobStore) {
	t.Run("PutGet", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		job := NewJob("demo")
		require.NoError(t, s.PutJob(ctx, job))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		if diff := deep.Equal(job, got); diff != nil {
			t.Error(diff)
		}
	})

	t.Run("PutReplaces", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		job := NewJob("demo")
		require.NoError(t, s.PutJob(ctx, job))
		job.State = dispatch.SessionClosed
		require.NoError(t, s.PutJob(ctx, job))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, dispatch.SessionClosed, got.State)

		res, err := s.ListJobs(ctx, database.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, res.Jobs, 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := open(t)
		_, err := s.GetJob(context.Background(), "nope")
		assert.Equal(t, database.ErrNotFound, err)
	})

	t.Run("MissingID", func(t *testing.T) {
		s := open(t)
		job := NewJob("demo")
		job.ID = ""
		assert.Error(t, s.PutJob(context.Background(), job))
	})

	t.Run("ListNewestFirstAndPaged", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		var ids []string
		for i := 0; i < 5; i++ {
			job := NewJob(fmt.Sprintf("job-%d", i))
			require.NoError(t, s.PutJob(ctx, job))
			ids = append(ids, job.ID)
		}

		res, err := s.ListJobs(ctx, database.ListOptions{PageSize: 2})
		require.NoError(t, err)
		require.Len(t, res.Jobs, 2)
		assert.Equal(t, ids[4], res.Jobs[0].ID)
		assert.Equal(t, ids[3], res.Jobs[1].ID)
		assert.Equal(t, ids[3], res.NextPageToken)

		res, err = s.ListJobs(ctx, database.ListOptions{PageSize: 2, PageToken: res.NextPageToken})
		require.NoError(t, err)
		require.Len(t, res.Jobs, 2)
		assert.Equal(t, ids[2], res.Jobs[0].ID)

		res, err = s.ListJobs(ctx, database.ListOptions{PageSize: 2, PageToken: res.NextPageToken})
		require.NoError(t, err)
		require.Len(t, res.Jobs, 1)
		assert.Equal(t, ids[0], res.Jobs[0].ID)
		assert.Empty(t, res.NextPageToken)
	})

	t.Run("ListFilters", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		a := NewJob("sweep-a")
		b := NewJob("sweep-b")
		c := NewJob("other")
		c.State = dispatch.SessionClosed
		for _, j := range []*dispatch.Job{a, b, c} {
			require.NoError(t, s.PutJob(ctx, j))
		}

		res, err := s.ListJobs(ctx, database.ListOptions{NamePrefix: "sweep"})
		require.NoError(t, err)
		assert.Len(t, res.Jobs, 2)

		res, err = s.ListJobs(ctx, database.ListOptions{State: dispatch.SessionClosed})
		require.NoError(t, err)
		require.Len(t, res.Jobs, 1)
		assert.Equal(t, c.ID, res.Jobs[0].ID)
	})
}
