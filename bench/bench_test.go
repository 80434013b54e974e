package bench

import (
	"bytes"
	"context"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/logger"
)

func TestScore(t *testing.T) {
	assert.Equal(t, 1000, Score(time.Second, time.Second))
	assert.Equal(t, 2000, Score(time.Second, 500*time.Millisecond))
	assert.Equal(t, 333, Score(time.Second, 3*time.Second))
	assert.Equal(t, 0, Score(time.Second, 0))
}

func TestMeanUsesAllSamples(t *testing.T) {
	assert.Equal(t, 2*time.Second, Mean([]time.Duration{time.Second, 2 * time.Second, 3 * time.Second}))
	assert.Equal(t, time.Duration(0), Mean(nil))
}

func TestMulLinear(t *testing.T) {
	// (2x+1)(3x+4) = 6x^2 + 11x + 4
	p := mulLinear(mulLinear([]*big.Int{big.NewInt(1)}, 2, 1), 3, 4)
	var got []int64
	for _, c := range p {
		got = append(got, c.Int64())
	}
	assert.Equal(t, []int64{4, 11, 6}, got)
}

func counter(n *int) Task {
	return Task{
		Name:  "count",
		Unit:  func(r *rand.Rand) { *n++ },
		Loops: 3,
		Reps:  5,
	}
}

func TestSingleSuite(t *testing.T) {
	n := 0
	r, err := NewRunner(Single, 2, logger.NoopLogger())
	require.NoError(t, err)
	r.Tasks = []Task{counter(&n)}
	r.Standard = map[string]time.Duration{"count": time.Second, "total": time.Second}

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.Len(t, rep.Results, 1)
	assert.Len(t, rep.Results[0].Samples, 2)
	assert.Equal(t, rep.Results[0].Mean, rep.Total)

	buf := &bytes.Buffer{}
	require.NoError(t, rep.Write(buf))
	assert.Contains(t, buf.String(), Title(Single))
	assert.Contains(t, buf.String(), "TOTAL SCORE")
}

func TestMultiSuiteRunsReps(t *testing.T) {
	var mtx sync.Mutex
	n := 0
	task := Task{
		Name: "count",
		Unit: func(r *rand.Rand) {
			mtx.Lock()
			n++
			mtx.Unlock()
		},
		Reps: 7,
	}
	r, err := NewRunner(Multi, 2, logger.NoopLogger())
	require.NoError(t, err)
	r.Workers = 3
	r.Tasks = []Task{task}

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.Len(t, rep.Results[0].Samples, 2)

	buf := &bytes.Buffer{}
	require.NoError(t, rep.Write(buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Using "))
}

func TestPanicAbortsRun(t *testing.T) {
	boom := Task{Name: "boom", Unit: func(r *rand.Rand) { panic("bad unit") }, Loops: 1, Reps: 4}

	for _, suite := range []string{Single, Multi} {
		r, err := NewRunner(suite, 1, logger.NoopLogger())
		require.NoError(t, err)
		r.Workers = 2
		r.Tasks = []Task{boom}
		_, err = r.Run(context.Background())
		require.Error(t, err, suite)
		assert.Contains(t, err.Error(), "bad unit")
	}
}

func TestUnknownSuite(t *testing.T) {
	_, err := NewRunner("quad", 1, logger.NoopLogger())
	assert.Error(t, err)
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := NewRunner(Single, 1, logger.NoopLogger())
	require.NoError(t, err)
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTasksRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping benchmark workloads in short mode")
	}
	r := rand.New(rand.NewSource(1))
	for _, task := range Tasks {
		assert.NotPanics(t, func() { task.Unit(r) }, task.Name)
	}
}
