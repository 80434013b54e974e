package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/config/testconfig"
	"github.com/zizibee/zizibee/logger"
)

// fakeMirror writes the next batch of result files into the local directory
// on every call.
type fakeMirror struct {
	calls   int
	batches []int
	written int
	err     error
}

func (m *fakeMirror) Mirror(ctx context.Context, remoteDir, localDir string) error {
	if m.err != nil {
		return m.err
	}
	n := 0
	if m.calls < len(m.batches) {
		n = m.batches[m.calls]
	}
	m.calls++
	for i := 0; i < n; i++ {
		p := filepath.Join(localDir, fmt.Sprintf("%d.json", m.written))
		if err := EncodeFile(p, Record{In: Tuple{m.written}, Out: m.written}); err != nil {
			return err
		}
		m.written++
	}
	return nil
}

// sleepRecorder records sleeps instead of sleeping and cancels the wait
// once limit sleeps have been recorded.
type sleepRecorder struct {
	sleeps []time.Duration
	limit  int
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	if len(s.sleeps) >= s.limit {
		return context.Canceled
	}
	return ctx.Err()
}

func newTestCollector(conf config.Collect, m *fakeMirror) (*Collector, *sleepRecorder) {
	c := NewCollector(conf, m, logger.NoopLogger()).WithProgress(&bytes.Buffer{})
	rec := &sleepRecorder{limit: 100}
	c.sleep = rec.sleep
	return c, rec
}

func TestWaitStopsAtNumJobs(t *testing.T) {
	conf := testconfig.DefaultConfig().Collect
	m := &fakeMirror{batches: []int{1, 1, 1, 1, 1, 1}}
	c, _ := newTestCollector(conf, m)

	files, err := c.Wait(context.Background(), "/remote", t.TempDir(), 4)
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Equal(t, 4, m.calls)
}

func TestCollectLoadsLookup(t *testing.T) {
	conf := testconfig.DefaultConfig().Collect
	m := &fakeMirror{batches: []int{0, 2, 2}}
	c, _ := newTestCollector(conf, m)

	l, err := c.Collect(context.Background(), "/remote", t.TempDir(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())
	for i := 0; i < 4; i++ {
		_, ok := l.Get(i)
		assert.True(t, ok, "missing %d", i)
	}
	_, ok := l.Get(5)
	assert.False(t, ok)
}

func TestConstantBackoffKeepsInterval(t *testing.T) {
	conf := config.Collect{
		Pattern:        "*.json",
		PollInterval:   config.Duration(time.Second),
		StallIncrement: config.Duration(2 * time.Second),
		Backoff:        "constant",
	}
	m := &fakeMirror{batches: []int{0, 0, 1}}
	c, rec := newTestCollector(conf, m)

	_, err := c.Wait(context.Background(), "/remote", t.TempDir(), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.sleeps)
}

func TestLinearBackoff(t *testing.T) {
	conf := config.Collect{
		Pattern:        "*.json",
		PollInterval:   config.Duration(time.Second),
		StallIncrement: config.Duration(2 * time.Second),
		Backoff:        "linear",
	}
	// The first, empty poll counts as a stall.
	m := &fakeMirror{batches: []int{0, 0, 1, 0, 1}}
	c, rec := newTestCollector(conf, m)

	_, err := c.Wait(context.Background(), "/remote", t.TempDir(), 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		3 * time.Second,
		5 * time.Second,
		5 * time.Second,
		7 * time.Second,
	}, rec.sleeps)
}

func TestExponentialBackoffResets(t *testing.T) {
	conf := config.Collect{
		Pattern:      "*.json",
		PollInterval: config.Duration(time.Second),
		Backoff:      "exponential",
		MaxInterval:  config.Duration(3 * time.Second),
	}
	m := &fakeMirror{batches: []int{0, 0, 0, 1, 0}}
	c, rec := newTestCollector(conf, m)
	rec.limit = 5

	_, err := c.Wait(context.Background(), "/remote", t.TempDir(), 2)
	require.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		3 * time.Second,
		time.Second,
		time.Second,
	}, rec.sleeps[:5])
}

func TestWaitTimeout(t *testing.T) {
	conf := testconfig.DefaultConfig().Collect
	conf.Timeout = config.Duration(20 * time.Millisecond)
	c := NewCollector(conf, &fakeMirror{}, logger.NoopLogger()).WithProgress(&bytes.Buffer{})

	_, err := c.Wait(context.Background(), "/remote", t.TempDir(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
}

func TestWaitMirrorError(t *testing.T) {
	conf := testconfig.DefaultConfig().Collect
	boom := errors.New("connection reset")
	c, _ := newTestCollector(conf, &fakeMirror{err: boom})

	_, err := c.Wait(context.Background(), "/remote", t.TempDir(), 1)
	assert.True(t, errors.Is(err, boom))
}

func TestTrackerRemaining(t *testing.T) {
	tr := NewTracker(4, &bytes.Buffer{}, logger.NoopLogger())
	start := tr.start
	tr.now = func() time.Time { return start.Add(10 * time.Second) }

	assert.Equal(t, time.Duration(0), tr.Remaining(0))
	assert.Equal(t, 30*time.Second, tr.Remaining(1))
	assert.Equal(t, 10*time.Second, tr.Remaining(2))
	assert.Equal(t, time.Duration(0), tr.Remaining(4))
}
