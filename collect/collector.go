// Package collect waits for the results of a job array and loads them.
package collect

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
	"github.com/zizibee/zizibee/storage"
	"github.com/zizibee/zizibee/util/fsutil"
)

// Collector polls a mirrored job directory until every array task has
// written its result file.
type Collector struct {
	conf     config.Collect
	mirror   storage.Mirrorer
	log      *logger.Logger
	progress io.Writer
	sleep    func(context.Context, time.Duration) error
}

// NewCollector returns a Collector which syncs remote results with "m".
func NewCollector(conf config.Collect, m storage.Mirrorer, log *logger.Logger) *Collector {
	return &Collector{
		conf:     conf,
		mirror:   m,
		log:      log,
		progress: os.Stderr,
		sleep:    sleepCtx,
	}
}

// WithProgress sets where the progress bar is drawn.
func (c *Collector) WithProgress(w io.Writer) *Collector {
	c.progress = w
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait mirrors remoteDir into localDir until at least numJobs result files
// are present locally, and returns them.
func (c *Collector) Wait(ctx context.Context, remoteDir, localDir string, numJobs int) ([]fsutil.Hostfile, error) {
	if c.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.conf.Timeout))
		defer cancel()
	}
	if err := fsutil.EnsureDir(localDir); err != nil {
		return nil, err
	}

	tracker := NewTracker(numJobs, c.progress, c.log)
	defer tracker.Finish()

	pause := newPoller(c.conf)
	last := 0
	for {
		if err := c.mirror.Mirror(ctx, remoteDir, localDir); err != nil {
			return nil, fmt.Errorf("mirroring %s: %w", remoteDir, err)
		}

		files, err := fsutil.Glob(localDir, c.conf.Pattern)
		if err != nil {
			return nil, err
		}
		count := len(files)
		tracker.Update(count)
		metrics.SetResults(count)

		if count >= numJobs {
			metrics.ObserveWait(tracker.Elapsed())
			c.log.Info("All results collected",
				"results", count,
				"elapsed", tracker.Elapsed().Round(time.Millisecond),
			)
			return files, nil
		}

		stalled := count <= last
		last = count
		metrics.PollIteration(stalled)

		d := pause.next(stalled)
		c.log.Debug("Waiting for results",
			"results", count,
			"expected", numJobs,
			"stalled", stalled,
			"stall", pause.stall,
			"sleep", d,
		)
		if err := c.sleep(ctx, d); err != nil {
			return nil, fmt.Errorf("waiting for results in %s: %w", localDir, err)
		}
	}
}

// Collect waits for the results of a job array and loads them.
func (c *Collector) Collect(ctx context.Context, remoteDir, localDir string, numJobs int) (*Lookup, error) {
	files, err := c.Wait(ctx, remoteDir, localDir, numJobs)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Abs)
	}
	return Load(paths)
}

// poller decides how long to sleep between polls.
type poller struct {
	mode     string
	interval time.Duration
	incr     time.Duration
	max      time.Duration
	stall    time.Duration
	exp      *backoff.ExponentialBackOff
}

func newPoller(conf config.Collect) *poller {
	p := &poller{
		mode:     conf.Backoff,
		interval: time.Duration(conf.PollInterval),
		incr:     time.Duration(conf.StallIncrement),
		max:      time.Duration(conf.MaxInterval),
	}
	if p.mode == "exponential" {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.interval
		b.Multiplier = 2
		b.RandomizationFactor = 0
		if p.max > 0 {
			b.MaxInterval = p.max
		}
		b.MaxElapsedTime = 0
		b.Reset()
		p.exp = b
	}
	return p
}

func (p *poller) next(stalled bool) time.Duration {
	if stalled {
		p.stall += p.incr
	}

	switch p.mode {
	case "linear":
		d := p.interval + p.stall
		if p.max > 0 && d > p.max {
			d = p.max
		}
		return d

	case "exponential":
		if !stalled {
			p.exp.Reset()
			return p.interval
		}
		return p.exp.NextBackOff()

	default:
		return p.interval
	}
}
