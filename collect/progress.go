package collect

import (
	"io"
	"os"
	"time"

	"github.com/zizibee/zizibee/logger"
	"golang.org/x/crypto/ssh/terminal"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Tracker reports the progress of one polling run.
type Tracker struct {
	total int
	start time.Time
	now   func() time.Time
	log   *logger.Logger
	bar   *pb.ProgressBar
	last  int
}

// NewTracker starts tracking a run expecting "total" results. A progress bar
// is drawn on "out" when it is a terminal, otherwise progress is logged.
func NewTracker(total int, out io.Writer, log *logger.Logger) *Tracker {
	t := &Tracker{
		total: total,
		start: time.Now(),
		now:   time.Now,
		log:   log,
		last:  -1,
	}
	if isTerminal(out) {
		bar := pb.New(total).Prefix("Progress:")
		bar.Output = out
		bar.ShowTimeLeft = true
		bar.ShowSpeed = false
		bar.Start()
		t.bar = bar
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(int(f.Fd()))
}

// Elapsed returns the time since the run started.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Remaining estimates the time left once "done" results are in, assuming a
// constant rate. It is zero until the first result arrives.
func (t *Tracker) Remaining(done int) time.Duration {
	if done <= 0 {
		return 0
	}
	if done >= t.total {
		return 0
	}
	elapsed := t.Elapsed()
	return time.Duration(float64(elapsed)*float64(t.total)/float64(done)) - elapsed
}

// Update records that "done" results are available.
func (t *Tracker) Update(done int) {
	if t.bar != nil {
		t.bar.Set(done)
		return
	}
	if done == t.last {
		return
	}
	t.last = done
	t.log.Info("Progress",
		"done", done,
		"total", t.total,
		"elapsed", t.Elapsed().Round(time.Second),
		"remaining", t.Remaining(done).Round(time.Second),
	)
}

// Finish stops the progress bar.
func (t *Tracker) Finish() {
	if t.bar != nil {
		t.bar.Finish()
	}
}
