// Package bench runs the single-core and multi-core machine benchmarks.
//
// Each task is timed over several samples and scored against a reference
// time: a score of 1000 matches the reference machine, higher is faster.
package bench

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/units"
	"github.com/gammazero/workerpool"
	pscpu "github.com/shirou/gopsutil/cpu"
	psmem "github.com/shirou/gopsutil/mem"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
)

// Suite names.
const (
	Single = "single"
	Multi  = "multi"
)

// Version of the benchmark tasks and reference times.
const Version = "0.2"

// Reference times of the single-core suite.
var SingleStandard = map[string]time.Duration{
	"fft":        18052 * time.Microsecond,
	"eig":        27115 * time.Microsecond,
	"rando":      26478 * time.Microsecond,
	"multi":      36071 * time.Microsecond,
	"matinv":     3329 * time.Microsecond,
	"sorter":     47008 * time.Microsecond,
	"itersum":    63714 * time.Microsecond,
	"funceval":   32038 * time.Microsecond,
	"symbexpand": 34727 * time.Microsecond,
	"total":      288532 * time.Microsecond,
}

// Reference times of the multi-core suite, measured on a 48 core node.
var MultiStandard = map[string]time.Duration{
	"fft":        326513 * time.Microsecond,
	"eig":        122250 * time.Microsecond,
	"rando":      726082 * time.Microsecond,
	"multi":      449487 * time.Microsecond,
	"matinv":     119345 * time.Microsecond,
	"sorter":     137256 * time.Microsecond,
	"itersum":    116929 * time.Microsecond,
	"funceval":   112147 * time.Microsecond,
	"symbexpand": 111325 * time.Microsecond,
	"total":      2221334 * time.Microsecond,
}

// Default samples per task.
const (
	SingleRepeats = 20
	MultiRepeats  = 3
)

// Host describes the machine running the benchmark.
type Host struct {
	Cores int
	MemGB int
}

// HostInfo inspects the local machine.
func HostInfo() (Host, error) {
	cores, err := pscpu.Counts(true)
	if err != nil {
		return Host{}, fmt.Errorf("Error detecting cpu cores: %s", err)
	}
	vmem, err := psmem.VirtualMemory()
	if err != nil {
		return Host{}, fmt.Errorf("Error detecting memory: %s", err)
	}
	gb := float64(vmem.Total) / float64(units.GiB)
	metrics.SetHostResources(cores, gb)
	return Host{Cores: cores, MemGB: int(gb)}, nil
}

// Result is the outcome of one task.
type Result struct {
	Task string
	Mean time.Duration
	// Every sample, in run order.
	Samples []time.Duration
	Score   int
}

// Report is the outcome of a suite.
type Report struct {
	Suite   string
	Host    Host
	Results []Result
	// Sum of the task means.
	Total time.Duration
	Score int
}

// Score compares "elapsed" to the reference time "standard".
func Score(standard, elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(1000 * float64(standard) / float64(elapsed)))
}

// Mean returns the mean of samples.
func Mean(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, s := range samples {
		sum += s
	}
	return sum / time.Duration(len(samples))
}

// Runner runs a benchmark suite.
type Runner struct {
	Suite string
	// Samples per task.
	Repeats int
	// Pool size of the multi-core suite. Zero means one worker per core.
	Workers int
	Tasks   []Task
	// Reference times, keyed by task name and "total".
	Standard map[string]time.Duration
	Log      *logger.Logger
	seed     int64
}

// NewRunner returns a Runner for suite "single" or "multi".
func NewRunner(suite string, repeats int, log *logger.Logger) (*Runner, error) {
	r := &Runner{
		Suite: suite,
		Tasks: Tasks,
		Log:   log,
		seed:  time.Now().UnixNano(),
	}
	switch suite {
	case Single:
		r.Repeats = SingleRepeats
		r.Standard = SingleStandard
	case Multi:
		r.Repeats = MultiRepeats
		r.Standard = MultiStandard
	default:
		return nil, fmt.Errorf("unknown benchmark suite %q", suite)
	}
	if repeats > 0 {
		r.Repeats = repeats
	}
	return r, nil
}

// Run runs every task and scores the suite. Cancelling ctx stops the run
// between samples.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	host, err := HostInfo()
	if err != nil {
		r.Log.Warn("Couldn't inspect host", err)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = host.Cores
	}
	if workers <= 0 {
		workers = 1
	}

	report := &Report{Suite: r.Suite, Host: host}
	for i, task := range r.Tasks {
		var samples []time.Duration
		for rep := 0; rep < r.Repeats; rep++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("benchmark %s: %w", task.Name, err)
			}
			rng := rand.New(rand.NewSource(r.seed + int64(i*r.Repeats+rep)))

			start := time.Now()
			if r.Suite == Multi {
				err = runPool(task, workers, rng.Int63())
			} else {
				err = runLoop(task, rng)
			}
			if err != nil {
				return nil, err
			}
			samples = append(samples, time.Since(start))
		}

		mean := Mean(samples)
		res := Result{
			Task:    task.Name,
			Mean:    mean,
			Samples: samples,
			Score:   Score(r.Standard[task.Name], mean),
		}
		r.Log.Debug("Benchmark task finished", "suite", r.Suite, "task", task.Name, "mean", mean, "score", res.Score)
		metrics.SetBenchScore(r.Suite, task.Name, res.Score)

		report.Results = append(report.Results, res)
		report.Total += mean
	}
	report.Score = Score(r.Standard["total"], report.Total)
	metrics.SetBenchScore(r.Suite, "total", report.Score)
	return report, nil
}

func runLoop(task Task, rng *rand.Rand) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("benchmark %s panicked: %v", task.Name, p)
		}
	}()
	for i := 0; i < task.Loops; i++ {
		task.Unit(rng)
	}
	return nil
}

// runPool submits task.Reps units to a fresh pool and waits for all of them.
func runPool(task Task, workers int, seed int64) error {
	var mtx sync.Mutex
	var first error

	wp := workerpool.New(workers)
	for i := 0; i < task.Reps; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		wp.Submit(func() {
			defer func() {
				if p := recover(); p != nil {
					mtx.Lock()
					if first == nil {
						first = fmt.Errorf("benchmark %s panicked: %v", task.Name, p)
					}
					mtx.Unlock()
				}
			}()
			task.Unit(rng)
		})
	}
	wp.StopWait()
	return first
}

const ruleWidth = 30

// Title returns the banner of a suite.
func Title(suite string) string {
	if suite == Multi {
		return fmt.Sprintf("### PWave Benchmark v %s ###", Version)
	}
	return fmt.Sprintf("### WaveS benchmark v %s ###", Version)
}

// Write prints the report as a table.
func (rep *Report) Write(w io.Writer) error {
	rule := strings.Repeat("-", ruleWidth)
	b := &strings.Builder{}
	if rep.Suite == Multi {
		fmt.Fprintf(b, "Using %d cores | %d GB of RAM.\n", rep.Host.Cores, rep.Host.MemGB)
	}
	fmt.Fprintln(b, rule)
	fmt.Fprintln(b, Title(rep.Suite))
	fmt.Fprintln(b, rule)
	fmt.Fprintf(b, "%-10s\t%-4s\t%5s\n", "task", "t/s", "score")
	fmt.Fprintln(b, rule)
	for _, res := range rep.Results {
		fmt.Fprintf(b, "%-10s\t%.4f\t%5d\n", res.Task, res.Mean.Seconds(), res.Score)
	}
	fmt.Fprintln(b, rule)
	fmt.Fprintf(b, "TOTAL TIME = %.2f s\n", rep.Total.Seconds())
	fmt.Fprintf(b, "TOTAL SCORE = %d / 1000\n", rep.Score)
	fmt.Fprintln(b, rule)
	_, err := io.WriteString(w, b.String())
	return err
}
