// Package metrics defines the Prometheus collectors updated by zizibee
// commands and exports them in the text exposition format.
package metrics

import (
	"time"

	"github.com/alecthomas/units"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(remoteCommands)
	prometheus.MustRegister(transferBytes)
	prometheus.MustRegister(jobsDispatched)
	prometheus.MustRegister(jobStates)
	prometheus.MustRegister(pollIterations)
	prometheus.MustRegister(stalledIterations)
	prometheus.MustRegister(resultsCollected)
	prometheus.MustRegister(collectWait)
	prometheus.MustRegister(benchScores)
	prometheus.MustRegister(hostTotalCPU)
	prometheus.MustRegister(hostTotalRAM)
}

var remoteCommands = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zizibee",
		Subsystem: "remote",
		Name:      "commands_total",
		Help:      "Number of remote commands run, by mode and outcome.",
	},
	[]string{"mode", "outcome"},
)

// RemoteCommand counts one remote command. "mode" is "exec" or "shell".
func RemoteCommand(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remoteCommands.WithLabelValues(mode, outcome).Inc()
}

var transferBytes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zizibee",
		Subsystem: "transfer",
		Name:      "bytes_total",
		Help:      "Bytes moved between the cluster and the local host.",
	},
	[]string{"direction"},
)

// Uploaded adds n bytes to the upload counter.
func Uploaded(n int64) {
	transferBytes.WithLabelValues("upload").Add(float64(n))
}

// Downloaded adds n bytes to the download counter.
func Downloaded(n int64) {
	transferBytes.WithLabelValues("download").Add(float64(n))
}

var jobsDispatched = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "zizibee",
	Subsystem: "jobs",
	Name:      "dispatched_total",
	Help:      "Number of jobs submitted to the scheduler.",
})

// JobDispatched counts one submitted job.
func JobDispatched() {
	jobsDispatched.Inc()
}

var jobStates = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "zizibee",
		Subsystem: "jobs",
		Name:      "state_count",
		Help:      "Number of stored jobs in each state.",
	},
	[]string{"state"},
)

// SetJobStateCounts replaces the per-state job gauges.
func SetJobStateCounts(counts map[string]int) {
	jobStates.Reset()
	for state, n := range counts {
		jobStates.WithLabelValues(state).Set(float64(n))
	}
}

var pollIterations = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "zizibee",
	Subsystem: "collect",
	Name:      "poll_iterations_total",
	Help:      "Number of result polling iterations.",
})

var stalledIterations = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "zizibee",
	Subsystem: "collect",
	Name:      "stalled_iterations_total",
	Help:      "Number of polling iterations which observed no new results.",
})

// PollIteration counts one polling iteration.
func PollIteration(stalled bool) {
	pollIterations.Inc()
	if stalled {
		stalledIterations.Inc()
	}
}

var resultsCollected = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "zizibee",
	Subsystem: "collect",
	Name:      "results",
	Help:      "Number of result files present in the local mirror.",
})

// SetResults sets the number of result files observed.
func SetResults(n int) {
	resultsCollected.Set(float64(n))
}

var collectWait = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "zizibee",
	Subsystem: "collect",
	Name:      "wait_seconds",
	Help:      "Time spent waiting for all results of a job.",
	Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
})

// ObserveWait records how long a polling run took.
func ObserveWait(d time.Duration) {
	collectWait.Observe(d.Seconds())
}

var benchScores = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "zizibee",
		Subsystem: "bench",
		Name:      "score",
		Help:      "Benchmark score per suite and task.",
	},
	[]string{"suite", "task"},
)

// SetBenchScore records a benchmark score.
func SetBenchScore(suite, task string, score int) {
	benchScores.WithLabelValues(suite, task).Set(float64(score))
}

var hostTotalCPU = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "zizibee",
	Subsystem: "host",
	Name:      "total_cpus",
	Help:      "Total host CPUs.",
})

var hostTotalRAM = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "zizibee",
	Subsystem: "host",
	Name:      "total_ram_bytes",
	Help:      "Total host RAM, in bytes.",
})

// SetHostResources records the benchmark host's size. ramGiB is in gibibytes.
func SetHostResources(cpus int, ramGiB float64) {
	hostTotalCPU.Set(float64(cpus))
	hostTotalRAM.Set(ramGiB * float64(units.GiB))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for pickup by a node exporter's textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
