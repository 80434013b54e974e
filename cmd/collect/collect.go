package collect

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/collect"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/dispatch"
	zutil "github.com/zizibee/zizibee/util"
)

// Options select the job to collect.
type Options struct {
	// ID of a stored job. Takes precedence over JobName.
	JobID   string
	JobName string
	// Username owning the remote data directory. Defaults to the cluster user.
	Username string
	NumJobs  int
	// Write the collected results to this JSON file.
	Output string
}

// NewCommand returns the collect command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, opts Options, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
		opts       Options
	)

	cmd := &cobra.Command{
		Use:   "collect [jobID]",
		Short: "Wait for the results of a job array and load them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.JobID = args[0]
			}
			if opts.JobID == "" && (opts.JobName == "" || opts.NumJobs < 1) {
				return fmt.Errorf("either a job ID or both --job-name and --num-jobs are required")
			}
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, stop := zutil.SignalContext(context.Background())
			defer stop()
			return hooks.Run(ctx, conf, opts, cmd.OutOrStdout())
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.CollectFlags(&flagConf, &configFile))
	f.StringVarP(&opts.JobName, "job-name", "n", opts.JobName, "Job name, when no job ID is given")
	f.StringVar(&opts.Username, "job-user", opts.Username, "Owner of the job's data directory")
	f.IntVarP(&opts.NumJobs, "num-jobs", "N", opts.NumJobs, "Number of array tasks, when no job ID is given")
	f.StringVarP(&opts.Output, "output", "o", opts.Output, "Write the results to this JSON file")

	return cmd, hooks
}

// Run waits for the results of the selected job and prints one line per
// result.
func Run(ctx context.Context, conf config.Config, opts Options, w io.Writer) error {
	log := util.NewLogger("collect", conf)
	defer util.WriteMetrics(conf, log)

	var paths dispatch.Paths
	numJobs := opts.NumJobs
	if opts.JobID != "" {
		store, err := util.OpenStore(conf)
		if err != nil {
			return fmt.Errorf("opening job store: %v", err)
		}
		job, err := store.GetJob(ctx, opts.JobID)
		store.Close()
		if err != nil {
			return fmt.Errorf("job %s: %w", opts.JobID, err)
		}
		paths = dispatch.Paths{
			RemoteDataDir: job.RemoteDataDir,
			LocalDataDir:  job.LocalDataDir,
		}
		numJobs = job.NumJobs
	} else {
		paths = dispatch.JobPaths(conf.Cluster, opts.Username, opts.JobName)
	}

	transfer, err := util.ConnectTransfer(ctx, conf, log.Sub("remote"))
	if err != nil {
		return err
	}
	defer transfer.Close()

	c := collect.NewCollector(conf.Collect, transfer, log)
	l, err := c.Collect(ctx, paths.RemoteDataDir, paths.LocalDataDir, numJobs)
	if err != nil {
		return err
	}
	if opts.Output != "" {
		if err := collect.WriteResults(opts.Output, l); err != nil {
			return err
		}
	}
	return WriteSummary(w, l)
}

// WriteSummary prints "input<TAB>output" per entry of l.
func WriteSummary(w io.Writer, l *collect.Lookup) error {
	for _, rec := range l.Records() {
		if _, err := fmt.Fprintf(w, "%s\t%v\n", rec.In.Key(), rec.Out); err != nil {
			return err
		}
	}
	return nil
}
