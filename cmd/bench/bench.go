package bench

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/bench"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	zutil "github.com/zizibee/zizibee/util"
)

// Options control a benchmark run.
type Options struct {
	// Samples per task. Zero means the suite default.
	Repeats int
	// Pool size of the multi-core suite. Zero means one worker per core.
	Workers int
}

// NewCommand returns the bench command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, suite string, opts Options, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
		opts       Options
		conf       config.Config
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the single-core or multi-core performance of this machine.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			conf, err = util.MergeLocalConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			return nil
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.PersistentFlags()
	f.StringVarP(&configFile, "config", "c", configFile, "Config File")
	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "Write metrics in the Prometheus text format to this file")
	f.IntVarP(&opts.Repeats, "repeats", "r", opts.Repeats, "Samples per task")

	for _, suite := range []string{bench.Single, bench.Multi} {
		suite := suite
		sub := &cobra.Command{
			Use:   suite,
			Short: fmt.Sprintf("Run the %s-core benchmark.", suite),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := zutil.SignalContext(context.Background())
				defer stop()
				return hooks.Run(ctx, conf, suite, opts, cmd.OutOrStdout())
			},
		}
		if suite == bench.Multi {
			sub.Flags().IntVarP(&opts.Workers, "workers", "w", opts.Workers, "Worker pool size")
		}
		cmd.AddCommand(sub)
	}

	return cmd, hooks
}

// Run runs the benchmark suite and prints the report.
func Run(ctx context.Context, conf config.Config, suite string, opts Options, w io.Writer) error {
	log := util.NewLogger("bench", conf)
	defer util.WriteMetrics(conf, log)

	r, err := bench.NewRunner(suite, opts.Repeats, log)
	if err != nil {
		return err
	}
	r.Workers = opts.Workers

	rep, err := r.Run(ctx)
	if err != nil {
		return err
	}
	return rep.Write(w)
}
