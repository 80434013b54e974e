package usage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/exec"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/usage"
	zutil "github.com/zizibee/zizibee/util"
)

// Options control the usage report.
type Options struct {
	// Read the queue listing from stdin instead of the cluster.
	Local bool
	// Draw a bar chart instead of the tab separated report.
	Graph bool
	Width int
}

// NewCommand returns the usage command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, opts Options, stdin io.Reader, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
		opts       = Options{Width: 50}
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarise cluster usage by user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, stop := zutil.SignalContext(context.Background())
			defer stop()
			return hooks.Run(ctx, conf, opts, util.StdinPipe(), cmd.OutOrStdout())
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.ClusterFlags(&flagConf, &configFile))
	f.StringVar(&flagConf.Usage.Command, "Usage.Command", flagConf.Usage.Command, "Command listing every job on the cluster")
	f.BoolVar(&opts.Local, "local", opts.Local, "Read the listing from stdin")
	f.BoolVarP(&opts.Graph, "graph", "g", opts.Graph, "Draw a bar chart")
	f.IntVar(&opts.Width, "width", opts.Width, "Width of the longest bar")

	return cmd, hooks
}

// Run prints the per user usage of the cluster.
func Run(ctx context.Context, conf config.Config, opts Options, stdin io.Reader, w io.Writer) error {
	log := util.NewLogger("usage", conf)
	defer util.WriteMetrics(conf, log)

	var listing io.Reader
	if opts.Local {
		if stdin == nil {
			return fmt.Errorf("--local: %w", util.ErrNoStdin)
		}
		listing = stdin
	} else {
		out, err := exec.Output(ctx, conf, log, conf.Usage.Command)
		if err != nil {
			return err
		}
		listing = strings.NewReader(out)
	}
	return Report(listing, opts, w)
}

// Report parses a queue listing and writes the report selected by opts.
func Report(listing io.Reader, opts Options, w io.Writer) error {
	entries, err := usage.Parse(listing)
	if err != nil {
		return err
	}
	agg := usage.Aggregate(entries)
	if opts.Graph {
		return usage.WriteGraph(w, agg, opts.Width)
	}
	return usage.WriteReport(w, agg)
}
