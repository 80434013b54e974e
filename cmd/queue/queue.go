package queue

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/exec"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/usage"
	zutil "github.com/zizibee/zizibee/util"
)

// NewCommand returns the queue command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, watch time.Duration, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
		watch      config.Duration
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show your jobs in the cluster queue.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, stop := zutil.SignalContext(context.Background())
			defer stop()
			return hooks.Run(ctx, conf, watch.Std(), cmd.OutOrStdout())
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.ClusterFlags(&flagConf, &configFile))
	f.StringVar(&flagConf.Usage.QueueCommand, "Usage.QueueCommand", flagConf.Usage.QueueCommand, "Command listing your jobs")
	f.VarP(&watch, "watch", "w", "Refresh the listing at this interval until interrupted")

	return cmd, hooks
}

// Run prints the output of Usage.QueueCommand without blank lines. With a
// non-zero "watch" the listing is refreshed until ctx is done.
func Run(ctx context.Context, conf config.Config, watch time.Duration, w io.Writer) error {
	log := util.NewLogger("queue", conf)
	defer util.WriteMetrics(conf, log)

	show := func() error {
		out, err := exec.Output(ctx, conf, log, conf.Usage.QueueCommand)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, usage.CompactLines(out))
		return err
	}

	if watch <= 0 {
		return show()
	}

	ticks := zutil.Ticker(ctx, watch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticks:
			fmt.Fprintf(w, "\n%s\n", t.Format(time.RFC1123))
			if err := show(); err != nil {
				return err
			}
		}
	}
}
