package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/remote"
	zutil "github.com/zizibee/zizibee/util"
)

// NewCommand returns the exec command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, command string, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Run a command on the login host and print its output.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, stop := zutil.SignalContext(context.Background())
			defer stop()
			return hooks.Run(ctx, conf, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.Flags().AddFlagSet(util.ClusterFlags(&flagConf, &configFile))

	return cmd, hooks
}

// Run runs command once on the login host. The output is printed even when
// the command fails.
func Run(ctx context.Context, conf config.Config, command string, w io.Writer) error {
	log := util.NewLogger("exec", conf)
	defer util.WriteMetrics(conf, log)

	out, err := Output(ctx, conf, log, command)
	io.WriteString(w, out)
	return err
}

// Output connects to the login host, runs command and returns its combined
// output.
func Output(ctx context.Context, conf config.Config, log *logger.Logger, command string) (string, error) {
	client, err := util.Connect(ctx, conf, log.Sub("remote"))
	if err != nil {
		return "", err
	}
	defer client.Close()

	out, err := client.Exec(ctx, command)
	var cerr *remote.CommandError
	if errors.As(err, &cerr) {
		return cerr.Output, err
	}
	return out, err
}
