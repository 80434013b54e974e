package config

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
)

// NewCommand returns the "config" subcommands.
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Show func(conf config.Config, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Show: Show,
	}

	var (
		configFile string
		flagConf   config.Config
		validate   bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration.",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration after merging defaults, the config file and flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			merge := util.MergeLocalConfigFileWithFlags
			if validate {
				merge = util.MergeConfigFileWithFlags
			}
			conf, err := merge(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			return hooks.Show(conf, cmd.OutOrStdout())
		},
	}

	show.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := show.Flags()
	f.AddFlagSet(util.DispatchFlags(&flagConf, &configFile))
	f.BoolVar(&validate, "validate", validate, "Fail if the configuration is invalid")

	cmd.AddCommand(show)
	return cmd, hooks
}

// Show prints conf as YAML.
func Show(conf config.Config, w io.Writer) error {
	b, err := config.ToYaml(conf)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
