// Package cmd contains the zizibee CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/bench"
	"github.com/zizibee/zizibee/cmd/collect"
	"github.com/zizibee/zizibee/cmd/config"
	"github.com/zizibee/zizibee/cmd/dispatch"
	"github.com/zizibee/zizibee/cmd/exec"
	"github.com/zizibee/zizibee/cmd/jobs"
	"github.com/zizibee/zizibee/cmd/queue"
	"github.com/zizibee/zizibee/cmd/usage"
	"github.com/zizibee/zizibee/cmd/version"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "zizibee",
	Short:         "Run parameter sweeps as Slurm job arrays on a remote cluster.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(bench.NewCommand())
	RootCmd.AddCommand(collect.NewCommand())
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(config.NewCommand())
	RootCmd.AddCommand(dispatch.NewCommand())
	RootCmd.AddCommand(exec.NewCommand())
	RootCmd.AddCommand(jobs.NewCommand())
	RootCmd.AddCommand(queue.NewCommand())
	RootCmd.AddCommand(usage.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
