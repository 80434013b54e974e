package util

import (
	"github.com/spf13/pflag"
	"github.com/zizibee/zizibee/config"
)

// ClusterFlags returns the flag set shared by every command that talks to
// the cluster: connection, shell, transfer, store and logging settings.
func ClusterFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(clusterFlags(flagConf))
	f.AddFlagSet(sshFlags(flagConf))
	f.AddFlagSet(shellFlags(flagConf))
	f.AddFlagSet(transferFlags(flagConf))
	f.AddFlagSet(dbFlags(flagConf))
	f.AddFlagSet(metricsFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

// DispatchFlags extends CollectFlags with script assembly settings.
func DispatchFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := CollectFlags(flagConf, configFile)

	f.StringVar(&flagConf.Dispatch.Dialect, "Dispatch.Dialect", flagConf.Dispatch.Dialect, "Script dialect. One of ['python', 'bash']")
	f.StringVar(&flagConf.Dispatch.Interpreter, "Dispatch.Interpreter", flagConf.Dispatch.Interpreter, "Interpreter invoked by the batch file")
	f.BoolVar(&flagConf.Dispatch.CloseSession, "Dispatch.CloseSession", flagConf.Dispatch.CloseSession, "Close the remote session after submitting")

	return f
}

// CollectFlags extends ClusterFlags with result polling settings.
func CollectFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := ClusterFlags(flagConf, configFile)

	f.StringVar(&flagConf.Collect.Pattern, "Collect.Pattern", flagConf.Collect.Pattern, "Glob pattern of result files")
	f.Var(&flagConf.Collect.PollInterval, "Collect.PollInterval", "Sleep between polling iterations")
	f.Var(&flagConf.Collect.StallIncrement, "Collect.StallIncrement", "Backoff added per stalled iteration")
	f.StringVar(&flagConf.Collect.Backoff, "Collect.Backoff", flagConf.Collect.Backoff, "Backoff mode. One of ['constant', 'linear', 'exponential']")
	f.Var(&flagConf.Collect.MaxInterval, "Collect.MaxInterval", "Longest single sleep of the exponential backoff")
	f.Var(&flagConf.Collect.Timeout, "Collect.Timeout", "Give up waiting after this long. Zero waits forever")

	return f
}

func clusterFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Cluster.Host, "Cluster.Host", flagConf.Cluster.Host, "Login host")
	f.StringVar(&flagConf.Cluster.TransferHost, "Cluster.TransferHost", flagConf.Cluster.TransferHost, "Transfer host. Defaults to the login host")
	f.IntVar(&flagConf.Cluster.Port, "Cluster.Port", flagConf.Cluster.Port, "SSH port")
	f.StringVarP(&flagConf.Cluster.Username, "Cluster.Username", "u", flagConf.Cluster.Username, "Cluster username")
	f.StringVar(&flagConf.Cluster.RemoteRoot, "Cluster.RemoteRoot", flagConf.Cluster.RemoteRoot, "Remote root directory. Defaults to /users/<username>")
	f.StringVar(&flagConf.Cluster.LocalRoot, "Cluster.LocalRoot", flagConf.Cluster.LocalRoot, "Local mirror root directory")

	return f
}

func sshFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringSliceVar(&flagConf.SSH.KeyFiles, "SSH.KeyFiles", flagConf.SSH.KeyFiles, "Private key file. This flag can be used multiple times")
	f.StringVar(&flagConf.SSH.KnownHostsFile, "SSH.KnownHostsFile", flagConf.SSH.KnownHostsFile, "known_hosts file used to verify the host key")
	f.Var(&flagConf.SSH.DialTimeout, "SSH.DialTimeout", "SSH dial timeout")

	return f
}

func shellFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Shell.PromptSentinel, "Shell.PromptSentinel", flagConf.Shell.PromptSentinel, "Remote shell prompt suffix")
	f.Var(&flagConf.Shell.CommandTimeout, "Shell.CommandTimeout", "Max wait for a command's prompt")
	f.StringSliceVar(&flagConf.Shell.SetupCommands, "Shell.SetupCommands", flagConf.Shell.SetupCommands, "Environment setup command. This flag can be used multiple times")

	return f
}

func transferFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Transfer.Mirror, "Transfer.Mirror", flagConf.Transfer.Mirror, "Mirror backend. One of ['rsync', 'sftp']")
	f.StringVar(&flagConf.Transfer.RsyncPath, "Transfer.RsyncPath", flagConf.Transfer.RsyncPath, "Path to the rsync binary")
	f.IntVar(&flagConf.Transfer.Parallel, "Transfer.Parallel", flagConf.Transfer.Parallel, "Concurrent downloads of the sftp mirror")

	return f
}

func dbFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Database, "Database", flagConf.Database, "Name of job store backend to use. One of ['boltdb', 'sqlite']")
	f.StringVar(&flagConf.BoltDB.Path, "BoltDB.Path", flagConf.BoltDB.Path, "Path to BoltDB database")
	f.StringVar(&flagConf.SQLite.Path, "SQLite.Path", flagConf.SQLite.Path, "Path to SQLite database")

	return f
}

func metricsFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "Write metrics in the Prometheus text format to this file")

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile, "File path to write logs to")
	f.StringVar(&flagConf.Logger.Formatter, "Logger.Formatter", flagConf.Logger.Formatter, "Logs formatter. One of ['text', 'json']")

	return f
}
