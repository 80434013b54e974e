package jobs

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/dispatch"
	"github.com/zizibee/zizibee/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ListOptions control "jobs list".
type ListOptions struct {
	database.ListOptions
	// Follow page tokens until every job is listed.
	All bool
}

// NewCommand returns the "jobs" subcommands.
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	List func(ctx context.Context, conf config.Config, opts ListOptions, w io.Writer) error
	Get  func(ctx context.Context, conf config.Config, ids []string, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		List: List,
		Get:  Get,
	}

	var (
		configFile string
		conf       config.Config
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect dispatched jobs in the local job store.",
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
	f.StringVar(&flagConf.Database, "Database", flagConf.Database, "Name of job store backend to use. One of ['boltdb', 'sqlite']")
	f.StringVar(&flagConf.BoltDB.Path, "BoltDB.Path", flagConf.BoltDB.Path, "Path to BoltDB database")
	f.StringVar(&flagConf.SQLite.Path, "SQLite.Path", flagConf.SQLite.Path, "Path to SQLite database")
	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "Write metrics in the Prometheus text format to this file")

	var (
		listOpts ListOptions
		state    string
	)

	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts.State = dispatch.State(state)
			return hooks.List(context.Background(), conf, listOpts, cmd.OutOrStdout())
		},
	}

	lf := list.Flags()
	lf.StringVarP(&listOpts.NamePrefix, "name-prefix", "n", listOpts.NamePrefix, "Only list jobs whose name starts with this prefix")
	lf.StringVar(&state, "state", state, "Only list jobs in this state")
	lf.StringVarP(&listOpts.PageToken, "page-token", "p", listOpts.PageToken, "Page token")
	lf.IntVarP(&listOpts.PageSize, "page-size", "s", listOpts.PageSize, "Page size")
	lf.BoolVar(&listOpts.All, "all", listOpts.All, "List all jobs")

	get := &cobra.Command{
		Use:   "get [jobID ...]",
		Short: "Get one or more jobs by ID.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return hooks.Get(context.Background(), conf, args, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, get)
	return cmd, hooks
}

// List prints one "id<TAB>jobName<TAB>state<TAB>schedulerID<TAB>created"
// line per job, followed by the next page token, if any.
func List(ctx context.Context, conf config.Config, opts ListOptions, w io.Writer) error {
	store, err := util.OpenStore(conf)
	if err != nil {
		return fmt.Errorf("opening job store: %v", err)
	}
	defer store.Close()

	counts := map[string]int{}
	for {
		res, err := store.ListJobs(ctx, opts.ListOptions)
		if err != nil {
			return err
		}
		for _, j := range res.Jobs {
			counts[string(j.State)]++
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				j.ID, j.JobName, j.State, j.SchedulerID, j.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if res.NextPageToken == "" {
			break
		}
		if !opts.All {
			fmt.Fprintf(w, "next page token: %s\n", res.NextPageToken)
			break
		}
		opts.PageToken = res.NextPageToken
	}

	metrics.SetJobStateCounts(counts)
	if err := metrics.WriteTextfile(conf.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("writing metrics: %v", err)
	}
	return nil
}

// Get prints the full JSON record of each job.
func Get(ctx context.Context, conf config.Config, ids []string, w io.Writer) error {
	store, err := util.OpenStore(conf)
	if err != nil {
		return fmt.Errorf("opening job store: %v", err)
	}
	defer store.Close()

	for _, id := range ids {
		job, err := store.GetJob(ctx, id)
		if err != nil {
			return fmt.Errorf("job %s: %w", id, err)
		}
		b, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	}
	return nil
}
