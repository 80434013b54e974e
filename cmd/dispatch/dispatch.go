package dispatch

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"github.com/zizibee/zizibee/cmd/util"
	"github.com/zizibee/zizibee/collect"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/dispatch"
	zutil "github.com/zizibee/zizibee/util"
	"github.com/zizibee/zizibee/version"
)

// Options are the command line options of "dispatch" beyond config.
type Options struct {
	// Wait for every array task's result after submitting.
	Wait bool
	// With Wait, write the collected results to this file.
	Output string
}

// NewCommand returns the dispatch command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, files []string, opts Options, w io.Writer) error
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
		Use:   "dispatch [job.yaml ...]",
		Short: "Assemble, stage and submit one or more job arrays.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, stop := zutil.SignalContext(context.Background())
			defer stop()
			return hooks.Run(ctx, conf, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.DispatchFlags(&flagConf, &configFile))
	f.BoolVarP(&opts.Wait, "wait", "w", opts.Wait, "Wait for the results after submitting")
	f.StringVarP(&opts.Output, "output", "o", opts.Output, "With --wait, write the results to this JSON file")

	return cmd, hooks
}

// ParseJobFile reads a YAML (or JSON) job description. Relative unit and
// extra file paths are resolved against the file's directory.
func ParseJobFile(path string) (dispatch.JobConfig, error) {
	var cfg dispatch.JobConfig
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading job file: %v", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing job file %s: %v", path, err)
	}

	dir := filepath.Dir(path)
	for i, u := range cfg.Units {
		cfg.Units[i].Path = resolve(dir, u.Path)
	}
	for i, f := range cfg.ExtraFiles {
		cfg.ExtraFiles[i] = resolve(dir, f)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Run dispatches the jobs described by "files" and prints one
// "id<TAB>jobName<TAB>schedulerID" line per submitted job.
func Run(ctx context.Context, conf config.Config, files []string, opts Options, w io.Writer) error {
	log := util.NewLogger("dispatch", conf)
	log.Debug("Version", version.LogFields()...)
	defer util.WriteMetrics(conf, log)

	var cfgs []dispatch.JobConfig
	for _, f := range files {
		cfg, err := ParseJobFile(f)
		if err != nil {
			return err
		}
		cfgs = append(cfgs, cfg)
	}

	store, err := util.OpenStore(conf)
	if err != nil {
		return fmt.Errorf("opening job store: %v", err)
	}
	defer store.Close()

	transfer, err := util.ConnectTransfer(ctx, conf, log.Sub("remote"))
	if err != nil {
		return err
	}
	defer transfer.Close()

	connect := func(ctx context.Context) (dispatch.Session, error) {
		client, err := util.Connect(ctx, conf, log.Sub("remote"))
		if err != nil {
			return nil, err
		}
		return dispatch.NewRemoteSession(client), nil
	}
	d := dispatch.NewDispatcher(conf, connect, transfer, store, log)
	defer d.Close()

	var jobs []*dispatch.Job
	for _, cfg := range cfgs {
		job, err := d.Dispatch(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", job.ID, job.JobName, job.SchedulerID)
		jobs = append(jobs, job)
	}

	if !opts.Wait {
		return nil
	}
	// The login shell isn't needed while waiting.
	if err := d.Close(); err != nil {
		log.Warn("Couldn't close the remote session", err)
	}

	c := collect.NewCollector(conf.Collect, transfer, log.Sub("collect"))
	for _, job := range jobs {
		l, err := c.Collect(ctx, job.RemoteDataDir, job.LocalDataDir, job.NumJobs)
		if err != nil {
			return err
		}
		log.Info("Collected results", "jobName", job.JobName, "results", l.Len())
		if opts.Output != "" {
			out := opts.Output
			if len(jobs) > 1 {
				out = filepath.Join(filepath.Dir(out), job.JobName+"-"+filepath.Base(out))
			}
			if err := collect.WriteResults(out, l); err != nil {
				return err
			}
		}
	}
	return nil
}
