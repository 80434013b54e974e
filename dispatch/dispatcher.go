// Package dispatch stages a worker script and its batch file on the cluster
// and submits the job array through an interactive shell.
package dispatch

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/kballard/go-shellquote"
	"github.com/zizibee/zizibee/compute"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
	"github.com/zizibee/zizibee/storage"
	"github.com/zizibee/zizibee/util"
	"github.com/zizibee/zizibee/util/fsutil"
)

// JobWriter persists job records.
type JobWriter interface {
	PutJob(ctx context.Context, job *Job) error
}

// Dispatcher submits jobs. A session is connected and its interactive shell
// opened on the first dispatch, then reused until the session is closed.
// A dispatch after Close connects again.
type Dispatcher struct {
	conf    config.Config
	connect Connector
	session Session
	gateway storage.Uploader
	store   JobWriter
	log     *logger.Logger

	shell Shell
	now   func() time.Time
}

// NewDispatcher returns a Dispatcher. "store" may be nil, in which case
// job records are only returned.
func NewDispatcher(conf config.Config, connect Connector, gw storage.Uploader, store JobWriter, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		conf:    conf,
		connect: connect,
		gateway: gw,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Dispatch runs the dispatch state machine for cfg:
//
//	CONFIGURED -> DIRECTORIES_ENSURED -> SCRIPT_STAGED -> BATCH_STAGED -> SUBMITTED [-> SESSION_CLOSED]
//
// Any error aborts the dispatch; nothing already created remotely is
// rolled back. The record is stored once the job is submitted.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg JobConfig) (*Job, error) {
	if cfg.Username == "" {
		cfg.Username = d.conf.Cluster.Username
	}
	if cfg.Dialect == "" {
		cfg.Dialect = d.conf.Dispatch.Dialect
	}
	if cfg.Interpreter == "" && cfg.Dialect == d.conf.Dispatch.Dialect {
		cfg.Interpreter = d.conf.Dispatch.Interpreter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, err := compute.NewDialect(cfg.Dialect, cfg.Interpreter)
	if err != nil {
		return nil, err
	}
	sources, err := compute.LoadUnits(cfg.Units)
	if err != nil {
		return nil, err
	}

	paths := JobPaths(d.conf.Cluster, cfg.Username, cfg.JobName)
	job := &Job{
		ID:               util.GenJobID(),
		JobConfig:        cfg,
		RemoteDataDir:    paths.RemoteDataDir,
		RemoteScratchDir: paths.RemoteScratchDir,
		LocalDataDir:     paths.LocalDataDir,
		LocalScratchDir:  paths.LocalScratchDir,
		State:            Configured,
		CreatedAt:        d.now(),
	}
	log := d.log.WithFields("jobID", job.ID, "jobName", job.JobName)
	log.Info("Dispatching job", "numJobs", job.NumJobs, "numCores", job.NumCores, "memInGB", job.MemInGB)

	if err := d.ensureDirectories(ctx, job); err != nil {
		return nil, err
	}
	d.transition(log, job, DirectoriesEnsured)

	if err := d.stageScript(ctx, job, dialect, sources); err != nil {
		return nil, err
	}
	d.transition(log, job, ScriptStaged)

	if err := d.stageBatch(ctx, job, dialect); err != nil {
		return nil, err
	}
	d.transition(log, job, BatchStaged)

	if err := d.submit(ctx, job); err != nil {
		return nil, err
	}
	d.transition(log, job, Submitted)
	metrics.JobDispatched()
	log.Info("Submitted job", "schedulerID", job.SchedulerID)

	var result *multierror.Error
	if d.conf.Dispatch.CloseSession {
		if err := d.Close(); err != nil {
			result = multierror.Append(result, err)
		} else {
			d.transition(log, job, SessionClosed)
		}
	}

	if d.store != nil {
		if err := d.store.PutJob(ctx, job); err != nil {
			result = multierror.Append(result, fmt.Errorf("storing job %s: %v", job.ID, err))
		}
	}
	return job, result.ErrorOrNil()
}

func (d *Dispatcher) transition(log *logger.Logger, job *Job, s State) {
	job.State = s
	log.Info("Job state", "state", s)
}

func (d *Dispatcher) openShell(ctx context.Context) (Shell, error) {
	if d.shell != nil {
		return d.shell, nil
	}
	if d.session == nil {
		sess, err := d.connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("connecting remote session: %w", err)
		}
		d.session = sess
	}
	sh, err := d.session.OpenShell(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening remote shell: %w", err)
	}
	d.shell = sh
	return sh, nil
}

// ensureDirectories creates the remote data and scratch directories.
// "mkdir -p" makes this safe to repeat.
func (d *Dispatcher) ensureDirectories(ctx context.Context, job *Job) error {
	sh, err := d.openShell(ctx)
	if err != nil {
		return err
	}
	for _, dir := range []string{job.RemoteDataDir, job.RemoteScratchDir} {
		if _, err := sh.Run(ctx, "mkdir -p "+shellquote.Join(dir)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) stageScript(ctx context.Context, job *Job, dialect compute.Dialect, sources []string) error {
	bindings := append([]compute.Binding{
		{Name: "data_dir", Value: job.RemoteDataDir},
		{Name: "scratch_dir", Value: job.RemoteScratchDir},
	}, job.Bindings...)

	job.ScriptText = compute.AssembleScript(dialect, job.ImportBlock, bindings, sources, job.FunctionName)
	job.ScriptPath = filepath.Join(job.LocalDataDir, job.JobName+dialect.Ext())
	if err := writeLocal(job.ScriptPath, job.ScriptText); err != nil {
		return err
	}
	if _, err := d.gateway.Upload(ctx, job.ScriptPath, job.RemoteDataDir); err != nil {
		return fmt.Errorf("uploading script: %w", err)
	}

	for _, extra := range job.ExtraFiles {
		if !strings.HasSuffix(extra, dialect.Ext()) {
			extra += dialect.Ext()
		}
		if _, err := d.gateway.Upload(ctx, extra, job.RemoteDataDir); err != nil {
			return fmt.Errorf("uploading extra file: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) stageBatch(ctx context.Context, job *Job, dialect compute.Dialect) error {
	text, err := compute.RenderBatch(compute.BatchParams{
		NumCores:    job.NumCores,
		MemInGB:     job.MemInGB,
		NumJobs:     job.NumJobs,
		JobName:     job.JobName,
		DataDir:     job.RemoteDataDir,
		Interpreter: dialect.Interpreter(),
		Script:      filepath.Base(job.ScriptPath),
	})
	if err != nil {
		return err
	}
	job.BatchText = text
	job.BatchPath = filepath.Join(job.LocalDataDir, compute.BatchFileName(job.JobName))
	if err := writeLocal(job.BatchPath, job.BatchText); err != nil {
		return err
	}
	if _, err := d.gateway.Upload(ctx, job.BatchPath, job.RemoteDataDir); err != nil {
		return fmt.Errorf("uploading batch file: %w", err)
	}
	return nil
}

// submit runs the environment setup commands and sbatch, strictly in order.
func (d *Dispatcher) submit(ctx context.Context, job *Job) error {
	sh, err := d.openShell(ctx)
	if err != nil {
		return err
	}

	cmds := append([]string{}, d.conf.Shell.SetupCommands...)
	cmds = append(cmds,
		"cd",
		"cd "+shellquote.Join(job.RemoteDataDir),
		"sbatch "+shellquote.Join(compute.BatchFileName(job.JobName)),
	)
	job.SubmitCommands = cmds

	for _, cmd := range cmds {
		out, err := sh.Run(ctx, cmd)
		if err != nil {
			return err
		}
		job.SubmitOutputs = append(job.SubmitOutputs, out)
	}
	job.SchedulerID = compute.ExtractJobID(job.SubmitOutputs[len(job.SubmitOutputs)-1])
	return nil
}

// Close closes the shell, if open, and the session.
func (d *Dispatcher) Close() error {
	var result *multierror.Error
	if d.shell != nil {
		if err := d.shell.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		d.shell = nil
	}
	if d.session != nil {
		if err := d.session.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		d.session = nil
	}
	return result.ErrorOrNil()
}

func writeLocal(p, text string) error {
	if err := fsutil.EnsurePath(p); err != nil {
		return err
	}
	return ioutil.WriteFile(p, []byte(text), 0644)
}
