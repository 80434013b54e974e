package dispatch

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/zizibee/zizibee/compute"
	"github.com/zizibee/zizibee/config"
)

// State is a step of the dispatch state machine.
type State string

// States of a dispatch, in order.
const (
	Configured         State = "CONFIGURED"
	DirectoriesEnsured State = "DIRECTORIES_ENSURED"
	ScriptStaged       State = "SCRIPT_STAGED"
	BatchStaged        State = "BATCH_STAGED"
	Submitted          State = "SUBMITTED"
	SessionClosed      State = "SESSION_CLOSED"
)

var jobNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// JobConfig describes a job array to dispatch.
type JobConfig struct {
	// Cluster user. Defaults to config.Cluster.Username.
	Username string `json:"username,omitempty"`
	NumCores int    `json:"numCores"`
	// Number of array tasks; indexes run from 0 to NumJobs-1.
	NumJobs     int    `json:"numJobs"`
	MemInGB     int    `json:"memInGB"`
	ImportBlock string `json:"importBlock,omitempty"`
	// Local files uploaded next to the script. The dialect's extension is
	// appended to names lacking it.
	ExtraFiles []string `json:"extraFiles,omitempty"`
	// Function exposed by the generated entry point.
	FunctionName string `json:"functionName"`
	JobName      string `json:"jobName"`
	// Source units copied into the script, in order.
	Units []compute.Unit `json:"units"`
	// Extra variables, assigned after data_dir and scratch_dir.
	Bindings []compute.Binding `json:"bindings,omitempty"`
	// Script dialect. Defaults to config.Dispatch.Dialect.
	Dialect string `json:"dialect,omitempty"`
	// Interpreter of the batch file. Defaults to config.Dispatch.Interpreter
	// when the dialects match, else the dialect's default.
	Interpreter string `json:"interpreter,omitempty"`
}

// Validate checks the job configuration.
func (c JobConfig) Validate() error {
	switch {
	case c.NumJobs < 1:
		return fmt.Errorf("numJobs must be at least 1, got %d", c.NumJobs)
	case c.NumCores < 1:
		return fmt.Errorf("numCores must be at least 1, got %d", c.NumCores)
	case c.MemInGB < 1:
		return fmt.Errorf("memInGB must be at least 1, got %d", c.MemInGB)
	case c.FunctionName == "":
		return fmt.Errorf("functionName is required")
	case !jobNameRe.MatchString(c.JobName):
		return fmt.Errorf("invalid jobName %q: only letters, digits, '.', '_' and '-' are allowed", c.JobName)
	case c.Username == "":
		return fmt.Errorf("username is required")
	}
	return nil
}

// Job is the record of a dispatched job: its configuration plus everything
// derived while dispatching it.
type Job struct {
	ID string `json:"id"`
	JobConfig

	RemoteDataDir    string `json:"remoteDataDir"`
	RemoteScratchDir string `json:"remoteScratchDir"`
	LocalDataDir     string `json:"localDataDir"`
	LocalScratchDir  string `json:"localScratchDir"`

	ScriptText string `json:"scriptText,omitempty"`
	ScriptPath string `json:"scriptPath,omitempty"`
	BatchText  string `json:"batchText,omitempty"`
	BatchPath  string `json:"batchPath,omitempty"`

	SubmitCommands []string `json:"submitCommands,omitempty"`
	SubmitOutputs  []string `json:"submitOutputs,omitempty"`
	// Scheduler job id parsed from the sbatch output. May be empty.
	SchedulerID string `json:"schedulerId,omitempty"`

	State     State     `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// Paths are the remote and local directories of a job.
type Paths struct {
	RemoteDataDir    string
	RemoteScratchDir string
	LocalDataDir     string
	LocalScratchDir  string
}

// JobPaths lays out the directories of job "jobName" of user "username":
//
//	<RemoteRoot>/data/<username>/<jobName>
//	<RemoteRoot>/scratch/<jobName>
//	<LocalRoot>/data/<jobName>
//	<LocalRoot>/scratch/<jobName>
func JobPaths(cluster config.Cluster, username, jobName string) Paths {
	if username != "" {
		cluster.Username = username
	}
	home := cluster.RemoteHome()
	return Paths{
		RemoteDataDir:    path.Join(home, "data", cluster.Username, jobName),
		RemoteScratchDir: path.Join(home, "scratch", jobName),
		LocalDataDir:     filepath.Join(cluster.LocalRoot, "data", jobName),
		LocalScratchDir:  filepath.Join(cluster.LocalRoot, "scratch", jobName),
	}
}
