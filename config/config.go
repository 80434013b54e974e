// Package config contains zizibee's configuration structures, defaults and
// YAML (un)marshaling.
package config

import (
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zizibee/zizibee/logger"
)

// Config describes configuration for zizibee.
type Config struct {
	Cluster  Cluster
	SSH      SSH
	Shell    Shell
	Transfer Transfer
	Dispatch Dispatch
	Collect  Collect
	// The active job store backend, one of "boltdb" or "sqlite".
	Database string
	BoltDB   BoltDB
	SQLite   SQLite
	Usage    Usage
	Metrics  Metrics
	Logger   logger.Config
}

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	username := defaultUsername()
	home, _ := os.UserHomeDir()
	localRoot := filepath.Join(home, "ccv")

	c := Config{
		Cluster: Cluster{
			Host:      "sshcampus.ccv.brown.edu",
			Port:      22,
			Username:  username,
			LocalRoot: localRoot,
		},
		SSH: SSH{
			KeyFiles: []string{
				filepath.Join(home, ".ssh", "id_rsa"),
				filepath.Join(home, ".ssh", "id_ed25519"),
			},
			UseAgent:    true,
			DialTimeout: Duration(10 * time.Second),
		},
		Shell: Shell{
			PromptSentinel: "$ ",
			CommandTimeout: Duration(5 * time.Minute),
			SetupCommands: []string{
				"module load anaconda/3-5.2.0",
				"conda activate foundation",
			},
		},
		Transfer: Transfer{
			Mirror:    "rsync",
			RsyncPath: "rsync",
			RsyncArgs: []string{"-avz"},
			Parallel:  4,
		},
		Dispatch: Dispatch{
			Dialect:     "python",
			Interpreter: "~/anaconda/foundation/bin/python",
		},
		Collect: Collect{
			Pattern:        "*.json",
			PollInterval:   Duration(time.Second),
			StallIncrement: Duration(2 * time.Second),
			Backoff:        "constant",
			MaxInterval:    Duration(time.Minute),
		},
		Database: "boltdb",
		BoltDB: BoltDB{
			Path: filepath.Join(localRoot, "zizibee.db"),
		},
		SQLite: SQLite{
			Path: filepath.Join(localRoot, "zizibee.sqlite"),
		},
		Usage: Usage{
			Command:      "allq",
			QueueCommand: "myq",
		},
		Logger: logger.DefaultConfig(),
	}
	return c
}

func defaultUsername() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// Cluster describes the remote cluster and the local mirror layout.
type Cluster struct {
	// Login host used for the interactive shell and one-shot commands.
	Host string
	// Host used for file transfers. Defaults to Host.
	TransferHost string
	Port         int
	Username     string
	// Remote directory under which "data/" and "scratch/" live.
	// Defaults to /users/<Username>.
	RemoteRoot string
	// Local directory under which remote job directories are mirrored.
	LocalRoot string
}

// Address returns the host:port of the login host.
func (c Cluster) Address() string {
	return c.Host + ":" + strconv.Itoa(c.port())
}

// TransferAddress returns the host:port of the transfer host.
func (c Cluster) TransferAddress() string {
	return c.TransferHostName() + ":" + strconv.Itoa(c.port())
}

// TransferHostName returns the transfer host, falling back to the login host.
func (c Cluster) TransferHostName() string {
	if c.TransferHost != "" {
		return c.TransferHost
	}
	return c.Host
}

// RemoteHome returns the remote root directory.
func (c Cluster) RemoteHome() string {
	if c.RemoteRoot != "" {
		return c.RemoteRoot
	}
	return path.Join("/users", c.Username)
}

func (c Cluster) port() int {
	if c.Port == 0 {
		return 22
	}
	return c.Port
}

// SSH describes how to authenticate with the cluster.
type SSH struct {
	// Private key files tried in order. Missing files are skipped.
	KeyFiles []string
	// Also authenticate with keys from the agent at $SSH_AUTH_SOCK.
	UseAgent bool
	// If set, host keys are verified against this known_hosts file.
	KnownHostsFile string
	DialTimeout    Duration
}

// Shell describes the interactive remote shell.
type Shell struct {
	// A command is complete once the accumulated output ends with this string.
	PromptSentinel string
	// Upper bound on the wait for a single command's prompt.
	CommandTimeout Duration
	// Environment setup commands run before the submission command.
	SetupCommands []string
}

// Transfer describes how files are moved to and from the cluster.
type Transfer struct {
	// Mirror backend, one of "rsync" or "sftp".
	Mirror    string
	RsyncPath string
	RsyncArgs []string
	// Max concurrent downloads for the sftp mirror.
	Parallel int
}

// Dispatch describes how worker scripts are assembled.
type Dispatch struct {
	// Script dialect, one of "python" or "bash".
	Dialect string
	// Interpreter invoked by the batch file. Empty means the dialect default.
	Interpreter string
	// Close the shell and SSH connection once the job is submitted.
	CloseSession bool
}

// Collect describes the result polling loop.
type Collect struct {
	// Glob pattern (relative to the local mirror) of result files.
	Pattern      string
	PollInterval Duration
	// Added to the stall accumulator on every iteration without progress.
	StallIncrement Duration
	// One of "constant", "linear" or "exponential".
	Backoff string
	// Upper bound on a single sleep for the exponential backoff.
	MaxInterval Duration
	// Zero means wait forever.
	Timeout Duration
}

// BoltDB describes configuration for the BoltDB job store.
type BoltDB struct {
	Path string
}

// SQLite describes configuration for the SQLite job store.
type SQLite struct {
	Path string
}

// Usage describes the queue reporting commands.
type Usage struct {
	// Command listing every running job on the cluster.
	Command string
	// Command listing the current user's jobs.
	QueueCommand string
}

// Metrics describes metrics export.
type Metrics struct {
	// If set, metrics are written in the Prometheus text format to this path
	// when a command finishes.
	TextfilePath string
}
