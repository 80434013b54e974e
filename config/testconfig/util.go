// Package testconfig builds configuration suitable for tests.
package testconfig

import (
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
)

// DefaultConfig returns a default configuration useful for testing.
func DefaultConfig() config.Config {
	return TestifyConfig(config.DefaultConfig())
}

// TestifyConfig points local paths at a fresh temp directory and shortens
// the polling intervals so tests don't conflict or wait.
func TestifyConfig(conf config.Config) config.Config {
	dir, _ := ioutil.TempDir("", "zizibee-test-")

	conf.Cluster.Host = "localhost"
	conf.Cluster.Username = "tester"
	conf.Cluster.LocalRoot = filepath.Join(dir, "ccv")
	conf.SSH.KeyFiles = nil
	conf.SSH.UseAgent = false

	conf.Collect.PollInterval = config.Duration(time.Millisecond)
	conf.Collect.StallIncrement = config.Duration(2 * time.Millisecond)
	conf.Collect.MaxInterval = config.Duration(10 * time.Millisecond)

	conf.BoltDB.Path = filepath.Join(dir, "zizibee.db")
	conf.SQLite.Path = filepath.Join(dir, "zizibee.sqlite")

	conf.Logger = logger.DebugConfig()
	return conf
}
