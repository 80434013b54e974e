package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ghodss/yaml"
)

// ToYaml formats the configuration into YAML and returns the bytes.
func ToYaml(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// ToYamlFile writes the configuration to a YAML file readable only by the
// owner, since it may name key files and hosts.
func ToYamlFile(c Config, path string) error {
	b, err := ToYaml(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// ToYamlTempFile writes the configuration to "name" in a new temp directory.
// The returned cleanup removes the directory.
func ToYamlTempFile(c Config, name string) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "zizibee-config-")
	if err != nil {
		return "", func() {}, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	path = filepath.Join(dir, name)
	if err := ToYamlFile(c, path); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}

// Parse overlays a YAML (or JSON) document onto conf. Keys absent from the
// document keep their current values.
func Parse(raw []byte, conf *Config) error {
	return yaml.Unmarshal(raw, conf)
}

// ParseFile overlays the YAML config file at path onto conf. An empty path
// is a no-op.
func ParseFile(path string, conf *Config) error {
	if path == "" {
		return nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := Parse(source, conf); err != nil {
		return fmt.Errorf("parsing config %s: %v", path, err)
	}
	return nil
}

// Validate checks the configuration for values that would make every
// command fail later on.
func Validate(c Config) error {
	if c.Cluster.Host == "" {
		return fmt.Errorf("Cluster.Host must be set")
	}
	if c.Cluster.Username == "" {
		return fmt.Errorf("Cluster.Username must be set")
	}
	switch c.Transfer.Mirror {
	case "rsync", "sftp":
	default:
		return fmt.Errorf("unknown Transfer.Mirror %q, expected one of [rsync, sftp]", c.Transfer.Mirror)
	}
	switch c.Collect.Backoff {
	case "constant", "linear", "exponential":
	default:
		return fmt.Errorf("unknown Collect.Backoff %q, expected one of [constant, linear, exponential]", c.Collect.Backoff)
	}
	if c.Collect.Pattern == "" {
		return fmt.Errorf("Collect.Pattern must be set")
	}
	if !doublestar.ValidatePattern(c.Collect.Pattern) {
		return fmt.Errorf("invalid Collect.Pattern %q", c.Collect.Pattern)
	}
	if c.Collect.PollInterval <= 0 {
		return fmt.Errorf("Collect.PollInterval must be positive")
	}
	switch c.Database {
	case "boltdb", "sqlite":
	default:
		return fmt.Errorf("unknown Database %q, expected one of [boltdb, sqlite]", c.Database)
	}
	return nil
}
