package util

import (
	"testing"
	"time"

	"github.com/zizibee/zizibee/config"
)

func TestMergeConfigFileWithFlags(t *testing.T) {
	flagConf := config.Config{}
	flagConf.Cluster.Host = "login.example.edu"
	flagConf.Cluster.Username = "alice"
	flagConf.Collect.PollInterval = config.Duration(5 * time.Second)

	result, err := MergeConfigFileWithFlags("", flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if result.Cluster.Host != "login.example.edu" {
		t.Fatal("unexpected host", result.Cluster.Host)
	}
	if time.Duration(result.Collect.PollInterval) != 5*time.Second {
		t.Fatal("unexpected poll interval", result.Collect.PollInterval)
	}

	fileConf := config.DefaultConfig()
	fileConf.Cluster.Host = "file.example.edu"
	fileConf.Cluster.TransferHost = "transfer.example.edu"
	tmp, cleanup, err := config.ToYamlTempFile(fileConf, "testconfig.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	result, err = MergeConfigFileWithFlags(tmp, flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if result.Cluster.Host != "login.example.edu" {
		t.Fatal("expected flag value to override file value")
	}
	if result.Cluster.TransferHost != "transfer.example.edu" {
		t.Fatal("expected file value to survive")
	}
	if result.Collect.Backoff != "constant" {
		t.Fatal("expected default backoff")
	}
}

func TestMergeConfigFileWithFlagsMissingFile(t *testing.T) {
	_, err := MergeConfigFileWithFlags("does-not-exist.yaml", config.Config{})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestNormalizeFlags(t *testing.T) {
	flagConf := config.Config{}
	var configFile string
	f := ClusterFlags(&flagConf, &configFile)
	f.SetNormalizeFunc(NormalizeFlags)

	err := f.Parse([]string{"--cluster-host", "a.example.edu", "--shell_commandtimeout", "2s"})
	if err != nil {
		t.Fatal(err)
	}
	if flagConf.Cluster.Host != "a.example.edu" {
		t.Fatal("unexpected host", flagConf.Cluster.Host)
	}
	if time.Duration(flagConf.Shell.CommandTimeout) != 2*time.Second {
		t.Fatal("unexpected timeout", flagConf.Shell.CommandTimeout)
	}
}

func TestMergeLocalSkipsValidation(t *testing.T) {
	flagConf := config.Config{}
	flagConf.Collect.Backoff = "sideways"

	if _, err := MergeConfigFileWithFlags("", flagConf); err == nil {
		t.Fatal("expected validation error")
	}
	conf, err := MergeLocalConfigFileWithFlags("", flagConf)
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if conf.Collect.Backoff != "sideways" {
		t.Fatal("unexpected backoff", conf.Collect.Backoff)
	}
}
