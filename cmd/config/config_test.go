package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowMergesFlags(t *testing.T) {
	cmd, _ := newCommandHooks()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show", "--cluster.host", "login.example.org", "--collect.backoff", "exponential"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "Host: login.example.org")
	assert.Contains(t, buf.String(), "Backoff: exponential")
	assert.Contains(t, buf.String(), "PollInterval: 1s")
}

func TestShowValidate(t *testing.T) {
	cmd, _ := newCommandHooks()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show", "--validate", "--transfer.mirror", "ftp"})
	assert.Error(t, cmd.Execute())
}
