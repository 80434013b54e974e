package remote

import (
	"errors"
	"fmt"
)

// ErrPromptTimeout is returned by Shell.Run when the prompt sentinel does not
// reappear before the context is done. The context's error is wrapped too.
var ErrPromptTimeout = errors.New("timed out waiting for shell prompt")

// ErrShellDesynced is returned by Shell.Run after an earlier command timed
// out, since the remaining output of that command would be attributed to
// the next one.
var ErrShellDesynced = errors.New("shell output out of sync after a prompt timeout")

// CommandError describes a one-shot remote command which exited non-zero.
type CommandError struct {
	Command    string
	ExitStatus int
	Output     string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d: %s", e.Command, e.ExitStatus, e.Output)
}
