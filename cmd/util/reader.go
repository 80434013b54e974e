package util

import (
	"errors"
	"io"
	"os"

	"golang.org/x/crypto/ssh/terminal"
)

// ErrNoStdin is returned when a command expects piped input but stdin is a
// terminal.
var ErrNoStdin = errors.New("nothing piped to stdin")

// StdinPipe returns stdin when data is piped into the process and nil when
// stdin is a terminal.
func StdinPipe() io.Reader {
	if terminal.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return os.Stdin
}
