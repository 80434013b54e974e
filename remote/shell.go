package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
)

// Shell is an interactive remote shell. Commands are written one line at a
// time and their output is read until the prompt sentinel reappears.
// Commands are serialized; concurrent callers wait their turn.
type Shell struct {
	mu       sync.Mutex
	stdin    io.WriteCloser
	chunks   chan []byte
	readErr  error
	sentinel string
	timeout  time.Duration
	desynced bool
	closer   func() error
	log      *logger.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewShell wraps the stdin and stdout of an interactive shell.
// It starts a goroutine which reads stdout until it returns an error or the
// shell is closed.
func NewShell(stdin io.WriteCloser, stdout io.Reader, conf config.Shell, log *logger.Logger) *Shell {
	sentinel := conf.PromptSentinel
	if sentinel == "" {
		sentinel = config.DefaultConfig().Shell.PromptSentinel
	}
	s := &Shell{
		stdin:    stdin,
		chunks:   make(chan []byte, 64),
		sentinel: sentinel,
		timeout:  time.Duration(conf.CommandTimeout),
		log:      log,
		done:     make(chan struct{}),
	}
	go s.read(stdout)
	return s
}

func (s *Shell) read(stdout io.Reader) {
	defer close(s.chunks)
	buf := make([]byte, 32*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				s.readErr = io.ErrClosedPipe
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case <-s.done:
			s.readErr = io.ErrClosedPipe
			return
		default:
		}
	}
}

// Ready drains the login banner up to the first prompt.
func (s *Shell) Ready(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	banner, err := s.untilPrompt(ctx)
	if err != nil {
		return fmt.Errorf("waiting for the first prompt: %w", err)
	}
	s.log.Debug("shell ready", "banner_bytes", len(banner))
	return nil
}

// Run writes cmd followed by a newline and returns everything the shell
// printed up to and including the next prompt.
func (s *Shell) Run(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.run(ctx, cmd)
	metrics.RemoteCommand("shell", err)
	return out, err
}

func (s *Shell) run(ctx context.Context, cmd string) (string, error) {
	if s.desynced {
		return "", ErrShellDesynced
	}
	s.log.Debug("shell", "cmd", cmd)

	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", fmt.Errorf("writing %q to shell: %w", cmd, err)
	}
	out, err := s.untilPrompt(ctx)
	if err != nil {
		return out, fmt.Errorf("running %q: %w", cmd, err)
	}
	return out, nil
}

// untilPrompt accumulates output until it ends with the sentinel.
// Callers must hold s.mu.
func (s *Shell) untilPrompt(ctx context.Context) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var acc bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			s.desynced = true
			return acc.String(), fmt.Errorf("%w: %w", ErrPromptTimeout, ctx.Err())

		case chunk, ok := <-s.chunks:
			if !ok {
				err := s.readErr
				if err == nil {
					err = io.EOF
				}
				return acc.String(), fmt.Errorf("shell closed: %w", err)
			}
			acc.Write(chunk)
			if strings.HasSuffix(acc.String(), s.sentinel) {
				return acc.String(), nil
			}
		}
	}
}

// Close closes the shell's stdin and the underlying session, and stops the
// stdout reader.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() { close(s.done) })

	var result *multierror.Error
	if err := s.stdin.Close(); err != nil && err != io.EOF {
		result = multierror.Append(result, err)
	}
	if s.closer != nil {
		if err := s.closer(); err != nil && err != io.EOF {
			result = multierror.Append(result, err)
		}
	}
	s.log.Debug("shell closed")
	return result.ErrorOrNil()
}
