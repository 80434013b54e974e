package remote

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
)

// fakeTerminal answers each line written to the shell by looking it up in
// replies and printing the reply followed by a prompt.
type fakeTerminal struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	mu       sync.Mutex
	received []string
}

func newFakeTerminal(t *testing.T, banner string, replies map[string]string) *fakeTerminal {
	f := &fakeTerminal{}
	f.stdinR, f.stdinW = io.Pipe()
	f.stdoutR, f.stdoutW = io.Pipe()

	go func() {
		if banner != "" {
			io.WriteString(f.stdoutW, banner)
		}
		scanner := bufio.NewScanner(f.stdinR)
		for scanner.Scan() {
			line := scanner.Text()
			f.mu.Lock()
			f.received = append(f.received, line)
			f.mu.Unlock()

			reply, ok := replies[line]
			if !ok {
				// never answer, the prompt does not come back
				continue
			}
			// split the reply so the prompt arrives in its own chunk
			io.WriteString(f.stdoutW, reply)
			io.WriteString(f.stdoutW, "[tester@login ~]$ ")
		}
		f.stdoutW.Close()
	}()
	return f
}

func (f *fakeTerminal) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func testShell(f *fakeTerminal, timeout time.Duration) *Shell {
	conf := config.Shell{PromptSentinel: "$ ", CommandTimeout: config.Duration(timeout)}
	return NewShell(f.stdinW, f.stdoutR, conf, logger.NoopLogger())
}

func TestShellRunInOrder(t *testing.T) {
	f := newFakeTerminal(t, "Welcome to the cluster\n[tester@login ~]$ ", map[string]string{
		"cd":                   "",
		"sbatch demo-batch.sh": "Submitted batch job 1234\r\n",
	})
	sh := testShell(f, time.Second)
	defer sh.Close()

	ctx := context.Background()
	require.NoError(t, sh.Ready(ctx))

	out, err := sh.Run(ctx, "cd")
	require.NoError(t, err)
	assert.Equal(t, "[tester@login ~]$ ", out)

	out, err = sh.Run(ctx, "sbatch demo-batch.sh")
	require.NoError(t, err)
	assert.Equal(t, "Submitted batch job 1234\r\n[tester@login ~]$ ", out)

	assert.Equal(t, []string{"cd", "sbatch demo-batch.sh"}, f.lines())
}

func TestShellPromptTimeout(t *testing.T) {
	f := newFakeTerminal(t, "$ ", map[string]string{"echo ok": "ok\n"})
	sh := testShell(f, 50*time.Millisecond)
	defer sh.Close()

	ctx := context.Background()
	require.NoError(t, sh.Ready(ctx))

	_, err := sh.Run(ctx, "sleep forever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPromptTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// the shell refuses further commands once it lost track of the prompt
	_, err = sh.Run(ctx, "echo ok")
	assert.True(t, errors.Is(err, ErrShellDesynced))
}

func TestShellContextCanceled(t *testing.T) {
	f := newFakeTerminal(t, "$ ", nil)
	sh := testShell(f, 0)
	defer sh.Close()

	require.NoError(t, sh.Ready(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := sh.Run(ctx, "hang")
	assert.True(t, errors.Is(err, ErrPromptTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestShellClosedStream(t *testing.T) {
	f := newFakeTerminal(t, "", nil)
	sh := testShell(f, time.Second)

	f.stdoutW.Close()
	err := sh.Ready(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestShellSerializesConcurrentRuns(t *testing.T) {
	replies := map[string]string{}
	cmds := []string{"a", "b", "c", "d"}
	for _, c := range cmds {
		replies[c] = c + "\n"
	}
	f := newFakeTerminal(t, "$ ", replies)
	sh := testShell(f, time.Second)
	defer sh.Close()
	require.NoError(t, sh.Ready(context.Background()))

	var wg sync.WaitGroup
	for _, c := range cmds {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			out, err := sh.Run(context.Background(), c)
			assert.NoError(t, err)
			assert.Equal(t, c+"\n[tester@login ~]$ ", out)
		}(c)
	}
	wg.Wait()
	assert.ElementsMatch(t, cmds, f.lines())
}

func TestCommandError(t *testing.T) {
	var err error = &CommandError{Command: "false", ExitStatus: 1, Output: "nope"}
	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.ExitStatus)
	assert.Contains(t, err.Error(), `"false"`)
}

func TestShellCloseStopsReader(t *testing.T) {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	go io.Copy(io.Discard, stdinR)

	// A chatty remote end that never stops printing.
	go func() {
		for {
			if _, err := io.WriteString(stdoutW, "noise\n"); err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() { stdoutR.Close() })

	sh := NewShell(stdinW, stdoutR, config.Shell{PromptSentinel: "$ "}, logger.NoopLogger())
	require.Eventually(t, func() bool { return len(sh.chunks) == cap(sh.chunks) }, time.Second, time.Millisecond)

	require.NoError(t, sh.Close())
	require.NoError(t, sh.Close())

	closed := make(chan struct{})
	go func() {
		for range sh.chunks {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stdout reader still running after Close")
	}

	_, err := sh.Run(context.Background(), "true")
	assert.Error(t, err)
}
