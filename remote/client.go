// Package remote runs commands on the cluster over SSH, either one at a time
// in their own session or through a long-lived interactive shell.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
	"golang.org/x/crypto/ssh"
)

// Client holds one SSH connection to a cluster host.
type Client struct {
	addr       string
	conf       *ssh.ClientConfig
	shellConf  config.Shell
	conn       *ssh.Client
	closeAgent func() error
	log        *logger.Logger
}

// NewClient returns a Client for the login host described by conf.
// Call Connect before use.
func NewClient(conf config.Config, log *logger.Logger) (*Client, error) {
	return newClient(conf.Cluster.Address(), conf, log)
}

// NewTransferClient returns a Client for the cluster's transfer host.
func NewTransferClient(conf config.Config, log *logger.Logger) (*Client, error) {
	return newClient(conf.Cluster.TransferAddress(), conf, log)
}

func newClient(addr string, conf config.Config, log *logger.Logger) (*Client, error) {
	auths, closeAgent, err := authMethods(conf.SSH, log)
	if err != nil {
		return nil, err
	}
	hostKeys, err := hostKeyCallback(conf.SSH)
	if err != nil {
		closeAgent()
		return nil, err
	}

	return &Client{
		addr: addr,
		conf: &ssh.ClientConfig{
			User:            conf.Cluster.Username,
			Auth:            auths,
			Timeout:         time.Duration(conf.SSH.DialTimeout),
			HostKeyCallback: hostKeys,
		},
		shellConf:  conf.Shell,
		closeAgent: closeAgent,
		log:        log.WithFields("host", addr),
	}, nil
}

// Connect establishes the SSH connection. The context bounds the TCP dial
// and the SSH handshake.
func (c *Client) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: c.conf.Timeout}
	nc, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		nc.SetDeadline(deadline)
	}

	sc, chans, reqs, err := ssh.NewClientConn(nc, c.addr, c.conf)
	if err != nil {
		nc.Close()
		return fmt.Errorf("ssh handshake with %s: %w", c.addr, err)
	}
	nc.SetDeadline(time.Time{})

	c.conn = ssh.NewClient(sc, chans, reqs)
	c.log.Debug("SSH connection open")
	return nil
}

// Conn returns the underlying SSH connection, e.g. for an SFTP subsystem.
func (c *Client) Conn() *ssh.Client {
	return c.conn
}

// Exec runs cmd in a new session and returns its combined output.
// A non-zero exit status is returned as a *CommandError. Canceling ctx
// closes the session.
func (c *Client) Exec(ctx context.Context, cmd string) (string, error) {
	out, err := c.exec(ctx, cmd)
	metrics.RemoteCommand("exec", err)
	return out, err
}

func (c *Client) exec(ctx context.Context, cmd string) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("not connected to %s", c.addr)
	}
	sess, err := c.conn.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	c.log.Debug("exec", "cmd", cmd)
	select {
	case <-ctx.Done():
		sess.Close()
		return "", fmt.Errorf("running %q: %w", cmd, ctx.Err())
	case r := <-done:
		out := string(r.out)
		var exitErr *ssh.ExitError
		if errors.As(r.err, &exitErr) {
			return out, &CommandError{
				Command:    cmd,
				ExitStatus: exitErr.ExitStatus(),
				Output:     out,
			}
		}
		if r.err != nil {
			return out, fmt.Errorf("running %q: %w", cmd, r.err)
		}
		return out, nil
	}
}

// OpenShell starts an interactive shell on a pseudo terminal and waits for
// its first prompt.
func (c *Client) OpenShell(ctx context.Context) (*Shell, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected to %s", c.addr)
	}
	sess, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("xterm", 40, 200, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("requesting pty: %w", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	sh := NewShell(stdin, stdout, c.shellConf, c.log.Sub("shell"))
	sh.closer = sess.Close
	if err := sh.Ready(ctx); err != nil {
		sh.Close()
		return nil, err
	}
	return sh, nil
}

// Close closes the SSH connection and the ssh-agent connection, if any.
func (c *Client) Close() error {
	var result *multierror.Error
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		c.conn = nil
		c.log.Debug("SSH connection closed")
	}
	if c.closeAgent != nil {
		if err := c.closeAgent(); err != nil {
			result = multierror.Append(result, err)
		}
		c.closeAgent = nil
	}
	return result.ErrorOrNil()
}
