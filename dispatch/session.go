package dispatch

import (
	"context"

	"github.com/zizibee/zizibee/remote"
)

// Shell runs commands one at a time over an interactive session.
type Shell interface {
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Session is the transport connection shells are opened on.
type Session interface {
	OpenShell(ctx context.Context) (Shell, error)
	Close() error
}

// Connector opens a new Session. The dispatcher calls it whenever it needs a
// shell and holds no open session.
type Connector func(ctx context.Context) (Session, error)

// NewRemoteSession adapts a connected remote.Client to a Session.
func NewRemoteSession(c *remote.Client) Session {
	return &remoteSession{c}
}

type remoteSession struct {
	client *remote.Client
}

func (s *remoteSession) OpenShell(ctx context.Context) (Shell, error) {
	sh, err := s.client.OpenShell(ctx)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *remoteSession) Close() error {
	return s.client.Close()
}
