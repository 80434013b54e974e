package util

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalContext returns a context which is canceled on SIGINT or SIGTERM.
// A second signal exits the process immediately, so a stuck remote command
// can always be interrupted. The returned stop func releases the handler.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	sch := make(chan os.Signal, 2)
	done := make(chan struct{})
	sub, cancel := context.WithCancel(ctx)
	signal.Notify(sch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sub.Done():
			return
		case <-done:
			return
		case <-sch:
			cancel()
		}
		select {
		case <-sch:
			os.Exit(130)
		case <-done:
		}
	}()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			signal.Stop(sch)
			close(done)
			cancel()
		})
	}
}
