package util

import (
	"context"
	"time"
)

// Ticker is a wrapper around time.Ticker which
// 1) fires immediately
// 2) can be canceled by the given context.
// The returned channel is never closed; select on ctx.Done() as well.
func Ticker(ctx context.Context, d time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		t := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case out <- t:
			}
			select {
			case <-ctx.Done():
				return
			case t = <-ticker.C:
			}
		}
	}()
	return out
}
