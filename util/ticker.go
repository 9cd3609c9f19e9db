package util

import (
	"context"
	"time"
)

// Ticker is a wrapper around time.Ticker which
// 1) fires immediately
// 2) is closed once the given context is canceled.
func Ticker(ctx context.Context, d time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer close(out)
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
