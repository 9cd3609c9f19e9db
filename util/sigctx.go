package util

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// SignalContext returns a context which is canceled grace after one of
// sigs arrives, so a job store write in progress can complete. A second
// signal cancels at once.
func SignalContext(ctx context.Context, grace time.Duration, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)

	go func() {
		defer cancel()
		defer signal.Stop(ch)

		select {
		case <-ctx.Done():
			return
		case <-ch:
		}
		t := time.NewTimer(grace)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ch:
		case <-ctx.Done():
		}
	}()
	return ctx
}
