package util

import (
	"context"
	"time"

	"github.com/galaxyproject/gxrunner/job"
	gxutil "github.com/galaxyproject/gxrunner/util"
)

// WaitJobs blocks until every job with the given key is in a terminal
// state, checking the store at the given rate.
func WaitJobs(ctx context.Context, store job.Store, every time.Duration, keys ...string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := append([]string(nil), keys...)
	for range gxutil.Ticker(ctx, every) {
		var next []string
		for _, key := range pending {
			rec, err := store.GetJob(ctx, key)
			if err != nil {
				return err
			}
			if !rec.State.Terminal() {
				next = append(next, key)
			}
		}
		pending = next
		if len(pending) == 0 {
			return nil
		}
	}
	return ctx.Err()
}
