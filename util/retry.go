package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/galaxyproject/gxrunner/logger"
)

// Retrier retries an operation with exponential backoff until it succeeds,
// it returns an error that Permanent rejects, the attempts run out or the
// context is canceled.
type Retrier struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Randomization spreads retries of concurrent writers apart.
	// Zero makes waits deterministic.
	Randomization float64
	// Attempts includes the first call.
	Attempts int
	// Permanent reports errors which are returned without retrying.
	Permanent func(err error) bool
	// Log receives a warning for every failed attempt. Optional.
	Log *logger.Logger
}

// NewRetrier returns a Retrier for job store writes: a few quick attempts,
// giving up within seconds.
func NewRetrier(log *logger.Logger) *Retrier {
	return &Retrier{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Randomization:   0.5,
		Attempts:        5,
		Log:             log,
	}
}

// Retry calls f until it succeeds. op names the operation in log messages.
func (r *Retrier) Retry(ctx context.Context, op string, f func() error) error {
	attempt := 0
	try := func() error {
		attempt++
		err := f()
		if err != nil && r.Permanent != nil && r.Permanent(err) {
			return &backoff.PermanentError{Err: err}
		}
		return err
	}
	warn := func(err error, wait time.Duration) {
		if r.Log != nil {
			r.Log.Warn("retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
		}
	}

	err := backoff.RetryNotify(try, backoff.WithContext(r.policy(), ctx), warn)
	if perm, ok := err.(*backoff.PermanentError); ok {
		return perm.Err
	}
	return err
}

func (r *Retrier) policy() backoff.BackOff {
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		MaxInterval:         r.MaxInterval,
		Multiplier:          2,
		RandomizationFactor: r.Randomization,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()

	retries := r.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(exp, uint64(retries))
}
