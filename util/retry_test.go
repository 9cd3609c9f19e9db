package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/galaxyproject/gxrunner/logger"
	"github.com/stretchr/testify/assert"
)

func fastRetrier() *Retrier {
	r := NewRetrier(nil)
	r.InitialInterval = time.Millisecond
	r.MaxInterval = 5 * time.Millisecond
	r.Randomization = 0
	r.Attempts = 3
	return r
}

func TestRetrierGivesUp(t *testing.T) {
	r := fastRetrier()

	i := 0
	err := r.Retry(context.Background(), "put job", func() error {
		i++
		return fmt.Errorf("database is locked")
	})
	assert.EqualError(t, err, "database is locked")
	assert.Equal(t, 3, i)
}

func TestRetrierSucceeds(t *testing.T) {
	r := fastRetrier()

	i := 0
	err := r.Retry(context.Background(), "put job", func() error {
		i++
		if i < 2 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, i)
}

func TestRetrierPermanent(t *testing.T) {
	notFound := errors.New("not found")
	r := fastRetrier()
	r.Permanent = func(err error) bool { return err == notFound }

	i := 0
	err := r.Retry(context.Background(), "get job", func() error {
		i++
		return notFound
	})
	assert.Equal(t, notFound, err)
	assert.Equal(t, 1, i)
}

func TestRetrierLogsAttempts(t *testing.T) {
	conf := logger.DebugConfig()
	conf.Formatter = "json"
	log := logger.NewLogger("retry-test", conf)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	r := fastRetrier()
	r.Log = log
	r.Retry(context.Background(), "put job", func() error {
		return fmt.Errorf("database is locked")
	})

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`"op":"put job"`)))
	assert.Contains(t, out, `"attempt":2`)
}

func TestRetrierCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fastRetrier()
	r.Attempts = 100
	i := 0
	err := r.Retry(ctx, "put job", func() error {
		i++
		return fmt.Errorf("database is locked")
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, i, 1)
}
