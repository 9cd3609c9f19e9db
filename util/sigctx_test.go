package util

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalContextGrace(t *testing.T) {
	ctx := SignalContext(context.Background(), 50*time.Millisecond, syscall.SIGUSR1)
	start := time.Now()
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context wasn't canceled")
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSignalContextSecondSignal(t *testing.T) {
	ctx := SignalContext(context.Background(), time.Hour, syscall.SIGUSR2)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("second signal didn't cancel")
	}
}

func TestSignalContextParentCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := SignalContext(parent, time.Hour, syscall.SIGUSR1)
	cancel()
	<-ctx.Done()
	assert.Equal(t, context.Canceled, ctx.Err())
}
