package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerFiresImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	<-Ticker(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTickerClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := Ticker(ctx, time.Millisecond)
	<-ticks
	<-ticks
	cancel()

	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("ticker wasn't closed")
		}
	}
}
