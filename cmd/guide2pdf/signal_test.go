package main

import (
	"context"
	"testing"
	"time"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatal("context cancelled before stop")
		}
		stop()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("context not cancelled after stop")
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("context not cancelled with parent")
		}
	})
}
