package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyContextSecondSignalForcesExit(t *testing.T) {
	forced := make(chan struct{}, 1)
	prev := forceExit
	forceExit = func() { forced <- struct{}{} }
	t.Cleanup(func() { forceExit = prev })

	ctx, stop := NotifyContext(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by first signal")
	}

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-forced:
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestNotifyContextStopCancels(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	stop()
	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
