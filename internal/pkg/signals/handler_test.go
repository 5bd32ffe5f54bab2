package signals

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendSignal(t *testing.T, sig os.Signal) {
	t.Helper()
	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(sig))
}

func TestSetupHandler_CancelsContextOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := SetupHandler(ctx, cancel)
	defer cleanup()

	sendSignal(t, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("Context was not cancelled after signal")
	}
}

func TestSetupHandler_CleansUpOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cleanup := SetupHandler(ctx, cancel)
	cancel()

	time.Sleep(50 * time.Millisecond)

	// Cleanup should not panic
	cleanup()
}

func TestWithShutdown(t *testing.T) {
	ctx, stop := WithShutdown(context.Background())
	defer stop()

	sendSignal(t, syscall.SIGINT)

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("Context was not cancelled after SIGINT")
	}
}

func TestWithShutdown_StopCancels(t *testing.T) {
	ctx, stop := WithShutdown(context.Background())
	stop()
	assert.Error(t, ctx.Err())
}

func TestOnHangup_InvokesCallbackPerSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	cleanup := OnHangup(ctx, func() { calls.Add(1) })
	defer cleanup()

	sendSignal(t, syscall.SIGHUP)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	sendSignal(t, syscall.SIGHUP)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestOnHangup_NotInvokedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	cleanup := OnHangup(ctx, func() { calls.Add(1) })

	cancel()
	cleanup()

	assert.Equal(t, int32(0), calls.Load())
}
