package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
)

// SetupHandler sets up a signal handler that cancels the provided context on SIGINT or SIGTERM.
// Returns a cleanup function that should be called when the signal handler is no longer needed
func SetupHandler(ctx context.Context, cancel context.CancelFunc) (cleanup func()) {
	sigCh := make(chan os.Signal, constants.SignalChannelBuffer)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, initiating shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// WithShutdown returns a copy of parent that is cancelled on SIGINT or SIGTERM.
// The returned stop function releases the handler and cancels the context.
func WithShutdown(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	cleanup := SetupHandler(ctx, cancel)
	return ctx, func() {
		cleanup()
		cancel()
	}
}

// OnHangup invokes onHangup for every SIGHUP until ctx is done. acscan uses it
// to reload pattern files on demand.
// Returns a cleanup function that waits for the handler goroutine to exit.
func OnHangup(ctx context.Context, onHangup func()) (cleanup func()) {
	sigCh := make(chan os.Signal, constants.SignalChannelBuffer)
	signal.Notify(sigCh, syscall.SIGHUP)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-sigCh:
				logger.Info("Received SIGHUP, reloading")
				onHangup()
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(stop)
		<-done // Wait for goroutine to exit
	}
}
