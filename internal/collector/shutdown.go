package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ranked-tracker/internal/logger"
)

// SetupSignalHandler creates a context that is cancelled on SIGTERM or SIGINT.
// It also calls the provided shutdown function before cancelling. A second
// signal exits immediately.
func SetupSignalHandler(shutdownFunc func(context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.WithComponent("signal")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("Initiating graceful shutdown")

		if shutdownFunc != nil {
			shutdownFunc(ctx)
		}
		cancel()

		sig = <-sigCh
		log.WithField("signal", sig.String()).Warn("Second signal, forcing exit")
		os.Exit(1)
	}()

	return ctx
}

// WaitForSignal blocks until a signal is received or ctx is done. The
// shutdown function only runs for a signal.
func WaitForSignal(ctx context.Context, shutdownFunc func(context.Context)) {
	log := logger.WithComponent("signal")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		log.Debug("Context cancelled")
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Initiating graceful shutdown")
		if shutdownFunc != nil {
			shutdownFunc(ctx)
		}
	}
}
