package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// run serves until SIGINT or SIGTERM, then shuts down.
func run(app *application) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, app)
}

// serve runs the server until ctx is done or the server fails.
func serve(ctx context.Context, app *application) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("received shutdown signal")
	case serveErr = <-errCh:
	}

	timeout := app.config.Server.ShutdownTimeout.Duration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return errors.Join(serveErr, app.shutdown(shutdownCtx))
}

// shutdown stops the server first so no new exceptions are noticed, then
// drains the telemetry queue and flushes the tracer.
func (app *application) shutdown(ctx context.Context) error {
	var errs []error

	if err := app.server.Stop(ctx); err != nil {
		app.logger.Error("failed to stop server gracefully", observability.Error(err))
		errs = append(errs, err)
	}

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("failed to drain error notices", observability.Error(err))
			errs = append(errs, err)
		}
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}

	app.logger.Info("apiserver stopped")

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
