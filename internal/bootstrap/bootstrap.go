// Package bootstrap runs a command body under OS signal handling and
// closes registered resources when it finishes or is interrupted.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// App owns the shutdown hooks for one command invocation.
type App struct {
	mu    sync.Mutex
	hooks []shutdownHook
}

func New() *App {
	return &App{}
}

// AddShutdownHook registers a named cleanup function. Hooks run in
// reverse registration order once Run finishes. Thread-safe.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Run executes run with a context that is cancelled on OS interrupt.
// Shutdown hooks run after run returns and also when the signal fires,
// whichever comes first.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return a.shutdown(context.Background())
	case err := <-errCh:
		return errors.Join(err, a.shutdown(context.Background()))
	}
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		hook := a.hooks[i]
		slog.Default().Debug("running shutdown hook", "name", hook.name)
		if err := hook.fn(ctx); err != nil {
			slog.Default().Warn("shutdown hook failed", "name", hook.name, "error", err)
			errs = append(errs, err)
		}
	}
	a.hooks = nil
	return errors.Join(errs...)
}
