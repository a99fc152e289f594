package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"finboard/internal/amqp"
	applog "finboard/internal/log"
)

// Loader reloads dashboard state. Failures are handled by the loader itself.
type Loader interface {
	Load(ctx context.Context)
}

// ChangeSource delivers change notifications.
type ChangeSource interface {
	ConsumeChanges(ctx context.Context, handler amqp.ChangeHandler) error
}

// RefreshWorker reloads the dashboard on change messages and, optionally,
// on a fixed interval.
type RefreshWorker struct {
	loader   Loader
	changes  ChangeSource
	interval time.Duration
	logger   *applog.Logger
}

// NewRefreshWorker builds a worker. changes may be nil and interval may be
// zero to disable either trigger.
func NewRefreshWorker(loader Loader, changes ChangeSource, interval time.Duration, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &RefreshWorker{
		loader:   loader,
		changes:  changes,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange reloads the dashboard for one change message. It never fails:
// a failed load is logged by the loader and must not requeue the message.
func (w *RefreshWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		applog.NewFields().
			WithOperation(applog.OpRefresh).
			WithChange(msg.Resource, msg.Action).
			ToSlice()...)
	w.loader.Load(ctx)
	return nil
}

// Run blocks until ctx is done.
func (w *RefreshWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if w.changes != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.changes.ConsumeChanges(ctx, w.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				applog.LogError(ctx, w.logger, "Change consumption stopped", err, applog.ErrorTypeNetwork, applog.OpConsume, nil)
			}
		}()
	} else {
		w.logger.Info("Change notifications disabled")
	}

	if w.interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.tick(ctx)
		}()
		w.logger.Info("Periodic refresh enabled", "interval", w.interval)
	}

	wg.Wait()
	<-ctx.Done()
}

func (w *RefreshWorker) tick(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.logger.DebugContext(ctx, "Periodic refresh", applog.FieldOperation, applog.OpRefresh)
			w.loader.Load(ctx)
		}
	}
}
