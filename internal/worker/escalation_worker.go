package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shreyansh2708-git/samadhan/internal/observability"
	"github.com/shreyansh2708-git/samadhan/internal/service"
)

// EscalationWorker drives the periodic SLA breach sweep. Each tick runs
// under its own timeout; a failed cycle is logged and the next tick proceeds
// regardless.
type EscalationWorker struct {
	service  *service.EscalationService
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(svc *service.EscalationService, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *EscalationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &EscalationWorker{service: svc, metrics: metrics, logger: logger, interval: interval}
}

// Run blocks until the context is cancelled.
func (w *EscalationWorker) Run(ctx context.Context) {
	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *EscalationWorker) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	escalated, err := w.service.Sweep(tickCtx)
	if err != nil {
		w.logger.Error("escalation sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordEscalationSweep(escalated)
	if escalated > 0 {
		w.logger.Info("escalation sweep complete", zap.Int("escalated", escalated))
	}
}
