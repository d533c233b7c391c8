package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

// Maintainer is the slice of the application service the sweep loop drives.
type Maintainer interface {
	Sweep(ctx context.Context) (application.SweepReport, error)
	ProcessPendingWithdrawals(ctx context.Context, limit int) (application.WithdrawalBatchReport, error)
}

// SweepWorker runs the periodic maintenance jobs: session expiry, campaign
// completion, log retention and, when enabled, automatic payouts.
type SweepWorker struct {
	logger          *slog.Logger
	service         Maintainer
	interval        time.Duration
	autoWithdrawals bool
	withdrawalBatch int
}

func NewSweepWorker(logger *slog.Logger, service Maintainer, interval time.Duration, autoWithdrawals bool, withdrawalBatch int) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if withdrawalBatch <= 0 {
		withdrawalBatch = 20
	}
	return &SweepWorker{
		logger: logger, service: service, interval: interval,
		autoWithdrawals: autoWithdrawals, withdrawalBatch: withdrawalBatch,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "sweep iteration failed",
				"module", "events.sweep_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *SweepWorker) processOnce(ctx context.Context) error {
	if _, err := w.service.Sweep(ctx); err != nil {
		return err
	}
	if !w.autoWithdrawals {
		return nil
	}
	report, err := w.service.ProcessPendingWithdrawals(ctx, w.withdrawalBatch)
	if err != nil {
		return err
	}
	if report.Processed > 0 {
		w.logger.InfoContext(ctx, "withdrawal batch processed",
			"module", "events.sweep_worker",
			"layer", "adapter",
			"operation", "process_withdrawals",
			"outcome", "success",
			"processed", report.Processed,
			"completed", report.Completed,
			"failed", report.Failed,
		)
	}
	return nil
}
