package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cafetrace/exportflow/internal/ports"
)

// RetentionWorker sweeps audit entries past their retention tier on an
// interval. Sweeping only ever removes expired rows; entries inside their
// tier are untouchable.
type RetentionWorker struct {
	logger            *slog.Logger
	audit             ports.AuditRepository
	interval          time.Duration
	businessRetention time.Duration
	securityRetention time.Duration
}

func NewRetentionWorker(logger *slog.Logger, audit ports.AuditRepository, interval, businessRetention, securityRetention time.Duration) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if businessRetention <= 0 {
		businessRetention = 90 * 24 * time.Hour
	}
	if securityRetention <= 0 {
		securityRetention = 365 * 24 * time.Hour
	}
	return &RetentionWorker{
		logger:            logger,
		audit:             audit,
		interval:          interval,
		businessRetention: businessRetention,
		securityRetention: securityRetention,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.sweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "audit sweep failed",
				"module", "postgres.retention_worker",
				"layer", "adapter",
				"operation", "sweep_once",
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

func (w *RetentionWorker) sweepOnce(ctx context.Context) error {
	removed, err := w.audit.DeleteExpired(ctx, time.Now().UTC(), w.businessRetention, w.securityRetention)
	if err != nil {
		return err
	}
	if removed > 0 {
		w.logger.InfoContext(ctx, "audit entries swept",
			"module", "postgres.retention_worker",
			"layer", "adapter",
			"operation", "sweep_once",
			"outcome", "success",
			"removed", removed,
		)
	}
	return nil
}
