package ports

import (
	"context"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
)

// AuditRepository is the append-only sink of transition attempts. Append
// failures must never fail the caller's business response; the engine logs
// and counts them instead.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
	// DeleteExpired removes entries older than their category's retention
	// tier and returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time, businessRetention, securityRetention time.Duration) (int64, error)
}
