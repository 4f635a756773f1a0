// Package ledger provides the ledger-facing implementations of
// ports.LedgerClient: an HTTP client for a gateway endpoint and an in-memory
// ledger with the same contract surface for tests and local development.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

// MemoryLedger keeps export records in memory under the same optimistic
// concurrency contract as the real ledger: every committed write increments
// the record version, and a PutExport computed against a stale version is
// rejected with a conflict.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]domain.ExportRecord
	nowFn   func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]domain.ExportRecord),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFn overrides the ledger clock. Test hook.
func (l *MemoryLedger) SetNowFn(fn func() time.Time) { l.nowFn = fn }

func (l *MemoryLedger) Evaluate(_ context.Context, fn string, args ...string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch fn {
	case ports.LedgerFnGetExport:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: GetExport expects 1 arg", domain.ErrValidationFailed)
		}
		record, ok := l.records[args[0]]
		if !ok {
			return nil, fmt.Errorf("%w: export %s", domain.ErrNotFound, args[0])
		}
		return json.Marshal(record)
	case ports.LedgerFnListExports:
		var filter struct {
			Status           domain.Status       `json:"status,omitempty"`
			OriginatingOrgID domain.Organization `json:"originatingOrgId,omitempty"`
		}
		if len(args) == 1 && args[0] != "" {
			if err := json.Unmarshal([]byte(args[0]), &filter); err != nil {
				return nil, fmt.Errorf("%w: decode list filter: %v", domain.ErrValidationFailed, err)
			}
		}
		out := make([]domain.ExportRecord, 0, len(l.records))
		for _, record := range l.records {
			if filter.Status != "" && record.Status != filter.Status {
				continue
			}
			if filter.OriginatingOrgID != "" && record.OriginatingOrgID != filter.OriginatingOrgID {
				continue
			}
			out = append(out, record)
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("%w: unknown query %s", domain.ErrValidationFailed, fn)
	}
}

func (l *MemoryLedger) Submit(_ context.Context, fn string, args ...string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s expects 1 arg", domain.ErrValidationFailed, fn)
	}
	var record domain.ExportRecord
	if err := json.Unmarshal([]byte(args[0]), &record); err != nil {
		return nil, fmt.Errorf("%w: decode export: %v", domain.ErrValidationFailed, err)
	}
	now := l.nowFn()

	switch fn {
	case ports.LedgerFnCreateExport:
		if _, exists := l.records[record.ExportID]; exists {
			return nil, fmt.Errorf("%w: export %s already exists", domain.ErrLedgerConflict, record.ExportID)
		}
		record.Version = 1
		record.CreatedAt = now
		record.UpdatedAt = now
	case ports.LedgerFnPutExport:
		stored, exists := l.records[record.ExportID]
		if !exists {
			return nil, fmt.Errorf("%w: export %s", domain.ErrNotFound, record.ExportID)
		}
		if record.Version != stored.Version {
			return nil, fmt.Errorf("%w: export %s version %d, submitted against %d",
				domain.ErrLedgerConflict, record.ExportID, stored.Version, record.Version)
		}
		record.Version = stored.Version + 1
		record.CreatedAt = stored.CreatedAt
		record.UpdatedAt = now
	default:
		return nil, fmt.Errorf("%w: unknown transaction %s", domain.ErrValidationFailed, fn)
	}

	l.records[record.ExportID] = record
	return json.Marshal(record)
}
