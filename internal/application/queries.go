package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/observability"
	"github.com/cafetrace/exportflow/internal/ports"
)

// GetCurrent returns the export's latest snapshot, cache first. A cache hit
// may be stale up to the record TTL; callers that go on to submit a write
// are still safe because the write path re-reads the ledger.
func (s *Service) GetCurrent(ctx context.Context, exportID string) (domain.ExportRecord, error) {
	if err := domain.ValidateExportID(exportID); err != nil {
		return domain.ExportRecord{}, err
	}
	key := exportKey(exportID)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		record, err := decodeRecord([]byte(cached))
		if err == nil {
			observability.CacheHitsTotal.Inc()
			return record, nil
		}
	}
	observability.CacheMissesTotal.Inc()

	record, err := s.loadFromLedger(ctx, exportID)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	s.cacheSet(ctx, key, record, s.cfg.RecordCacheTTL)
	return record, nil
}

// ListByStatus returns every export at the given status, accepting legacy
// status aliases.
func (s *Service) ListByStatus(ctx context.Context, raw string) ([]domain.ExportRecord, error) {
	status, ok := domain.CanonicalStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidationFailed, raw)
	}
	key := listKeyPrefix + "status:" + string(status)
	return s.list(ctx, key, ListFilter{Status: status})
}

// ListByOrganization returns every export originated by the organization.
func (s *Service) ListByOrganization(ctx context.Context, org domain.Organization) ([]domain.ExportRecord, error) {
	if !domain.KnownOrganization(org) {
		return nil, fmt.Errorf("%w: unknown organization %q", domain.ErrValidationFailed, org)
	}
	key := listKeyPrefix + "org:" + string(org)
	return s.list(ctx, key, ListFilter{OriginatingOrgID: org})
}

func (s *Service) list(ctx context.Context, key string, filter ListFilter) ([]domain.ExportRecord, error) {
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var records []domain.ExportRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			observability.CacheHitsTotal.Inc()
			return records, nil
		}
	}
	observability.CacheMissesTotal.Inc()

	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal filter: %v", domain.ErrInternal, err)
	}
	out, err := s.ledger.Evaluate(ctx, ports.LedgerFnListExports, string(rawFilter))
	if err != nil {
		return nil, err
	}
	var records []domain.ExportRecord
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("%w: decode ledger list: %v", domain.ErrInternal, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ExportID < records[j].ExportID })

	if raw, err := json.Marshal(records); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.cfg.ListCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "cache set failed",
				"module", "application.queries", "key", key, "error", err)
		}
	}
	return records, nil
}

// AvailableActions lists the moves open to the organization from the
// export's current status, sorted for stable output.
func (s *Service) AvailableActions(ctx context.Context, exportID string, org domain.Organization) ([]ActionView, error) {
	record, err := s.GetCurrent(ctx, exportID)
	if err != nil {
		return nil, err
	}
	actions := domain.AvailableActions(record.Status, org)
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	views := make([]ActionView, 0, len(actions))
	for _, a := range actions {
		edge, _ := domain.LookupEdge(record.Status, a)
		views = append(views, ActionView{Action: string(a), To: string(edge.To)})
	}
	return views, nil
}

// AuditTrail returns the recorded transition attempts matching the filter.
func (s *Service) AuditTrail(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.audit.Query(ctx, filter)
}

func (s *Service) cacheSet(ctx context.Context, key string, record domain.ExportRecord, ttl time.Duration) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), ttl); err != nil {
		s.logger.WarnContext(ctx, "cache set failed",
			"module", "application.queries", "key", key, "error", err)
	}
}
