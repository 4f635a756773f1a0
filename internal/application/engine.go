package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/observability"
	"github.com/cafetrace/exportflow/internal/ports"
)

func newID() string { return uuid.NewString() }

const (
	exportKeyPrefix = "export:"
	listKeyPrefix   = "exports:"
)

func exportKey(exportID string) string { return exportKeyPrefix + exportID }

// CreateExport registers a new export in DRAFT under the actor's
// organization. The ledger rejects duplicate ids and assigns version 1.
func (s *Service) CreateExport(ctx context.Context, actor domain.Actor, req CreateExportRequest) (domain.ExportRecord, error) {
	if err := requireActor(actor); err != nil {
		return domain.ExportRecord{}, err
	}
	record := domain.ExportRecord{
		ExportID:         req.ExportID,
		OriginatingOrgID: actor.Org,
		CreatedBy:        actor.ID,
		CoffeeType:       req.CoffeeType,
		Quantity:         req.Quantity,
		Destination:      req.Destination,
		EstimatedValue:   req.EstimatedValue,
		Status:           domain.StatusDraft,
	}
	if err := domain.ValidateNewExport(record); err != nil {
		return domain.ExportRecord{}, err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return domain.ExportRecord{}, fmt.Errorf("%w: marshal export: %v", domain.ErrInternal, err)
	}
	out, err := s.ledger.Submit(ctx, ports.LedgerFnCreateExport, string(raw))
	if err != nil {
		return domain.ExportRecord{}, err
	}
	created, err := decodeRecord(out)
	if err != nil {
		return domain.ExportRecord{}, err
	}

	s.invalidate(ctx, record.ExportID)
	s.appendAudit(ctx, domain.AuditEntry{
		ExportID:  record.ExportID,
		ActorID:   actor.ID,
		ActorOrg:  actor.Org,
		ToStatus:  domain.StatusDraft,
		Action:    domain.ActionCreateExport,
		Success:   true,
		Category:  domain.AuditBusiness,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
	s.emit(ctx, actor, created, domain.ActionCreateExport, "")
	return created, nil
}

// Apply attempts one lifecycle action against an export. The ledger read here
// is the authoritative precondition check; the cache is never consulted on
// the write path. Side effects of a committed move run in a fixed order:
// ledger submit, cache invalidation, audit append, notification.
func (s *Service) Apply(ctx context.Context, actor domain.Actor, exportID string, req ApplyActionRequest) (domain.ExportRecord, error) {
	if err := requireActor(actor); err != nil {
		return domain.ExportRecord{}, err
	}
	if err := domain.ValidateExportID(exportID); err != nil {
		return domain.ExportRecord{}, err
	}
	action := domain.Action(req.Action)
	payload, err := domain.PayloadForAction(action, req.Payload)
	if err != nil {
		return domain.ExportRecord{}, err
	}

	current, err := s.loadFromLedger(ctx, exportID)
	if err != nil {
		return domain.ExportRecord{}, err
	}

	edge, ok := domain.LookupEdge(current.Status, action)
	if !ok {
		err := fmt.Errorf("%w: no action %q from status %s (available: %s)",
			domain.ErrInvalidTransition, action, current.Status, availableActionNames(current.Status))
		s.auditAttempt(ctx, actor, current, action, current.Status, false, err.Error(), domain.AuditBusiness)
		observability.TransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return domain.ExportRecord{}, err
	}
	if actor.Org != edge.Authorized {
		err := fmt.Errorf("%w: organization %s may not perform %s from %s",
			domain.ErrInvalidTransition, actor.Org, action, current.Status)
		s.auditAttempt(ctx, actor, current, action, edge.To, false, err.Error(), domain.AuditSecurity)
		observability.TransitionsTotal.WithLabelValues(string(action), "unauthorized").Inc()
		return domain.ExportRecord{}, err
	}

	updated := current
	payload.Apply(&updated)
	updated.Status = edge.To

	raw, err := json.Marshal(updated)
	if err != nil {
		return domain.ExportRecord{}, fmt.Errorf("%w: marshal export: %v", domain.ErrInternal, err)
	}
	out, err := s.ledger.Submit(ctx, ports.LedgerFnPutExport, string(raw))
	if err != nil {
		s.auditAttempt(ctx, actor, current, action, edge.To, false, err.Error(), domain.AuditBusiness)
		observability.TransitionsTotal.WithLabelValues(string(action), "failed").Inc()
		return domain.ExportRecord{}, err
	}
	committed, err := decodeRecord(out)
	if err != nil {
		return domain.ExportRecord{}, err
	}

	s.invalidate(ctx, exportID)
	s.auditAttempt(ctx, actor, current, action, committed.Status, true, "", domain.AuditBusiness)
	s.emit(ctx, actor, committed, action, current.Status)
	observability.TransitionsTotal.WithLabelValues(string(action), "committed").Inc()
	return committed, nil
}

func (s *Service) loadFromLedger(ctx context.Context, exportID string) (domain.ExportRecord, error) {
	out, err := s.ledger.Evaluate(ctx, ports.LedgerFnGetExport, exportID)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	return decodeRecord(out)
}

func decodeRecord(raw []byte) (domain.ExportRecord, error) {
	var record domain.ExportRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.ExportRecord{}, fmt.Errorf("%w: decode ledger record: %v", domain.ErrInternal, err)
	}
	if canonical, ok := domain.CanonicalStatus(string(record.Status)); ok {
		record.Status = canonical
	}
	return record, nil
}

func availableActionNames(s domain.Status) string {
	actions := domain.AvailableActions(s, domain.OrgUnknown)
	if len(actions) == 0 {
		return "none"
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func requireActor(actor domain.Actor) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: actor id is required", domain.ErrValidationFailed)
	}
	if !domain.KnownOrganization(actor.Org) {
		return fmt.Errorf("%w: unknown organization %q", domain.ErrValidationFailed, actor.Org)
	}
	return nil
}

// invalidate drops the record entry and every list entry. Runs synchronously
// before the business response so a follow-up read cannot observe the
// pre-transition snapshot from the cache.
func (s *Service) invalidate(ctx context.Context, exportID string) {
	if err := s.cache.Delete(ctx, exportKey(exportID)); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed",
			"module", "application.engine", "export_id", exportID, "error", err)
	}
	if err := s.cache.DeletePattern(ctx, listKeyPrefix); err != nil {
		s.logger.WarnContext(ctx, "list cache invalidation failed",
			"module", "application.engine", "error", err)
	}
}

func (s *Service) auditAttempt(ctx context.Context, actor domain.Actor, current domain.ExportRecord, action domain.Action, to domain.Status, success bool, reason string, category domain.AuditCategory) {
	s.appendAudit(ctx, domain.AuditEntry{
		ExportID:   current.ExportID,
		ActorID:    actor.ID,
		ActorOrg:   actor.Org,
		FromStatus: current.Status,
		ToStatus:   to,
		Action:     action,
		Success:    success,
		Reason:     reason,
		Category:   category,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	})
}

// appendAudit is best effort: a failed append is logged and counted but
// never fails the business operation it records.
func (s *Service) appendAudit(ctx context.Context, entry domain.AuditEntry) {
	entry.AuditID = s.idFn()
	entry.Timestamp = s.nowFn()
	if err := s.audit.Append(ctx, entry); err != nil {
		observability.AuditAppendFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "audit append failed",
			"module", "application.engine",
			"export_id", entry.ExportID,
			"action", entry.Action,
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, actor domain.Actor, record domain.ExportRecord, action domain.Action, from domain.Status) {
	event := domain.TransitionEvent{
		EventID:    s.idFn(),
		ExportID:   record.ExportID,
		Action:     action,
		FromStatus: from,
		ToStatus:   record.Status,
		ActorID:    actor.ID,
		ActorOrg:   actor.Org,
		Timestamp:  s.nowFn(),
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, domain.EventTypeStatusChanged, payload, record.ExportID); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"module", "application.engine", "export_id", record.ExportID, "error", err)
	}
}
