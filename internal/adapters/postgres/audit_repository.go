package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) ports.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	rec := auditEntryModel{
		AuditID:    entry.AuditID,
		ExportID:   entry.ExportID,
		ActorID:    entry.ActorID,
		ActorOrg:   string(entry.ActorOrg),
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		Action:     string(entry.Action),
		Timestamp:  entry.Timestamp,
		Success:    entry.Success,
		Reason:     entry.Reason,
		Category:   string(entry.Category),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			// Same audit id appended twice; the first row stands.
			return nil
		}
		return err
	}
	return nil
}

func (r *auditRepository) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	q := r.db.WithContext(ctx).Model(&auditEntryModel{})
	if filter.ExportID != "" {
		q = q.Where("export_id = ?", filter.ExportID)
	}
	if filter.ActorOrg != "" {
		q = q.Where("actor_org = ?", string(filter.ActorOrg))
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if filter.Success != nil {
		q = q.Where("success = ?", *filter.Success)
	}
	if !filter.From.IsZero() {
		q = q.Where("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("occurred_at < ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []auditEntryModel
	if err := q.Order("occurred_at asc, audit_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAuditEntry(row))
	}
	return out, nil
}

func (r *auditRepository) DeleteExpired(ctx context.Context, now time.Time, businessRetention, securityRetention time.Duration) (int64, error) {
	var total int64
	business := r.db.WithContext(ctx).
		Where("category = ? AND occurred_at < ?", string(domain.AuditBusiness), now.Add(-businessRetention)).
		Delete(&auditEntryModel{})
	if business.Error != nil {
		return 0, business.Error
	}
	total += business.RowsAffected

	security := r.db.WithContext(ctx).
		Where("category = ? AND occurred_at < ?", string(domain.AuditSecurity), now.Add(-securityRetention)).
		Delete(&auditEntryModel{})
	if security.Error != nil {
		return total, security.Error
	}
	return total + security.RowsAffected, nil
}

func toDomainAuditEntry(row auditEntryModel) domain.AuditEntry {
	return domain.AuditEntry{
		AuditID:    row.AuditID,
		ExportID:   row.ExportID,
		ActorID:    row.ActorID,
		ActorOrg:   domain.Organization(row.ActorOrg),
		FromStatus: domain.Status(row.FromStatus),
		ToStatus:   domain.Status(row.ToStatus),
		Action:     domain.Action(row.Action),
		Timestamp:  row.Timestamp,
		Success:    row.Success,
		Reason:     row.Reason,
		Category:   domain.AuditCategory(row.Category),
		IPAddress:  row.IPAddress,
		UserAgent:  row.UserAgent,
	}
}
