package postgres

import "time"

type auditEntryModel struct {
	AuditID    string    `gorm:"column:audit_id;type:uuid;primaryKey"`
	ExportID   string    `gorm:"column:export_id"`
	ActorID    string    `gorm:"column:actor_id"`
	ActorOrg   string    `gorm:"column:actor_org"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	Action     string    `gorm:"column:action"`
	Timestamp  time.Time `gorm:"column:occurred_at"`
	Success    bool      `gorm:"column:success"`
	Reason     string    `gorm:"column:reason"`
	Category   string    `gorm:"column:category"`
	IPAddress  string    `gorm:"column:ip_address"`
	UserAgent  string    `gorm:"column:user_agent"`
}

func (auditEntryModel) TableName() string { return "audit_entries" }
