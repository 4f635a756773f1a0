package domain

import "time"

// AuditCategory decides the retention tier of an entry.
type AuditCategory string

const (
	// AuditBusiness covers ordinary transition attempts (90-day minimum).
	AuditBusiness AuditCategory = "business"
	// AuditSecurity covers authorization rejections and similar
	// security-relevant records (1-year minimum).
	AuditSecurity AuditCategory = "security"
)

// AuditEntry records one attempted transition. Entries are immutable once
// appended and are never deleted before their retention tier expires.
type AuditEntry struct {
	AuditID    string
	ExportID   string
	ActorID    string
	ActorOrg   Organization
	FromStatus Status
	ToStatus   Status
	Action     Action
	Timestamp  time.Time
	Success    bool
	Reason     string
	Category   AuditCategory
	IPAddress  string
	UserAgent  string
}

// AuditFilter narrows an audit query. Zero-valued fields do not filter.
type AuditFilter struct {
	ExportID string
	ActorOrg Organization
	Action   Action
	Success  *bool
	From     time.Time
	To       time.Time
	Limit    int
}
