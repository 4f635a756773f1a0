package application

import (
	"encoding/json"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
)

type Config struct {
	ServiceName            string
	RecordCacheTTL         time.Duration
	ListCacheTTL           time.Duration
	AuditBusinessRetention time.Duration
	AuditSecurityRetention time.Duration
}

type CreateExportRequest struct {
	ExportID       string  `json:"export_id"`
	CoffeeType     string  `json:"coffee_type"`
	Quantity       float64 `json:"quantity"`
	Destination    string  `json:"destination"`
	EstimatedValue float64 `json:"estimated_value"`
}

type ApplyActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ListFilter struct {
	Status           domain.Status       `json:"status,omitempty"`
	OriginatingOrgID domain.Organization `json:"originatingOrgId,omitempty"`
}

type AddDocumentRequest struct {
	Category    domain.DocumentCategory
	ContentType string
	Data        []byte
}

type ActionView struct {
	Action string `json:"action"`
	To     string `json:"to"`
}
