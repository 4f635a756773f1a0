// Package application holds the status transition engine: the single
// authority over which moves exist in the export lifecycle, who may take
// them, and in what order the side effects of a committed move run.
package application

import (
	"log/slog"
	"time"

	"github.com/cafetrace/exportflow/internal/ports"
)

type Service struct {
	cfg       Config
	ledger    ports.LedgerClient
	cache     ports.Cache
	audit     ports.AuditRepository
	notifier  ports.Notifier
	publisher ports.EventPublisher
	blobs     ports.BlobStore
	logger    *slog.Logger
	nowFn     func() time.Time
	idFn      func() string
}

type Dependencies struct {
	Config    Config
	Ledger    ports.LedgerClient
	Cache     ports.Cache
	Audit     ports.AuditRepository
	Notifier  ports.Notifier
	Publisher ports.EventPublisher
	Blobs     ports.BlobStore
	Logger    *slog.Logger
	NowFn     func() time.Time
	IDFn      func() string
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "exportflow"
	}
	if cfg.RecordCacheTTL <= 0 {
		cfg.RecordCacheTTL = 30 * time.Second
	}
	if cfg.ListCacheTTL <= 0 {
		cfg.ListCacheTTL = 2 * time.Minute
	}
	if cfg.AuditBusinessRetention <= 0 {
		cfg.AuditBusinessRetention = 90 * 24 * time.Hour
	}
	if cfg.AuditSecurityRetention <= 0 {
		cfg.AuditSecurityRetention = 365 * 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := deps.NowFn
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	idFn := deps.IDFn
	if idFn == nil {
		idFn = newID
	}
	return &Service{
		cfg:       cfg,
		ledger:    deps.Ledger,
		cache:     deps.Cache,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		blobs:     deps.Blobs,
		logger:    logger,
		nowFn:     nowFn,
		idFn:      idFn,
	}
}
