// Package bootstrap wires configuration, adapters and the transition engine
// into runnable API and worker processes.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cafetrace/exportflow/internal/adapters/blob"
	"github.com/cafetrace/exportflow/internal/adapters/cache"
	eventadapter "github.com/cafetrace/exportflow/internal/adapters/events"
	httpadapter "github.com/cafetrace/exportflow/internal/adapters/http"
	ledgeradapter "github.com/cafetrace/exportflow/internal/adapters/ledger"
	"github.com/cafetrace/exportflow/internal/adapters/postgres"
	"github.com/cafetrace/exportflow/internal/application"
	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
	"github.com/cafetrace/exportflow/internal/resilience"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	sweeper    *postgres.RetentionWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	auditRepo := postgres.NewAuditRepository(db)

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	cacheStore := cache.NewRedisCache(redisClient)

	var ledgerClient ports.LedgerClient
	if cfg.LedgerGatewayURL != "" {
		ledgerClient = ledgeradapter.NewHTTPClient(cfg.LedgerGatewayURL, cfg.LedgerAttemptTimeout)
	} else {
		logger.WarnContext(ctx, "no ledger gateway configured, using in-memory ledger")
		ledgerClient = ledgeradapter.NewMemoryLedger()
	}
	gateway := resilience.NewGateway(ledgerClient, resilience.GatewayConfig{
		QueryRetry: resilience.RetryPolicy{
			MaxRetries:   cfg.QueryMaxRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		},
		SubmitRetry: resilience.RetryPolicy{
			MaxRetries:   cfg.SubmitMaxRetries,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
		Breaker: resilience.BreakerConfig{
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Cooldown:         cfg.BreakerCooldown,
		},
		AttemptTimeout: cfg.LedgerAttemptTimeout,
	}, logger)

	var blobStore ports.BlobStore
	if cfg.BlobEndpoint != "" {
		minioStore, blobErr := blob.NewMinioStore(blob.MinioConfig{
			Endpoint:  cfg.BlobEndpoint,
			AccessKey: cfg.BlobAccessKey,
			SecretKey: cfg.BlobSecretKey,
			Bucket:    cfg.BlobBucket,
			Region:    cfg.BlobRegion,
			UseSSL:    cfg.BlobUseSSL,
		})
		if blobErr != nil {
			_ = redisClient.Close()
			_ = sqlDB.Close()
			return nil, blobErr
		}
		if ensureErr := minioStore.EnsureBucket(ctx); ensureErr != nil {
			_ = redisClient.Close()
			_ = sqlDB.Close()
			return nil, ensureErr
		}
		blobStore = minioStore
	} else {
		logger.WarnContext(ctx, "no blob endpoint configured, using in-memory blob store")
		blobStore = blob.NewMemoryStore()
	}

	hub := eventadapter.NewHub(logger)
	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			domain.EventTypeStatusChanged: cfg.KafkaTopicStatusChanged,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:            cfg.ServiceID,
			RecordCacheTTL:         cfg.RecordCacheTTL,
			ListCacheTTL:           cfg.ListCacheTTL,
			AuditBusinessRetention: cfg.AuditBusinessRetention,
			AuditSecurityRetention: cfg.AuditSecurityRetention,
		},
		Ledger:    gateway,
		Cache:     cacheStore,
		Audit:     auditRepo,
		Notifier:  hub,
		Publisher: publisher,
		Blobs:     blobStore,
		Logger:    logger,
	})

	handler := httpadapter.NewHandler(service, hub, logger)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	sweeper := postgres.NewRetentionWorker(logger, auditRepo, cfg.AuditSweepInterval, cfg.AuditBusinessRetention, cfg.AuditSecurityRetention)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		sweeper:    sweeper,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := r.sweeper.Run(ctx)
	r.cleanupFn(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
