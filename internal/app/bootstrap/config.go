package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL      string
	RedisURL         string
	LedgerGatewayURL string
	KafkaBrokers     []string

	KafkaTopicStatusChanged string

	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobBucket    string
	BlobRegion    string
	BlobUseSSL    bool

	MaxDBConns int32

	RecordCacheTTL time.Duration
	ListCacheTTL   time.Duration

	SubmitMaxRetries        int
	QueryMaxRetries         int
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerCooldown         time.Duration
	LedgerAttemptTimeout    time.Duration

	AuditBusinessRetention time.Duration
	AuditSecurityRetention time.Duration
	AuditSweepInterval     time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL             string   `yaml:"postgres_url"`
		RedisURL                string   `yaml:"redis_url"`
		LedgerGatewayURL        string   `yaml:"ledger_gateway_url"`
		KafkaBrokers            []string `yaml:"kafka_brokers"`
		KafkaTopicStatusChanged string   `yaml:"kafka_topic_status_changed"`
		BlobEndpoint            string   `yaml:"blob_endpoint"`
		BlobAccessKey           string   `yaml:"blob_access_key"`
		BlobSecretKey           string   `yaml:"blob_secret_key"`
		BlobBucket              string   `yaml:"blob_bucket"`
		BlobRegion              string   `yaml:"blob_region"`
		BlobUseSSL              bool     `yaml:"blob_use_ssl"`
	} `yaml:"dependencies"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:               "exportflow",
		HTTPPort:                8080,
		GRPCPort:                9090,
		KafkaTopicStatusChanged: "export.status_changed",
		BlobBucket:              "export-documents",
		MaxDBConns:              20,
		RecordCacheTTL:          30 * time.Second,
		ListCacheTTL:            2 * time.Minute,
		SubmitMaxRetries:        3,
		QueryMaxRetries:         5,
		BreakerFailureThreshold: 5,
		BreakerSuccessThreshold: 2,
		BreakerCooldown:         time.Minute,
		LedgerAttemptTimeout:    10 * time.Second,
		AuditBusinessRetention:  90 * 24 * time.Hour,
		AuditSecurityRetention:  365 * 24 * time.Hour,
		AuditSweepInterval:      time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.LedgerGatewayURL != "" {
			cfg.LedgerGatewayURL = f.Dependencies.LedgerGatewayURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopicStatusChanged != "" {
			cfg.KafkaTopicStatusChanged = f.Dependencies.KafkaTopicStatusChanged
		}
		if f.Dependencies.BlobEndpoint != "" {
			cfg.BlobEndpoint = f.Dependencies.BlobEndpoint
		}
		if f.Dependencies.BlobAccessKey != "" {
			cfg.BlobAccessKey = f.Dependencies.BlobAccessKey
		}
		if f.Dependencies.BlobSecretKey != "" {
			cfg.BlobSecretKey = f.Dependencies.BlobSecretKey
		}
		if f.Dependencies.BlobBucket != "" {
			cfg.BlobBucket = f.Dependencies.BlobBucket
		}
		cfg.BlobRegion = f.Dependencies.BlobRegion
		cfg.BlobUseSSL = f.Dependencies.BlobUseSSL
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.LedgerGatewayURL = envOrDefault("LEDGER_GATEWAY_URL", cfg.LedgerGatewayURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicStatusChanged = envOrDefault("KAFKA_TOPIC_STATUS_CHANGED", cfg.KafkaTopicStatusChanged)
	cfg.BlobEndpoint = envOrDefault("BLOB_ENDPOINT", cfg.BlobEndpoint)
	cfg.BlobAccessKey = envOrDefault("BLOB_ACCESS_KEY", cfg.BlobAccessKey)
	cfg.BlobSecretKey = envOrDefault("BLOB_SECRET_KEY", cfg.BlobSecretKey)
	cfg.BlobBucket = envOrDefault("BLOB_BUCKET", cfg.BlobBucket)
	cfg.BlobRegion = envOrDefault("BLOB_REGION", cfg.BlobRegion)
	cfg.BlobUseSSL = envBool("BLOB_USE_SSL", cfg.BlobUseSSL)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RecordCacheTTL = time.Duration(envInt("RECORD_CACHE_SECONDS", int(cfg.RecordCacheTTL.Seconds()))) * time.Second
	cfg.ListCacheTTL = time.Duration(envInt("LIST_CACHE_SECONDS", int(cfg.ListCacheTTL.Seconds()))) * time.Second
	cfg.SubmitMaxRetries = envInt("LEDGER_SUBMIT_MAX_RETRIES", cfg.SubmitMaxRetries)
	cfg.QueryMaxRetries = envInt("LEDGER_QUERY_MAX_RETRIES", cfg.QueryMaxRetries)
	cfg.BreakerFailureThreshold = envInt("BREAKER_FAILURE_THRESHOLD", cfg.BreakerFailureThreshold)
	cfg.BreakerSuccessThreshold = envInt("BREAKER_SUCCESS_THRESHOLD", cfg.BreakerSuccessThreshold)
	cfg.BreakerCooldown = time.Duration(envInt("BREAKER_COOLDOWN_SECONDS", int(cfg.BreakerCooldown.Seconds()))) * time.Second
	cfg.LedgerAttemptTimeout = time.Duration(envInt("LEDGER_ATTEMPT_TIMEOUT_SECONDS", int(cfg.LedgerAttemptTimeout.Seconds()))) * time.Second
	cfg.AuditBusinessRetention = time.Duration(envInt("AUDIT_BUSINESS_RETENTION_DAYS", int(cfg.AuditBusinessRetention.Hours()/24))) * 24 * time.Hour
	cfg.AuditSecurityRetention = time.Duration(envInt("AUDIT_SECURITY_RETENTION_DAYS", int(cfg.AuditSecurityRetention.Hours()/24))) * 24 * time.Hour
	cfg.AuditSweepInterval = time.Duration(envInt("AUDIT_SWEEP_MINUTES", int(cfg.AuditSweepInterval.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
