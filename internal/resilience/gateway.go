// Package resilience wraps the ledger client with retry, timeout and
// circuit-breaker policy. All ledger access of the orchestration core, reads
// and writes alike, flows through the Gateway.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/observability"
	"github.com/cafetrace/exportflow/internal/ports"
)

// GatewayConfig tunes the resilient ledger gateway.
type GatewayConfig struct {
	QueryRetry     RetryPolicy
	SubmitRetry    RetryPolicy
	Breaker        BreakerConfig
	AttemptTimeout time.Duration
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		QueryRetry:     DefaultQueryRetry(),
		SubmitRetry:    DefaultSubmitRetry(),
		Breaker:        DefaultBreaker(),
		AttemptTimeout: 10 * time.Second,
	}
}

// Gateway implements ports.LedgerClient around another client. Transport
// failures are retried with backoff; business errors propagate immediately.
// Submits additionally run under a per-operation circuit breaker.
type Gateway struct {
	client  ports.LedgerClient
	cfg     GatewayConfig
	logger  *slog.Logger
	nowFn   func() time.Time
	sleepFn func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	rng      *rand.Rand
	breakers map[string]*CircuitBreaker
}

func NewGateway(client ports.LedgerClient, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if cfg.QueryRetry.InitialDelay <= 0 {
		cfg.QueryRetry = DefaultQueryRetry()
	}
	if cfg.SubmitRetry.InitialDelay <= 0 {
		cfg.SubmitRetry = DefaultSubmitRetry()
	}
	return &Gateway{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		nowFn:    time.Now,
		sleepFn:  sleepContext,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Evaluate runs a read-only query with retry.
func (g *Gateway) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return g.execute(ctx, fn, g.cfg.QueryRetry, nil, func(ctx context.Context) ([]byte, error) {
		return g.client.Evaluate(ctx, fn, args...)
	})
}

// Submit runs a state-changing transaction with retry under the operation's
// circuit breaker.
func (g *Gateway) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return g.execute(ctx, fn, g.cfg.SubmitRetry, g.breaker(fn), func(ctx context.Context) ([]byte, error) {
		return g.client.Submit(ctx, fn, args...)
	})
}

func (g *Gateway) execute(ctx context.Context, op string, policy RetryPolicy, breaker *CircuitBreaker, call func(context.Context) ([]byte, error)) ([]byte, error) {
	if breaker != nil {
		if err := breaker.Allow(); err != nil {
			observability.BreakerOpen.WithLabelValues(op).Set(1)
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			observability.LedgerRetriesTotal.WithLabelValues(op).Inc()
			delay := g.delay(policy, attempt)
			if err := g.sleepFn(ctx, delay); err != nil {
				g.recordFailure(op, breaker)
				return nil, fmt.Errorf("%w: %s interrupted: %v", domain.ErrServiceUnavailable, op, err)
			}
			g.logger.WarnContext(ctx, "retrying ledger operation",
				"module", "resilience.gateway",
				"operation", op,
				"attempt", attempt,
				"max_retries", policy.MaxRetries,
			)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		out, err := call(attemptCtx)
		cancel()
		if err == nil {
			g.recordSuccess(op, breaker)
			return out, nil
		}
		if domain.IsBusinessError(err) {
			// The ledger was reached and said no; transport is healthy.
			g.recordSuccess(op, breaker)
			return nil, err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	g.recordFailure(op, breaker)
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrServiceUnavailable, op, lastErr)
}

func (g *Gateway) breaker(op string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[op]
	if !ok {
		b = NewCircuitBreaker(op, g.cfg.Breaker, g.nowFn)
		g.breakers[op] = b
	}
	return b
}

func (g *Gateway) recordSuccess(op string, breaker *CircuitBreaker) {
	if breaker == nil {
		return
	}
	breaker.RecordSuccess()
	if breaker.State() == "closed" {
		observability.BreakerOpen.WithLabelValues(op).Set(0)
	}
}

func (g *Gateway) recordFailure(op string, breaker *CircuitBreaker) {
	if breaker == nil {
		return
	}
	breaker.RecordFailure()
	if breaker.State() == "open" {
		observability.BreakerOpen.WithLabelValues(op).Set(1)
		g.logger.Error("circuit breaker opened",
			"module", "resilience.gateway",
			"operation", op,
		)
	}
}

func (g *Gateway) delay(policy RetryPolicy, attempt int) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return policy.Delay(attempt, g.rng)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
