package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

type scriptedClient struct {
	errs  []error
	out   []byte
	calls int
}

func (c *scriptedClient) next() ([]byte, error) {
	var err error
	if c.calls < len(c.errs) {
		err = c.errs[c.calls]
	}
	c.calls++
	if err != nil {
		return nil, err
	}
	return c.out, nil
}

func (c *scriptedClient) Evaluate(context.Context, string, ...string) ([]byte, error) {
	return c.next()
}

func (c *scriptedClient) Submit(context.Context, string, ...string) ([]byte, error) {
	return c.next()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(client ports.LedgerClient, cfg GatewayConfig) (*Gateway, *[]time.Duration, *fakeClock) {
	g := NewGateway(client, cfg, testLogger())
	sleeps := &[]time.Duration{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	g.nowFn = clock.Now
	g.sleepFn = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return g, sleeps, clock
}

func TestGatewayRetriesTransportFailures(t *testing.T) {
	t.Parallel()

	transport := fmt.Errorf("connection refused")
	client := &scriptedClient{errs: []error{transport, transport, nil}, out: []byte(`{"ok":true}`)}
	g, sleeps, _ := newTestGateway(client, DefaultGatewayConfig())

	out, err := g.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-1")
	if err != nil {
		t.Fatalf("expected recovery after retries: %v", err)
	}
	if string(out) != `{"ok":true}` {
		t.Fatalf("unexpected payload %s", out)
	}
	if client.calls != 3 {
		t.Fatalf("calls = %d, want 3", client.calls)
	}
	if len(*sleeps) != 2 {
		t.Fatalf("backoff sleeps = %d, want 2", len(*sleeps))
	}
	for i, d := range *sleeps {
		if d <= 0 {
			t.Fatalf("sleep %d not positive: %v", i, d)
		}
	}
}

func TestRetryPolicyBackoffDoublesUpToCap(t *testing.T) {
	t.Parallel()

	policy := DefaultSubmitRetry()
	for attempt := 1; attempt <= 10; attempt++ {
		d := policy.Delay(attempt, nil)
		want := time.Duration(float64(policy.InitialDelay) * pow(policy.Multiplier, attempt-1))
		if want > policy.MaxDelay {
			want = policy.MaxDelay
		}
		if d != want {
			t.Fatalf("attempt %d delay without jitter = %v, want %v", attempt, d, want)
		}
	}
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

func TestGatewayDoesNotRetryBusinessErrors(t *testing.T) {
	t.Parallel()

	conflict := fmt.Errorf("%w: EXP-1 version 4, submitted against 3", domain.ErrLedgerConflict)
	client := &scriptedClient{errs: []error{conflict}}
	g, sleeps, _ := newTestGateway(client, DefaultGatewayConfig())

	_, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}")
	if !errors.Is(err, domain.ErrLedgerConflict) {
		t.Fatalf("expected conflict to surface unchanged, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("business errors must not be retried, calls = %d", client.calls)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("no backoff expected for business errors, got %v", *sleeps)
	}
}

func TestGatewayExhaustionMapsToServiceUnavailable(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{errs: []error{
		fmt.Errorf("timeout"), fmt.Errorf("timeout"), fmt.Errorf("timeout"), fmt.Errorf("timeout"),
	}}
	g, _, _ := newTestGateway(client, DefaultGatewayConfig())

	_, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable after exhaustion, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Fatalf("exhaustion error should be retryable for the caller")
	}
	if client.calls != 4 {
		t.Fatalf("calls = %d, want initial attempt plus 3 retries", client.calls)
	}
}

func TestGatewayBreakerFailsFastWhileOpen(t *testing.T) {
	t.Parallel()

	cfg := DefaultGatewayConfig()
	cfg.Breaker = BreakerConfig{FailureThreshold: 2, SuccessThreshold: 2, Cooldown: time.Minute}
	transport := fmt.Errorf("connection reset")
	client := &scriptedClient{errs: []error{
		transport, transport, transport, transport,
		transport, transport, transport, transport,
	}}
	g, _, _ := newTestGateway(client, cfg)

	for i := 0; i < 2; i++ {
		if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); !errors.Is(err, domain.ErrServiceUnavailable) {
			t.Fatalf("attempt %d: expected exhaustion, got %v", i, err)
		}
	}
	callsBefore := client.calls

	_, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}")
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected fail-fast on open circuit, got %v", err)
	}
	if client.calls != callsBefore {
		t.Fatalf("open circuit must not reach the ledger: calls went %d -> %d", callsBefore, client.calls)
	}
}

func TestGatewayBreakerRecoversAfterCooldown(t *testing.T) {
	t.Parallel()

	cfg := DefaultGatewayConfig()
	cfg.Breaker = BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Minute}
	cfg.SubmitRetry = RetryPolicy{MaxRetries: 0, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}
	transport := fmt.Errorf("connection reset")
	client := &scriptedClient{errs: []error{transport, nil}, out: []byte(`{}`)}
	g, _, clock := newTestGateway(client, cfg)

	if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected initial failure, got %v", err)
	}
	if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	clock.Advance(61 * time.Second)
	if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); err != nil {
		t.Fatalf("probe after cooldown should succeed: %v", err)
	}
	if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); err != nil {
		t.Fatalf("closed circuit should pass traffic: %v", err)
	}
}

func TestGatewayQueriesBypassTheBreaker(t *testing.T) {
	t.Parallel()

	cfg := DefaultGatewayConfig()
	cfg.Breaker = BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Minute}
	cfg.SubmitRetry = RetryPolicy{MaxRetries: 0, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}
	cfg.QueryRetry = RetryPolicy{MaxRetries: 0, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}
	transport := fmt.Errorf("connection reset")
	client := &scriptedClient{errs: []error{transport, nil}, out: []byte(`{}`)}
	g, _, _ := newTestGateway(client, cfg)

	if _, err := g.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected submit failure, got %v", err)
	}
	if _, err := g.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-1"); err != nil {
		t.Fatalf("reads should not be gated by the submit breaker: %v", err)
	}
}
