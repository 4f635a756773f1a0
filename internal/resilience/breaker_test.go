package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker("PutExport", BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         time.Minute,
	}, clock.Now)
}

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		if err := b.Allow(); err != nil {
			t.Fatalf("circuit should stay closed after %d failures: %v", i+1, err)
		}
	}
	b.RecordFailure()
	if b.State() != "open" {
		t.Fatalf("state = %s after threshold, want open", b.State())
	}
	if err := b.Allow(); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("open circuit should fail fast, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := newTestBreaker(clock)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if b.State() != "closed" {
		t.Fatalf("state = %s, want closed: successes reset the consecutive count", b.State())
	}
}

func TestBreakerHalfOpenClosesAfterTwoSuccesses(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := newTestBreaker(clock)
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}

	clock.Advance(59 * time.Second)
	if err := b.Allow(); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("cooldown not elapsed yet, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("cooldown elapsed, probe should be admitted: %v", err)
	}
	if b.State() != "half_open" {
		t.Fatalf("state = %s, want half_open", b.State())
	}
	b.RecordSuccess()
	if b.State() != "half_open" {
		t.Fatalf("one success should not close the circuit, state = %s", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("second probe should be admitted: %v", err)
	}
	b.RecordSuccess()
	if b.State() != "closed" {
		t.Fatalf("state = %s after two successes, want closed", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := newTestBreaker(clock)
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	clock.Advance(61 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	b.RecordFailure()
	if b.State() != "open" {
		t.Fatalf("state = %s after half-open failure, want open", b.State())
	}
	if err := b.Allow(); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("reopened circuit should fail fast, got %v", err)
	}
}

func TestBreakerHalfOpenAdmitsOneProbeAtATime(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := newTestBreaker(clock)
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	clock.Advance(61 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe should be admitted: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("second concurrent probe should be refused, got %v", err)
	}
}
