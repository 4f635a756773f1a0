package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerConfig tunes one circuit breaker.
type BreakerConfig struct {
	// FailureThreshold consecutive transport failures open the circuit.
	FailureThreshold int
	// SuccessThreshold half-open successes close it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before a probe.
	Cooldown time.Duration
}

// DefaultBreaker matches the gateway defaults: 5 failures, 60s cooldown,
// 2 successful probes to close.
func DefaultBreaker() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, Cooldown: time.Minute}
}

// CircuitBreaker stops issuing calls to a failing operation for a cooldown
// window after repeated failures. While half-open it admits one probe at a
// time.
type CircuitBreaker struct {
	name  string
	cfg   BreakerConfig
	nowFn func() time.Time

	mu          sync.Mutex
	state       breakerState
	failures    int
	successes   int
	probing     bool
	nextAttempt time.Time
}

func NewCircuitBreaker(name string, cfg BreakerConfig, nowFn func() time.Time) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &CircuitBreaker{name: name, cfg: cfg, nowFn: nowFn}
}

// Allow reports whether a call may proceed. It returns ErrCircuitOpen while
// the circuit is open, and transitions to half-open once the cooldown has
// elapsed.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if b.nowFn().Before(b.nextAttempt) {
			return fmt.Errorf("%w: %s", domain.ErrCircuitOpen, b.name)
		}
		b.state = stateHalfOpen
		b.successes = 0
		b.probing = true
		return nil
	default: // half-open
		if b.probing {
			return fmt.Errorf("%w: %s probe in flight", domain.ErrCircuitOpen, b.name)
		}
		b.probing = true
		return nil
	}
}

// RecordSuccess notes a call that reached the ledger (including business
// rejections, which prove the transport is healthy).
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state == stateHalfOpen {
		b.probing = false
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = stateClosed
			b.successes = 0
		}
	}
}

// RecordFailure notes a transport failure; at the threshold the circuit
// opens, and any half-open failure reopens it immediately.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.state == stateHalfOpen {
		b.probing = false
		b.open()
		return
	}
	if b.failures >= b.cfg.FailureThreshold {
		b.open()
	}
}

func (b *CircuitBreaker) open() {
	b.state = stateOpen
	b.nextAttempt = b.nowFn().Add(b.cfg.Cooldown)
	b.successes = 0
}

// State returns the state name for logging and metrics.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
