package routing

import (
	"sync"
	"time"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// breaker is one provider's circuit breaker state, generalizing the
// teacher's single-instance CircuitBreaker (internal/errors/circuit.go)
// to the three explicit phases named in §4.2 with a consecutive-failure
// counter (reset on success) and a half-open single-probe gate.
type breaker struct {
	mu               sync.Mutex
	phase            domain.CircuitPhase
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration
	failures         int
	successes        int
	openedAt         time.Time
	halfOpenInFlight bool
}

func newBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *breaker {
	return &breaker{
		phase:            domain.CircuitClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

// Allow reports whether a call may proceed, transitioning Open->HalfOpen
// once recoveryTimeout has elapsed and reserving the single concurrent
// half-open probe slot.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case domain.CircuitClosed:
		return true
	case domain.CircuitHalfOpen:
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	default: // Open
		if time.Since(b.openedAt) >= b.recoveryTimeout {
			b.phase = domain.CircuitHalfOpen
			b.halfOpenInFlight = true
			return true
		}
		return false
	}
}

func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case domain.CircuitHalfOpen:
		b.phase = domain.CircuitClosed
		b.failures = 0
		b.successes = 0
		b.halfOpenInFlight = false
	case domain.CircuitClosed:
		b.failures = 0
	}
}

func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case domain.CircuitHalfOpen:
		b.phase = domain.CircuitOpen
		b.openedAt = time.Now()
		b.halfOpenInFlight = false
		b.failures = 0
	case domain.CircuitClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.phase = domain.CircuitOpen
			b.openedAt = time.Now()
		}
	}
}

func (b *breaker) snapshot(providerID string) domain.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.CircuitState{
		ProviderID:   providerID,
		Phase:        b.phase,
		OpenedAt:     b.openedAt,
		FailureCount: b.failures,
		SuccessCount: b.successes,
	}
}

// circuitRegistry keys a breaker per provider id.
type circuitRegistry struct {
	mu               sync.RWMutex
	breakers         map[string]*breaker
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration
}

func newCircuitRegistry(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *circuitRegistry {
	return &circuitRegistry{
		breakers:         make(map[string]*breaker),
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

func (c *circuitRegistry) get(id string) *breaker {
	c.mu.RLock()
	b, ok := c.breakers[id]
	c.mu.RUnlock()
	if ok {
		return b
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.breakers[id]; ok {
		return b
	}
	b = newBreaker(c.failureThreshold, c.successThreshold, c.recoveryTimeout)
	c.breakers[id] = b
	return b
}

func (c *circuitRegistry) allow(id string) bool { return c.get(id).Allow() }

func (c *circuitRegistry) recordSuccess(id string) { c.get(id).RecordSuccess() }

func (c *circuitRegistry) recordFailure(id string) { c.get(id).RecordFailure() }

func (c *circuitRegistry) snapshot(id string) domain.CircuitState { return c.get(id).snapshot(id) }

// circuitOpenErr is returned by Call when the chosen candidate's breaker
// rejects the attempt.
func circuitOpenErr(providerID string) error {
	return cerr.New(cerr.CircuitOpen, "router.call", "circuit open").WithProvider(providerID)
}
