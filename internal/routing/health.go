package routing

import (
	"sync"
	"time"

	"github.com/sourcelens/semcode/internal/domain"
)

// defaultEWMAAlpha is the exponential moving average smoothing factor
// §4.2 names as the default ("EWMA latency uses α = 0.2"); Options.EWMAAlpha
// (threaded from config's health.ewma_alpha) overrides it per Router.
const defaultEWMAAlpha = 0.2

// healthEntry is the mutable health record for one provider.
type healthEntry struct {
	mu                   sync.Mutex
	latencyMillis        float64
	latencySet           bool
	errorCount           int
	totalCount           int
	consecutiveFailures  int
	consecutiveSuccesses int
	lastCheck            time.Time
	status               domain.HealthStatus
}

// healthMonitor tracks ProviderHealth per provider id, generalizing the
// teacher's circuit breaker's plain failure counter into the richer
// signal §3/§4.2 require: EWMA latency, error rate, consecutive streaks
// and a tri-state status that degrades/recovers on configurable
// thresholds.
type healthMonitor struct {
	mu               sync.RWMutex
	entries          map[string]*healthEntry
	failureThreshold int
	successThreshold int
	alpha            float64
}

func newHealthMonitor(failureThreshold, successThreshold int, alpha float64) *healthMonitor {
	if alpha <= 0 {
		alpha = defaultEWMAAlpha
	}
	return &healthMonitor{
		entries:          make(map[string]*healthEntry),
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		alpha:            alpha,
	}
}

func (h *healthMonitor) entry(id string) *healthEntry {
	h.mu.RLock()
	e, ok := h.entries[id]
	h.mu.RUnlock()
	if ok {
		return e
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok = h.entries[id]; ok {
		return e
	}
	e = &healthEntry{status: domain.HealthHealthy}
	h.entries[id] = e
	return e
}

// RecordResult updates the health entry after a call attempt (or a
// background liveness probe) completes.
func (h *healthMonitor) RecordResult(id string, latency time.Duration, err error) {
	e := h.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	ms := float64(latency.Microseconds()) / 1000.0
	if !e.latencySet {
		e.latencyMillis = ms
		e.latencySet = true
	} else {
		e.latencyMillis = h.alpha*ms + (1-h.alpha)*e.latencyMillis
	}
	e.totalCount++
	e.lastCheck = time.Now()

	if err != nil {
		e.errorCount++
		e.consecutiveFailures++
		e.consecutiveSuccesses = 0
		if e.consecutiveFailures >= h.failureThreshold {
			e.status = domain.HealthUnhealthy
		} else if e.status == domain.HealthHealthy {
			e.status = domain.HealthDegraded
		}
		return
	}

	e.consecutiveSuccesses++
	e.consecutiveFailures = 0
	if e.consecutiveSuccesses >= h.successThreshold {
		e.status = domain.HealthHealthy
	}
}

func (h *healthMonitor) snapshot(id string) domain.ProviderHealth {
	e := h.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	errRate := 0.0
	if e.totalCount > 0 {
		errRate = float64(e.errorCount) / float64(e.totalCount)
	}
	return domain.ProviderHealth{
		ProviderID:           id,
		Status:               e.status,
		EWMALatencyMillis:    e.latencyMillis,
		ErrorRate:            errRate,
		ConsecutiveFailures:  e.consecutiveFailures,
		ConsecutiveSuccesses: e.consecutiveSuccesses,
		LastCheck:            e.lastCheck,
	}
}

func (h *healthMonitor) isHealthy(id string) bool {
	snap := h.snapshot(id)
	return snap.Status != domain.HealthUnhealthy
}
