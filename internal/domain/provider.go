package domain

import "time"

// HealthStatus is the tri-state health signal tracked per provider (§3).
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ProviderHealth is the continuously-updated routing signal for one
// provider instance (§3).
type ProviderHealth struct {
	ProviderID          string
	Status              HealthStatus
	EWMALatencyMillis    float64
	ErrorRate            float64
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheck            time.Time
}

// CircuitPhase is the three-state circuit breaker phase from §3/§4.2.
type CircuitPhase string

const (
	CircuitClosed   CircuitPhase = "closed"
	CircuitOpen     CircuitPhase = "open"
	CircuitHalfOpen CircuitPhase = "half_open"
)

// CircuitState is the per-provider breaker state (§3).
type CircuitState struct {
	ProviderID     string
	Phase          CircuitPhase
	OpenedAt       time.Time
	FailureCount   int
	SuccessCount   int
}

// CostLedgerEntry tracks usage for one provider (§3).
type CostLedgerEntry struct {
	ProviderID      string
	UnitsConsumed   float64
	UnitType        string
	MonetaryEstimate float64
	BudgetCeiling    float64
	PeriodStart      time.Time
}
