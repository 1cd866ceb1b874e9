// Package routing implements the ProviderRouter of §4.2: a generic
// router parameterized over a provider kind (EmbeddingProvider or
// VectorStoreProvider), with health monitoring, a per-provider circuit
// breaker, cost tracking and pluggable selection strategies. Grounded on
// the teacher's only circuit-breaker implementation,
// Aman-CERP-amanmcp/internal/errors/circuit.go — generalized here from
// one named breaker to a per-provider-id registry, and from a single
// execute-with-fallback call to the full failover/strategy/budget policy
// of §4.2.
package routing

import "time"

// StrategyKind selects one of the five strategies enumerated in §4.2.
type StrategyKind string

const (
	StrategyPriority     StrategyKind = "priority"
	StrategyFastest      StrategyKind = "fastest"
	StrategyCheapest     StrategyKind = "cheapest"
	StrategyLoadBalanced StrategyKind = "load_balanced"
	StrategyContextual   StrategyKind = "contextual"
)

// CostProfile describes a provider's pricing for the CostLedger (§4.2
// "Cost tracking").
type CostProfile struct {
	UnitType      string
	UnitPrice     float64
	FreeTierUnits float64
	BudgetCeiling float64 // 0 means unbounded
}

// Usage is reported by the caller's callback after a successful call.
type Usage struct {
	Units    float64
	UnitType string
}

// CallOptions configures one Call invocation.
type CallOptions struct {
	Strategy          StrategyKind
	UseCase           string // "bulk" | "interactive", consumed by Contextual
	EstimatedUnits    float64
	MaxAttempts       int
	PerAttemptTimeout time.Duration
	TotalDeadline     time.Duration
}

// withDefaults fills zero-value fields with the router's configured
// defaults.
func (o CallOptions) withDefaults(r *routerDefaults) CallOptions {
	if o.Strategy == "" {
		o.Strategy = r.strategy
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = r.maxAttempts
	}
	if o.PerAttemptTimeout == 0 {
		o.PerAttemptTimeout = r.perAttemptTimeout
	}
	if o.TotalDeadline == 0 {
		o.TotalDeadline = r.totalDeadline
	}
	return o
}

type routerDefaults struct {
	strategy          StrategyKind
	maxAttempts       int
	perAttemptTimeout time.Duration
	totalDeadline     time.Duration
}
