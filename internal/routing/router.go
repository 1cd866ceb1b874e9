package routing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// requestIDKey is the context key routing.Call attaches each attempt's
// request id under, grounded on the teacher's uuid.New().String() id
// minting idiom (internal/storage/*.go, internal/indexer/graph_updater.go),
// generalized from entity ids to a per-attempt tracing id.
type requestIDKey struct{}

// RequestID extracts the request id routing.Call minted for the current
// attempt, for providers or callbacks that want to correlate logs or
// error reports across an attempt.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// registration is one provider's bound state inside the router.
type registration[P any] struct {
	id       string
	provider P
	priority int
	profile  CostProfile
	order    int
}

// Router is the generic ProviderRouter[P] of §4.2, parameterized over a
// provider kind (EmbeddingProvider or VectorStoreProvider). Two
// instances exist at runtime, one per kind, per §4.2's "two instances
// exist at runtime".
type Router[P any] struct {
	mu    sync.RWMutex
	regs  map[string]*registration[P]
	order int

	health         *healthMonitor
	circuits       *circuitRegistry
	cost           *costLedger
	defaults       routerDefaults
	healthInterval time.Duration
}

// Options configures a Router's thresholds and defaults.
type Options struct {
	Strategy          StrategyKind
	MaxAttempts       int
	PerAttemptTimeout time.Duration
	TotalDeadline     time.Duration
	FailureThreshold  int // health + circuit breaker trip threshold
	SuccessThreshold  int // health + circuit breaker recovery threshold
	RecoveryTimeout   time.Duration
	EWMAAlpha         float64       // health monitor latency smoothing factor, §4.2
	HealthInterval    time.Duration // background liveness probe cadence, §4.2; zero disables the loop
}

// DefaultOptions returns reasonable defaults for either provider kind.
func DefaultOptions() Options {
	return Options{
		Strategy:          StrategyPriority,
		MaxAttempts:       3,
		PerAttemptTimeout: 10 * time.Second,
		TotalDeadline:     30 * time.Second,
		FailureThreshold:  3,
		SuccessThreshold:  2,
		RecoveryTimeout:   30 * time.Second,
		EWMAAlpha:         defaultEWMAAlpha,
		HealthInterval:    30 * time.Second,
	}
}

// NewRouter constructs a Router for one provider kind.
func NewRouter[P any](opts Options) *Router[P] {
	return &Router[P]{
		regs:           make(map[string]*registration[P]),
		health:         newHealthMonitor(opts.FailureThreshold, opts.SuccessThreshold, opts.EWMAAlpha),
		circuits:       newCircuitRegistry(opts.FailureThreshold, opts.SuccessThreshold, opts.RecoveryTimeout),
		cost:           newCostLedger(),
		healthInterval: opts.HealthInterval,
		defaults: routerDefaults{
			strategy:          opts.Strategy,
			maxAttempts:       opts.MaxAttempts,
			perAttemptTimeout: opts.PerAttemptTimeout,
			totalDeadline:     opts.TotalDeadline,
		},
	}
}

// Register implements register(name, provider, cost_profile, priority).
// Re-registering an existing id replaces the provider and profile but
// keeps accumulated health/circuit/cost state.
func (r *Router[P]) Register(id string, provider P, profile CostProfile, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, exists := r.regs[id]
	if !exists {
		r.order++
		reg = &registration[P]{id: id, order: r.order}
		r.regs[id] = reg
	}
	reg.provider = provider
	reg.priority = priority
	reg.profile = profile
	r.cost.register(id, profile)
}

// Unregister removes a provider from future selection.
func (r *Router[P]) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.regs, id)
}

// ProviderStatus is one row of the status() snapshot.
type ProviderStatus struct {
	Health  domain.ProviderHealth
	Circuit domain.CircuitState
	Cost    domain.CostLedgerEntry
}

// Status implements status() -> snapshot of health + costs.
func (r *Router[P]) Status() map[string]ProviderStatus {
	r.mu.RLock()
	ids := make([]string, 0, len(r.regs))
	for id := range r.regs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	out := make(map[string]ProviderStatus, len(ids))
	for _, id := range ids {
		out[id] = ProviderStatus{
			Health:  r.health.snapshot(id),
			Circuit: r.circuits.snapshot(id),
			Cost:    r.cost.snapshot(id),
		}
	}
	return out
}

// Probe runs fn as a background liveness check for id and records its
// result against the health monitor, independent of Call's failover
// bookkeeping — the §4.2 "Health monitor ... invokes a cheap liveness
// probe" loop.
func (r *Router[P]) Probe(id string, fn func() error) {
	start := time.Now()
	err := fn()
	r.health.RecordResult(id, time.Since(start), err)
}

// prober is satisfied by both provider kinds' Probe(ctx) method; it
// lets probeAll call Probe without constraining Router's own type
// parameter (Call's generic signature already relies on P being
// unconstrained).
type prober interface {
	Probe(context.Context) error
}

// StartHealthLoop runs §4.2's background liveness-probe loop in its own
// goroutine, invoking every registered provider's Probe method on
// HealthInterval until ctx is cancelled. A non-positive HealthInterval
// disables the loop entirely (the zero value, as in tests that never
// call this).
func (r *Router[P]) StartHealthLoop(ctx context.Context) {
	if r.healthInterval <= 0 {
		return
	}
	go r.runHealthLoop(ctx)
}

func (r *Router[P]) runHealthLoop(ctx context.Context) {
	ticker := time.NewTicker(r.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.probeAll(ctx)
		}
	}
}

func (r *Router[P]) probeAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.regs))
	providers := make([]P, 0, len(r.regs))
	for id, reg := range r.regs {
		ids = append(ids, id)
		providers = append(providers, reg.provider)
	}
	timeout := r.defaults.perAttemptTimeout
	r.mu.RUnlock()

	for i, id := range ids {
		p, ok := any(providers[i]).(prober)
		if !ok {
			continue
		}
		id, p := id, p
		r.Probe(id, func() error {
			probeCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				probeCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return p.Probe(probeCtx)
		})
	}
}

func (r *Router[P]) snapshotCandidates(opts CallOptions) []candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]*registration[P], 0, len(r.regs))
	for _, reg := range r.regs {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].order < regs[j].order })

	cands := make([]candidate, 0, len(regs))
	for _, reg := range regs {
		h := r.health.snapshot(reg.id)
		cands = append(cands, candidate{
			id:       reg.id,
			priority: reg.priority,
			healthy:  h.Status != domain.HealthUnhealthy,
			latency:  h.EWMALatencyMillis,
			cost:     r.cost.projectedCost(reg.id, opts.EstimatedUnits),
		})
	}
	return cands
}

func (r *Router[P]) providerFor(id string) (P, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[id]
	if !ok {
		var zero P
		return zero, false
	}
	return reg.provider, true
}

// attachRequestID tags a *cerr.Error with the attempt's request id so a
// caller can correlate a failed attempt's error with the id a provider
// or a log line reports via RequestID(ctx). Errors a provider returns
// that aren't *cerr.Error (a provider should always use cerr, but
// nothing enforces it at the interface level) pass through unchanged.
func attachRequestID(err error, requestID string) error {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		ce.WithRequestID(requestID)
	}
	return err
}

// Call implements call(request, context) of §4.2. fn is invoked with the
// selected provider instance and must report Usage on success. Call is a
// free function (not a method) because Go methods cannot introduce a
// fresh type parameter beyond the receiver's.
func Call[P any, R any](ctx context.Context, r *Router[P], opts CallOptions, fn func(context.Context, P) (R, Usage, error)) (R, error) {
	var zero R
	opts = opts.withDefaults(&r.defaults)

	if opts.TotalDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TotalDeadline)
		defer cancel()
	}

	candidates := orderCandidates(r.snapshotCandidates(opts), opts.Strategy, opts.UseCase)
	if len(candidates) == 0 {
		return zero, cerr.New(cerr.AllProvidersDown, "router.call", "no providers registered")
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = len(candidates)
	}

	var lastErr error
	var lastRequestID string
	attempts := 0
	for _, id := range candidates {
		if attempts >= maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, cerr.Wrap(cerr.Cancelled, "router.call", "context cancelled", ctx.Err())
		default:
		}

		if !r.circuits.allow(id) {
			lastErr = circuitOpenErr(id)
			continue
		}
		if err := r.cost.CheckBudget(id, opts.EstimatedUnits); err != nil {
			lastErr = err
			continue
		}

		provider, ok := r.providerFor(id)
		if !ok {
			continue
		}

		attempts++
		requestID := uuid.New().String()
		attemptCtx := context.WithValue(ctx, requestIDKey{}, requestID)
		var cancel context.CancelFunc
		if opts.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(attemptCtx, opts.PerAttemptTimeout)
		}
		start := time.Now()
		result, usage, err := fn(attemptCtx, provider)
		if cancel != nil {
			cancel()
		}
		latency := time.Since(start)

		r.health.RecordResult(id, latency, err)
		if err != nil {
			err = attachRequestID(err, requestID)
			r.circuits.recordFailure(id)
			lastErr = err
			lastRequestID = requestID
			if cerr.IsTransient(err) {
				continue
			}
			return zero, err
		}

		r.circuits.recordSuccess(id)
		r.cost.RecordUsage(id, usage)
		return result, nil
	}

	if lastErr != nil && !cerr.IsTransient(lastErr) && cerr.KindOf(lastErr) != cerr.CircuitOpen && cerr.KindOf(lastErr) != cerr.BudgetExceeded {
		return zero, lastErr
	}
	if lastErr != nil && cerr.KindOf(lastErr) == cerr.BudgetExceeded && attempts == 0 {
		return zero, lastErr
	}
	return zero, cerr.Wrap(cerr.AllProvidersDown, "router.call", "all providers exhausted", lastErr).WithRequestID(lastRequestID)
}
