package routing

import (
	"sync"
	"time"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// costPeriod is the fixed reset window for budget ceilings (§4.2:
// "Windows reset on a fixed period (e.g., monthly)").
const costPeriod = 30 * 24 * time.Hour

// costEntry accumulates usage for one provider within the current period.
type costEntry struct {
	mu            sync.Mutex
	profile       CostProfile
	unitsConsumed float64
	periodStart   time.Time
}

// costLedger implements the CostLedger of §4.2: per-provider usage
// accounting with a pre-dispatch budget check.
type costLedger struct {
	mu      sync.RWMutex
	entries map[string]*costEntry
}

func newCostLedger() *costLedger {
	return &costLedger{entries: make(map[string]*costEntry)}
}

func (c *costLedger) register(id string, profile CostProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok {
		return
	}
	c.entries[id] = &costEntry{profile: profile, periodStart: time.Now()}
}

func (c *costLedger) entry(id string) *costEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// projectedCost returns cost = max(0, units - free_tier_remaining) × unit_price,
// rolling the period over if it has elapsed.
func (c *costLedger) projectedCost(id string, additionalUnits float64) float64 {
	e := c.entry(id)
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollPeriodLocked()

	freeRemaining := e.profile.FreeTierUnits - e.unitsConsumed
	if freeRemaining < 0 {
		freeRemaining = 0
	}
	billable := additionalUnits - freeRemaining
	if billable < 0 {
		billable = 0
	}
	return billable * e.profile.UnitPrice
}

func (e *costEntry) rollPeriodLocked() {
	if time.Since(e.periodStart) >= costPeriod {
		e.unitsConsumed = 0
		e.periodStart = time.Now()
	}
}

// CheckBudget returns BudgetExceeded if dispatching a call of the given
// estimated size would cross the provider's configured ceiling, before
// any call is made (§4.2: "the router refuses ... before dispatch").
func (c *costLedger) CheckBudget(id string, estimatedUnits float64) error {
	e := c.entry(id)
	if e == nil || e.profile.BudgetCeiling <= 0 {
		return nil
	}
	e.mu.Lock()
	e.rollPeriodLocked()
	projected := e.unitsConsumed + estimatedUnits
	ceiling := e.profile.BudgetCeiling
	e.mu.Unlock()

	if projected > ceiling {
		return cerr.New(cerr.BudgetExceeded, "router.call", "budget ceiling would be exceeded").WithProvider(id)
	}
	return nil
}

// RecordUsage accounts a successful call's reported usage.
func (c *costLedger) RecordUsage(id string, usage Usage) {
	e := c.entry(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollPeriodLocked()
	e.unitsConsumed += usage.Units
}

func (c *costLedger) snapshot(id string) domain.CostLedgerEntry {
	e := c.entry(id)
	if e == nil {
		return domain.CostLedgerEntry{ProviderID: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CostLedgerEntry{
		ProviderID:       id,
		UnitsConsumed:    e.unitsConsumed,
		UnitType:         e.profile.UnitType,
		MonetaryEstimate: e.unitsConsumed * e.profile.UnitPrice,
		BudgetCeiling:    e.profile.BudgetCeiling,
		PeriodStart:      e.periodStart,
	}
}
