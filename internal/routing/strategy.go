package routing

import "sort"

// candidate is the ordering input for a selection strategy: a provider
// id plus the signals strategies choose among.
type candidate struct {
	id       string
	priority int
	healthy  bool
	latency  float64 // EWMA millis; 0 if unmeasured
	cost     float64 // projected cost for the requested call size
}

// orderCandidates returns candidate ids ranked best-first under the
// requested strategy (§4.2's selection-strategy table). Ties keep
// registration order, which candidates are already sorted into before
// this call.
func orderCandidates(cands []candidate, kind StrategyKind, useCase string) []string {
	ranked := make([]candidate, len(cands))
	copy(ranked, cands)

	switch kind {
	case StrategyFastest:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].latency != ranked[j].latency {
				return ranked[i].latency < ranked[j].latency
			}
			return ranked[i].priority < ranked[j].priority
		})
	case StrategyCheapest:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].cost != ranked[j].cost {
				return ranked[i].cost < ranked[j].cost
			}
			return ranked[i].priority < ranked[j].priority
		})
	case StrategyLoadBalanced:
		// Weighted round-robin approximated by sorting on inverse latency
		// (higher weight first); unmeasured (0-latency) candidates sort
		// first so every provider gets an initial probe.
		sort.SliceStable(ranked, func(i, j int) bool {
			wi, wj := inverseLatencyWeight(ranked[i].latency), inverseLatencyWeight(ranked[j].latency)
			if wi != wj {
				return wi > wj
			}
			return ranked[i].priority < ranked[j].priority
		})
	case StrategyContextual:
		// "bulk" favors Cheapest, anything else (including "interactive")
		// favors Fastest — the two concrete strategies named in §4.2's
		// example.
		if useCase == "bulk" {
			return orderCandidates(cands, StrategyCheapest, "")
		}
		return orderCandidates(cands, StrategyFastest, "")
	default: // StrategyPriority
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].priority != ranked[j].priority {
				return ranked[i].priority < ranked[j].priority
			}
			return ranked[i].healthy && !ranked[j].healthy
		})
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.id
	}
	return ids
}

func inverseLatencyWeight(latencyMillis float64) float64 {
	if latencyMillis <= 0 {
		return 1e9 // unmeasured: try first
	}
	return 1.0 / latencyMillis
}
