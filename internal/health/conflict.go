package health

import (
	"fmt"
	"sort"

	"github.com/ignite/crm-atlas/internal/domain"
)

// DetectConflicts pairwise-compares every live flow against every other live
// flow and scores the message-fatigue risk of each pair. Pairs with no
// shared channel are fully mitigated and never appear in the output.
//
// Scoring is additive: +1 per shared channel, +2 when both flows send daily,
// +1 when both are event-triggered, +1 per flow missing a priority, +1 per
// flow missing suppression rules, +1 when both belong to the same product.
// Output is ordered by risk score descending, then by pair names ascending,
// so results are reproducible for a given flow set regardless of input
// order.
func DetectConflicts(flows []domain.Flow) []domain.FlowConflict {
	live := make([]domain.Flow, 0, len(flows))
	for _, f := range flows {
		if f.Live {
			live = append(live, f)
		}
	}

	// Compare each unordered pair once, in a name-stable order so the
	// (A, B) assignment itself is deterministic.
	sort.Slice(live, func(i, j int) bool {
		if live[i].Name != live[j].Name {
			return live[i].Name < live[j].Name
		}
		return live[i].ID < live[j].ID
	})

	var conflicts []domain.FlowConflict
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			if c, ok := scorePair(&live[i], &live[j]); ok {
				conflicts = append(conflicts, c)
			}
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].RiskScore != conflicts[j].RiskScore {
			return conflicts[i].RiskScore > conflicts[j].RiskScore
		}
		if conflicts[i].FlowAName != conflicts[j].FlowAName {
			return conflicts[i].FlowAName < conflicts[j].FlowAName
		}
		return conflicts[i].FlowBName < conflicts[j].FlowBName
	})

	return conflicts
}

func scorePair(a, b *domain.Flow) (domain.FlowConflict, bool) {
	shared := sharedChannels(a, b)
	if len(shared) == 0 {
		return domain.FlowConflict{}, false
	}

	score := 0
	var factors []string

	score += len(shared)
	if len(shared) == 1 {
		factors = append(factors, fmt.Sprintf("Both send on %s", shared[0]))
	} else {
		factors = append(factors, fmt.Sprintf("Both send on %d shared channels", len(shared)))
	}

	if a.SendsDaily() && b.SendsDaily() {
		score += 2
		factors = append(factors, "Both flows send daily")
	}

	if a.TriggerType == domain.TriggerEventBased && b.TriggerType == domain.TriggerEventBased {
		score++
		factors = append(factors, "Both are event-triggered (higher collision risk)")
	}

	for _, f := range []*domain.Flow{a, b} {
		if f.Priority == nil {
			score++
			factors = append(factors, fmt.Sprintf("%q has no priority set", f.Name))
		}
	}

	for _, f := range []*domain.Flow{a, b} {
		if !f.HasSuppressionRules() {
			score++
			factors = append(factors, fmt.Sprintf("%q has no suppression rules", f.Name))
		}
	}

	if a.ProductID == b.ProductID {
		score++
		factors = append(factors, "Same product")
	}

	return domain.FlowConflict{
		FlowAID:        a.ID,
		FlowAName:      a.Name,
		FlowBID:        b.ID,
		FlowBName:      b.Name,
		SharedChannels: shared,
		RiskScore:      score,
		RiskBand:       domain.BandForScore(score),
		RiskFactors:    factors,
	}, true
}

// sharedChannels returns the channel intersection in a's channel order,
// deduplicated.
func sharedChannels(a, b *domain.Flow) []domain.Channel {
	var shared []domain.Channel
	seen := make(map[domain.Channel]bool)
	for _, c := range a.Channels {
		if seen[c] {
			continue
		}
		if b.HasChannel(c) {
			shared = append(shared, c)
			seen[c] = true
		}
	}
	return shared
}
