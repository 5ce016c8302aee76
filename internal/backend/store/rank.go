package store

import (
	"fmt"
	"sort"
	"strings"
)

// RankedCard is one entry of the suggestion ranking.
type RankedCard struct {
	CardName       string `json:"card_name"`
	ExpectedReward string `json:"expected_reward"`
	Reasoning      string `json:"reasoning"`
}

// Rank orders the given cards by best earn rate for the category in the
// given quarter (e.g. "Q3 2026"). The sort is stable, so equal-rate cards
// keep the order the user submitted — identical requests always rank
// identically.
func (s *MemoryStore) Rank(cards []string, category, quarter string) []RankedCard {
	quarterTag := strings.ToUpper(strings.SplitN(strings.TrimSpace(quarter), " ", 2)[0])

	type scored struct {
		card RankedCard
		rate float64
	}
	rules := s.Rules.List()
	ranked := make([]scored, 0, len(cards))
	for _, name := range cards {
		best := scored{card: RankedCard{CardName: name}}
		for _, rule := range rules {
			if !ruleMatches(rule, name, category, quarterTag) || rule.Rate <= best.rate {
				continue
			}
			best.rate = rule.Rate
			best.card.Reasoning = rule.Reasoning
		}
		best.card.ExpectedReward = fmt.Sprintf("%g%%", best.rate)
		ranked = append(ranked, best)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rate > ranked[j].rate
	})

	out := make([]RankedCard, len(ranked))
	for i, r := range ranked {
		out[i] = r.card
	}
	return out
}

func ruleMatches(rule RewardRule, cardName, category, quarterTag string) bool {
	if rule.CardPattern != "" && !strings.Contains(strings.ToLower(cardName), rule.CardPattern) {
		return false
	}
	if rule.Category != "" && rule.Category != category {
		return false
	}
	if rule.Quarter != "" && rule.Quarter != quarterTag {
		return false
	}
	return true
}
