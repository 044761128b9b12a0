package retrieval

import (
	"strings"
	"time"

	"github.com/mkoziel/vitrine/internal/corpus"
)

// BoostRule is a pure scoring rule: given a chunk and the query, it returns
// a multiplier applied to the similarity score. Rules are composed in order
// and the product is capped so no score exceeds 1.
type BoostRule struct {
	Name       string
	Multiplier func(c corpus.Chunk, query string, now time.Time) float64
}

// BoostConfig holds the rerank weight tables. All values are configuration
// data so they can be tuned without code changes.
type BoostConfig struct {
	ExactMatch float64                        `yaml:"exact_match"`
	Featured   float64                        `yaml:"featured"`
	Recency    []RecencyTier                  `yaml:"recency"`
	TypePriors map[corpus.ContentType]float64 `yaml:"type_priors"`
}

// RecencyTier boosts chunks younger than MaxAgeDays.
type RecencyTier struct {
	MaxAgeDays int     `yaml:"max_age_days"`
	Factor     float64 `yaml:"factor"`
}

// DefaultBoosts returns the built-in rerank weights.
func DefaultBoosts() BoostConfig {
	return BoostConfig{
		ExactMatch: 1.2,
		Featured:   1.1,
		Recency: []RecencyTier{
			{MaxAgeDays: 30, Factor: 1.15},
			{MaxAgeDays: 90, Factor: 1.1},
			{MaxAgeDays: 365, Factor: 1.05},
		},
		TypePriors: map[corpus.ContentType]float64{
			corpus.TypeExperiment: 1.1,
			corpus.TypeWork:       1.05,
			corpus.TypeTimeline:   1.0,
			corpus.TypeLeadership: 0.95,
			corpus.TypeContact:    0.9,
		},
	}
}

// Rules builds the ordered rule list from the weight tables.
func (cfg BoostConfig) Rules() []BoostRule {
	return []BoostRule{
		{Name: "exact_match", Multiplier: exactMatchRule(cfg.ExactMatch)},
		{Name: "featured", Multiplier: featuredRule(cfg.Featured)},
		{Name: "recency", Multiplier: recencyRule(cfg.Recency)},
		{Name: "type_prior", Multiplier: typePriorRule(cfg.TypePriors)},
	}
}

// exactMatchRule boosts chunks whose content identifier contains a query
// term (or vice versa), a strong signal the user named the item directly.
func exactMatchRule(factor float64) func(corpus.Chunk, string, time.Time) float64 {
	return func(c corpus.Chunk, query string, _ time.Time) float64 {
		id := strings.ToLower(c.Metadata.ContentID)
		if id == "" {
			return 1
		}
		for _, term := range strings.Fields(strings.ToLower(query)) {
			term = strings.Trim(term, "?!.,:;\"'")
			if len(term) < 3 {
				continue
			}
			if strings.Contains(id, term) || strings.Contains(term, id) {
				return factor
			}
		}
		return 1
	}
}

func featuredRule(factor float64) func(corpus.Chunk, string, time.Time) float64 {
	return func(c corpus.Chunk, _ string, _ time.Time) float64 {
		if c.Metadata.Featured {
			return factor
		}
		return 1
	}
}

// recencyRule applies the first tier whose age ceiling covers the chunk.
// Undated chunks get no boost.
func recencyRule(tiers []RecencyTier) func(corpus.Chunk, string, time.Time) float64 {
	return func(c corpus.Chunk, _ string, now time.Time) float64 {
		if c.Metadata.Date.IsZero() {
			return 1
		}
		age := now.Sub(c.Metadata.Date)
		for _, tier := range tiers {
			if age <= time.Duration(tier.MaxAgeDays)*24*time.Hour {
				return tier.Factor
			}
		}
		return 1
	}
}

func typePriorRule(priors map[corpus.ContentType]float64) func(corpus.Chunk, string, time.Time) float64 {
	return func(c corpus.Chunk, _ string, _ time.Time) float64 {
		if factor, ok := priors[c.Metadata.ContentType]; ok {
			return factor
		}
		return 1
	}
}

// applyBoosts runs the rule list over a score and caps the result at 1.
func applyBoosts(rules []BoostRule, score float64, c corpus.Chunk, query string, now time.Time) float64 {
	for _, rule := range rules {
		score *= rule.Multiplier(c, query, now)
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
