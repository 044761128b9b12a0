// Package planner maps a classified query to a context size budget.
// The mapping is table-driven: base budgets per intent and complexity
// multipliers are plain data, tunable through configuration without
// touching control flow.
package planner

import (
	"math"

	"github.com/mkoziel/vitrine/internal/intent"
)

// SizeConfig is the planned context budget for one request.
// It is a pure value, immutable once computed.
type SizeConfig struct {
	MaxTokens      int     `yaml:"max_tokens"`
	ChunkCount     int     `yaml:"chunk_count"`
	DiversityBoost bool    `yaml:"diversity_boost"`
	QueryExpansion bool    `yaml:"query_expansion"`
	TopKMultiplier float64 `yaml:"top_k_multiplier"`
}

// Adjustment scales a base budget for a complexity tier.
type Adjustment struct {
	MaxTokens      float64 `yaml:"max_tokens"`
	ChunkCount     float64 `yaml:"chunk_count"`
	TopKMultiplier float64 `yaml:"top_k_multiplier"`
}

// Table holds the planning data: a base budget per intent and a multiplier
// set per complexity tier.
type Table struct {
	Base        map[intent.Intent]SizeConfig     `yaml:"base"`
	Adjustments map[intent.Complexity]Adjustment `yaml:"adjustments"`
}

// Floors applied after complexity scaling.
const (
	minMaxTokens      = 300
	minChunkCount     = 1
	minTopKMultiplier = 0.5
)

// DefaultTable returns the built-in planning table.
//
// Casual talk gets the smallest budget; factual questions a small precise
// one; exploration, comparison and synthesis get progressively larger
// budgets with diversity and query expansion enabled, since those intents
// benefit from broader evidence.
func DefaultTable() Table {
	return Table{
		Base: map[intent.Intent]SizeConfig{
			intent.IntentCasual: {
				MaxTokens: 400, ChunkCount: 2, TopKMultiplier: 1.0,
			},
			intent.IntentFactual: {
				MaxTokens: 600, ChunkCount: 3, TopKMultiplier: 1.0,
			},
			intent.IntentExploration: {
				MaxTokens: 1100, ChunkCount: 6, TopKMultiplier: 1.3,
				DiversityBoost: true, QueryExpansion: true,
			},
			intent.IntentComparison: {
				MaxTokens: 1600, ChunkCount: 8, TopKMultiplier: 1.5,
				DiversityBoost: true, QueryExpansion: true,
			},
			intent.IntentSynthesis: {
				MaxTokens: 1800, ChunkCount: 9, TopKMultiplier: 1.5,
				DiversityBoost: true, QueryExpansion: true,
			},
		},
		Adjustments: map[intent.Complexity]Adjustment{
			intent.ComplexityHigh:   {MaxTokens: 1.5, ChunkCount: 1.3, TopKMultiplier: 1.2},
			intent.ComplexityMedium: {MaxTokens: 1.0, ChunkCount: 1.0, TopKMultiplier: 1.0},
			intent.ComplexityLow:    {MaxTokens: 0.7, ChunkCount: 0.8, TopKMultiplier: 0.9},
		},
	}
}

// Planner derives a SizeConfig from a classification result.
// Pure and deterministic: the same input always yields the same budget.
type Planner struct {
	table Table
}

// New creates a Planner over the given table. Missing table entries fall
// back to the defaults, so a partial override table is valid.
func New(table Table) *Planner {
	def := DefaultTable()
	if table.Base == nil {
		table.Base = def.Base
	} else {
		for in, cfg := range def.Base {
			if _, ok := table.Base[in]; !ok {
				table.Base[in] = cfg
			}
		}
	}
	if table.Adjustments == nil {
		table.Adjustments = def.Adjustments
	} else {
		for tier, adj := range def.Adjustments {
			if _, ok := table.Adjustments[tier]; !ok {
				table.Adjustments[tier] = adj
			}
		}
	}
	return &Planner{table: table}
}

// Plan computes the context budget for a classified query.
func (p *Planner) Plan(res intent.Result) SizeConfig {
	base, ok := p.table.Base[res.Intent]
	if !ok {
		base = p.table.Base[intent.IntentCasual]
	}

	adj, ok := p.table.Adjustments[res.Complexity]
	if !ok {
		adj = Adjustment{MaxTokens: 1, ChunkCount: 1, TopKMultiplier: 1}
	}

	cfg := base
	cfg.MaxTokens = int(math.Round(float64(base.MaxTokens) * adj.MaxTokens))
	cfg.ChunkCount = int(math.Round(float64(base.ChunkCount) * adj.ChunkCount))
	cfg.TopKMultiplier = base.TopKMultiplier * adj.TopKMultiplier

	if cfg.MaxTokens < minMaxTokens {
		cfg.MaxTokens = minMaxTokens
	}
	if cfg.ChunkCount < minChunkCount {
		cfg.ChunkCount = minChunkCount
	}
	if cfg.TopKMultiplier < minTopKMultiplier {
		cfg.TopKMultiplier = minTopKMultiplier
	}
	return cfg
}
