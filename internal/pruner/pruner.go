// Package pruner fits retrieved evidence into a token budget. Selection is
// strictly score-first: when the budget forces a choice, the higher-scoring
// chunk always survives. The pruner also grades its own output: a quality
// score (relevance of kept chunks to the query) and a coherence score
// (topical consistency across the kept set).
package pruner

import (
	"log/slog"
	"sort"
	"time"

	"github.com/mkoziel/vitrine/internal/retrieval"
)

// Result describes one pruning pass.
type Result struct {
	Chunks          []retrieval.SearchResult
	OriginalTokens  int
	FinalTokens     int
	CompressionRate float64 // in [0,1)
	CoherenceScore  float64 // in (0,1]
	QualityScore    float64 // in (0,1]
	ProcessingTime  time.Duration
}

// defaultQuality is reported when relevance scoring fails; the budget
// contract still holds.
const defaultQuality = 0.5

// scoreFloor keeps quality and coherence inside (0,1].
const scoreFloor = 0.1

// maxCompressionRate caps the reported rate when no chunk fits the budget:
// an empty kept set would otherwise report exactly 1, and the rate is
// defined on [0,1).
const maxCompressionRate = 0.999

// Pruner reduces evidence to a token budget.
type Pruner struct {
	logger *slog.Logger
}

// New creates a Pruner.
func New(logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{logger: logger.With("component", "pruner")}
}

// Prune selects a subset of results whose total tokens fit targetTokens.
//
// When everything already fits, the input is returned unchanged with perfect
// scores. Otherwise chunks are taken in descending score order while the
// budget allows. Prune never fails: scoring problems degrade to a default
// quality score and the returned set always respects the budget.
func (p *Pruner) Prune(query string, results []retrieval.SearchResult, targetTokens int) Result {
	start := time.Now()

	original := totalTokens(results)

	if len(results) == 0 {
		return Result{
			CoherenceScore: 1,
			QualityScore:   1,
			ProcessingTime: time.Since(start),
		}
	}

	if original <= targetTokens {
		kept := make([]retrieval.SearchResult, len(results))
		copy(kept, results)
		return Result{
			Chunks:         kept,
			OriginalTokens: original,
			FinalTokens:    original,
			CoherenceScore: 1,
			QualityScore:   1,
			ProcessingTime: time.Since(start),
		}
	}

	ranked := make([]retrieval.SearchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	kept := make([]retrieval.SearchResult, 0, len(ranked))
	used := 0
	for _, r := range ranked {
		tokens := r.Chunk.Tokens
		if tokens < 0 {
			tokens = 0
		}
		if used+tokens > targetTokens {
			continue
		}
		kept = append(kept, r)
		used += tokens
	}

	if len(kept) == 0 {
		p.logger.Warn("no chunk fits the token budget",
			"target", targetTokens,
			"chunks", len(results),
		)
	}

	res := Result{
		Chunks:         kept,
		OriginalTokens: original,
		FinalTokens:    used,
		CoherenceScore: p.safeCoherence(kept),
		QualityScore:   p.safeQuality(query, kept),
		ProcessingTime: time.Since(start),
	}
	if original > 0 {
		res.CompressionRate = float64(original-used) / float64(original)
		if res.CompressionRate > maxCompressionRate {
			res.CompressionRate = maxCompressionRate
		}
	}
	return res
}

// safeQuality guards the relevance scoring path: any panic degrades to the
// default score instead of failing the request.
func (p *Pruner) safeQuality(query string, kept []retrieval.SearchResult) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("quality scoring failed, using default", "panic", r)
			score = defaultQuality
		}
	}()
	return qualityScore(query, kept)
}

// safeCoherence mirrors safeQuality for the consistency scoring path.
func (p *Pruner) safeCoherence(kept []retrieval.SearchResult) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("coherence scoring failed, using default", "panic", r)
			score = defaultQuality
		}
	}()
	return coherenceScore(kept)
}

func totalTokens(results []retrieval.SearchResult) int {
	total := 0
	for _, r := range results {
		if r.Chunk.Tokens > 0 {
			total += r.Chunk.Tokens
		}
	}
	return total
}
