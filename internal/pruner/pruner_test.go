package pruner_test

import (
	"testing"

	"github.com/mkoziel/vitrine/internal/corpus"
	"github.com/mkoziel/vitrine/internal/pruner"
	"github.com/mkoziel/vitrine/internal/retrieval"
)

func scored(id string, score float64, tokens int) retrieval.SearchResult {
	return retrieval.SearchResult{
		Chunk: corpus.Chunk{
			ID:     id,
			Text:   "content of chunk " + id,
			Tokens: tokens,
			Metadata: corpus.Metadata{
				ContentType: corpus.TypeWork,
				ContentID:   "cid-" + id,
			},
		},
		Score: score,
	}
}

func TestPruner_Prune_EmptyInput(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	res := p.Prune("query", nil, 1000)

	if len(res.Chunks) != 0 {
		t.Errorf("Chunks = %d, want 0", len(res.Chunks))
	}
	if res.OriginalTokens != 0 || res.FinalTokens != 0 {
		t.Errorf("tokens = %d/%d, want 0/0", res.OriginalTokens, res.FinalTokens)
	}
	if res.CompressionRate != 0 {
		t.Errorf("CompressionRate = %v, want 0", res.CompressionRate)
	}
	if res.CoherenceScore != 1 || res.QualityScore != 1 {
		t.Errorf("scores = %v/%v, want 1/1", res.CoherenceScore, res.QualityScore)
	}
}

func TestPruner_Prune_FastPathIdentity(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("a", 0.9, 100),
		scored("b", 0.5, 150),
		scored("c", 0.7, 50),
	}

	res := p.Prune("query", input, 300)

	if len(res.Chunks) != 3 {
		t.Fatalf("Chunks = %d, want all 3", len(res.Chunks))
	}
	for i, r := range res.Chunks {
		if r.Chunk.ID != input[i].Chunk.ID {
			t.Errorf("chunk %d = %s, want %s (order preserved)", i, r.Chunk.ID, input[i].Chunk.ID)
		}
	}
	if res.FinalTokens != 300 || res.OriginalTokens != 300 {
		t.Errorf("tokens = %d/%d, want 300/300", res.FinalTokens, res.OriginalTokens)
	}
	if res.CompressionRate != 0 {
		t.Errorf("CompressionRate = %v, want 0", res.CompressionRate)
	}
	if res.CoherenceScore != 1 || res.QualityScore != 1 {
		t.Errorf("scores = %v/%v, want 1/1", res.CoherenceScore, res.QualityScore)
	}
}

func TestPruner_Prune_NothingFits(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("big", 0.9, 400),
		scored("bigger", 0.8, 500),
	}

	res := p.Prune("query", input, 300)

	if len(res.Chunks) != 0 {
		t.Errorf("Chunks = %d, want 0", len(res.Chunks))
	}
	if res.FinalTokens != 0 || res.OriginalTokens != 900 {
		t.Errorf("tokens = %d/%d, want 0/900", res.FinalTokens, res.OriginalTokens)
	}
	if res.CompressionRate < 0 || res.CompressionRate >= 1 {
		t.Errorf("CompressionRate = %v, want in [0,1)", res.CompressionRate)
	}
	if res.QualityScore <= 0 || res.QualityScore > 1 {
		t.Errorf("QualityScore = %v, want in (0,1]", res.QualityScore)
	}
	if res.CoherenceScore <= 0 || res.CoherenceScore > 1 {
		t.Errorf("CoherenceScore = %v, want in (0,1]", res.CoherenceScore)
	}
}

func TestPruner_Prune_ScorePriority(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("low", 0.2, 200),
		scored("high", 0.95, 200),
	}

	// Budget fits exactly one of the two equal-sized chunks.
	res := p.Prune("query", input, 250)

	if len(res.Chunks) != 1 {
		t.Fatalf("Chunks = %d, want 1", len(res.Chunks))
	}
	if res.Chunks[0].Chunk.ID != "high" {
		t.Errorf("kept %s, want the higher-scoring chunk", res.Chunks[0].Chunk.ID)
	}
	if res.FinalTokens != 200 {
		t.Errorf("FinalTokens = %d, want 200", res.FinalTokens)
	}
}

func TestPruner_Prune_BudgetRespected(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("a", 0.9, 300),
		scored("b", 0.8, 300),
		scored("c", 0.7, 300),
		scored("d", 0.6, 300),
	}

	res := p.Prune("query", input, 700)

	if res.FinalTokens > 700 {
		t.Errorf("FinalTokens = %d, exceeds budget 700", res.FinalTokens)
	}
	if res.FinalTokens > res.OriginalTokens {
		t.Errorf("FinalTokens %d > OriginalTokens %d", res.FinalTokens, res.OriginalTokens)
	}
	if len(res.Chunks) != 2 {
		t.Errorf("Chunks = %d, want 2", len(res.Chunks))
	}
}

func TestPruner_Prune_SmallerChunkFillsRemainder(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("big", 0.9, 500),
		scored("huge", 0.8, 600),
		scored("small", 0.5, 80),
	}

	// After "big" there is room for "small" but not "huge".
	res := p.Prune("query", input, 600)

	ids := make(map[string]bool)
	for _, r := range res.Chunks {
		ids[r.Chunk.ID] = true
	}
	if !ids["big"] || !ids["small"] || ids["huge"] {
		t.Errorf("kept %v, want big+small", ids)
	}
	if res.FinalTokens != 580 {
		t.Errorf("FinalTokens = %d, want 580", res.FinalTokens)
	}
}

func TestPruner_Prune_CompressionRate(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("a", 0.9, 600),
		scored("b", 0.5, 400),
	}

	res := p.Prune("query", input, 600)

	want := float64(1000-600) / 1000
	if res.CompressionRate != want {
		t.Errorf("CompressionRate = %v, want %v", res.CompressionRate, want)
	}
	if res.CompressionRate < 0 || res.CompressionRate >= 1 {
		t.Errorf("CompressionRate = %v, want in [0,1)", res.CompressionRate)
	}
}

func TestPruner_Prune_ScoresBounded(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	input := []retrieval.SearchResult{
		scored("a", 0.9, 600),
		scored("b", 0.8, 600),
		scored("c", 0.5, 400),
	}

	res := p.Prune("doświadczenie projektowe", input, 1100)

	if res.QualityScore <= 0 || res.QualityScore > 1 {
		t.Errorf("QualityScore = %v, want in (0,1]", res.QualityScore)
	}
	if res.CoherenceScore <= 0 || res.CoherenceScore > 1 {
		t.Errorf("CoherenceScore = %v, want in (0,1]", res.CoherenceScore)
	}
}

func TestPruner_Prune_CoherenceFavorsSharedTypeAndTags(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)

	consistent := []retrieval.SearchResult{
		{Chunk: corpus.Chunk{ID: "a", Tokens: 400, Metadata: corpus.Metadata{ContentType: corpus.TypeWork, Tags: []string{"react", "ux"}}}, Score: 0.9},
		{Chunk: corpus.Chunk{ID: "b", Tokens: 400, Metadata: corpus.Metadata{ContentType: corpus.TypeWork, Tags: []string{"react", "ux"}}}, Score: 0.8},
	}
	mixed := []retrieval.SearchResult{
		{Chunk: corpus.Chunk{ID: "c", Tokens: 400, Metadata: corpus.Metadata{ContentType: corpus.TypeWork, Tags: []string{"react"}}}, Score: 0.9},
		{Chunk: corpus.Chunk{ID: "d", Tokens: 400, Metadata: corpus.Metadata{ContentType: corpus.TypeContact, Tags: []string{"email"}}}, Score: 0.8},
	}

	// Budgets below the totals force the reduction path, which scores the set.
	consistentRes := p.Prune("q", append(consistent, scored("x", 0.1, 400)), 800)
	mixedRes := p.Prune("q", append(mixed, scored("x", 0.1, 400)), 800)

	if consistentRes.CoherenceScore <= mixedRes.CoherenceScore {
		t.Errorf("coherent set scored %v, mixed %v; want coherent > mixed",
			consistentRes.CoherenceScore, mixedRes.CoherenceScore)
	}
}

func TestPruner_Prune_ProcessingTimeReported(t *testing.T) {
	t.Parallel()

	p := pruner.New(nil)
	res := p.Prune("q", []retrieval.SearchResult{scored("a", 0.9, 10)}, 5)
	if res.ProcessingTime < 0 {
		t.Errorf("ProcessingTime = %v, want >= 0", res.ProcessingTime)
	}
}
