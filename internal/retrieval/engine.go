package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mkoziel/vitrine/internal/corpus"
	"github.com/mkoziel/vitrine/internal/embedding"
	"github.com/mkoziel/vitrine/internal/vectorindex"
)

// Config tunes the retrieval engine.
type Config struct {
	// Overfetch scales the candidate set requested from the index relative
	// to the final TopK, absorbing losses from filtering and deduplication.
	Overfetch float64 `yaml:"overfetch"`

	// RelaxedFloor scales the index-level score floor relative to the final
	// MinScore, so borderline candidates survive until after reranking.
	RelaxedFloor float64 `yaml:"relaxed_floor"`

	// Timeout bounds the embedding call. The index scan is in-memory and
	// needs no deadline of its own.
	Timeout time.Duration `yaml:"timeout"`

	Boosts BoostConfig `yaml:"boosts"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Overfetch <= 1 {
		c.Overfetch = 2.5
	}
	if c.RelaxedFloor <= 0 || c.RelaxedFloor > 1 {
		c.RelaxedFloor = 0.8
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Boosts.ExactMatch == 0 {
		c.Boosts = DefaultBoosts()
	}
}

// Engine runs the retrieval stage.
type Engine struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	rules    []BoostRule
	config   Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates a retrieval engine.
func NewEngine(embedder embedding.Embedder, index vectorindex.Index, cfg Config, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		index:    index,
		rules:    cfg.Boosts.Rules(),
		config:   cfg,
		logger:   logger.With("component", "retrieval"),
		now:      time.Now,
	}
}

// Search runs the full retrieval pass. It never returns an error: any
// failure (embedding call, index, malformed data) is absorbed and an empty
// response with zeroed metadata comes back, letting the caller produce a
// context-free answer.
func (e *Engine) Search(ctx context.Context, req SearchRequest) SearchResponse {
	start := time.Now()

	if req.TopK <= 0 {
		req.TopK = 5
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vector, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		e.logger.Warn("embedding failed, returning empty context", "error", err)
		return SearchResponse{}
	}

	candidateK := int(float64(req.TopK) * e.config.Overfetch)
	relaxedFloor := req.MinScore * e.config.RelaxedFloor

	matches, err := e.index.Search(ctx, vector, candidateK, relaxedFloor)
	if err != nil {
		e.logger.Warn("index search failed, returning empty context", "error", err)
		return SearchResponse{}
	}

	now := e.now()
	kept := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		if !matchesFilters(m.Chunk, req.Filters) {
			continue
		}
		kept = append(kept, SearchResult{Chunk: m.Chunk, Score: m.Score})
	}

	kept = dedupeByContentID(kept)

	for i := range kept {
		kept[i].Score = applyBoosts(e.rules, kept[i].Score, kept[i].Chunk, req.Query, now)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	final := kept[:0]
	for _, r := range kept {
		if r.Score >= req.MinScore {
			final = append(final, r)
		}
	}
	if len(final) > req.TopK {
		final = final[:req.TopK]
	}

	return SearchResponse{
		Results: final,
		Metadata: SearchMetadata{
			QueryLength: len(req.Query),
			ResultCount: len(final),
			Latency:     time.Since(start),
			MeanScore:   meanScore(final),
		},
	}
}

// matchesFilters applies the metadata filters; zero-valued filter fields
// pass everything.
func matchesFilters(c corpus.Chunk, f Filters) bool {
	if len(f.ContentTypes) > 0 {
		ok := false
		for _, ct := range f.ContentTypes {
			if c.Metadata.ContentType == ct {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if len(f.Tags) > 0 {
		ok := false
		for _, tag := range f.Tags {
			if c.HasTag(tag) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if !f.From.IsZero() && c.Metadata.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && c.Metadata.Date.After(f.To) {
		return false
	}
	return true
}

// dedupeByContentID keeps the highest-scoring chunk per content identifier.
// Chunks without a content id are kept as-is. Input order is preserved for
// the survivors.
func dedupeByContentID(results []SearchResult) []SearchResult {
	best := make(map[string]int, len(results))
	out := results[:0]
	for _, r := range results {
		id := r.Chunk.Metadata.ContentID
		if id == "" {
			out = append(out, r)
			continue
		}
		if i, seen := best[id]; seen {
			if r.Score > out[i].Score {
				out[i] = r
			}
			continue
		}
		best[id] = len(out)
		out = append(out, r)
	}
	return out
}

func meanScore(results []SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}
