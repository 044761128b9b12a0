// Package retrieval implements the multi-stage evidence search: embed the
// query, over-fetch candidates from the vector index, filter by metadata,
// deduplicate, rerank with composable boosts, and truncate to the requested
// size. Retrieval never fails the request: any error degrades to an empty
// result set so the caller can still answer without context.
package retrieval

import (
	"time"

	"github.com/mkoziel/vitrine/internal/corpus"
)

// Filters restricts the candidate set by chunk metadata. Zero-valued fields
// are ignored.
type Filters struct {
	ContentTypes []corpus.ContentType
	Tags         []string
	From         time.Time
	To           time.Time
}

// SearchRequest describes one retrieval pass.
type SearchRequest struct {
	Query    string
	TopK     int
	MinScore float64
	Filters  Filters
}

// SearchResult pairs a chunk with its boosted relevance score in [0,1].
type SearchResult struct {
	Chunk corpus.Chunk
	Score float64
}

// SearchMetadata aggregates facts about one retrieval pass.
type SearchMetadata struct {
	QueryLength int
	ResultCount int
	Latency     time.Duration
	MeanScore   float64
}

// SearchResponse is the ranked result list plus aggregate metadata.
type SearchResponse struct {
	Results  []SearchResult
	Metadata SearchMetadata
}
