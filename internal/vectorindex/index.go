// Package vectorindex provides nearest-neighbor search over the corpus
// embeddings. The Index interface hides the backing implementation; the
// in-memory index is sufficient for a portfolio-sized corpus and can be
// replaced by a remote vector database without touching the retrieval engine.
package vectorindex

import (
	"context"

	"github.com/mkoziel/vitrine/internal/corpus"
)

// Match is a chunk paired with its similarity score.
type Match struct {
	Chunk corpus.Chunk
	Score float64 // cosine similarity clamped to [0,1]
}

// Index serves nearest-neighbor queries by cosine similarity.
// Implementations must be safe for concurrent use.
type Index interface {
	// Search returns up to k chunks nearest to the query vector, scored in
	// [0,1] and sorted descending, excluding matches below minScore.
	Search(ctx context.Context, vector []float64, k int, minScore float64) ([]Match, error)

	// Len returns the number of indexed chunks.
	Len() int
}
