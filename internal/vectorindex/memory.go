package vectorindex

import (
	"context"
	"sort"
	"sync"

	"github.com/mkoziel/vitrine/internal/corpus"
)

// MemoryIndex is an in-memory cosine-similarity index. It scans all chunks
// per query, which is fine for a corpus of hundreds of chunks.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks []corpus.Chunk
}

// Compile-time interface check.
var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an index over the given chunks.
func NewMemoryIndex(chunks []corpus.Chunk) *MemoryIndex {
	idx := &MemoryIndex{chunks: make([]corpus.Chunk, len(chunks))}
	copy(idx.chunks, chunks)
	return idx
}

// Search implements Index.
func (idx *MemoryIndex) Search(ctx context.Context, vector []float64, k int, minScore float64) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]Match, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		score := clampScore(CosineSimilarity(vector, c.Embedding))
		if score < minScore {
			continue
		}
		matches = append(matches, Match{Chunk: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len implements Index.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Replace swaps the indexed chunks, for corpus reloads.
func (idx *MemoryIndex) Replace(chunks []corpus.Chunk) {
	replacement := make([]corpus.Chunk, len(chunks))
	copy(replacement, chunks)

	idx.mu.Lock()
	idx.chunks = replacement
	idx.mu.Unlock()
}
