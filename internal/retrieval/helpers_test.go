package retrieval_test

import (
	"context"
	"errors"

	"github.com/mkoziel/vitrine/internal/corpus"
	"github.com/mkoziel/vitrine/internal/vectorindex"
)

// mockEmbedder implements embedding.Embedder for tests.
type mockEmbedder struct {
	vector []float64
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return m.vector, m.err
}

// mockIndex implements vectorindex.Index, returning canned matches.
type mockIndex struct {
	matches []vectorindex.Match
	err     error

	gotK        int
	gotMinScore float64
}

func (m *mockIndex) Search(_ context.Context, _ []float64, k int, minScore float64) ([]vectorindex.Match, error) {
	m.gotK = k
	m.gotMinScore = minScore
	if m.err != nil {
		return nil, m.err
	}
	out := make([]vectorindex.Match, 0, len(m.matches))
	for _, match := range m.matches {
		if match.Score >= minScore {
			out = append(out, match)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *mockIndex) Len() int { return len(m.matches) }

var errIndexDown = errors.New("index unavailable")

func chunk(id, contentID string, ct corpus.ContentType, tags ...string) corpus.Chunk {
	return corpus.Chunk{
		ID:   id,
		Text: "text for " + id,
		Metadata: corpus.Metadata{
			ContentType: ct,
			ContentID:   contentID,
			Tags:        tags,
		},
		Tokens: 100,
	}
}
