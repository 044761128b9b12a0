// Package embedding turns text into fixed-dimension vectors through an
// OpenAI-compatible embeddings endpoint.
package embedding

import "context"

// Embedder converts text to an embedding vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
