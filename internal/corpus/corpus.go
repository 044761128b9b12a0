// Package corpus defines the retrievable content unit and loads the
// portfolio corpus from disk. Chunks are produced by an external
// ingestion/embedding job; this package treats them as read-only.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ContentType categorizes a chunk within the portfolio corpus.
type ContentType string

// Known content types, used by the retrieval rerank priors.
const (
	TypeExperiment ContentType = "experiment"
	TypeWork       ContentType = "work"
	TypeTimeline   ContentType = "timeline"
	TypeLeadership ContentType = "leadership"
	TypeContact    ContentType = "contact"
)

// Metadata describes the provenance of a chunk.
type Metadata struct {
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	Tags        []string    `json:"tags,omitempty"`
	Date        time.Time   `json:"date,omitzero"`
	Featured    bool        `json:"featured,omitempty"`
}

// Chunk is the atomic retrievable item: a unit of corpus text with a
// precomputed embedding and metadata.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
	Tokens    int       `json:"tokens"`
}

// HasTag reports whether the chunk carries the given tag.
func (c Chunk) HasTag(tag string) bool {
	for _, t := range c.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LoadFile reads a JSON corpus file: an array of chunks with embeddings.
// Chunks with an empty id or no embedding are rejected, since the vector
// index cannot serve them.
func LoadFile(path string) ([]Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("corpus: parsing %s: %w", path, err)
	}

	for i := range chunks {
		if chunks[i].ID == "" {
			return nil, fmt.Errorf("corpus: chunk %d has no id", i)
		}
		if len(chunks[i].Embedding) == 0 {
			return nil, fmt.Errorf("corpus: chunk %s has no embedding", chunks[i].ID)
		}
	}
	return chunks, nil
}
