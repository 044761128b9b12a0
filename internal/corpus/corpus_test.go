package corpus_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkoziel/vitrine/internal/corpus"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, `[
		{
			"id": "vw-1",
			"text": "W Volkswagenie prowadziłem zespół frontendowy.",
			"embedding": [0.1, 0.9],
			"metadata": {"contentType": "work", "contentId": "vw", "tags": ["react"], "featured": true},
			"tokens": 120
		}
	]`)

	chunks, err := corpus.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	c := chunks[0]
	if c.ID != "vw-1" || c.Metadata.ContentType != corpus.TypeWork || !c.Metadata.Featured {
		t.Errorf("chunk = %+v", c)
	}
	if !c.HasTag("react") || c.HasTag("vue") {
		t.Error("HasTag mismatch")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{nope"},
		{"missing id", `[{"text": "x", "embedding": [1]}]`},
		{"missing embedding", `[{"id": "a", "text": "x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeCorpus(t, tt.content)
			if _, err := corpus.LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := corpus.LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error")
	}
}
