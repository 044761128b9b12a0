package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/corpus"
	"github.com/mkoziel/vitrine/internal/intent"
	"github.com/mkoziel/vitrine/internal/pipeline"
	"github.com/mkoziel/vitrine/internal/planner"
	"github.com/mkoziel/vitrine/internal/provider"
	"github.com/mkoziel/vitrine/internal/pruner"
	"github.com/mkoziel/vitrine/internal/retrieval"
	"github.com/mkoziel/vitrine/internal/telemetry"
	"github.com/mkoziel/vitrine/internal/vectorindex"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEmbedder maps every query onto the experience axis so index lookups
// are deterministic.
type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float64{1, 0}, nil
}

// mockCompleter returns a canned reply, an error, or a scripted stream.
type mockCompleter struct {
	reply  string
	err    error
	chunks []string
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return provider.CompletionResponse{}, m.err
	}
	return provider.CompletionResponse{
		Content:      m.reply,
		FinishReason: provider.FinishReasonStop,
		Usage:        provider.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

func (m *mockCompleter) Stream(_ context.Context, _ provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan provider.StreamChunk, len(m.chunks)+1)
	for _, c := range m.chunks {
		ch <- provider.StreamChunk{Content: c}
	}
	ch <- provider.StreamChunk{
		FinishReason: provider.FinishReasonStop,
		Usage:        &provider.TokenUsage{TotalTokens: 120},
	}
	close(ch)
	return ch, nil
}

func (m *mockCompleter) ModelName() string { return "mock" }

var errCompleterDown = errors.New("completer down")

func testChunks() []corpus.Chunk {
	date := func(daysAgo int) time.Time {
		return time.Now().AddDate(0, 0, -daysAgo)
	}
	return []corpus.Chunk{
		{
			ID:        "vw-1",
			Text:      "W Volkswagenie prowadziłem zespół projektowy przez trzy lata.",
			Embedding: []float64{1, 0},
			Tokens:    120,
			Metadata: corpus.Metadata{
				ContentType: corpus.TypeWork,
				ContentID:   "vw",
				Tags:        []string{"design", "automotive"},
				Date:        date(200),
			},
		},
		{
			ID:        "polsat-1",
			Text:      "W Polsacie odpowiadałem za system projektowy aplikacji.",
			Embedding: []float64{0.95, 0.05},
			Tokens:    110,
			Metadata: corpus.Metadata{
				ContentType: corpus.TypeWork,
				ContentID:   "polsat",
				Tags:        []string{"design", "media"},
				Date:        date(400),
			},
		},
		{
			ID:        "exp-1",
			Text:      "Eksperyment z generatywnymi interfejsami w WebGL.",
			Embedding: []float64{0.8, 0.2},
			Tokens:    90,
			Metadata: corpus.Metadata{
				ContentType: corpus.TypeExperiment,
				ContentID:   "genui",
				Tags:        []string{"webgl", "design"},
				Date:        date(20),
				Featured:    true,
			},
		},
	}
}

type testPipeline struct {
	pipeline  *pipeline.Pipeline
	completer *mockCompleter
	memory    *convmem.Memory
}

func newTestPipeline(t *testing.T, completer *mockCompleter, embedErr error) testPipeline {
	t.Helper()

	logger := discardLogger()
	memory := convmem.New(convmem.NewMemoryStore(), convmem.Config{}, logger)
	engine := retrieval.NewEngine(
		&stubEmbedder{err: embedErr},
		vectorindex.NewMemoryIndex(testChunks()),
		retrieval.Config{},
		logger,
	)
	tracing, err := telemetry.SetupTracing(context.Background(), telemetry.TracingConfig{})
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}

	p := pipeline.New(
		intent.NewRuleClassifier(intent.PolishRules(), intent.EnglishRules()),
		planner.New(planner.DefaultTable()),
		engine,
		pruner.New(logger),
		memory,
		completer,
		telemetry.NewMetrics(),
		tracing.Tracer(),
		pipeline.Config{},
		logger,
	)
	return testPipeline{pipeline: p, completer: completer, memory: memory}
}
