// Package pipeline orchestrates the per-request context flow: classify the
// query, plan a token budget, retrieve and prune evidence, recall relevant
// history, assemble the prompt, and complete. Only input validation errors
// reach the caller; every other failure degrades so the assistant can always
// attempt a reply.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/intent"
	"github.com/mkoziel/vitrine/internal/planner"
	"github.com/mkoziel/vitrine/internal/provider"
	"github.com/mkoziel/vitrine/internal/pruner"
	"github.com/mkoziel/vitrine/internal/retrieval"
	"github.com/mkoziel/vitrine/internal/telemetry"
	"github.com/mkoziel/vitrine/pkg/message"
)

// Config tunes the orchestration around the stage packages.
type Config struct {
	MinScore           float64       `yaml:"min_score"`
	HistoryMessages    int           `yaml:"history_messages"`
	RelevanceThreshold float64       `yaml:"relevance_threshold"`
	CharsPerToken      float64       `yaml:"chars_per_token"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	CacheSize          int           `yaml:"cache_size"`
	SystemPrompt       string        `yaml:"system_prompt"`
	FallbackReply      string        `yaml:"fallback_reply"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.MinScore == 0 {
		c.MinScore = 0.3
	}
	if c.HistoryMessages == 0 {
		c.HistoryMessages = 5
	}
	if c.RelevanceThreshold == 0 {
		c.RelevanceThreshold = 0.3
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Minute
	}
	if c.CacheSize == 0 {
		c.CacheSize = 128
	}
	if c.FallbackReply == "" {
		c.FallbackReply = "Przepraszam, nie mogę teraz odpowiedzieć. Spróbuj ponownie za chwilę."
	}
}

// Pipeline wires the stage packages into the exposed chat operation.
type Pipeline struct {
	classifier intent.Classifier
	planner    *planner.Planner
	engine     *retrieval.Engine
	pruner     *pruner.Pruner
	memory     *convmem.Memory
	completer  provider.Completer
	estimator  TokenEstimator
	cache      *responseCache
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	config     Config
	logger     *slog.Logger
	now        func() time.Time
}

// New assembles a pipeline. All dependencies are required.
func New(
	classifier intent.Classifier,
	pln *planner.Planner,
	engine *retrieval.Engine,
	prn *pruner.Pruner,
	memory *convmem.Memory,
	completer provider.Completer,
	metrics *telemetry.Metrics,
	tracer trace.Tracer,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		classifier: classifier,
		planner:    pln,
		engine:     engine,
		pruner:     prn,
		memory:     memory,
		completer:  completer,
		estimator:  NewCharEstimator(cfg.CharsPerToken),
		cache:      newResponseCache(cfg.CacheTTL, cfg.CacheSize, nil),
		metrics:    metrics,
		tracer:     tracer,
		config:     cfg,
		logger:     logger.With("component", "pipeline"),
		now:        time.Now,
	}
}

// promptContext is the result of the context stages, shared by the blocking
// and streaming entry points.
type promptContext struct {
	query        string
	intentResult intent.Result
	plan         planner.SizeConfig
	pruned       pruner.Result
	history      []convmem.Message
	systemPrompt string
	contextLen   int
	stages       []string
}

// Handle runs the full pipeline for one chat request.
func (p *Pipeline) Handle(ctx context.Context, req message.ChatRequest) (message.ChatResponse, error) {
	start := p.now()

	if err := req.Validate(); err != nil {
		return message.ChatResponse{}, err
	}

	key := cacheKey(req.Query(), p.sessionFingerprint(req.SessionID))
	if resp, ok := p.cache.get(key); ok {
		return p.serveCached(resp, req.SessionID, start), nil
	}

	pc := p.buildContext(ctx, req)

	content, usage, degraded := p.complete(ctx, pc, req)
	pc.stages = append(pc.stages, "complete")

	resp := p.finish(req, pc, content, usage, degraded, start)
	if !degraded {
		p.cache.put(key, resp)
	}
	return resp, nil
}

// StreamEvent is one message of the streaming chat surface: stage-progress
// notifications, content deltas, then the final response. Transports emit an
// "error" event with the message in Content when the request itself is
// rejected; the pipeline never produces one.
type StreamEvent struct {
	Type     string                `json:"type"` // "stage", "delta", "done" or "error"
	Stage    string                `json:"stage,omitempty"`
	Content  string                `json:"content,omitempty"`
	Response *message.ChatResponse `json:"response,omitempty"`
}

// HandleStream runs the pipeline and emits progress through send. The final
// "done" event carries the complete response. send must not block forever;
// its error aborts the stream.
func (p *Pipeline) HandleStream(ctx context.Context, req message.ChatRequest, send func(StreamEvent) error) error {
	start := p.now()

	if err := req.Validate(); err != nil {
		return err
	}

	key := cacheKey(req.Query(), p.sessionFingerprint(req.SessionID))
	if resp, ok := p.cache.get(key); ok {
		cached := p.serveCached(resp, req.SessionID, start)
		return send(StreamEvent{Type: "done", Response: &cached})
	}

	pc := p.buildContext(ctx, req)
	for _, stage := range pc.stages {
		if err := send(StreamEvent{Type: "stage", Stage: stage}); err != nil {
			return fmt.Errorf("pipeline: send stage event: %w", err)
		}
	}

	content, usage, degraded := p.streamCompletion(ctx, pc, req, send)
	pc.stages = append(pc.stages, "complete")

	resp := p.finish(req, pc, content, usage, degraded, start)
	if !degraded {
		p.cache.put(key, resp)
	}
	return send(StreamEvent{Type: "done", Response: &resp})
}

// buildContext runs the context stages: classify, plan, retrieve, prune,
// memory recall, assemble. None of them can fail the request.
func (p *Pipeline) buildContext(ctx context.Context, req message.ChatRequest) promptContext {
	pc := promptContext{query: req.Query(), stages: make([]string, 0, 7)}

	pc.intentResult = p.runClassify(ctx, &pc)
	pc.plan = p.runPlan(ctx, &pc)
	results := p.runRetrieve(ctx, &pc)
	pc.pruned = p.runPrune(ctx, &pc, results)
	pc.history = p.runMemory(ctx, &pc, req.SessionID)
	p.runAssemble(ctx, &pc)
	return pc
}

func (p *Pipeline) stage(ctx context.Context, pc *promptContext, name string, fn func(context.Context)) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	begin := p.now()
	fn(ctx)
	p.metrics.StageDuration.WithLabelValues(name).Observe(p.now().Sub(begin).Seconds())
	pc.stages = append(pc.stages, name)
}

func (p *Pipeline) runClassify(ctx context.Context, pc *promptContext) (res intent.Result) {
	p.stage(ctx, pc, "classify", func(context.Context) {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Warn("classification failed, assuming casual query", "panic", r)
				res = intent.Result{
					Intent:     intent.IntentCasual,
					Complexity: intent.ComplexityMedium,
					Confidence: 0.5,
					Language:   "en",
				}
			}
		}()
		res = p.classifier.Classify(pc.query)
	})
	return res
}

func (p *Pipeline) runPlan(ctx context.Context, pc *promptContext) (plan planner.SizeConfig) {
	p.stage(ctx, pc, "plan", func(context.Context) {
		plan = p.planner.Plan(pc.intentResult)
	})
	return plan
}

func (p *Pipeline) runRetrieve(ctx context.Context, pc *promptContext) (results []retrieval.SearchResult) {
	p.stage(ctx, pc, "retrieve", func(ctx context.Context) {
		topK := int(math.Round(float64(pc.plan.ChunkCount) * pc.plan.TopKMultiplier))
		if topK < 1 {
			topK = 1
		}
		resp := p.engine.Search(ctx, retrieval.SearchRequest{
			Query:    pc.query,
			TopK:     topK,
			MinScore: p.config.MinScore,
		})
		results = resp.Results
	})
	return results
}

func (p *Pipeline) runPrune(ctx context.Context, pc *promptContext, results []retrieval.SearchResult) (res pruner.Result) {
	p.stage(ctx, pc, "prune", func(context.Context) {
		res = p.pruner.Prune(pc.query, results, pc.plan.MaxTokens)
	})
	return res
}

func (p *Pipeline) runMemory(ctx context.Context, pc *promptContext, sessionID string) (history []convmem.Message) {
	p.stage(ctx, pc, "memory", func(context.Context) {
		history = p.memory.RelevantHistory(sessionID, pc.query, p.config.HistoryMessages, p.config.RelevanceThreshold)
	})
	return history
}

func (p *Pipeline) runAssemble(ctx context.Context, pc *promptContext) {
	p.stage(ctx, pc, "assemble", func(context.Context) {
		pc.systemPrompt = assemblePrompt(p.config.SystemPrompt, pc.pruned.Chunks, pc.history)
		pc.contextLen = p.estimator.Estimate(pc.systemPrompt)
	})
}

// complete calls the model. A completion failure degrades to the configured
// fallback reply rather than failing the request.
func (p *Pipeline) complete(ctx context.Context, pc promptContext, req message.ChatRequest) (string, provider.TokenUsage, bool) {
	resp, err := p.completer.Complete(ctx, provider.CompletionRequest{
		System:   pc.systemPrompt,
		Messages: toProviderMessages(req.Messages),
	})
	if err != nil {
		p.logger.Warn("completion failed, serving fallback reply", "error", err, "session_id", req.SessionID)
		return p.config.FallbackReply, provider.TokenUsage{}, true
	}
	return resp.Content, resp.Usage, false
}

func (p *Pipeline) streamCompletion(ctx context.Context, pc promptContext, req message.ChatRequest, send func(StreamEvent) error) (string, provider.TokenUsage, bool) {
	ch, err := p.completer.Stream(ctx, provider.CompletionRequest{
		System:   pc.systemPrompt,
		Messages: toProviderMessages(req.Messages),
	})
	if err != nil {
		p.logger.Warn("completion stream failed, serving fallback reply", "error", err, "session_id", req.SessionID)
		return p.config.FallbackReply, provider.TokenUsage{}, true
	}

	var content strings.Builder
	var usage provider.TokenUsage
	for chunk := range ch {
		if chunk.Err != nil {
			p.logger.Warn("completion stream broke, serving partial reply", "error", chunk.Err, "session_id", req.SessionID)
			if content.Len() == 0 {
				return p.config.FallbackReply, usage, true
			}
			return content.String(), usage, true
		}
		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			if err := send(StreamEvent{Type: "delta", Content: chunk.Content}); err != nil {
				return content.String(), usage, true
			}
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
	}
	if content.Len() == 0 {
		return p.config.FallbackReply, usage, true
	}
	return content.String(), usage, false
}

// finish records the turn in memory, updates metrics, and builds the
// response with its metadata contract.
func (p *Pipeline) finish(req message.ChatRequest, pc promptContext, content string, usage provider.TokenUsage, degraded bool, start time.Time) message.ChatResponse {
	elapsed := p.now().Sub(start)

	meta := &convmem.MessageMetadata{
		Intent:        string(pc.intentResult.Intent),
		ContextLength: pc.contextLen,
		ResponseTime:  elapsed,
	}
	if err := p.memory.AddMessage(req.SessionID, message.RoleUser, pc.query, meta); err != nil {
		p.logger.Warn("recording user turn failed", "error", err, "session_id", req.SessionID)
	}
	if err := p.memory.AddMessage(req.SessionID, message.RoleAssistant, content, nil); err != nil {
		p.logger.Warn("recording assistant turn failed", "error", err, "session_id", req.SessionID)
	}

	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	p.metrics.RequestsTotal.WithLabelValues(string(pc.intentResult.Intent), outcome).Inc()
	p.metrics.TokensUsed.Observe(float64(pc.pruned.FinalTokens))
	p.metrics.ActiveSessions.Set(float64(len(p.memory.ActiveSessions())))

	tokensUsed := usage.TotalTokens
	if tokensUsed == 0 {
		tokensUsed = pc.contextLen
	}

	return message.ChatResponse{
		Content: content,
		Metadata: message.ResponseMetadata{
			QueryIntent:        string(pc.intentResult.Intent),
			ContextLength:      pc.contextLen,
			ResponseTime:       elapsed.Milliseconds(),
			TokensUsed:         tokensUsed,
			SessionID:          req.SessionID,
			ConversationLength: p.memory.MessageCount(req.SessionID),
			PipelineStages:     pc.stages,
			CacheHit:           false,
			Confidence:         pc.intentResult.Confidence,
			Language:           pc.intentResult.Language,
		},
	}
}

func (p *Pipeline) serveCached(resp message.ChatResponse, sessionID string, start time.Time) message.ChatResponse {
	p.metrics.CacheHits.Inc()
	p.metrics.RequestsTotal.WithLabelValues(resp.Metadata.QueryIntent, "cached").Inc()

	resp.Metadata.CacheHit = true
	resp.Metadata.SessionID = sessionID
	resp.Metadata.ResponseTime = p.now().Sub(start).Milliseconds()
	return resp
}

// sessionFingerprint captures the memory state that shapes a reply, so cache
// entries go stale when the conversation's dominant topics move on.
func (p *Pipeline) sessionFingerprint(sessionID string) string {
	summary, ok := p.memory.SessionSummary(sessionID)
	if !ok {
		return "new"
	}
	return strings.Join(summary.DominantTopics, ",")
}

func toProviderMessages(msgs []message.ChatMessage) []provider.Message {
	// Keep the most recent turns; older context comes through memory recall.
	const maxTurns = 8
	if len(msgs) > maxTurns {
		msgs = msgs[len(msgs)-maxTurns:]
	}
	out := make([]provider.Message, len(msgs))
	for i, m := range msgs {
		out[i] = provider.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
