// Package orchestrator implements the top-level Ingest and Query
// operations that tie chunking, embedding, retrieval, and generation
// together and emit their results as event streams. Span instrumentation
// follows an otel.Tracer + span-per-stage pattern, generalized from a
// single embed-then-search call to the full streaming query pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/ingest"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/retrieval"
	"github.com/openrag/ragcore/internal/tokencount"
)

const (
	promptPreamble = "Answer the question using only the information in the sources below. " +
		"If the sources don't contain the answer, say so.\n\n"
	generationTemperature     = 0.7
	generationMaxOutputTokens = 1024
)

// Orchestrator wires together every component needed to answer
// ingest/query requests against a session.
type Orchestrator struct {
	pipeline *ingest.Pipeline
	embed    *embedding.Client
	provider provider.Provider
	tokens   tokencount.Estimator
	log      *zap.Logger
	tracer   trace.Tracer
}

func New(
	pipeline *ingest.Pipeline,
	embed *embedding.Client,
	prov provider.Provider,
	tokens tokencount.Estimator,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		pipeline: pipeline,
		embed:    embed,
		provider: prov,
		tokens:   tokens,
		log:      log,
		tracer:   otel.Tracer("ragcore.orchestrator"),
	}
}

// Ingest delegates to the ingestion pipeline and relays its progress
// updates verbatim, wrapped in a span covering the whole document. Every
// failure, including pre-flight validation, surfaces as an Error update on
// the returned channel rather than a synchronous error, since a caller must
// be able to open the stream first to see it. strategyOverride carries a
// per-request chunking strategy that takes precedence over the session's
// default for this document only; pass "" to use the session default.
func (o *Orchestrator) Ingest(ctx context.Context, sess *domain.Session, doc domain.Document, strategyOverride domain.ChunkingStrategy) <-chan domain.IngestProgressUpdate {
	ctx, span := o.tracer.Start(ctx, "ragcore.orchestrator.ingest", trace.WithAttributes(
		attribute.String("session_id", sess.SessionID),
		attribute.String("file_name", doc.FileName),
		attribute.Int("char_count", len(doc.Content)),
	))

	updates := o.pipeline.Ingest(ctx, sess, doc, strategyOverride)

	relayed := make(chan domain.IngestProgressUpdate, domain.IngestTotalSteps+2)
	go func() {
		defer close(relayed)
		defer span.End()
		for u := range updates {
			relayed <- u
			if u.Phase == "error" {
				span.SetStatus(codes.Error, u.Message)
			}
		}
	}()
	return relayed
}

// Query runs the configured retrieval strategy, streams a generated answer
// grounded in the retrieved chunks, and emits one citation per chunk before
// a final metrics+done event. An empty index is not rejected up front: the
// channel opens regardless, and runQuery emits the error as the stream's
// first and only event so a caller never has to branch on two different
// failure surfaces.
func (o *Orchestrator) Query(ctx context.Context, sess *domain.Session, strat retrieval.Strategy, queryText string, topK int) <-chan domain.QueryEvent {
	ctx, span := o.tracer.Start(ctx, "ragcore.orchestrator.query", trace.WithAttributes(
		attribute.String("session_id", sess.SessionID),
		attribute.Int("top_k", topK),
	))

	events := make(chan domain.QueryEvent, 16)
	go o.runQuery(ctx, span, sess, strat, queryText, topK, events)
	return events
}

func (o *Orchestrator) runQuery(
	ctx context.Context,
	span trace.Span,
	sess *domain.Session,
	strat retrieval.Strategy,
	queryText string,
	topK int,
	events chan<- domain.QueryEvent,
) {
	defer close(events)
	defer span.End()

	if sess.VectorIndex.Len() == 0 {
		o.emit(ctx, events, domain.QueryEvent{
			Type:    domain.QueryEventError,
			Content: "No documents in session. Please upload documents first.",
		})
		return
	}

	totalStart := time.Now()

	retrieveStart := time.Now()
	results, err := strat.Retrieve(ctx, sess, queryText, topK)
	retrieveElapsed := time.Since(retrieveStart)
	sess.Metrics.AddRetrievalTime(retrieveElapsed.Milliseconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.emit(ctx, events, domain.QueryEvent{Type: domain.QueryEventError, Content: err.Error()})
		return
	}

	o.emit(ctx, events, domain.QueryEvent{Type: domain.QueryEventRetrieval, RetrievedChunks: results})
	sess.Metrics.AddChunksRetrieved(int64(len(results)))

	if len(results) == 0 {
		o.emit(ctx, events, domain.QueryEvent{
			Type:    domain.QueryEventDone,
			Content: "no relevant chunks found for this query",
			Metrics: o.snapshotMetrics(sess, totalStart),
		})
		return
	}

	prompt := buildPrompt(results, queryText)

	genStart := time.Now()
	answer, usage, err := o.streamGeneration(ctx, prompt, events)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.emit(ctx, events, domain.QueryEvent{Type: domain.QueryEventError, Content: err.Error()})
		return
	}
	sess.Metrics.AddGenerationTime(time.Since(genStart).Milliseconds())
	if usage != nil {
		sess.Metrics.AddTokensUsed(int64(usage.TotalTokens))
	} else {
		sess.Metrics.AddTokensUsed(int64(o.tokens.Count(prompt) + o.tokens.Count(answer)))
	}

	for _, r := range results {
		citation := domain.NewCitation(r)
		o.emit(ctx, events, domain.QueryEvent{Type: domain.QueryEventCitation, Citation: &citation})
	}

	sess.Metrics.AddTotalTime(time.Since(totalStart).Milliseconds())
	o.emit(ctx, events, domain.QueryEvent{
		Type:    domain.QueryEventDone,
		Metrics: o.snapshotMetrics(sess, totalStart),
	})
}

// streamGeneration relays each generated fragment as a QueryEventGeneration
// and returns the full accumulated answer plus any usage the provider
// reported, for token accounting.
func (o *Orchestrator) streamGeneration(ctx context.Context, prompt string, events chan<- domain.QueryEvent) (string, *provider.Usage, error) {
	ctx, span := o.tracer.Start(ctx, "ragcore.orchestrator.generate")
	defer span.End()

	var answer strings.Builder
	var usage *provider.Usage
	ch := o.provider.Generate(ctx, prompt, provider.GenerateOptions{
		Temperature:     generationTemperature,
		MaxOutputTokens: generationMaxOutputTokens,
	})
	for ev := range ch {
		if ev.Err != nil {
			return answer.String(), usage, fmt.Errorf("orchestrator: generation failed: %w", ev.Err)
		}
		if ev.Text != "" {
			answer.WriteString(ev.Text)
			o.emit(ctx, events, domain.QueryEvent{Type: domain.QueryEventGeneration, Content: ev.Text})
		}
		if ev.Usage != nil {
			usage = ev.Usage
		}
	}
	return answer.String(), usage, nil
}

// emit sends ev unless ctx has already been cancelled, e.g. by a
// disconnected client, in which case it drops the event rather than
// blocking the producer forever.
func (o *Orchestrator) emit(ctx context.Context, events chan<- domain.QueryEvent, ev domain.QueryEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) snapshotMetrics(sess *domain.Session, totalStart time.Time) *domain.Metrics {
	m := sess.Metrics.Snapshot()
	m.TotalTimeMs = time.Since(totalStart).Milliseconds()
	return &m
}

func buildPrompt(results []domain.RetrievalResult, queryText string) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	for _, r := range results {
		fmt.Fprintf(&sb, "[Source: %s, Relevance: %.0f%%]\n%s\n\n", r.Chunk.DocumentName, r.SimilarityScore*100, r.Chunk.Content)
	}
	sb.WriteString("Question: ")
	sb.WriteString(queryText)
	return sb.String()
}
