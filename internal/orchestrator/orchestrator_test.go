package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/ingest"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/retrieval"
	"github.com/openrag/ragcore/internal/tokencount"
	"github.com/openrag/ragcore/internal/vectorindex"
)

type scriptedProvider struct {
	embedVec []float32
	genText  string
	genErr   error
}

func (s *scriptedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedVec, nil
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) <-chan provider.StreamEvent {
	ch := make(chan provider.StreamEvent, 1)
	go func() {
		defer close(ch)
		if s.genErr != nil {
			ch <- provider.StreamEvent{Err: s.genErr}
			return
		}
		ch <- provider.StreamEvent{Text: s.genText}
	}()
	return ch
}

func newTestOrchestrator(p provider.Provider) *Orchestrator {
	embed := embedding.New(p, embedding.Config{
		MaxConcurrentRequests: 4,
		MaxRetries:            0,
		CacheTTL:              time.Minute,
		CacheMaxBytes:         1 << 20,
	}, zap.NewNop())
	pipeline := ingest.New(embed, zap.NewNop())
	return New(pipeline, embed, p, tokencount.RuneEstimator{}, zap.NewNop())
}

func newSessionWithIndex(ids ...string) *domain.Session {
	cfg := domain.DefaultSessionConfig()
	cfg.MinSimilarityScore = 0
	sess := domain.NewSession("s1", cfg)
	idx := vectorindex.New()
	for _, id := range ids {
		idx.Append(domain.EmbeddedChunk{
			Chunk:     domain.Chunk{ID: id, DocumentName: "doc.txt", Content: "chunk content " + id},
			Embedding: []float32{1, 0, 0},
		})
	}
	sess.VectorIndex = idx
	return sess
}

func TestQueryEmitsEventsInOrder(t *testing.T) {
	p := &scriptedProvider{embedVec: []float32{1, 0, 0}, genText: "the answer"}
	o := newTestOrchestrator(p)
	sess := newSessionWithIndex("c1", "c2")

	strat := retrieval.Direct{Embed: o.embed}
	ch := o.Query(context.Background(), sess, strat, "what is this about", 5)

	var types []domain.QueryEventType
	for ev := range ch {
		types = append(types, ev.Type)
	}

	require.NotEmpty(t, types)
	assert.Equal(t, domain.QueryEventRetrieval, types[0])
	assert.Equal(t, domain.QueryEventDone, types[len(types)-1])

	var sawGeneration, sawCitation bool
	for _, ty := range types {
		if ty == domain.QueryEventGeneration {
			sawGeneration = true
		}
		if ty == domain.QueryEventCitation {
			sawCitation = true
		}
	}
	assert.True(t, sawGeneration)
	assert.True(t, sawCitation)
}

func TestQueryErrorsWhenIndexEmpty(t *testing.T) {
	p := &scriptedProvider{embedVec: []float32{1, 0, 0}}
	o := newTestOrchestrator(p)
	sess := newSessionWithIndex() // no chunks

	strat := retrieval.Direct{Embed: o.embed}
	ch := o.Query(context.Background(), sess, strat, "anything", 5)

	var events []domain.QueryEvent
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Equal(t, domain.QueryEventError, events[0].Type)
	assert.Equal(t, "No documents in session. Please upload documents first.", events[0].Content)
}

func TestQueryEmitsDoneOnNoRetrievedChunks(t *testing.T) {
	p := &scriptedProvider{embedVec: []float32{0, 0, 1}} // orthogonal to indexed chunks
	o := newTestOrchestrator(p)
	sess := newSessionWithIndex("c1")
	sess.Config.MinSimilarityScore = 0.9 // force zero matches

	strat := retrieval.Direct{Embed: o.embed}
	ch := o.Query(context.Background(), sess, strat, "anything", 5)

	var events []domain.QueryEvent
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 2) // retrieval (empty) + done
	assert.Equal(t, domain.QueryEventRetrieval, events[0].Type)
	assert.Empty(t, events[0].RetrievedChunks)
	assert.Equal(t, domain.QueryEventDone, events[1].Type)
}

func TestQueryPropagatesGenerationFailureAsErrorEvent(t *testing.T) {
	p := &scriptedProvider{embedVec: []float32{1, 0, 0}, genErr: assertErr{}}
	o := newTestOrchestrator(p)
	sess := newSessionWithIndex("c1")

	strat := retrieval.Direct{Embed: o.embed}
	ch := o.Query(context.Background(), sess, strat, "anything", 5)

	var last domain.QueryEvent
	for ev := range ch {
		last = ev
	}
	assert.Equal(t, domain.QueryEventError, last.Type)
}

type assertErr struct{}

func (assertErr) Error() string { return "generation exploded" }

func TestIngestRelaysProgressUpdates(t *testing.T) {
	p := &scriptedProvider{embedVec: []float32{1, 0, 0}}
	o := newTestOrchestrator(p)
	sess := newSessionWithIndex()

	doc := domain.NewDocument("doc.txt", "hello world, this is a test document with enough content to chunk.")
	ch := o.Ingest(context.Background(), sess, doc, "")

	var last domain.IngestProgressUpdate
	for u := range ch {
		last = u
	}
	assert.Equal(t, "complete", last.Phase)
}
