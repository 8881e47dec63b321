package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/tokencount"
	"github.com/openrag/ragcore/internal/vectorindex"
)

// vectorProvider embeds any text containing needle as the "match" vector
// [1,0,0], everything else as an orthogonal vector, and exposes a
// scriptable Generate for HyDE tests.
type vectorProvider struct {
	needle       string
	genText      string
	genErr       error
	embedErrText string
}

func (p *vectorProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedErrText != "" && text == p.embedErrText {
		return nil, &provider.ProviderFailure{Status: 400}
	}
	if p.needle != "" && containsFold(text, p.needle) {
		return []float32{1, 0, 0}, nil
	}
	return []float32{0, 1, 0}, nil
}

func (p *vectorProvider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) <-chan provider.StreamEvent {
	ch := make(chan provider.StreamEvent, 1)
	go func() {
		defer close(ch)
		if p.genErr != nil {
			ch <- provider.StreamEvent{Err: p.genErr}
			return
		}
		ch <- provider.StreamEvent{Text: p.genText}
	}()
	return ch
}

func containsFold(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if equalFold(haystack[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func newSessionWithChunks(t *testing.T) *domain.Session {
	cfg := domain.DefaultSessionConfig()
	cfg.MinSimilarityScore = 0.3
	sess := domain.NewSession("s1", cfg)
	idx := vectorindex.New()
	idx.Append(domain.EmbeddedChunk{Chunk: domain.Chunk{ID: "c1", Content: "about cats"}, Embedding: []float32{1, 0, 0}})
	idx.Append(domain.EmbeddedChunk{Chunk: domain.Chunk{ID: "c2", Content: "about dogs"}, Embedding: []float32{0, 1, 0}})
	sess.VectorIndex = idx
	return sess
}

func newEmbedClient(p provider.Provider) *embedding.Client {
	return embedding.New(p, embedding.Config{
		MaxConcurrentRequests: 4,
		MaxRetries:            0,
		CacheTTL:              time.Minute,
		CacheMaxBytes:         1 << 20,
	}, zap.NewNop())
}

func TestDirectRetrievesTopMatch(t *testing.T) {
	p := &vectorProvider{needle: "cats"}
	sess := newSessionWithChunks(t)
	d := Direct{Embed: newEmbedClient(p)}

	results, err := d.Retrieve(context.Background(), sess, "tell me about cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}

func TestQueryExpansionMergesAndRewardsMultipleHits(t *testing.T) {
	p := &vectorProvider{needle: "cats"}
	sess := newSessionWithChunks(t)
	q := QueryExpansion{Embed: newEmbedClient(p)}

	results, err := q.Retrieve(context.Background(), sess, "cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	// All four templates embed to the "cats" vector, so c1 should have
	// hitCount 4 and a combined score above its raw similarity of 1.0.
	assert.Greater(t, results[0].SimilarityScore, float32(1.0))
}

func TestQueryExpansionErrorsOnlyWhenAllEmbedsFail(t *testing.T) {
	sess := newSessionWithChunks(t)
	p := &failingProvider{}
	q := QueryExpansion{Embed: newEmbedClient(p)}

	_, err := q.Retrieve(context.Background(), sess, "anything", 5)
	require.Error(t, err)
}

type failingProvider struct{}

func (f *failingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, &provider.ProviderFailure{Status: 500}
}
func (f *failingProvider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) <-chan provider.StreamEvent {
	ch := make(chan provider.StreamEvent)
	close(ch)
	return ch
}

func TestHyDEEmbedsHypothesisInsteadOfQuery(t *testing.T) {
	p := &vectorProvider{needle: "feline", genText: "Cats (felines) are small domesticated mammals."}
	sess := newSessionWithChunks(t)
	h := HypotheticalDocument{Embed: newEmbedClient(p), Provider: p, Tokens: tokencount.RuneEstimator{}, Log: zap.NewNop()}

	results, err := h.Retrieve(context.Background(), sess, "what are cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}

func TestHyDEFallsBackToDirectOnGenerationFailure(t *testing.T) {
	p := &vectorProvider{needle: "cats", genErr: assertError{}}
	sess := newSessionWithChunks(t)
	h := HypotheticalDocument{Embed: newEmbedClient(p), Provider: p, Tokens: tokencount.RuneEstimator{}, Log: zap.NewNop()}

	results, err := h.Retrieve(context.Background(), sess, "tell me about cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}

type assertError struct{}

func (assertError) Error() string { return "generation failed" }
