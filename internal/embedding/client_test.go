package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/provider"
)

type fakeProvider struct {
	calls         atomic.Int64
	failUntil     int64 // fail the first N calls with a retryable error
	permanentFail bool
	vec           []float32
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	n := f.calls.Add(1)
	if f.permanentFail {
		return nil, &provider.ProviderFailure{Status: 400, Body: "bad"}
	}
	if n <= f.failUntil {
		return nil, &provider.ProviderUnavailable{Status: 503, Body: "unavailable"}
	}
	return f.vec, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) <-chan provider.StreamEvent {
	ch := make(chan provider.StreamEvent)
	close(ch)
	return ch
}

func newTestClient(p provider.Provider) *Client {
	return New(p, Config{
		MaxConcurrentRequests: 4,
		MaxRetries:            3,
		CacheTTL:              time.Minute,
		CacheMaxBytes:         1 << 20,
	}, zap.NewNop())
}

func TestEmbedCachesAfterFirstCall(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 2, 3}}
	c := newTestClient(p)

	v1, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v1)

	v2, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(1), p.calls.Load(), "second call should be served from cache")

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestEmbedRetriesRetryableFailures(t *testing.T) {
	p := &fakeProvider{vec: []float32{9}, failUntil: 2}
	c := newTestClient(p)
	c.maxRetries = 3

	vec, err := c.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, []float32{9}, vec)
	assert.Equal(t, int64(3), p.calls.Load())
}

func TestEmbedDoesNotRetryNonRetryableFailures(t *testing.T) {
	p := &fakeProvider{permanentFail: true}
	c := newTestClient(p)

	_, err := c.Embed(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, int64(1), p.calls.Load(), "non-retryable failure must not be retried")
}

func TestEmbedExhaustsRetriesAndReturnsError(t *testing.T) {
	p := &fakeProvider{vec: []float32{1}, failUntil: 999}
	c := newTestClient(p)
	c.maxRetries = 2

	_, err := c.Embed(context.Background(), "always fails")
	require.Error(t, err)
	assert.Equal(t, int64(3), p.calls.Load()) // initial attempt + 2 retries
}

func TestEmbedBatchReportsProgressAndPartialFailure(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 1}}
	c := newTestClient(p)

	texts := []string{"a", "b", "c"}
	var progressCalls atomic.Int64
	vecs, errs := c.EmbedBatch(context.Background(), texts, func(completed, total int) {
		progressCalls.Add(1)
		assert.LessOrEqual(t, completed, total)
	})
	require.Len(t, vecs, 3)
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.NoError(t, e)
	}
	assert.Equal(t, int64(3), progressCalls.Load())
	assert.False(t, AllFailed(errs))
}

func TestEmbedBatchAllFailedWhenEveryItemFails(t *testing.T) {
	p := &fakeProvider{permanentFail: true}
	c := newTestClient(p)

	_, errs := c.EmbedBatch(context.Background(), []string{"a", "b"}, nil)
	require.True(t, AllFailed(errs))
}

func TestIsRetryableClassification(t *testing.T) {
	assert.True(t, isRetryable(&provider.ProviderUnavailable{Status: 503}))
	assert.False(t, isRetryable(&provider.ProviderFailure{Status: 400}))
	assert.False(t, isRetryable(fmt.Errorf("some unrelated error")))
}
