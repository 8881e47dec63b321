// Package embedding implements the cached, rate-limited, retrying
// embedding client. It sits between the retrieval and ingestion pipelines
// and the raw provider.Provider.Embed call.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/provider"
)

// Config tunes the client's cache, concurrency, and retry behavior.
type Config struct {
	MaxConcurrentRequests int
	MaxRetries            int
	CacheTTL              time.Duration
	CacheMaxBytes         int64
}

// Client is the embedding-client C2 component: cache-then-provider lookup,
// bounded provider concurrency, and retry with exponential backoff on
// retryable provider failures.
type Client struct {
	provider   provider.Provider
	cache      *Cache
	sem        *semaphore
	maxRetries int
	log        *zap.Logger
}

// New builds a Client around p.
func New(p provider.Provider, cfg Config, log *zap.Logger) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		provider:   p,
		cache:      NewCache(cfg.CacheTTL, cfg.CacheMaxBytes),
		sem:        newSemaphore(cfg.MaxConcurrentRequests),
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Embed returns text's embedding, serving from cache when possible and
// otherwise making a concurrency-limited, retried provider call.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	if err := c.sem.acquire(ctx); err != nil {
		return nil, fmt.Errorf("embedding: waiting for a concurrency slot: %w", err)
	}
	defer c.sem.release()

	// Another caller may have populated the cache while we waited on the
	// semaphore; re-check before paying for a round-trip. The re-check reads
	// the LRU directly so this call's miss, already counted above, is not
	// counted a second time.
	if vec, ok := c.cache.lru.Get(CacheKey(text)); ok {
		return vec, nil
	}

	vec, err := c.embedWithRetry(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Put(text, vec)
	return vec, nil
}

func (c *Client) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		vec, err := c.provider.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, fmt.Errorf("embedding: non-retryable provider failure: %w", err)
		}
		if attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		c.log.Debug("retrying embedding call",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("embedding: exhausted %d retries: %w", c.maxRetries, lastErr)
}

func isRetryable(err error) bool {
	return errors.Is(err, provider.ErrThrottled) || errors.Is(err, provider.ErrTransport)
}

// EmbedBatch embeds texts concurrently (bounded by the same semaphore that
// guards single Embed calls), reporting progress via onProgress as each
// item finishes. Results and failures are returned positionally: a failed
// item has a nil vector and a non-nil error in its slot, and no item's
// failure aborts the batch. No aggregate error is returned, even when every
// item failed; AllFailed reports that case.
func (c *Client) EmbedBatch(
	ctx context.Context,
	texts []string,
	onProgress func(completed, total int),
) ([][]float32, []error) {
	n := len(texts)
	vectors := make([][]float32, n)
	errs := make([]error, n)
	if n == 0 {
		return vectors, errs
	}

	var completed atomic.Int64
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			vec, err := c.Embed(ctx, text)
			vectors[i] = vec
			errs[i] = err
			done := completed.Add(1)
			if onProgress != nil {
				onProgress(int(done), n)
			}
		}(i, text)
	}
	wg.Wait()
	return vectors, errs
}

// AllFailed reports whether every slot in an EmbedBatch error slice failed,
// the condition under which a caller should treat the whole batch as a hard
// failure rather than proceeding with partial results.
func AllFailed(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if e == nil {
			return false
		}
	}
	return true
}

// CacheStats exposes the embedding cache's hit/miss/byte counters.
func (c *Client) CacheStats() CacheStats {
	return c.cache.Stats()
}
