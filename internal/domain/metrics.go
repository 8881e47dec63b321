package domain

import "sync/atomic"

// Metrics captures timing and volume counters for a single ingestion or
// query, or accumulated across a session's lifetime.
type Metrics struct {
	ChunkingTimeMs   int64 `json:"chunkingTimeMs"`
	EmbeddingTimeMs  int64 `json:"embeddingTimeMs"`
	RetrievalTimeMs  int64 `json:"retrievalTimeMs"`
	GenerationTimeMs int64 `json:"generationTimeMs"`
	TotalTimeMs      int64 `json:"totalTimeMs"`
	TotalChunks      int64 `json:"totalChunks"`
	ChunksRetrieved  int64 `json:"chunksRetrieved"`
	TotalTokensUsed  int64 `json:"totalTokensUsed"`
}

// AtomicMetrics is the mutable, concurrency-safe accumulator backing
// Session.Metrics. All fields are updated with atomic operations so no
// lock is needed across suspension points.
type AtomicMetrics struct {
	chunkingTimeMs   int64
	embeddingTimeMs  int64
	retrievalTimeMs  int64
	generationTimeMs int64
	totalTimeMs      int64
	totalChunks      int64
	chunksRetrieved  int64
	totalTokensUsed  int64
}

// AddChunkingTime accumulates chunking duration in milliseconds.
func (m *AtomicMetrics) AddChunkingTime(ms int64) { atomic.AddInt64(&m.chunkingTimeMs, ms) }

// AddEmbeddingTime accumulates embedding duration in milliseconds.
func (m *AtomicMetrics) AddEmbeddingTime(ms int64) { atomic.AddInt64(&m.embeddingTimeMs, ms) }

// AddRetrievalTime accumulates retrieval duration in milliseconds.
func (m *AtomicMetrics) AddRetrievalTime(ms int64) { atomic.AddInt64(&m.retrievalTimeMs, ms) }

// AddGenerationTime accumulates generation duration in milliseconds.
func (m *AtomicMetrics) AddGenerationTime(ms int64) { atomic.AddInt64(&m.generationTimeMs, ms) }

// AddTotalTime accumulates total duration in milliseconds.
func (m *AtomicMetrics) AddTotalTime(ms int64) { atomic.AddInt64(&m.totalTimeMs, ms) }

// AddTotalChunks accumulates the chunk count produced by ingestion.
func (m *AtomicMetrics) AddTotalChunks(n int64) { atomic.AddInt64(&m.totalChunks, n) }

// AddChunksRetrieved accumulates the chunk count returned by a query.
func (m *AtomicMetrics) AddChunksRetrieved(n int64) { atomic.AddInt64(&m.chunksRetrieved, n) }

// AddTokensUsed accumulates tokens reported or estimated for a generation.
func (m *AtomicMetrics) AddTokensUsed(n int64) { atomic.AddInt64(&m.totalTokensUsed, n) }

// Snapshot materializes a point-in-time Metrics value.
func (m *AtomicMetrics) Snapshot() Metrics {
	return Metrics{
		ChunkingTimeMs:   atomic.LoadInt64(&m.chunkingTimeMs),
		EmbeddingTimeMs:  atomic.LoadInt64(&m.embeddingTimeMs),
		RetrievalTimeMs:  atomic.LoadInt64(&m.retrievalTimeMs),
		GenerationTimeMs: atomic.LoadInt64(&m.generationTimeMs),
		TotalTimeMs:      atomic.LoadInt64(&m.totalTimeMs),
		TotalChunks:      atomic.LoadInt64(&m.totalChunks),
		ChunksRetrieved:  atomic.LoadInt64(&m.chunksRetrieved),
		TotalTokensUsed:  atomic.LoadInt64(&m.totalTokensUsed),
	}
}
