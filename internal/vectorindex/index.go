// Package vectorindex implements the per-session, append-only vector store
// and its SIMD-accelerated cosine similarity search.
package vectorindex

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/openrag/ragcore/internal/domain"
)

// Index is a concurrency-safe, append-only collection of EmbeddedChunks.
// Appends may come from multiple ingestion workers concurrently; reads take
// a consistent snapshot of the slice under a read lock.
type Index struct {
	mu     sync.RWMutex
	chunks []domain.EmbeddedChunk
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// Append adds an EmbeddedChunk. Safe for concurrent callers.
func (idx *Index) Append(ec domain.EmbeddedChunk) {
	idx.mu.Lock()
	idx.chunks = append(idx.chunks, ec)
	idx.mu.Unlock()
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// snapshot returns the current backing slice's contents copied out, so
// scoring never races with concurrent appends.
func (idx *Index) snapshot() []domain.EmbeddedChunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]domain.EmbeddedChunk, len(idx.chunks))
	copy(out, idx.chunks)
	return out
}

// RetrievalCandidate is an internal scoring record; callers use
// domain.RetrievalResult, produced by Search after ranking.
type RetrievalCandidate struct {
	chunk domain.Chunk
	score float32
	seq   int // insertion order, used to break score ties deterministically
}

// Search scores every EmbeddedChunk against query by cosine similarity,
// drops anything under minScore, sorts descending (ties broken by
// insertion order), and returns the top topK ranked 1..k.
//
// Every indexed embedding is expected to share query's dimensionality; a
// mismatch means an embedding model changed mid-session or a caller passed
// the wrong vector, either of which is a programmer error rather than a
// retrievable condition, so Search surfaces it as ErrInvariantViolation
// instead of silently scoring it as a non-match.
//
// If the index holds at least 100 chunks, scoring is parallelized across a
// bounded worker pool; the final sort still makes the result deterministic.
func (idx *Index) Search(query []float32, topK int, minScore float32) ([]domain.RetrievalResult, error) {
	snap := idx.snapshot()
	if len(snap) == 0 || topK <= 0 {
		return nil, nil
	}

	for _, ec := range snap {
		if len(ec.Embedding) != len(query) {
			return nil, fmt.Errorf("vectorindex: query has %d dimensions, chunk %q has %d: %w",
				len(query), ec.Chunk.ID, len(ec.Embedding), domain.ErrInvariantViolation)
		}
	}

	candidates := make([]RetrievalCandidate, len(snap))
	if len(snap) >= 100 {
		scoreParallel(snap, query, candidates)
	} else {
		scoreSequential(snap, query, candidates)
	}

	filtered := make([]RetrievalCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.score >= minScore {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].score != filtered[j].score {
			return filtered[i].score > filtered[j].score
		}
		return filtered[i].seq < filtered[j].seq
	})

	if topK < len(filtered) {
		filtered = filtered[:topK]
	}

	out := make([]domain.RetrievalResult, len(filtered))
	for i, c := range filtered {
		out[i] = domain.RetrievalResult{
			Chunk:           c.chunk,
			SimilarityScore: c.score,
			Rank:            i + 1,
		}
	}
	return out, nil
}

func scoreSequential(snap []domain.EmbeddedChunk, query []float32, out []RetrievalCandidate) {
	for i, ec := range snap {
		out[i] = RetrievalCandidate{chunk: ec.Chunk, score: CosineSIMD(query, ec.Embedding), seq: i}
	}
}

func scoreParallel(snap []domain.EmbeddedChunk, query []float32, out []RetrievalCandidate) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(snap) {
		workers = len(snap)
	}

	chunkSize := (len(snap) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(snap) {
			break
		}
		end := start + chunkSize
		if end > len(snap) {
			end = len(snap)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i] = RetrievalCandidate{
					chunk: snap[i].Chunk,
					score: CosineSIMD(query, snap[i].Embedding),
					seq:   i,
				}
			}
		}(start, end)
	}
	wg.Wait()
}
