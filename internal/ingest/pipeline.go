// Package ingest implements the ingestion pipeline: a staged, bounded
// producer/consumer flow that chunks a document, embeds each chunk under
// concurrency control, and indexes the results, emitting progress
// checkpoints throughout. Chunking, embedding, and indexing run as
// separate stages connected by bounded channels, so a slow embedding
// provider applies backpressure instead of unbounded buffering.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/chunker"
	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
)

const (
	chunkQueueCapacity    = 50
	embeddedQueueCapacity = 20
)

// Pipeline runs the chunk -> embed -> index flow for one document at a
// time per call; callers (the orchestrator) serialize or parallelize calls
// across documents as needed.
type Pipeline struct {
	embed *embedding.Client
	log   *zap.Logger
}

// New builds a Pipeline around an embedding client.
func New(embed *embedding.Client, log *zap.Logger) *Pipeline {
	return &Pipeline{embed: embed, log: log}
}

type embedJob struct {
	chunk domain.Chunk
}

type embedOutcome struct {
	chunk domain.Chunk
	vec   []float32
	err   error
}

// Ingest runs doc through the pipeline, returning a channel of progress
// updates. The channel is closed once the document has been fully indexed,
// rejected by pre-flight validation, or abandoned due to ctx cancellation —
// in every case the final update sent is either Complete or Error (after
// cancellation it is dropped only if the channel's buffer is full). Nothing
// is checked before the channel is handed back: every failure, including
// validation against Session.Config limits, is reported as an Error update
// on the stream itself rather than a constructor error, so a caller only
// ever has to read one channel to completion. strategyOverride, if
// non-empty, takes precedence over Session.Config.DefaultChunkingStrategy
// for this document only.
func (p *Pipeline) Ingest(ctx context.Context, sess *domain.Session, doc domain.Document, strategyOverride domain.ChunkingStrategy) <-chan domain.IngestProgressUpdate {
	updates := make(chan domain.IngestProgressUpdate, domain.IngestTotalSteps+2)
	go p.run(ctx, sess, doc, strategyOverride, updates)
	return updates
}

// Progress checkpoints, as fractions of the overall ingest: chunking lands
// at 10%, the embedding phase interpolates 30%->80% as chunks complete,
// indexing lands at 90%, and completion is 100%.
const (
	pctStarting  = 0
	pctChunking  = 10
	pctEmbedLow  = 30
	pctEmbedHigh = 80
	pctIndexing  = 90
	pctComplete  = 100
)

func (p *Pipeline) run(ctx context.Context, sess *domain.Session, doc domain.Document, strategyOverride domain.ChunkingStrategy, updates chan<- domain.IngestProgressUpdate) {
	defer close(updates)

	send := func(step int, phase, message string, pct float64) {
		u := domain.IngestProgressUpdate{
			Phase:           phase,
			CurrentStep:     step,
			TotalSteps:      domain.IngestTotalSteps,
			Message:         message,
			PercentComplete: pct,
		}
		// Deliver without waiting whenever the buffer has room, so an Error
		// update still goes out after ctx is cancelled.
		select {
		case updates <- u:
			return
		default:
		}
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	}

	send(0, "starting", fmt.Sprintf("beginning ingest of %s", doc.FileName), pctStarting)
	if ctx.Err() != nil {
		send(0, "error", "ingest cancelled before starting", pctStarting)
		return
	}

	cfg := sess.Config
	if cfg.MaxFileSizeBytes > 0 && len(doc.Content) > cfg.MaxFileSizeBytes {
		send(0, "error", fmt.Sprintf("File too large (%d KB). Maximum: %d KB",
			len(doc.Content)/1024, cfg.MaxFileSizeBytes/1024), pctStarting)
		return
	}
	if sess.DocumentCount() >= cfg.MaxDocuments {
		send(0, "error", "document limit reached", pctStarting)
		return
	}

	strategy := cfg.DefaultChunkingStrategy
	if strategyOverride != "" {
		strategy = strategyOverride
	}
	chunkerImpl, err := chunker.New(strategy, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		send(0, "error", fmt.Sprintf("invalid chunking configuration: %v", err), pctStarting)
		return
	}

	send(1, "chunking", "splitting document into chunks", pctChunking)
	chunkStart := time.Now()
	chunks := chunkerImpl.Chunk(doc.ID, doc.FileName, doc.Content)
	sess.Metrics.AddChunkingTime(time.Since(chunkStart).Milliseconds())
	if ctx.Err() != nil {
		send(1, "error", "ingest cancelled during chunking", pctChunking)
		return
	}
	if len(chunks) == 0 {
		send(1, "error", "document produced no chunks", pctChunking)
		return
	}

	embedStart := time.Now()
	embedded, indexed, cancelled := p.embedAndIndex(ctx, sess, chunks, func(completed, total int) {
		frac := float64(completed) / float64(total)
		pct := pctEmbedLow + frac*(pctEmbedHigh-pctEmbedLow)
		select {
		case updates <- domain.IngestProgressUpdate{
			Phase:           "embedding",
			CurrentStep:     2,
			TotalSteps:      domain.IngestTotalSteps,
			Message:         fmt.Sprintf("embedded %d/%d chunks", completed, total),
			PercentComplete: pct,
		}:
		case <-ctx.Done():
		}
	})
	sess.Metrics.AddEmbeddingTime(time.Since(embedStart).Milliseconds())
	if cancelled {
		send(2, "error", "ingest cancelled during embedding", pctEmbedLow)
		return
	}
	if embedded == 0 {
		send(2, "error", fmt.Sprintf("all %d chunks failed to embed", len(chunks)), pctEmbedLow)
		return
	}

	send(3, "indexing", fmt.Sprintf("indexed %d/%d chunks", indexed, len(chunks)), pctIndexing)
	sess.Metrics.AddTotalChunks(int64(indexed))

	send(domain.IngestTotalSteps, "complete", fmt.Sprintf("ingest complete: %d chunks indexed", indexed), pctComplete)
	finalize(sess, doc)
}

func finalize(sess *domain.Session, doc domain.Document) {
	doc.CharCount = len(doc.Content)
	sess.AddDocument(doc)
}

// embedAndIndex runs the worker-pool embed stage and the single-consumer
// index stage over chunks, bridged by bounded channels so a slow embedder
// backs up into the chunk queue instead of unbounded memory growth.
func (p *Pipeline) embedAndIndex(
	ctx context.Context,
	sess *domain.Session,
	chunks []domain.Chunk,
	onProgress func(completed, total int),
) (embeddedCount, indexedCount int, cancelled bool) {
	jobs := make(chan embedJob, chunkQueueCapacity)
	outcomes := make(chan embedOutcome, embeddedQueueCapacity)

	workers := sess.Config.MaxConcurrentEmbeddings
	if workers < 1 {
		workers = 1
	}

	var workerWG sync.WaitGroup
	for w := 0; w < workers; w++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for job := range jobs {
				vec, err := p.embed.Embed(ctx, job.chunk.Content)
				outcomes <- embedOutcome{chunk: job.chunk, vec: vec, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- embedJob{chunk: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerWG.Wait()
		close(outcomes)
	}()

	var completed int
	for outcome := range outcomes {
		completed++
		embeddedCount += boolToInt(outcome.err == nil)
		if outcome.err != nil {
			p.log.Warn("dropping chunk that failed to embed",
				zap.String("chunk_id", outcome.chunk.ID),
				zap.Error(outcome.err),
			)
		} else {
			sess.VectorIndex.Append(domain.EmbeddedChunk{Chunk: outcome.chunk, Embedding: outcome.vec})
			indexedCount++
		}
		onProgress(completed, len(chunks))
	}

	if ctx.Err() != nil {
		return embeddedCount, indexedCount, true
	}
	return embeddedCount, indexedCount, false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
