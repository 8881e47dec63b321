package domain

import (
	"sync"
	"time"
)

// SessionConfig is immutable per session once created.
type SessionConfig struct {
	SessionTTL              time.Duration     `json:"sessionTtl"`
	MaxDocuments            int               `json:"maxDocuments"`
	MaxFileSizeBytes        int               `json:"maxFileSizeBytes"`
	ChunkSize               int               `json:"chunkSize"`
	ChunkOverlap            int               `json:"chunkOverlap"`
	TopK                    int               `json:"topK"`
	MinSimilarityScore      float32           `json:"minSimilarityScore"`
	DefaultStrategy         RetrievalStrategy `json:"defaultStrategy"`
	DefaultChunkingStrategy ChunkingStrategy  `json:"defaultChunkingStrategy"`
	MaxConcurrentEmbeddings int               `json:"maxConcurrentEmbeddings"`
}

// DefaultSessionConfig returns the documented defaults applied when a
// session is created without overrides.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SessionTTL:              15 * time.Minute,
		MaxDocuments:            2,
		MaxFileSizeBytes:        102400,
		ChunkSize:               512,
		ChunkOverlap:            50,
		TopK:                    5,
		MinSimilarityScore:      0.3,
		DefaultStrategy:         RetrievalDirect,
		DefaultChunkingStrategy: ChunkingFixedSize,
		MaxConcurrentEmbeddings: 5,
	}
}

// VectorIndexer is the subset of internal/vectorindex.Index that domain and
// its consumers need, kept here as an interface so domain never imports the
// vectorindex package (avoids an import cycle: vectorindex depends on
// domain for Chunk/EmbeddedChunk/RetrievalResult).
type VectorIndexer interface {
	Append(EmbeddedChunk)
	Search(query []float32, topK int, minScore float32) ([]RetrievalResult, error)
	Len() int
}

// Session is the per-caller container of documents, embeddings, and metrics.
type Session struct {
	SessionID   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Config      SessionConfig
	VectorIndex VectorIndexer

	mu        sync.RWMutex
	documents []Document

	Metrics AtomicMetrics
}

// NewSession constructs a Session with the given id and config. The caller
// (internal/session) is responsible for installing ExpiresAt and VectorIndex.
func NewSession(sessionID string, cfg SessionConfig) *Session {
	now := time.Now()
	return &Session{
		SessionID: sessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.SessionTTL),
		Config:    cfg,
	}
}

// AddDocument appends a document if the per-session cap allows it.
// Returns false (and does not append) if the cap is already reached.
func (s *Session) AddDocument(doc Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.documents) >= s.Config.MaxDocuments {
		return false
	}
	s.documents = append(s.documents, doc)
	return true
}

// DocumentCount returns the number of documents currently owned.
func (s *Session) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Documents returns a snapshot copy of the owned documents.
func (s *Session) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.documents))
	copy(out, s.documents)
	return out
}
