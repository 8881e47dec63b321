package domain

// ChunkingStrategy selects a Chunker implementation.
type ChunkingStrategy string

const (
	ChunkingFixedSize ChunkingStrategy = "fixed_size"
	ChunkingSentence  ChunkingStrategy = "sentence"
	ChunkingParagraph ChunkingStrategy = "paragraph"
)

// RetrievalStrategy selects a retrieval.Strategy implementation.
type RetrievalStrategy string

const (
	RetrievalDirect               RetrievalStrategy = "direct"
	RetrievalQueryExpansion       RetrievalStrategy = "query_expansion"
	RetrievalHypotheticalDocument RetrievalStrategy = "hypothetical_document"
)
