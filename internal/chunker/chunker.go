// Package chunker implements the three document-splitting strategies:
// FixedSize, Sentence, and Paragraph.
package chunker

import (
	"fmt"

	"github.com/openrag/ragcore/internal/domain"
)

// Chunker splits a document's content into an ordered, non-empty list of
// chunks (empty input yields an empty, non-error result).
type Chunker interface {
	Chunk(documentID, documentName, content string) []domain.Chunk
}

// New builds a Chunker for the given strategy, size, and overlap.
func New(strategy domain.ChunkingStrategy, size, overlap int) (Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap %d must be in [0, size)", overlap)
	}
	switch strategy {
	case domain.ChunkingFixedSize, "":
		return FixedSize{Size: size, Overlap: overlap}, nil
	case domain.ChunkingSentence:
		return Sentence{TargetSize: size, Overlap: overlap}, nil
	case domain.ChunkingParagraph:
		return Paragraph{TargetSize: size, Overlap: overlap}, nil
	default:
		return nil, fmt.Errorf("chunker: unknown strategy %q", strategy)
	}
}

// newChunk builds a domain.Chunk from already-resolved text and offsets.
// Sentence/Paragraph chunkers reconstruct text by joining trimmed segments,
// so they pass that text directly rather than slicing the source content.
func newChunk(documentID, documentName, text string, start, end, index int) domain.Chunk {
	return domain.Chunk{
		ID:           domain.NewChunkID(documentID, index),
		DocumentID:   documentID,
		DocumentName: documentName,
		Content:      text,
		StartIndex:   start,
		EndIndex:     end,
		ChunkIndex:   index,
	}
}

func buildChunk(documentID, documentName, content string, start, end, index int) domain.Chunk {
	return newChunk(documentID, documentName, content[start:end], start, end, index)
}
