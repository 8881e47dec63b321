package chunker

import "github.com/openrag/ragcore/internal/domain"

// Sentence splits content into sentences, then greedily accumulates them
// into chunks of approximately TargetSize characters with an overlapping
// seed of trailing sentences carried into the next chunk.
type Sentence struct {
	TargetSize int
	Overlap    int
}

func (s Sentence) Chunk(documentID, documentName, content string) []domain.Chunk {
	if len(content) == 0 {
		return nil
	}
	spans := splitSentenceSpans(content)
	if len(spans) == 0 {
		return nil
	}
	emitted := accumulateSpans(spans, s.TargetSize, s.Overlap, " ")
	out := make([]domain.Chunk, len(emitted))
	for i, e := range emitted {
		out[i] = newChunk(documentID, documentName, e.text, e.start, e.end, i)
	}
	return out
}
