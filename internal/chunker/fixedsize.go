package chunker

import "github.com/openrag/ragcore/internal/domain"

// FixedSize splits content into fixed-width, overlapping windows.
type FixedSize struct {
	Size    int
	Overlap int
}

func (f FixedSize) Chunk(documentID, documentName, content string) []domain.Chunk {
	n := len(content)
	if n == 0 {
		return nil
	}
	step := f.Size - f.Overlap
	if step < 1 {
		step = 1
	}
	minLen := f.Size / 4

	var chunks []domain.Chunk
	for i := 0; i < n; i += step {
		end := i + f.Size
		if end > n {
			end = n
		}
		chunks = append(chunks, domain.Chunk{StartIndex: i, EndIndex: end})
		if end >= n {
			break
		}
	}

	// Discard a trailing chunk shorter than size/4, unless it is the only
	// chunk (preserves single-chunk documents shorter than size/4).
	if len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if last.EndIndex-last.StartIndex < minLen {
			chunks = chunks[:len(chunks)-1]
		}
	}

	out := make([]domain.Chunk, len(chunks))
	for idx, c := range chunks {
		out[idx] = buildChunk(documentID, documentName, content, c.StartIndex, c.EndIndex, idx)
	}
	return out
}
