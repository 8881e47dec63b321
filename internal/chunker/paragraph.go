package chunker

import "github.com/openrag/ragcore/internal/domain"

// Paragraph splits content on blank lines and greedily accumulates
// paragraphs into chunks of approximately TargetSize characters, joined by
// a blank line. A single paragraph exceeding 2*TargetSize is flushed on its
// own and re-chunked internally by FixedSize, preserving overall ordering.
type Paragraph struct {
	TargetSize int
	Overlap    int
}

func (p Paragraph) Chunk(documentID, documentName, content string) []domain.Chunk {
	if len(content) == 0 {
		return nil
	}
	spans := splitParagraphSpans(content)
	if len(spans) == 0 {
		return nil
	}

	var pending []span // paragraphs awaiting normal accumulation
	var emitted []span

	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		emitted = append(emitted, accumulateSpans(pending, p.TargetSize, p.Overlap, "\n\n")...)
		pending = nil
	}

	fixed := FixedSize{Size: p.TargetSize, Overlap: p.Overlap}
	for _, s := range spans {
		if len(s.text) > 2*p.TargetSize {
			flushPending()
			for _, sub := range fixed.Chunk(documentID, documentName, s.text) {
				emitted = append(emitted, span{
					text:  sub.Content,
					start: s.start + sub.StartIndex,
					end:   s.start + sub.EndIndex,
				})
			}
			continue
		}
		pending = append(pending, s)
	}
	flushPending()

	out := make([]domain.Chunk, len(emitted))
	for i, e := range emitted {
		out[i] = newChunk(documentID, documentName, e.text, e.start, e.end, i)
	}
	return out
}
