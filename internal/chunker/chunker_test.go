package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrag/ragcore/internal/domain"
)

func TestFixedSizeNoOverlapConcatenatesExactly(t *testing.T) {
	content := strings.Repeat("a", 1000)
	f := FixedSize{Size: 250, Overlap: 0}
	chunks := f.Chunk("doc1", "doc.txt", content)
	require.Len(t, chunks, 4)

	var rebuilt strings.Builder
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		rebuilt.WriteString(c.Content)
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestFixedSizeOverlapSharesExactOverlapChars(t *testing.T) {
	content := strings.Repeat("0123456789", 100) // 1000 chars
	f := FixedSize{Size: 120, Overlap: 20}
	chunks := f.Chunk("doc1", "doc.txt", content)
	require.True(t, len(chunks) > 1)
	for i := 0; i < len(chunks)-1; i++ {
		a, b := chunks[i], chunks[i+1]
		assert.LessOrEqual(t, len(a.Content), f.Size)
		overlapLen := a.EndIndex - b.StartIndex
		assert.Equal(t, f.Overlap, overlapLen)
	}
}

func TestFixedSizeDiscardsTinyTrailingChunk(t *testing.T) {
	f := FixedSize{Size: 100, Overlap: 0}
	content := strings.Repeat("x", 210) // last chunk would be 10 chars (<25)
	chunks := f.Chunk("doc1", "d.txt", content)
	last := chunks[len(chunks)-1]
	assert.GreaterOrEqual(t, last.EndIndex-last.StartIndex, f.Size/4)
}

func TestFixedSizePreservesSingleTinyChunk(t *testing.T) {
	f := FixedSize{Size: 100, Overlap: 0}
	content := "tiny"
	chunks := f.Chunk("doc1", "d.txt", content)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Content)
}

func TestFixedSizeEmptyContent(t *testing.T) {
	f := FixedSize{Size: 100, Overlap: 10}
	assert.Empty(t, f.Chunk("doc1", "d.txt", ""))
}

func TestSentenceChunkerAccumulatesAndSeeds(t *testing.T) {
	content := "One sentence here. Two sentence here. Three sentence here. " +
		"Four sentence here. Five sentence here."
	s := Sentence{TargetSize: 40, Overlap: 10}
	chunks := s.Chunk("doc1", "d.txt", content)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.StartIndex, 0)
		assert.LessOrEqual(t, c.EndIndex, len(content))
		assert.LessOrEqual(t, c.StartIndex, c.EndIndex)
	}
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartIndex, chunks[i-1].StartIndex)
	}
}

func TestParagraphChunkerSplitsOnBlankLines(t *testing.T) {
	content := "Para one line one.\n\nPara two line one. Para two line two.\n\nPara three."
	p := Paragraph{TargetSize: 30, Overlap: 5}
	chunks := p.Chunk("doc1", "d.txt", content)
	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartIndex, chunks[i-1].StartIndex)
	}
}

func TestParagraphChunkerReChunksOversizedParagraph(t *testing.T) {
	big := strings.Repeat("word ", 200) // 1000 chars, no blank lines inside
	content := "intro\n\n" + big + "\n\noutro"
	p := Paragraph{TargetSize: 100, Overlap: 10}
	chunks := p.Chunk("doc1", "d.txt", content)
	require.True(t, len(chunks) >= 3)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartIndex, chunks[i-1].StartIndex)
	}
}

func TestNewRejectsInvalidOverlap(t *testing.T) {
	_, err := New(domain.ChunkingFixedSize, 100, 100)
	require.Error(t, err)
	_, err = New(domain.ChunkingFixedSize, 0, 0)
	require.Error(t, err)
}

func TestNewSelectsStrategy(t *testing.T) {
	c, err := New(domain.ChunkingSentence, 50, 5)
	require.NoError(t, err)
	_, ok := c.(Sentence)
	assert.True(t, ok)
}
