package chunker

import "strings"

// span is a trimmed unit of text (a sentence or a paragraph) located within
// the original document content.
type span struct {
	text  string
	start int
	end   int
}

// splitSentenceSpans splits content on sentence boundaries — a '.', '!', or
// '?' immediately followed by whitespace or end-of-string — equivalent to a
// `/(?<=[.!?])\s+/` split, implemented without lookbehind since Go's RE2
// engine doesn't support it.
func splitSentenceSpans(content string) []span {
	var spans []span
	start := 0
	n := len(content)
	for i := 0; i < n; i++ {
		c := content[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < n && !isASCIISpace(content[i+1]) {
			continue
		}
		spans = append(spans, trimSpan(content, start, i+1))
		start = i + 1
	}
	if start < n {
		spans = append(spans, trimSpan(content, start, n))
	}
	return nonEmptySpans(spans)
}

// splitParagraphSpans splits content on blank lines (`\n\s*\n`), tracking
// each paragraph's exact offsets in the original content.
func splitParagraphSpans(content string) []span {
	var spans []span
	start := 0
	n := len(content)
	i := 0
	for i < n {
		if content[i] != '\n' {
			i++
			continue
		}
		j := i + 1
		sawSecondNewline := false
		for j < n && isASCIISpace(content[j]) {
			if content[j] == '\n' {
				sawSecondNewline = true
			}
			j++
		}
		if sawSecondNewline {
			spans = append(spans, trimSpan(content, start, i))
			start = j
			i = j
			continue
		}
		i++
	}
	spans = append(spans, trimSpan(content, start, n))
	return nonEmptySpans(spans)
}

func trimSpan(content string, start, end int) span {
	raw := content[start:end]
	left := strings.TrimLeft(raw, " \t\r\n")
	leadWS := len(raw) - len(left)
	trimmed := strings.TrimRight(left, " \t\r\n")
	actualStart := start + leadWS
	return span{text: trimmed, start: actualStart, end: actualStart + len(trimmed)}
}

func nonEmptySpans(spans []span) []span {
	out := spans[:0]
	for _, s := range spans {
		if s.text != "" {
			out = append(out, s)
		}
	}
	return out
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// accumulateSpans greedily joins spans with joiner until the next span
// would push the accumulator past targetSize, then emits and seeds the next
// accumulator with a trailing suffix summing to approximately overlap
// chars.
func accumulateSpans(spans []span, targetSize, overlap int, joiner string) []span {
	var results []span
	var acc []span
	accLen := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		results = append(results, joinSpans(acc, joiner))
	}

	for _, s := range spans {
		addLen := len(s.text)
		joinerLen := 0
		if len(acc) > 0 {
			joinerLen = len(joiner)
		}
		if len(acc) > 0 && accLen+joinerLen+addLen > targetSize {
			flush()
			acc = retainSuffix(acc, overlap, joiner)
			accLen = lenOfJoined(acc, joiner)
		}
		acc = append(acc, s)
		accLen = lenOfJoined(acc, joiner)
	}
	flush()
	return results
}

func joinSpans(acc []span, joiner string) span {
	texts := make([]string, len(acc))
	for i, s := range acc {
		texts[i] = s.text
	}
	return span{
		text:  strings.Join(texts, joiner),
		start: acc[0].start,
		end:   acc[len(acc)-1].end,
	}
}

func lenOfJoined(acc []span, joiner string) int {
	if len(acc) == 0 {
		return 0
	}
	total := 0
	for _, s := range acc {
		total += len(s.text)
	}
	total += len(joiner) * (len(acc) - 1)
	return total
}

// retainSuffix keeps the smallest trailing run of spans whose combined
// length (joined) is >= overlap, seeding the next accumulator.
func retainSuffix(acc []span, overlap int, joiner string) []span {
	if overlap <= 0 || len(acc) == 0 {
		return nil
	}
	total := 0
	start := len(acc)
	for start > 0 {
		start--
		total += len(acc[start].text)
		if start < len(acc)-1 {
			total += len(joiner)
		}
		if total >= overlap {
			break
		}
	}
	return acc[start:]
}
