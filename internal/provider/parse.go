package provider

import (
	"bytes"
	"encoding/json"
	"strings"
)

// geminiChunk is the minimal shape we pull out of each streamed response
// unit, whatever shape the transport wrapped it in. Unknown fields are
// ignored — we intentionally parse a fraction of the real payload.
type geminiChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (c geminiChunk) text() string {
	if len(c.Candidates) == 0 || len(c.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return c.Candidates[0].Content.Parts[0].Text
}

func (c geminiChunk) usage() *Usage {
	if c.UsageMetadata == nil {
		return nil
	}
	return &Usage{
		PromptTokens:    c.UsageMetadata.PromptTokenCount,
		CandidateTokens: c.UsageMetadata.CandidatesTokenCount,
		TotalTokens:     c.UsageMetadata.TotalTokenCount,
	}
}

// parseStreamBody decodes a response body that may be:
//   - a JSON array of chunk objects ("[{...},{...}]")
//   - a single JSON object ("{...}")
//   - newline-delimited objects, each optionally prefixed with "data: "
//     (SSE-framed), with an optional trailing "data: [DONE]" sentinel
//
// It returns the fragments in arrival order and the last non-nil usage
// report seen, if any.
func parseStreamBody(body []byte) ([]string, *Usage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil, ErrParse
	}

	if trimmed[0] == '[' {
		var chunks []geminiChunk
		if err := json.Unmarshal(trimmed, &chunks); err != nil {
			return nil, nil, ErrParse
		}
		return collect(chunks)
	}

	if trimmed[0] == '{' && looksLikeSingleObject(trimmed) {
		var chunk geminiChunk
		if err := json.Unmarshal(trimmed, &chunk); err == nil {
			return collect([]geminiChunk{chunk})
		}
	}

	// Fall back to line-delimited parsing (NDJSON, optionally SSE-framed).
	var chunks []geminiChunk
	lines := strings.Split(string(trimmed), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "data:")
		line = strings.TrimSpace(line)
		if line == "" || line == "[DONE]" {
			continue
		}
		var chunk geminiChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, nil, ErrParse
	}
	return collect(chunks)
}

// looksLikeSingleObject guards against mistaking a bare NDJSON first line
// (which also starts with '{') for the whole body: a genuine single-object
// response has no further top-level '{' after the body is balanced, i.e.
// there is exactly one line once whitespace is trimmed.
func looksLikeSingleObject(trimmed []byte) bool {
	return len(strings.Fields(string(trimmed))) > 0 && !bytes.Contains(trimmed, []byte("\n{"))
}

func collect(chunks []geminiChunk) ([]string, *Usage, error) {
	fragments := make([]string, 0, len(chunks))
	var usage *Usage
	for _, c := range chunks {
		if t := c.text(); t != "" {
			fragments = append(fragments, t)
		}
		if u := c.usage(); u != nil {
			usage = u
		}
	}
	return fragments, usage, nil
}

// embedResponse is the minimal shape of an embedding call's response body.
type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func parseEmbedBody(body []byte) ([]float32, error) {
	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ErrParse
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, ErrParse
	}
	return resp.Embedding.Values, nil
}
