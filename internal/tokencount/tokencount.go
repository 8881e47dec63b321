// Package tokencount estimates token counts for prompt assembly and usage
// metrics. It prefers a real tiktoken encoding and falls back to a cheap
// rune-based heuristic if the encoder can't be constructed for a given
// model name, so a single bad model string never takes the orchestrator
// down with it.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Estimator counts tokens in a string. All implementations are safe for
// concurrent use.
type Estimator interface {
	Count(text string) int
}

// TiktokenEstimator counts tokens with a real BPE encoding.
type TiktokenEstimator struct {
	mu  sync.Mutex
	tke *tiktoken.Tiktoken
}

// NewTiktokenEstimator builds an estimator for modelOrEncoding, falling back
// to cl100k_base if the name is unrecognized, and returns a RuneEstimator if
// even that fails to load.
func NewTiktokenEstimator(modelOrEncoding string) Estimator {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}
	tke, err := tiktoken.EncodingForModel(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.GetEncoding(modelOrEncoding)
	}
	if err != nil {
		tke, err = tiktoken.GetEncoding(defaultEncoding)
	}
	if err != nil {
		return RuneEstimator{}
	}
	return &TiktokenEstimator{tke: tke}
}

func (e *TiktokenEstimator) Count(text string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tke.Encode(text, nil, nil))
}

// RuneEstimator is a last-resort heuristic: roughly 4 characters per token
// for English prose, with a floor of one token per non-empty text. It never
// fails, which is the point — it exists so tokencount always has something
// to hand back even with zero dependencies available.
type RuneEstimator struct{}

func (RuneEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len([]rune(text))
	tokens := n / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
