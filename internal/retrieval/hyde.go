package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/tokencount"
)

const hydeMaxOutputTokens = 500
const hydeTemperature = 0.3

// HypotheticalDocument generates a short hypothetical answer to the query
// and embeds that instead of the query itself — passages tend to be more
// similar to other passages than a short question is, so this often
// out-retrieves Direct on sparse indexes. Any failure generating or
// embedding the hypothesis falls back to Direct rather than erroring, since
// the fallback always has a reasonable chance of still answering the query.
type HypotheticalDocument struct {
	Embed    *embedding.Client
	Provider provider.Provider
	Tokens   tokencount.Estimator
	Log      *zap.Logger
}

func (h HypotheticalDocument) Retrieve(ctx context.Context, sess *domain.Session, queryText string, topK int) ([]domain.RetrievalResult, error) {
	hypothesis, err := h.generateHypothesis(ctx, queryText)
	if err != nil {
		h.logFallback(queryText, err)
		return Direct{Embed: h.Embed}.Retrieve(ctx, sess, queryText, topK)
	}

	vec, err := h.Embed.Embed(ctx, hypothesis)
	if err != nil {
		h.logFallback(queryText, err)
		return Direct{Embed: h.Embed}.Retrieve(ctx, sess, queryText, topK)
	}

	return sess.VectorIndex.Search(vec, topK, sess.Config.MinSimilarityScore)
}

func (h HypotheticalDocument) logFallback(queryText string, cause error) {
	if h.Log == nil {
		return
	}
	h.Log.Warn("hyde retrieval falling back to direct",
		zap.String("query", queryText),
		zap.Error(cause),
	)
}

func (h HypotheticalDocument) generateHypothesis(ctx context.Context, queryText string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a short, plausible passage that would answer the following question. "+
			"Do not mention that this is hypothetical.\n\nQuestion: %s",
		queryText,
	)

	ch := h.Provider.Generate(ctx, prompt, provider.GenerateOptions{
		Temperature:     hydeTemperature,
		MaxOutputTokens: hydeMaxOutputTokens,
	})

	var sb strings.Builder
	for ev := range ch {
		if ev.Err != nil {
			return "", fmt.Errorf("retrieval: generating hypothetical document: %w", ev.Err)
		}
		sb.WriteString(ev.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("retrieval: hypothetical document generation produced no text: %w", domain.ErrProviderFailure)
	}

	hypothesis := sb.String()
	if h.Tokens != nil && h.Log != nil {
		h.Log.Debug("hyde hypothesis generated",
			zap.Int("estimated_tokens", h.Tokens.Count(hypothesis)),
		)
	}
	return hypothesis, nil
}
