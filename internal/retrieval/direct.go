package retrieval

import (
	"context"
	"fmt"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
)

// Direct embeds the query text verbatim and searches the index once.
type Direct struct {
	Embed *embedding.Client
}

func (d Direct) Retrieve(ctx context.Context, sess *domain.Session, queryText string, topK int) ([]domain.RetrievalResult, error) {
	vec, err := d.Embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embedding query: %w", err)
	}
	return sess.VectorIndex.Search(vec, topK, sess.Config.MinSimilarityScore)
}
