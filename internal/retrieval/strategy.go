// Package retrieval implements the three retrieval strategies: Direct
// embed-and-search, QueryExpansion with multi-query rerank, and
// HypotheticalDocument (HyDE), which generates a plausible answer before
// embedding it for search.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/tokencount"
)

// Strategy retrieves the top-k most relevant chunks for a query against a
// session's vector index.
type Strategy interface {
	Retrieve(ctx context.Context, sess *domain.Session, queryText string, topK int) ([]domain.RetrievalResult, error)
}

// New selects a Strategy implementation by name.
func New(
	strategy domain.RetrievalStrategy,
	embed *embedding.Client,
	prov provider.Provider,
	tokens tokencount.Estimator,
	log *zap.Logger,
) (Strategy, error) {
	switch strategy {
	case domain.RetrievalDirect, "":
		return Direct{Embed: embed}, nil
	case domain.RetrievalQueryExpansion:
		return QueryExpansion{Embed: embed}, nil
	case domain.RetrievalHypotheticalDocument:
		return HypotheticalDocument{Embed: embed, Provider: prov, Tokens: tokens, Log: log}, nil
	default:
		return nil, fmt.Errorf("retrieval: unknown strategy %q: %w", strategy, domain.ErrValidation)
	}
}
