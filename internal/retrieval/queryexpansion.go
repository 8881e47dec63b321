package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/embedding"
)

var expansionTemplates = []string{
	"%s",
	"What is %s?",
	"How does %s work?",
	"Examples of %s",
}

// QueryExpansion embeds several fixed rephrasings of the query, searches
// the index once per rephrasing, and merges hits by chunk ID: a chunk's
// combined score rewards both how well it matched its best rephrasing and
// how many rephrasings surfaced it at all.
type QueryExpansion struct {
	Embed *embedding.Client
}

type mergedHit struct {
	chunk    domain.Chunk
	maxScore float32
	hitCount int
	seq      int // order in which this chunk was first seen, for a deterministic tie-break
}

func (q QueryExpansion) Retrieve(ctx context.Context, sess *domain.Session, queryText string, topK int) ([]domain.RetrievalResult, error) {
	variants := expansionVariants(queryText)
	vectors, errs := q.Embed.EmbedBatch(ctx, variants, nil)
	if embedding.AllFailed(errs) {
		return nil, fmt.Errorf("retrieval: all %d query expansions failed to embed: %w", len(variants), errs[0])
	}

	merged := make(map[string]*mergedHit)
	var seq int
	expandedTopK := topK * 2
	relaxedMinScore := sess.Config.MinSimilarityScore * 0.8

	for _, vec := range vectors {
		if vec == nil {
			continue
		}
		results, err := sess.VectorIndex.Search(vec, expandedTopK, relaxedMinScore)
		if err != nil {
			return nil, fmt.Errorf("retrieval: query expansion search: %w", err)
		}
		for _, r := range results {
			h, ok := merged[r.Chunk.ID]
			if !ok {
				h = &mergedHit{chunk: r.Chunk, seq: seq}
				seq++
				merged[r.Chunk.ID] = h
			}
			if r.SimilarityScore > h.maxScore {
				h.maxScore = r.SimilarityScore
			}
			h.hitCount++
		}
	}

	hits := make([]*mergedHit, 0, len(merged))
	for _, h := range merged {
		hits = append(hits, h)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ci, cj := combinedScore(hits[i]), combinedScore(hits[j])
		if ci != cj {
			return ci > cj
		}
		return hits[i].seq < hits[j].seq
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}

	out := make([]domain.RetrievalResult, len(hits))
	for i, h := range hits {
		out[i] = domain.RetrievalResult{
			Chunk:           h.chunk,
			SimilarityScore: combinedScore(h),
			Rank:            i + 1,
		}
	}
	return out, nil
}

func combinedScore(h *mergedHit) float32 {
	return h.maxScore + float32(h.hitCount-1)*0.05
}

// expansionVariants renders the fixed templates against queryText and
// de-duplicates case-insensitively, preserving first-occurrence order.
func expansionVariants(queryText string) []string {
	seen := make(map[string]struct{}, len(expansionTemplates))
	variants := make([]string, 0, len(expansionTemplates))
	for _, tmpl := range expansionTemplates {
		v := fmt.Sprintf(tmpl, queryText)
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}
