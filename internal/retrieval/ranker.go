// Package retrieval ranks knowledge documents against an assessment query.
// Ranking is a linear scan; the store holds tens to low hundreds of
// documents.
package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

// DefaultK is the number of hits kept per collection.
const DefaultK = 3

// ExcerptRunes bounds a hit excerpt.
const ExcerptRunes = 240

// Ranker scores documents with a similarity backend.
type Ranker struct {
	backend similarity.Backend
}

// NewRanker creates a ranker over backend.
func NewRanker(backend similarity.Backend) *Ranker {
	return &Ranker{backend: backend}
}

// Backend returns the similarity backend in use.
func (r *Ranker) Backend() similarity.Backend { return r.backend }

// TopK returns at most k hits, highest score first. Equal scores keep the
// order of docs. An empty collection returns an empty list without touching
// the backend.
func (r *Ranker) TopK(ctx context.Context, query string, docs []model.DocumentText, k int) ([]model.RetrievalHit, error) {
	if len(docs) == 0 || k <= 0 {
		return []model.RetrievalHit{}, nil
	}

	qv, err := r.backend.Vectorize(ctx, query)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := similarity.VectorizeAll(ctx, r.backend, texts)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc   model.DocumentText
		score float64
	}
	ranked := make([]scored, len(docs))
	for i, d := range docs {
		ranked[i] = scored{doc: d, score: r.backend.Similarity(qv, vecs[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	hits := make([]model.RetrievalHit, len(ranked))
	for i, s := range ranked {
		hits[i] = model.RetrievalHit{
			ID:      s.doc.ID,
			Score:   Round4(s.score),
			Excerpt: Excerpt(s.doc.Text),
		}
	}
	return hits, nil
}

// Round4 rounds to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// Excerpt returns the first ExcerptRunes runes of text.
func Excerpt(text string) string {
	r := []rune(text)
	if len(r) <= ExcerptRunes {
		return text
	}
	return string(r[:ExcerptRunes])
}
