package similarity

import (
	"context"
	"math"

	"github.com/ppiankov/compliancewatch/internal/embedding"
)

// Embedding compares dense vectors produced by an embedding provider.
// Provider errors are returned unchanged; there is no fallback to lexical.
type Embedding struct {
	provider embedding.Provider
}

// NewEmbedding returns a backend backed by provider.
func NewEmbedding(provider embedding.Provider) *Embedding {
	return &Embedding{provider: provider}
}

func (*Embedding) Name() string { return StrategyEmbedding }

func (e *Embedding) Vectorize(ctx context.Context, text string) (Vector, error) {
	vecs, err := e.provider.Embed(ctx, []string{text})
	if err != nil {
		return Vector{}, err
	}
	return Vector{Dense: vecs[0]}, nil
}

// VectorizeAll sends the whole collection in a single provider call.
func (e *Embedding) VectorizeAll(ctx context.Context, texts []string) ([]Vector, error) {
	vecs, err := e.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]Vector, len(vecs))
	for i, v := range vecs {
		out[i] = Vector{Dense: v}
	}
	return out, nil
}

// Similarity is the cosine of the dense vectors clamped to [0,1]. Vectors of
// different length or zero norm score 0.
func (*Embedding) Similarity(a, b Vector) float64 {
	if len(a.Dense) == 0 || len(a.Dense) != len(b.Dense) {
		return 0
	}
	var dot, na, nb float64
	for i := range a.Dense {
		dot += a.Dense[i] * b.Dense[i]
		na += a.Dense[i] * a.Dense[i]
		nb += b.Dense[i] * b.Dense[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
