// Package similarity scores text against text. Two interchangeable backends
// exist: a lexical term-frequency cosine that needs nothing but the input,
// and a dense-embedding cosine that delegates vectorization to an external
// service.
package similarity

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ppiankov/compliancewatch/internal/embedding"
)

// Strategy names accepted by New.
const (
	StrategyLexical   = "lexical"
	StrategyEmbedding = "embedding"
)

// ErrUnknownStrategy is returned by New for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown similarity strategy")

// Vector is a vectorized text. Lexical backends fill Terms, embedding
// backends fill Dense.
type Vector struct {
	Terms map[string]float64
	Dense []float64
}

// Backend vectorizes text and compares vectors. Similarity must return a
// value in [0,1] and must be symmetric.
type Backend interface {
	Name() string
	Vectorize(ctx context.Context, text string) (Vector, error)
	Similarity(a, b Vector) float64
}

// BatchVectorizer is implemented by backends that can vectorize a whole
// collection in one round trip.
type BatchVectorizer interface {
	VectorizeAll(ctx context.Context, texts []string) ([]Vector, error)
}

// New selects a backend by strategy name. The embedding strategy requires a
// provider. The choice is static; the network is never probed.
func New(strategy string, provider embedding.Provider) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyLexical:
		return NewLexical(), nil
	case StrategyEmbedding:
		if provider == nil {
			return nil, goerr.New("embedding strategy requires a provider")
		}
		return NewEmbedding(provider), nil
	default:
		return nil, goerr.Wrap(ErrUnknownStrategy, "cannot build similarity backend", goerr.V("strategy", strategy))
	}
}

// VectorizeAll vectorizes texts with b, in one call when b supports batching.
func VectorizeAll(ctx context.Context, b Backend, texts []string) ([]Vector, error) {
	if bv, ok := b.(BatchVectorizer); ok {
		return bv.VectorizeAll(ctx, texts)
	}
	out := make([]Vector, 0, len(texts))
	for _, t := range texts {
		v, err := b.Vectorize(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
