package similarity

import (
	"context"
	"math"
	"regexp"
	"strings"
)

var (
	asciiTerm = regexp.MustCompile(`[a-z0-9_]+`)
	hanRun    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
)

// Lexical compares term-frequency vectors. ASCII words are single terms;
// runs of CJK ideographs contribute overlapping two-character windows.
type Lexical struct{}

// NewLexical returns the lexical backend.
func NewLexical() *Lexical { return &Lexical{} }

func (*Lexical) Name() string { return StrategyLexical }

// Vectorize never fails.
func (l *Lexical) Vectorize(_ context.Context, text string) (Vector, error) {
	return Vector{Terms: termFrequencies(Tokenize(text))}, nil
}

// Similarity is the cosine of the two term vectors, 0 when either is empty.
func (*Lexical) Similarity(a, b Vector) float64 {
	if len(a.Terms) == 0 || len(b.Terms) == 0 {
		return 0
	}
	small, large := a.Terms, b.Terms
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small {
		dot += w * large[term]
	}
	na, nb := norm(a.Terms), norm(b.Terms)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(dot / (na * nb))
}

// Tokenize lowercases text and splits it into lexical terms.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	terms := asciiTerm.FindAllString(lower, -1)

	for _, run := range hanRun.FindAllString(lower, -1) {
		r := []rune(run)
		if len(r) == 1 {
			terms = append(terms, run)
			continue
		}
		for i := 0; i+1 < len(r); i++ {
			terms = append(terms, string(r[i:i+2]))
		}
	}
	return terms
}

func termFrequencies(terms []string) map[string]float64 {
	tf := make(map[string]float64, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}
