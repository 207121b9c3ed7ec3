// Package scoring turns rule signals and retrieval hits into a calibrated
// risk probability and a discrete level.
//
// The probability is a weighted mix of three evidence sources:
//
//	signals   noisy-OR of per-severity weights
//	cases     best case hit, weighted higher when the case was non-compliant
//	policies  best policy hit
//
// plus a baseline, clamped to [0, MaxProbability]. The weights are policy
// choices and can be overridden from configuration; the cap, the level
// thresholds and the number of hits considered are fixed.
package scoring

import (
	"errors"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// ErrInvalidWeight is returned by Config.Validate.
var ErrInvalidWeight = errors.New("invalid scoring weight")

// Fixed bounds of the scoring model.
const (
	MaxProbability  = 0.99
	HighThreshold   = 0.75
	MediumThreshold = 0.45
	MaxHits         = 3
)

// Weights are the scoring coefficients.
type Weights struct {
	Severity         map[model.Severity]float64 `yaml:"severity" json:"severity"`
	UnknownSeverity  float64                    `yaml:"unknown_severity" json:"unknown_severity"`
	Baseline         float64                    `yaml:"baseline" json:"baseline"`
	SignalMix        float64                    `yaml:"signal_mix" json:"signal_mix"`
	CaseMix          float64                    `yaml:"case_mix" json:"case_mix"`
	PolicyMix        float64                    `yaml:"policy_mix" json:"policy_mix"`
	NonCompliantCase float64                    `yaml:"non_compliant_case" json:"non_compliant_case"`
	OtherCase        float64                    `yaml:"other_case" json:"other_case"`
	Policy           float64                    `yaml:"policy" json:"policy"`
}

// Config is the configurable part of the scorer.
type Config struct {
	Weights Weights `yaml:"weights" json:"weights"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Severity: map[model.Severity]float64{
				model.SevLow:    0.08,
				model.SevMedium: 0.18,
				model.SevHigh:   0.35,
				model.SevBlock:  0.6,
			},
			UnknownSeverity:  0.1,
			Baseline:         0.15,
			SignalMix:        0.55,
			CaseMix:          0.25,
			PolicyMix:        0.15,
			NonCompliantCase: 0.25,
			OtherCase:        0.08,
			Policy:           0.12,
		},
	}
}

// DecisionLookup resolves a case id to its recorded decision.
type DecisionLookup func(caseID string) (model.Decision, bool)

// Score computes the assessment. It never fails; missing severities fall
// back to the unknown-severity weight and unknown case ids count as
// not non-compliant.
func Score(cfg Config, signals []model.RiskSignal, policyHits, caseHits []model.RetrievalHit, lookup DecisionLookup) model.RiskAssessment {
	w := cfg.Weights

	pSignals := 0.0
	for _, s := range signals {
		weight, ok := w.Severity[s.Severity]
		if !ok {
			weight = w.UnknownSeverity
		}
		pSignals = 1 - (1-pSignals)*(1-weight)
	}

	pCases := 0.0
	for _, hit := range firstN(caseHits, MaxHits) {
		base := w.OtherCase
		if lookup != nil && hit.ID != "" {
			if d, ok := lookup(hit.ID); ok && d == model.DecisionNonCompliant {
				base = w.NonCompliantCase
			}
		}
		pCases = math.Max(pCases, base*hit.Score)
	}

	pPolicies := 0.0
	for _, hit := range firstN(policyHits, MaxHits) {
		pPolicies = math.Max(pPolicies, w.Policy*hit.Score)
	}

	raw := w.Baseline + w.SignalMix*pSignals + w.CaseMix*pCases + w.PolicyMix*pPolicies
	p := clamp(raw, 0, MaxProbability)

	return model.RiskAssessment{
		Probability: round4(p),
		Level:       Classify(p, model.HasBlocking(signals)),
		Components: model.Components{
			Signals:  round4(pSignals),
			Cases:    round4(pCases),
			Policies: round4(pPolicies),
		},
	}
}

// Classify maps a probability to a level. A blocking signal wins over any
// probability.
func Classify(p float64, hasBlocking bool) model.Severity {
	switch {
	case hasBlocking:
		return model.SevBlock
	case p >= HighThreshold:
		return model.SevHigh
	case p >= MediumThreshold:
		return model.SevMedium
	default:
		return model.SevLow
	}
}

func firstN(hits []model.RetrievalHit, n int) []model.RetrievalHit {
	if len(hits) > n {
		return hits[:n]
	}
	return hits
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Validate reports weights outside [0, 1].
func (c Config) Validate() error {
	w := c.Weights
	named := map[string]float64{
		"unknown_severity":   w.UnknownSeverity,
		"baseline":           w.Baseline,
		"signal_mix":         w.SignalMix,
		"case_mix":           w.CaseMix,
		"policy_mix":         w.PolicyMix,
		"non_compliant_case": w.NonCompliantCase,
		"other_case":         w.OtherCase,
		"policy":             w.Policy,
	}
	for sev, v := range w.Severity {
		named["severity."+string(sev)] = v
	}
	for name, v := range named {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return goerr.Wrap(ErrInvalidWeight, "scoring weight must be within [0, 1]",
				goerr.V("weight", name), goerr.V("value", v))
		}
	}
	return nil
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
