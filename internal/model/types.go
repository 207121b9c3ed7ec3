package model

import (
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrUnknownCategory is returned when a category string is not one of the
// fixed business-action domains.
var ErrUnknownCategory = errors.New("unknown category")

// ErrUnknownDecision is returned when a case decision is outside the enum.
var ErrUnknownDecision = errors.New("unknown case decision")

// Category is the business-action domain being assessed.
type Category string

const (
	CategoryDecision    Category = "decision"
	CategoryProcurement Category = "procurement"
	CategoryAnalytics   Category = "analytics"
)

// Categories lists every valid category in a stable order.
var Categories = []Category{CategoryDecision, CategoryProcurement, CategoryAnalytics}

// ParseCategory maps a boundary string to a Category. Matching is
// case-insensitive; anything else is ErrUnknownCategory.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDecision:
		return CategoryDecision, nil
	case CategoryProcurement:
		return CategoryProcurement, nil
	case CategoryAnalytics:
		return CategoryAnalytics, nil
	}
	return "", goerr.Wrap(ErrUnknownCategory, "invalid category", goerr.V("category", s))
}

// Severity classifies a risk signal. The same scale is used for the final
// assessment level.
type Severity string

const (
	SevLow    Severity = "low"
	SevMedium Severity = "medium"
	SevHigh   Severity = "high"
	SevBlock  Severity = "block"
)

// SevRank maps severity to a comparable integer.
var SevRank = map[Severity]int{
	SevLow:    0,
	SevMedium: 1,
	SevHigh:   2,
	SevBlock:  3,
}

// Decision is the recorded outcome of a historical case.
type Decision string

const (
	DecisionCompliant    Decision = "compliant"
	DecisionNonCompliant Decision = "non_compliant"
	DecisionUnknown      Decision = "unknown"
)

// ParseDecision validates a case decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.TrimSpace(s)) {
	case DecisionCompliant:
		return DecisionCompliant, nil
	case DecisionNonCompliant:
		return DecisionNonCompliant, nil
	case DecisionUnknown:
		return DecisionUnknown, nil
	}
	return "", goerr.Wrap(ErrUnknownDecision, "invalid case decision", goerr.V("decision", s))
}

// Evidence is one supporting fact attached to a signal.
type Evidence map[string]any

// RiskSignal is a discrete, rule-triggered indicator of possible non-compliance.
type RiskSignal struct {
	Code     string     `json:"code"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Evidence []Evidence `json:"evidence"`
}

// RetrievalHit is a knowledge document ranked against a query.
type RetrievalHit struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// Components breaks the final probability down by evidence source.
type Components struct {
	Signals  float64 `json:"signals"`
	Cases    float64 `json:"cases"`
	Policies float64 `json:"policies"`
}

// RiskAssessment is the output of the scorer.
type RiskAssessment struct {
	Probability float64    `json:"probability"`
	Level       Severity   `json:"level"`
	Components  Components `json:"components"`
}

// Citation source types.
const (
	CitationPolicy = "policy"
	CitationCase   = "case"
)

// Citation is a retrieval hit attached to an assessment as evidence.
type Citation struct {
	Type         string   `json:"type"`
	ID           string   `json:"id"`
	Score        float64  `json:"score"`
	Excerpt      string   `json:"excerpt"`
	CaseDecision Decision `json:"case_decision,omitempty"`
}

// HasBlocking reports whether any signal carries block severity.
func HasBlocking(signals []RiskSignal) bool {
	for _, s := range signals {
		if s.Severity == SevBlock {
			return true
		}
	}
	return false
}
