package compliancewatch

import (
	"fmt"

	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// Category is the business domain of an action.
type Category string

const (
	Decision    Category = Category(model.CategoryDecision)
	Procurement Category = Category(model.CategoryProcurement)
	Analytics   Category = Category(model.CategoryAnalytics)
)

// Level is an assessed risk level.
type Level string

const (
	LevelLow    Level = Level(model.SevLow)
	LevelMedium Level = Level(model.SevMedium)
	LevelHigh   Level = Level(model.SevHigh)
	LevelBlock  Level = Level(model.SevBlock)
)

// Rank orders levels; unknown levels rank as LevelLow.
func (l Level) Rank() int {
	return model.SevRank[model.Severity(l)]
}

// Signal is one rule finding.
type Signal struct {
	Code     string
	Severity Level
	Message  string
}

// Result is an assessment outcome.
type Result struct {
	AssessmentID string
	Level        Level
	Probability  float64
	Signals      []Signal
	FollowUps    []string
	Blocked      bool
}

// SignalCodes lists the codes of every signal.
func (r Result) SignalCodes() []string {
	codes := make([]string, len(r.Signals))
	for i, s := range r.Signals {
		codes[i] = s.Code
	}
	return codes
}

// BlockedError is returned when an assessment reaches the blocking level.
type BlockedError struct {
	Category Category
	Result   Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("compliancewatch blocked %s (%s, p=%.2f): %v",
		e.Category, e.Result.Level, e.Result.Probability, e.Result.SignalCodes())
}

func toResult(r *assess.Result, blockAt Level) Result {
	signals := make([]Signal, len(r.Signals))
	for i, s := range r.Signals {
		signals[i] = Signal{Code: s.Code, Severity: Level(s.Severity), Message: s.Message}
	}
	level := Level(r.Risk.Level)
	return Result{
		AssessmentID: r.AssessmentID,
		Level:        level,
		Probability:  r.Risk.Probability,
		Signals:      signals,
		FollowUps:    r.FollowUpQuestions,
		Blocked:      level.Rank() >= blockAt.Rank(),
	}
}
