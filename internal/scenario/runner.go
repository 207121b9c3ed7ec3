// Package scenario runs YAML-described assessment cases and compares the
// outcome with expectations. It always uses the lexical backend so results
// are reproducible without an embedding service.
package scenario

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/scoring"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

// Run evaluates all cases in a scenario. Each scenario gets a fresh
// knowledge store; cases within it share that store.
func Run(ctx context.Context, s *Scenario, dl *denylist.Denylist, cfg scoring.Config) *RunResult {
	store := knowledge.NewStore()
	if !strings.EqualFold(s.Knowledge, "empty") {
		store.Seed()
	}
	engine := assess.New(store,
		assess.WithBackend(similarity.NewLexical()),
		assess.WithDenylist(dl),
		assess.WithScoring(cfg),
	)

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
		Cases: []CaseResult{},
	}

	for i, c := range s.Cases {
		cr := runCase(ctx, engine, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}
	return result
}

func runCase(ctx context.Context, engine *assess.Engine, c Case) CaseResult {
	cr := CaseResult{
		Name:     c.Name,
		Category: c.Category,
		Expected: strings.ToLower(c.Expect),
		Signals:  []string{},
	}

	payload := model.Payload(c.Payload)
	if payload == nil {
		payload = model.Payload{}
	}
	r, err := engine.Assess(ctx, model.Category(c.Category), payload)
	if err != nil {
		cr.Actual = "error"
		cr.Failures = []string{err.Error()}
		return cr
	}

	cr.Actual = string(r.Risk.Level)
	cr.Probability = r.Risk.Probability
	cr.Signals = r.SignalCodes()

	if cr.Expected != "" && cr.Expected != cr.Actual {
		cr.Failures = append(cr.Failures, fmt.Sprintf("level: expected %s, got %s", cr.Expected, cr.Actual))
	}
	for _, code := range c.ExpectSignals {
		if !slices.Contains(cr.Signals, code) {
			cr.Failures = append(cr.Failures, "missing signal "+code)
		}
	}
	for _, code := range c.ForbidSignals {
		if slices.Contains(cr.Signals, code) {
			cr.Failures = append(cr.Failures, "unexpected signal "+code)
		}
	}
	if c.MinProbability != nil && cr.Probability < *c.MinProbability {
		cr.Failures = append(cr.Failures, fmt.Sprintf("probability %.4f below %.4f", cr.Probability, *c.MinProbability))
	}
	if c.MaxProbability != nil && cr.Probability > *c.MaxProbability {
		cr.Failures = append(cr.Failures, fmt.Sprintf("probability %.4f above %.4f", cr.Probability, *c.MaxProbability))
	}

	cr.Passed = len(cr.Failures) == 0
	return cr
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read scenario", goerr.V("path", path))
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, goerr.Wrap(err, "failed to parse scenario", goerr.V("path", path))
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and the denylist, and runs.
func LoadAndRun(ctx context.Context, path, denylistPath string, cfg scoring.Config) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	dl, err := denylist.Load(denylistPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load denylist", goerr.V("path", denylistPath))
	}

	result := Run(ctx, s, dl, cfg)
	result.File = path
	return result, nil
}
