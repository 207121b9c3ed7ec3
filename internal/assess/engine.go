// Package assess runs the assessment pipeline: normalize the payload, rank
// policies and cases against it, evaluate the rule battery, score, and
// assemble citations and follow-up questions.
package assess

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/logging"
	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/retrieval"
	"github.com/ppiankov/compliancewatch/internal/rules"
	"github.com/ppiankov/compliancewatch/internal/scoring"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

// Result is a complete assessment.
type Result struct {
	AssessmentID      string               `json:"assessment_id"`
	Timestamp         time.Time            `json:"timestamp"`
	Category          model.Category       `json:"category"`
	Risk              model.RiskAssessment `json:"risk"`
	Signals           []model.RiskSignal   `json:"signals"`
	Citations         []model.Citation     `json:"citations"`
	FollowUpQuestions []string             `json:"follow_up_questions"`
	NormalizedPayload model.Payload        `json:"normalized_payload"`
}

// Context is the evidence half of an assessment: everything except the
// score. Agents that want to weigh evidence themselves call this and then
// CalculateScore.
type Context struct {
	Category          model.Category       `json:"category"`
	Query             string               `json:"query"`
	Signals           []model.RiskSignal   `json:"signals"`
	PolicyHits        []model.RetrievalHit `json:"policy_hits"`
	CaseHits          []model.RetrievalHit `json:"case_hits"`
	NormalizedPayload model.Payload        `json:"normalized_payload"`
}

// Observer is notified after every completed assessment.
type Observer func(ctx context.Context, r *Result)

// Engine is safe for concurrent use. Reconfigure swaps the backend, rules
// and scoring config atomically with respect to running assessments.
type Engine struct {
	store *knowledge.Store

	mu        sync.RWMutex
	ranker    *retrieval.Ranker
	evaluator *rules.Evaluator
	scoring   scoring.Config
	lazySeed  bool
	observers []Observer

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend sets the similarity backend. Defaults to lexical.
func WithBackend(b similarity.Backend) Option {
	return func(e *Engine) { e.ranker = retrieval.NewRanker(b) }
}

// WithDenylist sets the supplier denylist consulted by the procurement rules.
func WithDenylist(d *denylist.Denylist) Option {
	return func(e *Engine) { e.evaluator = rules.NewEvaluator(d) }
}

// WithScoring overrides the scoring config.
func WithScoring(cfg scoring.Config) Option {
	return func(e *Engine) { e.scoring = cfg }
}

// WithLazySeed seeds the demo knowledge base before the first assessment
// or document read when the store is still empty.
func WithLazySeed(enabled bool) Option {
	return func(e *Engine) { e.lazySeed = enabled }
}

// WithObserver registers a post-assessment hook.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// New creates an engine over store.
func New(store *knowledge.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		ranker:    retrieval.NewRanker(similarity.NewLexical()),
		evaluator: rules.NewEvaluator(nil),
		scoring:   scoring.DefaultConfig(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the knowledge store the engine reads.
func (e *Engine) Store() *knowledge.Store { return e.store }

// BackendName reports the similarity strategy in use.
func (e *Engine) BackendName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ranker.Backend().Name()
}

// Reconfigure replaces the backend, denylist and scoring config.
func (e *Engine) Reconfigure(b similarity.Backend, d *denylist.Denylist, cfg scoring.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ranker = retrieval.NewRanker(b)
	e.evaluator = rules.NewEvaluator(d)
	e.scoring = cfg
}

// EnsureSeeded seeds the demo set if lazy seeding is on and the store is
// empty.
func (e *Engine) EnsureSeeded(ctx context.Context) {
	if !e.lazySeed {
		return
	}
	if counts, seeded := e.store.Seed(); seeded {
		logging.From(ctx).Info("seeded demo knowledge base",
			"policies", counts.Policies, "cases", counts.Cases)
	}
}

type pipeline struct {
	ranker    *retrieval.Ranker
	evaluator *rules.Evaluator
	scoring   scoring.Config
}

func (e *Engine) snapshot() pipeline {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return pipeline{ranker: e.ranker, evaluator: e.evaluator, scoring: e.scoring}
}

// AssessContext gathers signals and hits without scoring.
func (e *Engine) AssessContext(ctx context.Context, category model.Category, raw any) (*Context, error) {
	return e.assessContext(ctx, e.snapshot(), category, raw)
}

func (e *Engine) assessContext(ctx context.Context, p pipeline, category model.Category, raw any) (*Context, error) {
	category, err := model.ParseCategory(string(category))
	if err != nil {
		return nil, err
	}
	e.EnsureSeeded(ctx)

	payload := NormalizePayload(raw)
	query := retrieval.BuildQuery(category, payload)

	var policyHits, caseHits []model.RetrievalHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := p.ranker.TopK(gctx, query, e.store.PolicyTexts(), retrieval.DefaultK)
		if err != nil {
			return goerr.Wrap(err, "failed to rank policies")
		}
		policyHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := p.ranker.TopK(gctx, query, e.store.CaseTexts(), retrieval.DefaultK)
		if err != nil {
			return goerr.Wrap(err, "failed to rank cases")
		}
		caseHits = hits
		return nil
	})
	signals := p.evaluator.Evaluate(category, payload)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Context{
		Category:          category,
		Query:             query,
		Signals:           signals,
		PolicyHits:        policyHits,
		CaseHits:          caseHits,
		NormalizedPayload: payload,
	}, nil
}

// Assess runs the full pipeline. Rules and scoring never fail; errors come
// from an unknown category or from the similarity backend.
func (e *Engine) Assess(ctx context.Context, category model.Category, raw any) (*Result, error) {
	p := e.snapshot()
	ac, err := e.assessContext(ctx, p, category, raw)
	if err != nil {
		return nil, err
	}

	risk := scoring.Score(p.scoring, ac.Signals, ac.PolicyHits, ac.CaseHits, e.store.CaseDecision)
	result := &Result{
		AssessmentID:      uuid.NewString(),
		Timestamp:         e.now().UTC(),
		Category:          ac.Category,
		Risk:              risk,
		Signals:           ac.Signals,
		Citations:         e.citations(ac.PolicyHits, ac.CaseHits),
		FollowUpQuestions: FollowUps(ac.Signals),
		NormalizedPayload: ac.NormalizedPayload,
	}

	logging.From(ctx).Debug("assessment completed",
		"assessment_id", result.AssessmentID,
		"category", ac.Category,
		"probability", risk.Probability,
		"level", risk.Level,
		"signals", len(result.Signals),
		"payload", logging.Payload(result.NormalizedPayload),
	)

	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	for _, o := range observers {
		o(ctx, result)
	}
	return result, nil
}

// CalculateScore scores externally supplied evidence against the stored
// case decisions.
func (e *Engine) CalculateScore(signals []model.RiskSignal, policyHits, caseHits []model.RetrievalHit) model.RiskAssessment {
	return scoring.Score(e.snapshot().scoring, signals, policyHits, caseHits, e.store.CaseDecision)
}

// AssessDemo assesses the category's demo payload, sent as a JSON string
// the way an agent would send it.
func (e *Engine) AssessDemo(ctx context.Context, category model.Category) (*Result, error) {
	data, err := json.Marshal(DemoPayload(category))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode demo payload")
	}
	return e.Assess(ctx, category, string(data))
}

func (e *Engine) citations(policyHits, caseHits []model.RetrievalHit) []model.Citation {
	out := make([]model.Citation, 0, len(policyHits)+len(caseHits))
	for _, h := range policyHits {
		out = append(out, model.Citation{Type: model.CitationPolicy, ID: h.ID, Score: h.Score, Excerpt: h.Excerpt})
	}
	for _, h := range caseHits {
		decision, _ := e.store.CaseDecision(h.ID)
		out = append(out, model.Citation{
			Type: model.CitationCase, ID: h.ID, Score: h.Score, Excerpt: h.Excerpt, CaseDecision: decision,
		})
	}
	return out
}
