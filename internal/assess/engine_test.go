package assess

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/embedding"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/rules"
	"github.com/ppiankov/compliancewatch/internal/scoring"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

func seededEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	store := knowledge.NewStore()
	store.Seed()
	return New(store, opts...)
}

func hasCode(signals []model.RiskSignal, code string) bool {
	for _, s := range signals {
		if s.Code == code {
			return true
		}
	}
	return false
}

func TestAssessDemoProcurement(t *testing.T) {
	e := seededEngine(t)
	res, err := e.Assess(context.Background(), model.CategoryProcurement, DemoPayload(model.CategoryProcurement))
	require.NoError(t, err)

	assert.True(t, hasCode(res.Signals, rules.CodeMissingSingleSourceReason))
	assert.Greater(t, res.Risk.Probability, 0.5)
	assert.NotEmpty(t, res.AssessmentID)
	assert.Equal(t, model.CategoryProcurement, res.Category)
}

func TestAssessDemoViaJSONString(t *testing.T) {
	e := seededEngine(t)
	for _, cat := range model.Categories {
		res, err := e.AssessDemo(context.Background(), cat)
		require.NoError(t, err, cat)
		assert.NotEmpty(t, res.Signals, cat)
		assert.NotContains(t, res.NormalizedPayload, "text", "demo payload must decode as an object")
	}
}

func TestJustificationLowersProbability(t *testing.T) {
	e := seededEngine(t)
	ctx := context.Background()

	bare, err := e.Assess(ctx, model.CategoryProcurement, map[string]any{
		"procurement_method":   "single_source",
		"amount":               5000000,
		"single_source_reason": "",
	})
	require.NoError(t, err)
	assert.True(t, hasCode(bare.Signals, rules.CodeMissingSingleSourceReason))

	justified, err := e.Assess(ctx, model.CategoryProcurement, map[string]any{
		"procurement_method":   "single_source",
		"amount":               5000000,
		"single_source_reason": "sole patent holder",
		"attachments":          []any{"patent.pdf"},
	})
	require.NoError(t, err)
	assert.False(t, hasCode(justified.Signals, rules.CodeMissingSingleSourceReason))
	assert.Less(t, justified.Risk.Probability, bare.Risk.Probability)
}

func TestIngestedPolicyIsCited(t *testing.T) {
	e := seededEngine(t)
	_, err := e.Store().IngestPolicy(model.PolicyDocument{
		ID:      "POL-900",
		Title:   "Zephyrquartz escrow rule",
		Content: "Every zephyrquartz purchase requires an escrow account.",
	})
	require.NoError(t, err)

	res, err := e.Assess(context.Background(), model.CategoryProcurement, map[string]any{
		"title": "zephyrquartz purchase",
	})
	require.NoError(t, err)

	var cited bool
	for _, c := range res.Citations {
		if c.Type == model.CitationPolicy && c.ID == "POL-900" {
			cited = true
		}
	}
	assert.True(t, cited, "expected POL-900 in citations %+v", res.Citations)
}

func TestProsePayload(t *testing.T) {
	e := seededEngine(t)
	prose := "We plan to buy servers from our usual vendor next month."
	res, err := e.Assess(context.Background(), model.CategoryDecision, prose)
	require.NoError(t, err)
	assert.Equal(t, model.Payload{"text": prose}, res.NormalizedPayload)
}

func TestCaseCitationsCarryDecision(t *testing.T) {
	e := seededEngine(t)
	res, err := e.Assess(context.Background(), model.CategoryProcurement, DemoPayload(model.CategoryProcurement))
	require.NoError(t, err)

	var policies, cases int
	for _, c := range res.Citations {
		switch c.Type {
		case model.CitationPolicy:
			policies++
			assert.Empty(t, c.CaseDecision)
		case model.CitationCase:
			cases++
			assert.NotEmpty(t, c.CaseDecision)
		}
	}
	assert.Equal(t, 3, policies)
	assert.Equal(t, 3, cases)
	// policies precede cases
	assert.Equal(t, model.CitationPolicy, res.Citations[0].Type)
}

func TestEmptyStoreHasNoCitations(t *testing.T) {
	e := New(knowledge.NewStore())
	res, err := e.Assess(context.Background(), model.CategoryAnalytics, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Citations)
	assert.NotNil(t, res.Citations)
	assert.True(t, hasCode(res.Signals, rules.CodeMissingContractMaterials))
}

func TestLazySeed(t *testing.T) {
	store := knowledge.NewStore()
	e := New(store, WithLazySeed(true))
	_, err := e.Assess(context.Background(), model.CategoryDecision, "{}")
	require.NoError(t, err)
	assert.Equal(t, knowledge.Counts{Policies: 3, Cases: 4}, store.Counts())
}

func TestUnknownCategory(t *testing.T) {
	e := seededEngine(t)
	_, err := e.Assess(context.Background(), model.Category("hr"), nil)
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
}

func TestCategoryIsNormalized(t *testing.T) {
	e := seededEngine(t)
	res, err := e.Assess(context.Background(), model.Category(" Procurement "), nil)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryProcurement, res.Category)
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, embedding.ErrProvider
}

func TestEmbeddingFailurePropagates(t *testing.T) {
	e := seededEngine(t, WithBackend(similarity.NewEmbedding(failingProvider{})))
	_, err := e.Assess(context.Background(), model.CategoryProcurement, DemoPayload(model.CategoryProcurement))
	assert.True(t, errors.Is(err, embedding.ErrProvider), "got %v", err)
}

func TestEmbeddingNotCalledOnEmptyStore(t *testing.T) {
	e := New(knowledge.NewStore(), WithBackend(similarity.NewEmbedding(failingProvider{})))
	_, err := e.Assess(context.Background(), model.CategoryProcurement, nil)
	assert.NoError(t, err)
}

func TestDenylistBlocks(t *testing.T) {
	dl := denylist.New(denylist.Patterns{Suppliers: []string{"某科技有限公司"}})
	e := seededEngine(t, WithDenylist(dl))
	res, err := e.Assess(context.Background(), model.CategoryProcurement, DemoPayload(model.CategoryProcurement))
	require.NoError(t, err)
	assert.Equal(t, model.SevBlock, res.Risk.Level)
}

func TestObserverCalled(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	e := seededEngine(t, WithObserver(func(_ context.Context, r *Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.AssessmentID)
	}))

	res, err := e.Assess(context.Background(), model.CategoryDecision, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{res.AssessmentID}, seen)
}

func TestCalculateScoreUsesStoredDecisions(t *testing.T) {
	e := seededEngine(t)
	risk := e.CalculateScore(nil, nil, []model.RetrievalHit{{ID: "CASE-101", Score: 1}})
	assert.InDelta(t, 0.25, risk.Components.Cases, 1e-9)

	risk = e.CalculateScore(nil, nil, []model.RetrievalHit{{ID: "CASE-104", Score: 1}})
	assert.InDelta(t, 0.08, risk.Components.Cases, 1e-9)
}

func TestAssessContextMatchesAssess(t *testing.T) {
	e := seededEngine(t)
	ctx := context.Background()
	payload := DemoPayload(model.CategoryAnalytics)

	ac, err := e.AssessContext(ctx, model.CategoryAnalytics, payload)
	require.NoError(t, err)
	res, err := e.Assess(ctx, model.CategoryAnalytics, payload)
	require.NoError(t, err)

	assert.Equal(t, res.Risk, e.CalculateScore(ac.Signals, ac.PolicyHits, ac.CaseHits))
	assert.Contains(t, ac.Query, "contract_value:3500000")
}

func TestReconfigure(t *testing.T) {
	e := seededEngine(t)
	cfg := scoring.DefaultConfig()
	cfg.Weights.Baseline = 0.5
	e.Reconfigure(similarity.NewLexical(), nil, cfg)

	res, err := e.Assess(context.Background(), model.CategoryDecision, map[string]any{"topic": "routine"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Risk.Probability, 0.5)
	assert.Equal(t, similarity.StrategyLexical, e.BackendName())
}

func TestConcurrentAssessAndIngest(t *testing.T) {
	e := seededEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := e.Assess(ctx, model.CategoryProcurement, DemoPayload(model.CategoryProcurement))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := e.Store().IngestPolicy(model.PolicyDocument{ID: "POL-CONC", Title: "t", Content: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, e.Store().Counts().Policies)
}

func TestFollowUpsOrderAndLimit(t *testing.T) {
	var signals []model.RiskSignal
	for _, code := range []string{
		rules.CodeMissingSingleSourceReason, rules.CodeSupplierBlacklist, rules.CodeMissingAttachments,
		rules.CodeRelatedPartyDisclosure, rules.CodeContractMissingPenalty, rules.CodeContractMissingAuditClause,
		rules.CodeMissingContractMaterials,
	} {
		signals = append(signals, model.RiskSignal{Code: code})
	}
	got := FollowUps(signals)
	require.Len(t, got, MaxFollowUps)
	assert.Equal(t, askSingleSourceBasis, got[0])
	assert.Equal(t, askMaterials, got[1])
	// duplicates are kept
	assert.Equal(t, got[3], got[4])

	assert.NotNil(t, FollowUps(nil))
}
