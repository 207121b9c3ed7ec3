package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// --- Input/Output types ---

// CategoryInput selects a business category.
type CategoryInput struct {
	Category     string `json:"category,omitempty" jsonschema:"decision, procurement or analytics"`
	SourceSystem string `json:"source_system,omitempty" jsonschema:"alias of category"`
}

// AssessInput is a category plus the payload to assess.
type AssessInput struct {
	Category     string `json:"category,omitempty" jsonschema:"decision, procurement or analytics"`
	SourceSystem string `json:"source_system,omitempty" jsonschema:"alias of category"`
	Payload      any    `json:"payload" jsonschema:"business data as a JSON object or a JSON string; free text is accepted"`
}

// PolicyInput defines parameters for the ingest_policy tool.
type PolicyInput struct {
	DocID         string `json:"doc_id" jsonschema:"policy id; re-using an id replaces the policy"`
	Title         string `json:"title" jsonschema:"policy title"`
	Content       string `json:"content" jsonschema:"policy text"`
	EffectiveFrom string `json:"effective_from,omitempty" jsonschema:"effective date (YYYY-MM-DD)"`
	Scope         string `json:"scope,omitempty" jsonschema:"applicability scope"`
}

// CaseInput defines parameters for the ingest_case tool.
type CaseInput struct {
	CaseID   string `json:"case_id" jsonschema:"case id; re-using an id replaces the case"`
	Summary  string `json:"summary" jsonschema:"what happened"`
	Decision string `json:"decision" jsonschema:"compliant, non_compliant or unknown"`
	Reasons  string `json:"reasons" jsonschema:"why the decision was reached"`
	Tags     any    `json:"tags,omitempty" jsonschema:"tag list or JSON array string"`
	TagsJSON any    `json:"tags_json,omitempty" jsonschema:"alias of tags"`
}

// ScoreInput defines parameters for the calculate_risk_score tool. Each
// list may also be passed as a JSON string.
type ScoreInput struct {
	Signals    any `json:"signals,omitempty" jsonschema:"signals from assess_compliance_context"`
	PolicyHits any `json:"policy_hits,omitempty" jsonschema:"policy_hits from assess_compliance_context"`
	CaseHits   any `json:"case_hits,omitempty" jsonschema:"case_hits from assess_compliance_context"`
}

// SeedOutput reports the knowledge base size after seeding.
type SeedOutput struct {
	Policies int  `json:"policies"`
	Cases    int  `json:"cases"`
	Seeded   bool `json:"seeded"`
}

// IngestOutput reports the knowledge base size after an ingest.
type IngestOutput struct {
	ID       string `json:"id"`
	Policies int    `json:"policies"`
	Cases    int    `json:"cases"`
}

// --- Handlers ---

func (s *Server) handleSeed(ctx context.Context, req *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, SeedOutput, error) {
	counts, seeded := s.store.Seed()
	return nil, SeedOutput{Policies: counts.Policies, Cases: counts.Cases, Seeded: seeded}, nil
}

func (s *Server) handleDemoPayload(ctx context.Context, req *mcpsdk.CallToolRequest, input CategoryInput) (*mcpsdk.CallToolResult, any, error) {
	category, err := parseCategory(input.Category, input.SourceSystem)
	if err != nil {
		return nil, nil, err
	}
	return nil, assess.DemoPayload(category), nil
}

func (s *Server) handleSchemaHint(ctx context.Context, req *mcpsdk.CallToolRequest, input CategoryInput) (*mcpsdk.CallToolResult, any, error) {
	category, err := parseCategory(input.Category, input.SourceSystem)
	if err != nil {
		return nil, nil, err
	}
	return nil, assess.SchemaHint(category), nil
}

func (s *Server) handleIngestPolicy(ctx context.Context, req *mcpsdk.CallToolRequest, input PolicyInput) (*mcpsdk.CallToolResult, IngestOutput, error) {
	counts, err := s.store.IngestPolicy(model.PolicyDocument{
		ID:            input.DocID,
		Title:         input.Title,
		Content:       input.Content,
		EffectiveFrom: input.EffectiveFrom,
		Scope:         input.Scope,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{ID: input.DocID, Policies: counts.Policies, Cases: counts.Cases}, nil
}

func (s *Server) handleIngestCase(ctx context.Context, req *mcpsdk.CallToolRequest, input CaseInput) (*mcpsdk.CallToolResult, IngestOutput, error) {
	tags := input.Tags
	if tags == nil {
		tags = input.TagsJSON
	}
	counts, err := s.store.IngestCase(model.CaseDocument{
		ID:       input.CaseID,
		Summary:  input.Summary,
		Decision: model.Decision(input.Decision),
		Reasons:  input.Reasons,
		Tags:     knowledge.ParseTags(tags),
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{ID: input.CaseID, Policies: counts.Policies, Cases: counts.Cases}, nil
}

func (s *Server) handleAssess(ctx context.Context, req *mcpsdk.CallToolRequest, input AssessInput) (*mcpsdk.CallToolResult, any, error) {
	category, err := parseCategory(input.Category, input.SourceSystem)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.engine.Assess(ctx, category, input.Payload)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

func (s *Server) handleAssessContext(ctx context.Context, req *mcpsdk.CallToolRequest, input AssessInput) (*mcpsdk.CallToolResult, any, error) {
	category, err := parseCategory(input.Category, input.SourceSystem)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.engine.AssessContext(ctx, category, input.Payload)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

func (s *Server) handleCalculateScore(ctx context.Context, req *mcpsdk.CallToolRequest, input ScoreInput) (*mcpsdk.CallToolResult, any, error) {
	s.engine.EnsureSeeded(ctx)

	signals, err := decodeList[model.RiskSignal](input.Signals, "signals")
	if err != nil {
		return nil, nil, err
	}
	policyHits, err := decodeList[model.RetrievalHit](input.PolicyHits, "policy_hits")
	if err != nil {
		return nil, nil, err
	}
	caseHits, err := decodeList[model.RetrievalHit](input.CaseHits, "case_hits")
	if err != nil {
		return nil, nil, err
	}
	return nil, s.engine.CalculateScore(signals, policyHits, caseHits), nil
}

func (s *Server) handleAssessDemo(ctx context.Context, req *mcpsdk.CallToolRequest, input CategoryInput) (*mcpsdk.CallToolResult, any, error) {
	category, err := parseCategory(input.Category, input.SourceSystem)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.engine.AssessDemo(ctx, category)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

func parseCategory(category, alias string) (model.Category, error) {
	if strings.TrimSpace(category) == "" {
		category = alias
	}
	return model.ParseCategory(category)
}

// decodeList accepts a list value or a JSON string holding one. Missing
// values are an empty list.
func decodeList[T any](raw any, field string) ([]T, error) {
	out := []T{}
	var data []byte
	switch v := raw.(type) {
	case nil:
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return out, nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode list", goerr.V("field", field))
		}
		data = b
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, goerr.Wrap(err, "expected a list", goerr.V("field", field))
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
