package rules

import (
	"testing"

	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/model"
)

func codes(signals []model.RiskSignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Code
	}
	return out
}

func assertCodes(t *testing.T, got []model.RiskSignal, want ...string) {
	t.Helper()
	g := codes(got)
	if len(g) != len(want) {
		t.Fatalf("expected codes %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected codes %v, got %v", want, g)
		}
	}
}

func TestProcurementAllRulesFire(t *testing.T) {
	e := NewEvaluator(nil)
	got := e.Evaluate(model.CategoryProcurement, model.Payload{
		"amount":               2200000.0,
		"procurement_method":   "single_source",
		"supplier_blacklisted": true,
	})
	assertCodes(t, got,
		CodeSupplierBlacklist, CodeMethodThresholdMismatch, CodeMissingSingleSourceReason, CodeMissingAttachments)

	if got[0].Severity != model.SevBlock {
		t.Errorf("expected block severity, got %s", got[0].Severity)
	}
	for _, s := range got {
		if s.Evidence == nil {
			t.Errorf("signal %s has nil evidence", s.Code)
		}
		if s.Message == "" {
			t.Errorf("signal %s has no message", s.Code)
		}
	}
}

func TestProcurementThresholdBoundary(t *testing.T) {
	e := NewEvaluator(nil)
	base := func(amount any, method string) model.Payload {
		return model.Payload{
			"amount":               amount,
			"procurement_method":   method,
			"single_source_reason": "sole patent holder",
			"attachments":          []any{"quote.pdf"},
		}
	}

	tests := []struct {
		name   string
		p      model.Payload
		expect bool
	}{
		{"at threshold", base(1000000, "single_source"), true},
		{"below threshold", base(999999.99, "single_source"), false},
		{"inquiry method", base(5000000.0, "询价"), true},
		{"competitive method", base(5000000.0, "public_tender"), false},
		{"string amount", base("5000000", "single_source"), false},
		{"missing amount", base(nil, "direct_purchase"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(model.CategoryProcurement, tt.p)
			fired := len(got) == 1 && got[0].Code == CodeMethodThresholdMismatch
			if tt.expect && !fired {
				t.Errorf("expected mismatch, got %v", codes(got))
			}
			if !tt.expect && len(got) != 0 {
				t.Errorf("expected no signals, got %v", codes(got))
			}
		})
	}
}

func TestProcurementSingleSourceReasonWhitespace(t *testing.T) {
	e := NewEvaluator(nil)
	got := e.Evaluate(model.CategoryProcurement, model.Payload{
		"procurement_method":   "direct_purchase",
		"single_source_reason": "   ",
		"attachments":          "memo.pdf",
	})
	assertCodes(t, got, CodeMissingSingleSourceReason)
}

func TestProcurementSupplierDenylist(t *testing.T) {
	dl := denylist.New(denylist.Patterns{Suppliers: []string{"示例空壳公司"}})
	e := NewEvaluator(dl)

	got := e.Evaluate(model.CategoryProcurement, model.Payload{
		"supplier_name": "示例空壳公司",
		"attachments":   []any{"a.pdf"},
	})
	assertCodes(t, got, CodeSupplierBlacklist)
	if got[0].Evidence[0]["supplier_name"] != "示例空壳公司" {
		t.Errorf("expected supplier evidence, got %v", got[0].Evidence)
	}

	clean := e.Evaluate(model.CategoryProcurement, model.Payload{
		"supplier_name": "正规供应商",
		"attachments":   []any{"a.pdf"},
	})
	assertCodes(t, clean)
}

func TestDecisionRules(t *testing.T) {
	e := NewEvaluator(nil)

	tests := []struct {
		name string
		p    model.Payload
		want []string
	}{
		{"undisclosed related party", model.Payload{"related_party": true, "attachments": []any{"x"}},
			[]string{CodeRelatedPartyDisclosure}},
		{"string disclosure is not explicit", model.Payload{"related_party": true, "disclosure_provided": "true", "attachments": []any{"x"}},
			[]string{CodeRelatedPartyDisclosure}},
		{"disclosed", model.Payload{"related_party": true, "disclosure_provided": true},
			[]string{}},
		{"procurement topic without materials", model.Payload{"topic": "关于供应商入围的议题"},
			[]string{CodeDecisionMissingProcMaterials}},
		{"title fallback", model.Payload{"title": "Annual tender plan"},
			[]string{CodeDecisionMissingProcMaterials}},
		{"procurement topic with materials", model.Payload{"topic": "采购计划", "attachments": []any{"plan.pdf"}},
			[]string{}},
		{"unrelated topic", model.Payload{"topic": "年度工作总结"},
			[]string{}},
		{"both", model.Payload{"topic": "招标事项", "related_party": "yes"},
			[]string{CodeRelatedPartyDisclosure, CodeDecisionMissingProcMaterials}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCodes(t, e.Evaluate(model.CategoryDecision, tt.p), tt.want...)
		})
	}
}

func TestAnalyticsRules(t *testing.T) {
	e := NewEvaluator(nil)

	tests := []struct {
		name string
		p    model.Payload
		want []string
	}{
		{"missing clauses", model.Payload{"contract_text": "甲方乙方……", "has_penalty_clause": false, "has_audit_clause": false},
			[]string{CodeContractMissingPenalty, CodeContractMissingAuditClause}},
		{"unknown clause flags", model.Payload{"contract_text": "text"},
			[]string{}},
		{"flags without text", model.Payload{"has_penalty_clause": false, "attachments": []any{"c.pdf"}},
			[]string{}},
		{"long payment terms", model.Payload{"contract_text": "text", "payment_terms_days": 181},
			[]string{CodeLongPaymentTerms}},
		{"payment terms at limit", model.Payload{"contract_text": "text", "payment_terms_days": 180.0},
			[]string{}},
		{"no materials", model.Payload{},
			[]string{CodeMissingContractMaterials}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCodes(t, e.Evaluate(model.CategoryAnalytics, tt.p), tt.want...)
		})
	}
}

func TestEvaluateNeverNil(t *testing.T) {
	e := NewEvaluator(nil)
	got := e.Evaluate(model.CategoryDecision, nil)
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no signals, got %v", codes(got))
	}
}

func TestCodesCoverBattery(t *testing.T) {
	if len(Codes()) != 10 {
		t.Errorf("expected 10 codes, got %d", len(Codes()))
	}
}
