// Package rules holds the fixed rule battery per category. Rules are pure
// functions of the payload; every rule runs and each one that fires adds a
// signal, in battery order.
package rules

import (
	"strings"

	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// Signal codes.
const (
	CodeSupplierBlacklist            = "supplier_blacklist"
	CodeMethodThresholdMismatch      = "method_threshold_mismatch"
	CodeMissingSingleSourceReason    = "missing_single_source_reason"
	CodeMissingAttachments           = "missing_attachments"
	CodeRelatedPartyDisclosure       = "related_party_disclosure"
	CodeDecisionMissingProcMaterials = "decision_missing_procurement_materials"
	CodeContractMissingPenalty       = "contract_missing_penalty"
	CodeContractMissingAuditClause   = "contract_missing_audit_clause"
	CodeLongPaymentTerms             = "long_payment_terms"
	CodeMissingContractMaterials     = "missing_contract_materials"
)

const (
	// CompetitiveThreshold is the amount at or above which a competitive
	// procurement method is expected.
	CompetitiveThreshold = 1_000_000
	// MaxPaymentTermsDays is the longest payment period accepted without review.
	MaxPaymentTermsDays = 180
)

var (
	nonCompetitiveMethods = map[string]bool{"single_source": true, "direct_purchase": true, "询价": true}
	singleSourceMethods   = map[string]bool{"single_source": true, "direct_purchase": true}
	procurementKeywords   = []string{"招标", "采购", "供应商", "tender", "procurement", "supplier"}
)

// Evaluator runs the rule battery for a category.
type Evaluator struct {
	suppliers *denylist.Denylist
}

// NewEvaluator creates an evaluator. suppliers may be nil, in which case
// only the payload's own supplier_blacklisted flag raises the block signal.
func NewEvaluator(suppliers *denylist.Denylist) *Evaluator {
	return &Evaluator{suppliers: suppliers}
}

// Evaluate never fails. The result is never nil.
func (e *Evaluator) Evaluate(category model.Category, p model.Payload) []model.RiskSignal {
	signals := []model.RiskSignal{}
	attachments := p.List("attachments")

	switch category {
	case model.CategoryProcurement:
		signals = e.procurement(signals, p, attachments)
	case model.CategoryDecision:
		signals = decision(signals, p, attachments)
	case model.CategoryAnalytics:
		signals = analytics(signals, p, attachments)
	}
	return signals
}

// Codes lists every code the evaluator can emit, in battery order.
func Codes() []string {
	return []string{
		CodeSupplierBlacklist, CodeMethodThresholdMismatch, CodeMissingSingleSourceReason, CodeMissingAttachments,
		CodeRelatedPartyDisclosure, CodeDecisionMissingProcMaterials,
		CodeContractMissingPenalty, CodeContractMissingAuditClause, CodeLongPaymentTerms, CodeMissingContractMaterials,
	}
}

func (e *Evaluator) procurement(signals []model.RiskSignal, p model.Payload, attachments []any) []model.RiskSignal {
	method := p.String("procurement_method")

	if blocked, ev := e.supplierBlocked(p); blocked {
		signals = append(signals, signal(CodeSupplierBlacklist, model.SevBlock,
			"Supplier is on the risk/denylist; mandatory review or interception required.", ev...))
	}

	if amount, ok := p.Number("amount"); ok && amount >= CompetitiveThreshold && nonCompetitiveMethods[method] {
		signals = append(signals, signal(CodeMethodThresholdMismatch, model.SevHigh,
			"Amount is large but the procurement method may not match; verify open tender or competitive method requirements.",
			model.Evidence{"amount": amount, "procurement_method": method, "threshold": CompetitiveThreshold}))
	}

	if singleSourceMethods[method] && p.String("single_source_reason") == "" {
		signals = append(signals, signal(CodeMissingSingleSourceReason, model.SevHigh,
			"Single-source or direct purchase lacks a stated reason; add uniqueness basis or urgency justification.",
			model.Evidence{"procurement_method": method}))
	}

	if len(attachments) == 0 {
		signals = append(signals, signal(CodeMissingAttachments, model.SevMedium,
			"Key attachments are missing; add the purchase request, budget basis, technical requirements or price comparison."))
	}
	return signals
}

func (e *Evaluator) supplierBlocked(p model.Payload) (bool, []model.Evidence) {
	if p.Truthy("supplier_blacklisted") {
		return true, []model.Evidence{{"supplier_blacklisted": true}}
	}
	name := p.FirstString("supplier_name", "supplier")
	if blocked, reason := e.suppliers.IsBlocked(name, p.String("supplier_credit_code")); blocked {
		return true, []model.Evidence{{"supplier_name": name, "reason": reason}}
	}
	return false, nil
}

func decision(signals []model.RiskSignal, p model.Payload, attachments []any) []model.RiskSignal {
	if p.Truthy("related_party") && !p.IsExplicitly("disclosure_provided", true) {
		signals = append(signals, signal(CodeRelatedPartyDisclosure, model.SevHigh,
			"Related party involved without explicit disclosure; add the relationship statement and recusal procedure."))
	}

	topic := p.FirstString("topic", "title")
	if topic != "" && mentionsProcurement(topic) && len(attachments) == 0 {
		signals = append(signals, signal(CodeDecisionMissingProcMaterials, model.SevMedium,
			"Topic involves procurement but key materials are missing; add budget, requirements, supplier information and selection basis.",
			model.Evidence{"topic": topic}))
	}
	return signals
}

func mentionsProcurement(topic string) bool {
	lower := strings.ToLower(topic)
	for _, k := range procurementKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func analytics(signals []model.RiskSignal, p model.Payload, attachments []any) []model.RiskSignal {
	contractText := p.String("contract_text")

	if contractText != "" && p.IsExplicitly("has_penalty_clause", false) {
		signals = append(signals, signal(CodeContractMissingPenalty, model.SevHigh,
			"Contract text is present but flagged as missing a penalty/liability clause; review key clause completeness."))
	}

	if contractText != "" && p.IsExplicitly("has_audit_clause", false) {
		signals = append(signals, signal(CodeContractMissingAuditClause, model.SevMedium,
			"Contract is flagged as missing an audit/oversight cooperation clause; add audit and record-keeping requirements."))
	}

	if days, ok := p.Number("payment_terms_days"); ok && days > MaxPaymentTermsDays {
		signals = append(signals, signal(CodeLongPaymentTerms, model.SevMedium,
			"Payment period is long; check finance rules and performance guarantees.",
			model.Evidence{"payment_terms_days": days, "max": MaxPaymentTermsDays}))
	}

	if contractText == "" && len(attachments) == 0 {
		signals = append(signals, signal(CodeMissingContractMaterials, model.SevMedium,
			"No contract text or attachments; contract compliance cannot be analysed without materials."))
	}
	return signals
}

func signal(code string, sev model.Severity, msg string, evidence ...model.Evidence) model.RiskSignal {
	if evidence == nil {
		evidence = []model.Evidence{}
	}
	return model.RiskSignal{Code: code, Severity: sev, Message: msg, Evidence: evidence}
}
