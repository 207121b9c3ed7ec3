package knowledge

import (
	"time"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// DemoPolicies returns the built-in demo policy set, effective today.
func DemoPolicies(today time.Time) []model.PolicyDocument {
	date := today.Format("2006-01-02")
	return []model.PolicyDocument{
		{
			ID:            "POL-001",
			Title:         "采购方式与金额阈值管理办法",
			Content:       "采购金额达到规定阈值的，应当采用公开招标等竞争性方式。采用单一来源采购的，应具备唯一性依据，履行审批和公示程序。采购全过程应留痕、可追溯。",
			EffectiveFrom: date,
			Scope:         "集团",
		},
		{
			ID:            "POL-002",
			Title:         "关联交易与回避管理规定",
			Content:       "议题涉及关联方的，应当披露关联关系，相关人员按规定回避。披露材料随议题一并提交，并纳入审批档案。",
			EffectiveFrom: date,
			Scope:         "集团",
		},
		{
			ID:            "POL-003",
			Title:         "合同关键条款与监督要求",
			Content:       "合同应当包含违约责任、审计监督配合、付款条件、交付验收等关键条款。重大合同纳入重点监督和审计抽查范围。",
			EffectiveFrom: date,
			Scope:         "集团",
		},
	}
}

// DemoCases returns the built-in demo case set.
func DemoCases() []model.CaseDocument {
	return []model.CaseDocument{
		{
			ID:       "CASE-101",
			Summary:  "某项目金额较大却采用单一来源采购，未提供唯一性依据。",
			Decision: model.DecisionNonCompliant,
			Reasons:  "金额已达公开竞争阈值仍走单一来源，缺少唯一性证明和审批要件，审计认定程序不合规。",
			Tags:     []string{"procurement", "single_source", "threshold"},
		},
		{
			ID:       "CASE-102",
			Summary:  "议题涉及关联方但未披露关联关系，事后被追责。",
			Decision: model.DecisionNonCompliant,
			Reasons:  "未履行披露和回避流程，审批材料不完整，形成廉洁风险。",
			Tags:     []string{"decision", "related_party"},
		},
		{
			ID:       "CASE-103",
			Summary:  "合同缺少违约责任条款，引发履约争议。",
			Decision: model.DecisionNonCompliant,
			Reasons:  "关键条款缺失导致权责不清，造成损失并被审计指出问题。",
			Tags:     []string{"analytics", "contract"},
		},
		{
			ID:       "CASE-104",
			Summary:  "同类采购补齐材料后通过复核。",
			Decision: model.DecisionCompliant,
			Reasons:  "补充唯一性证明、比价记录和审批链路后，程序要件满足要求。",
			Tags:     []string{"procurement", "materials"},
		},
	}
}

// Seed populates the demo set only when the store is empty. It returns the
// resulting counts and whether anything was written.
func (s *Store) Seed() (Counts, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.policies) > 0 || len(s.cases) > 0 {
		return s.countsLocked(), false
	}

	for _, p := range DemoPolicies(time.Now()) {
		s.policyOrder = append(s.policyOrder, p.ID)
		s.policies[p.ID] = p
	}
	for _, c := range DemoCases() {
		s.caseOrder = append(s.caseOrder, c.ID)
		s.cases[c.ID] = c
	}
	return s.countsLocked(), true
}
