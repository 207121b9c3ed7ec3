package assess

import (
	"github.com/ppiankov/compliancewatch/internal/model"
)

// DemoPayload returns a fixed example payload for a category. The
// procurement example carries no attachments.
func DemoPayload(category model.Category) model.Payload {
	switch category {
	case model.CategoryDecision:
		return model.Payload{
			"topic":               "关于某供应商合作与采购策略的议题",
			"decision_type":       "上会审批",
			"related_party":       true,
			"disclosure_provided": false,
			"attachments":         []any{},
			"stakeholders":        []any{"部门A", "部门B"},
		}
	case model.CategoryProcurement:
		return model.Payload{
			"title":                "某信息化系统采购申请",
			"procurement_method":   "single_source",
			"amount":               2200000,
			"supplier_name":        "某科技有限公司",
			"supplier_blacklisted": false,
			"single_source_reason": "",
			"attachments":          []any{},
		}
	default:
		return model.Payload{
			"project_name":       "某建设项目",
			"contract_name":      "软件服务合同",
			"contract_value":     3500000,
			"payment_terms_days": 240,
			"contract_text":      "本合同约定服务内容与付款安排……",
			"has_penalty_clause": false,
			"has_audit_clause":   false,
			"attachments":        []any{},
		}
	}
}

// SchemaHint describes the payload fields the rules read for a category.
func SchemaHint(category model.Category) map[string]string {
	switch category {
	case model.CategoryDecision:
		return map[string]string{
			"topic/title":         "agenda item title",
			"decision_type":       "meeting approval / countersign / executive approval",
			"related_party":       "whether a related party is involved (true/false)",
			"disclosure_provided": "whether disclosure material was provided (true/false)",
			"attachments":         "attachment list (may be empty)",
		}
	case model.CategoryProcurement:
		return map[string]string{
			"title":                "procurement item name",
			"procurement_method":   "public tender / competitive negotiation / 询价 / single_source / direct_purchase",
			"amount":               "amount (number)",
			"supplier_name":        "supplier name",
			"supplier_credit_code": "supplier registration code (optional, checked against the denylist)",
			"supplier_blacklisted": "supplier is blacklisted (true/false)",
			"single_source_reason": "reason for single source (string, may be empty)",
			"attachments":          "attachment list",
		}
	default:
		return map[string]string{
			"project_name":       "project name",
			"contract_name":      "contract name",
			"contract_value":     "contract value (number)",
			"payment_terms_days": "payment period in days (number)",
			"contract_text":      "contract body (string, may be empty)",
			"has_penalty_clause": "contains a liability-for-breach clause (true/false)",
			"has_audit_clause":   "contains an audit/oversight clause (true/false)",
			"attachments":        "attachment list",
		}
	}
}
