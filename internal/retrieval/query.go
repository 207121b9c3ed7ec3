package retrieval

import (
	"strings"

	"github.com/ppiankov/compliancewatch/internal/model"
)

var (
	// free-text fields added verbatim
	textKeys = []string{"title", "topic", "summary", "description", "project_name", "contract_name"}
	// classifying fields added as key:value
	labelKeys = []string{"procurement_method", "decision_type", "project_stage", "supplier_name", "counterparty_name"}
	// numeric fields added as key:value
	numberKeys = []string{"amount", "contract_value", "budget"}
)

// BuildQuery flattens a payload into the text used to rank documents. The
// first line is always the category tag; the remaining lines follow a fixed
// key order and skip missing or empty values.
func BuildQuery(category model.Category, p model.Payload) string {
	parts := []string{string(category)}

	for _, k := range textKeys {
		if v := p.String(k); v != "" {
			parts = append(parts, v)
		}
	}
	for _, k := range labelKeys {
		if v := p.String(k); v != "" {
			parts = append(parts, k+":"+v)
		}
	}
	for _, k := range numberKeys {
		if n, ok := p.Number(k); ok {
			parts = append(parts, k+":"+model.FormatNumber(n))
		}
	}
	return strings.Join(parts, "\n")
}
