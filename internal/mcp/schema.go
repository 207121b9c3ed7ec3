package mcp

// Input schemas for tools whose arguments accept more than one JSON type.
// The rest are inferred from their input structs.

var categoryProperties = map[string]any{
	"category": map[string]any{
		"type":        "string",
		"description": "Business category: decision, procurement or analytics.",
	},
	"source_system": map[string]any{
		"type":        "string",
		"description": "Alias of category.",
	},
}

func assessSchema() map[string]any {
	props := map[string]any{
		"payload": map[string]any{
			"description": "Business data as a JSON object or a JSON-encoded string. Free text is accepted and assessed as {\"text\": ...}.",
		},
	}
	for k, v := range categoryProperties {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"required":   []string{"payload"},
		"properties": props,
	}
}

func ingestCaseSchema() map[string]any {
	tags := map[string]any{
		"description": "Tags as a list of strings or a JSON array string.",
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"case_id", "summary", "decision", "reasons"},
		"properties": map[string]any{
			"case_id":   map[string]any{"type": "string", "description": "Case id; re-using an id replaces the case."},
			"summary":   map[string]any{"type": "string", "description": "What happened."},
			"decision":  map[string]any{"type": "string", "enum": []string{"compliant", "non_compliant", "unknown"}},
			"reasons":   map[string]any{"type": "string", "description": "Why the decision was reached."},
			"tags":      tags,
			"tags_json": tags,
		},
	}
}

func scoreSchema() map[string]any {
	list := func(desc string) map[string]any {
		return map[string]any{"description": desc + " A list, or the list as a JSON string."}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"signals":     list("signals from assess_compliance_context."),
			"policy_hits": list("policy_hits from assess_compliance_context."),
			"case_hits":   list("case_hits from assess_compliance_context."),
		},
	}
}
