package audit

// AuditCitation is a flattened citation reference.
type AuditCitation struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// AuditEntry is one line in the hash-chained JSONL audit log.
// All fields are structs or slices of structs (no map[string]any) to
// guarantee deterministic json.Marshal field order for reproducible hashing.
// The payload itself is not recorded, only its subject line.
type AuditEntry struct {
	Timestamp    string          `json:"ts"`
	AssessmentID string          `json:"assessment_id"`
	Category     string          `json:"category"`
	Subject      string          `json:"subject"`
	Level        string          `json:"level"`
	Probability  float64         `json:"probability"`
	Signals      []string        `json:"signals"`
	Citations    []AuditCitation `json:"citations"`
	Backend      string          `json:"backend"`
	ConfigHash   string          `json:"config_hash"`
	PrevHash     string          `json:"prev_hash"`
}
