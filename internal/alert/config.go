package alert

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // risk levels ("block", "high") or signal codes
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp    string   `json:"timestamp"`
	AssessmentID string   `json:"assessment_id"`
	Category     string   `json:"category"`
	Subject      string   `json:"subject"`
	Level        string   `json:"level"`
	Probability  float64  `json:"probability"`
	Signals      []string `json:"signals"`
	ConfigHash   string   `json:"config_hash"`
}
