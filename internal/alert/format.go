package alert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event AlertEvent) ([]byte, error) {
	signals := "none"
	if len(event.Signals) > 0 {
		signals = strings.Join(event.Signals, ", ")
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("compliancewatch: %s risk", event.Level),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Category:* %s", event.Category)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Subject:* %s", event.Subject)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Probability:* %.2f", event.Probability)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Signals:* %s", signals)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"event_action": "trigger",
		"dedup_key":    event.AssessmentID,
		"payload": map[string]any{
			"summary":  fmt.Sprintf("compliancewatch %s risk: %s", event.Level, event.Subject),
			"severity": severityFor(event.Level),
			"source":   "compliancewatch",
			"custom_details": map[string]any{
				"category":      event.Category,
				"probability":   event.Probability,
				"signals":       event.Signals,
				"assessment_id": event.AssessmentID,
				"config_hash":   event.ConfigHash,
			},
		},
	}
	return json.Marshal(payload)
}

func severityFor(level string) string {
	switch level {
	case "block":
		return "critical"
	case "high":
		return "error"
	case "medium":
		return "warning"
	default:
		return "info"
	}
}
