package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const separator = "──────────────────────────────────────────────────────────────────"

var levelOrder = []string{"block", "high", "medium", "low"}

// FormatTimeline renders a QueryResult as a human-readable table.
func FormatTimeline(result *QueryResult) string {
	if len(result.Entries) == 0 {
		return "No assessments found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s – %s UTC\n",
		formatTimestamp(result.Summary.FirstTimestamp, "2006-01-02 15:04:05"),
		formatTimestamp(result.Summary.LastTimestamp, "2006-01-02 15:04:05"))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		fmt.Fprintf(&b, "%-10s %-12s %-7s %.4f  %-30s %s\n",
			formatTimestamp(e.Timestamp, "15:04:05"),
			e.Category,
			strings.ToUpper(e.Level),
			e.Probability,
			truncate(e.Subject, 30),
			strings.Join(e.Signals, ","))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a QueryResult as indented JSON.
func FormatJSON(result *QueryResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal audit query")
	}
	return string(data), nil
}

func formatTimestamp(ts, layout string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format(layout)
}

func formatSummary(s Summary) string {
	parts := []string{}
	for _, level := range levelOrder {
		if n := s.ByLevel[level]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, level))
		}
	}
	return fmt.Sprintf("Summary: %d assessments | %s\n", s.Total, strings.Join(parts, ", "))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
