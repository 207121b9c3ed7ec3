package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/compliancewatch/internal/assess"
)

// writeResult prints r as indented JSON or as a human-readable report.
func writeResult(w io.Writer, r *assess.Result, format string) error {
	if format == "json" {
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
	_, err := io.WriteString(w, formatResult(r))
	return err
}

func formatResult(r *assess.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assessment %s  %s  %s\n", r.AssessmentID, r.Category, r.Subject())
	fmt.Fprintf(&b, "Risk: %s  probability %.4f  (signals %.4f, cases %.4f, policies %.4f)\n",
		strings.ToUpper(string(r.Risk.Level)), r.Risk.Probability,
		r.Risk.Components.Signals, r.Risk.Components.Cases, r.Risk.Components.Policies)

	b.WriteString("\nSignals:\n")
	if len(r.Signals) == 0 {
		b.WriteString("  none\n")
	}
	for _, s := range r.Signals {
		fmt.Fprintf(&b, "  %-8s %-40s %s\n", "["+string(s.Severity)+"]", s.Code, s.Message)
	}

	b.WriteString("\nCitations:\n")
	if len(r.Citations) == 0 {
		b.WriteString("  none\n")
	}
	for _, c := range r.Citations {
		decision := ""
		if c.CaseDecision != "" {
			decision = " " + string(c.CaseDecision)
		}
		fmt.Fprintf(&b, "  %-6s %-10s %.4f%s  %s\n", c.Type, c.ID, c.Score, decision, oneLine(c.Excerpt))
	}

	if len(r.FollowUpQuestions) > 0 {
		b.WriteString("\nFollow-up questions:\n")
		for i, q := range r.FollowUpQuestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
		}
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
