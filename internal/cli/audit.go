package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/audit"
	"github.com/ppiankov/compliancewatch/internal/config"
)

var (
	tailLines int

	auditCategory string
	auditLevel    string
	auditSince    time.Duration
	auditFormat   string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditTailCmd.Flags().StringVar(&auditCategory, "category", "", "Only show this category")
	auditTailCmd.Flags().StringVar(&auditLevel, "level", "", "Only show this risk level")
	auditTailCmd.Flags().DurationVar(&auditSince, "since", 0, "Only show entries newer than this (e.g. 24h)")
	auditTailCmd.Flags().StringVarP(&auditFormat, "format", "f", "timeline", "Output format (timeline|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
	Long:  "Commands for verifying and inspecting the hash-chained assessment audit log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of an audit log",
	Long: "Walks the JSONL audit log and validates that every entry's prev_hash\n" +
		"matches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.\n" +
		"Defaults to audit_log from the config.",
	Args: cobra.MaximumNArgs(1),
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail [path]",
	Short: "Show recent assessments from the audit log",
	Long:  "Reads the last N matching entries from the JSONL audit log.\nDefaults to audit_log from the config.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditTail,
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args)
	if err != nil {
		return err
	}
	result := audit.Verify(path)
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args)
	if err != nil {
		return err
	}

	f := audit.Filter{Category: auditCategory, Level: auditLevel, Limit: tailLines}
	if auditSince > 0 {
		f.From = time.Now().Add(-auditSince)
	}
	result, err := audit.Query(path, f)
	if err != nil {
		return err
	}

	if auditFormat == "json" {
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), audit.FormatTimeline(result))
	return nil
}

// auditPath is the explicit argument or audit_log from the config.
func auditPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.AuditLog == "" {
		return "", goerr.New("no audit log path: pass one or set audit_log in the config")
	}
	return cfg.AuditLog, nil
}
