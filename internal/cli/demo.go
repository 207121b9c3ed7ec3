package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/model"
)

var demoFormat string

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVarP(&demoFormat, "format", "f", "text", "Output format (text|json)")
}

var demoCmd = &cobra.Command{
	Use:   "demo [category]",
	Short: "Assess the built-in demo payloads",
	Long: "Seeds the demo knowledge base and assesses the demo payload of each\n" +
		"category (or only the given one) with the configured scoring and\n" +
		"similarity backend. Nothing is written to the audit log or history.",
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	categories := model.Categories
	if len(args) == 1 {
		c, err := model.ParseCategory(args[0])
		if err != nil {
			return err
		}
		categories = []model.Category{c}
	}

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Demo runs never reach the configured side channels.
	cfg.KnowledgeFiles = nil
	cfg.AuditLog = ""
	cfg.HistoryDB = ""
	cfg.Alerts = nil

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer a.Close()
	a.Store().Seed()
	engine := a.Engine()

	out := cmd.OutOrStdout()
	for i, category := range categories {
		if i > 0 && demoFormat != "json" {
			fmt.Fprintln(out)
		}
		result, err := engine.AssessDemo(ctx, category)
		if err != nil {
			return err
		}
		if err := writeResult(out, result, demoFormat); err != nil {
			return err
		}
	}
	return nil
}
