package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/scenario"
)

var (
	checkScenario string
	checkDenylist string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	checkCmd.Flags().StringVar(&checkDenylist, "denylist", "", "Path to denylist YAML (default denylist_path from the config)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("scenario")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run assessment assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, assesses each case\n" +
		"with the lexical backend and the configured scoring, and reports\n" +
		"pass/fail against expected levels and signal codes.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.\n" +
		"Use in CI to gate changes to rules, scoring or the knowledge base.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	matches, err := filepath.Glob(checkScenario)
	if err != nil {
		return goerr.Wrap(err, "invalid glob pattern", goerr.V("pattern", checkScenario))
	}
	if len(matches) == 0 {
		return goerr.New("no scenario files match pattern", goerr.V("pattern", checkScenario))
	}

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	denylistPath := checkDenylist
	if denylistPath == "" {
		denylistPath = cfg.DenylistPath
	}

	ctx := commandContext(cmd)
	var results []*scenario.RunResult
	for _, path := range matches {
		r, err := scenario.LoadAndRun(ctx, path, denylistPath, cfg.Scoring)
		if err != nil {
			return goerr.Wrap(err, "scenario failed to run", goerr.V("path", path))
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	switch checkFormat {
	case "json":
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprint(out, scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			os.Exit(1)
		}
	}
	return nil
}
