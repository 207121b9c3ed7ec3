// Package cli implements the compliancewatch command line.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	envFiles   []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (default ~/.compliancewatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console|json)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading config")
}

var rootCmd = &cobra.Command{
	Use:   "compliancewatch",
	Short: "Compliance risk assessment for business actions",
	Long: "Assesses decisions, procurements and contracts against a knowledge base of\n" +
		"policies and historical cases. Combines rule signals with similarity\n" +
		"retrieval into a risk probability, level and follow-up questions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
		return logging.Configure(logging.Config{Level: logLevel, Format: logFormat})
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp builds the app from --config.
func loadApp(ctx context.Context) (*app.App, error) {
	return app.Load(ctx, configPath)
}
