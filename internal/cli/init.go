package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/denylist"
)

var (
	initMode  string
	initForce bool
)

func init() {
	initCmd.Flags().StringVar(&initMode, "mode", "user", "Config location: user (~/.compliancewatch) or system (/etc/compliancewatch)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap compliancewatch configuration",
	Long: `Creates the config directory with a commented config.yaml, an example
supplier denylist and an empty knowledge directory.

User mode (default):  writes to ~/.compliancewatch/
System mode:          writes to /etc/compliancewatch/ (requires root)`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := initConfigDir()
	if err != nil {
		return err
	}

	var created []string

	knowledgeDir := filepath.Join(configDir, "knowledge")
	if err := os.MkdirAll(knowledgeDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create knowledge directory", goerr.V("path", knowledgeDir))
	}

	files := []struct {
		name    string
		content string
	}{
		{"config.yaml", config.Example},
		{"denylist.yaml", denylist.Example},
	}
	for _, f := range files {
		path := filepath.Join(configDir, f.name)
		wrote, err := writeIfMissing(path, f.content)
		if err != nil {
			return err
		}
		if wrote {
			created = append(created, path)
		}
	}

	fmt.Println("compliancewatch init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Try it:")
	fmt.Println("  compliancewatch demo procurement")
	fmt.Println()
	fmt.Println("Serve agents over MCP:")
	fmt.Println("  compliancewatch mcp")
	return nil
}

// initConfigDir returns the configuration directory based on mode.
func initConfigDir() (string, error) {
	switch initMode {
	case "system":
		return "/etc/compliancewatch", nil
	case "user", "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", goerr.Wrap(err, "cannot determine home directory")
		}
		return filepath.Join(home, ".compliancewatch"), nil
	default:
		return "", goerr.New("unknown mode: use 'user' or 'system'", goerr.V("mode", initMode))
	}
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, goerr.Wrap(err, "failed to create directory", goerr.V("path", dir))
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, goerr.Wrap(err, "failed to write file", goerr.V("path", path))
	}
	return true, nil
}
