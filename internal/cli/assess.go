package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/client"
	"github.com/ppiankov/compliancewatch/internal/model"
)

var (
	assessPayload string
	assessFile    string
	assessRemote  string
	assessFormat  string
	assessFailOn  string
)

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().StringVarP(&assessPayload, "payload", "p", "", "Payload as JSON object or free text")
	assessCmd.Flags().StringVar(&assessFile, "file", "", "Read payload from file (- for stdin)")
	assessCmd.Flags().StringVar(&assessRemote, "remote", "", "Assess on a compliancewatch gRPC server (host:port)")
	assessCmd.Flags().StringVarP(&assessFormat, "format", "f", "text", "Output format (text|json)")
	assessCmd.Flags().StringVar(&assessFailOn, "fail-on", "", "Exit 2 when the risk level is at or above this level (low|medium|high|block)")
}

var assessCmd = &cobra.Command{
	Use:   "assess <category>",
	Short: "Assess a business action",
	Long: "Assesses one payload for a category (decision, procurement, analytics).\n" +
		"The payload may be a JSON object or free text; it is read from --payload,\n" +
		"--file or stdin.\n\n" +
		"With --fail-on, exits 2 when the risk level reaches the given level, for\n" +
		"use as a CI gate.",
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func runAssess(cmd *cobra.Command, args []string) error {
	category, err := model.ParseCategory(args[0])
	if err != nil {
		return err
	}
	failOn, err := parseFailOn(assessFailOn)
	if err != nil {
		return err
	}
	payload, err := readPayload(cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result *assess.Result
	if assessRemote != "" {
		c, err := client.New(assessRemote)
		if err != nil {
			return err
		}
		defer c.Close()
		result, err = c.Assess(ctx, category, payload)
		if err != nil {
			return err
		}
	} else {
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		result, err = a.Engine().Assess(ctx, category, payload)
		if err != nil {
			return err
		}
	}

	if err := writeResult(cmd.OutOrStdout(), result, assessFormat); err != nil {
		return err
	}
	if failOn != "" && model.SevRank[result.Risk.Level] >= model.SevRank[failOn] {
		os.Exit(2)
	}
	return nil
}

func parseFailOn(s string) (model.Severity, error) {
	if s == "" {
		return "", nil
	}
	level := model.Severity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := model.SevRank[level]; !ok {
		return "", goerr.New("unknown level for --fail-on", goerr.V("level", s))
	}
	return level, nil
}

// readPayload returns --payload, the contents of --file, or stdin when
// neither is set. The raw string goes through payload normalization, so
// JSON and prose are both accepted.
func readPayload(stdin io.Reader) (string, error) {
	if assessPayload != "" {
		return assessPayload, nil
	}
	var (
		data []byte
		err  error
	)
	switch assessFile {
	case "", "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(assessFile)
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to read payload", goerr.V("file", assessFile))
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", goerr.New("empty payload: pass --payload, --file or pipe JSON on stdin")
	}
	return string(data), nil
}
