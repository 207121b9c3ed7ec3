package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/client"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
)

var (
	ingestServer string

	policyID            string
	policyTitle         string
	policyContent       string
	policyEffectiveFrom string
	policyScope         string

	caseID       string
	caseSummary  string
	caseDecision string
	caseReasons  string
	caseTags     []string
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.PersistentFlags().StringVar(&ingestServer, "server", "127.0.0.1:50051", "compliancewatch gRPC server (host:port)")

	ingestCmd.AddCommand(ingestPolicyCmd)
	ingestPolicyCmd.Flags().StringVar(&policyID, "id", "", "Policy id (required)")
	ingestPolicyCmd.Flags().StringVar(&policyTitle, "title", "", "Policy title")
	ingestPolicyCmd.Flags().StringVar(&policyContent, "content", "", "Policy text")
	ingestPolicyCmd.Flags().StringVar(&policyEffectiveFrom, "effective-from", "", "Effective date (YYYY-MM-DD)")
	ingestPolicyCmd.Flags().StringVar(&policyScope, "scope", "", "Applicability scope")
	ingestPolicyCmd.MarkFlagRequired("id")

	ingestCmd.AddCommand(ingestCaseCmd)
	ingestCaseCmd.Flags().StringVar(&caseID, "id", "", "Case id (required)")
	ingestCaseCmd.Flags().StringVar(&caseSummary, "summary", "", "What happened")
	ingestCaseCmd.Flags().StringVar(&caseDecision, "decision", "unknown", "compliant, non_compliant or unknown")
	ingestCaseCmd.Flags().StringVar(&caseReasons, "reasons", "", "Why the decision was reached")
	ingestCaseCmd.Flags().StringSliceVar(&caseTags, "tag", nil, "Case tag (repeatable)")
	ingestCaseCmd.MarkFlagRequired("id")

	ingestCmd.AddCommand(ingestFileCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add policies and cases to a running server",
	Long: "Sends knowledge documents to a compliancewatch server started with\n" +
		"'compliancewatch serve'. The knowledge base lives in server memory;\n" +
		"use knowledge_files in the config to load documents at start.",
}

var ingestPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Ingest one policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
			return c.IngestPolicy(ctx, model.PolicyDocument{
				ID:            policyID,
				Title:         policyTitle,
				Content:       policyContent,
				EffectiveFrom: policyEffectiveFrom,
				Scope:         policyScope,
			})
		})
	},
}

var ingestCaseCmd = &cobra.Command{
	Use:   "case",
	Short: "Ingest one historical case",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		decision, err := model.ParseDecision(caseDecision)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
			return c.IngestCase(ctx, model.CaseDocument{
				ID:       caseID,
				Summary:  caseSummary,
				Decision: decision,
				Reasons:  caseReasons,
				Tags:     knowledge.ParseTags(caseTags),
			})
		})
	},
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <knowledge.yaml>",
	Short: "Ingest every policy and case in a knowledge YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := knowledge.LoadFile(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) (any, error) {
			var counts knowledge.Counts
			for _, p := range f.Policies {
				if counts, err = c.IngestPolicy(ctx, p); err != nil {
					return nil, goerr.Wrap(err, "failed to ingest policy", goerr.V("id", p.ID))
				}
			}
			for _, cs := range f.Cases {
				if counts, err = c.IngestCase(ctx, cs); err != nil {
					return nil, goerr.Wrap(err, "failed to ingest case", goerr.V("id", cs.ID))
				}
			}
			return counts, nil
		})
	},
}

func withClient(cmd *cobra.Command, fn func(context.Context, *client.Client) (any, error)) error {
	c, err := client.New(ingestServer)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := fn(ctx, c)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
