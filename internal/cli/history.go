package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/history"
)

var (
	historyDB       string
	historyCategory string
	historyLevel    string
	historySince    time.Duration
	historyLimit    int
	historyFormat   string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.PersistentFlags().StringVar(&historyDB, "db", "", "History database (default history_db from the config)")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "Only show this category")
	historyCmd.Flags().StringVar(&historyLevel, "level", "", "Only show this risk level")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only show assessments newer than this (e.g. 24h)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of assessments")
	historyCmd.AddCommand(historyShowCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent assessments",
	Long:  "Lists assessments recorded in the SQLite history database, newest first.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <assessment-id>",
	Short: "Show one stored assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	f := history.Filter{Category: historyCategory, Level: historyLevel, Limit: historyLimit}
	if historySince > 0 {
		f.Since = time.Now().Add(-historySince)
	}
	entries, err := store.List(commandContext(cmd), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyFormat == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	writeHistory(out, entries)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), result, historyFormat)
}

func writeHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No assessments found.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-36s %-12s %-7s %.4f  %-30s %s\n",
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.ID, e.Category, e.Level, e.Probability,
			truncate(e.Subject, 30), strings.Join(e.Signals, ","))
	}
}

func openHistory() (*history.Store, error) {
	path := historyDB
	if path == "" {
		cfg, _, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		return nil, goerr.New("no history database: pass --db or set history_db in the config")
	}
	return history.Open(config.ExpandHome(path))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
