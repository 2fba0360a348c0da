// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deepresearch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded research runs",
	Long: `History manages the local SQLite store of recorded runs. Runs are
recorded by "research --save" or by the server when recording is enabled.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-50s  %-5s  %-7s  %s\n",
		"ID", "Query", "Subs", "Sources", "Started")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, s := range summaries {
		query := s.Query
		if len(query) > 50 {
			query = query[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-50s  %-5d  %-7d  %s\n",
			s.ID, query, s.SubQuestions, s.Sources, s.StartedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(summaries))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one recorded run in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("rendering run: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export recorded runs to a YAML or JSON file",
	Long: `Export writes the most recent recorded runs (full results, not
summaries) to a file. The format follows the file extension: .yaml, .yml,
or .json.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Export(context.Background(), limit)
	if err != nil {
		return err
	}

	path := args[0]
	var out []byte
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		out, err = yaml.Marshal(runs)
	case strings.HasSuffix(path, ".json"):
		out, err = json.MarshalIndent(runs, "", "  ")
	default:
		return fmt.Errorf("unsupported export format %q: use .yaml, .yml, or .json", path)
	}
	if err != nil {
		return fmt.Errorf("rendering export: %w", err)
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Exported %d runs to %s\n", len(runs), path)
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", args[0])
		return nil
	},
}

func openStore() (*history.Store, error) {
	cfg := loadConfig()
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return store, nil
}

func init() {
	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = store default)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().Bool("json", false, "output as JSON instead of YAML")

	historyExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = store default)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
