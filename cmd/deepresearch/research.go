// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/history"
	"github.com/pdiddy/deepresearch/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Run one research query and print the answer",
	Long: `Research plans the query into sub-questions, researches each one in
parallel against web search, and prints the synthesized answer with its
sources. Progress is reported on stderr as the run advances.

Use --json for the full structured result, and --save to record the run
in the local history store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := loadConfig()
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quiet, _ := cmd.Flags().GetBool("quiet")
	emit := progressPrinter(os.Stderr)
	if quiet {
		emit = nil
	}

	query := strings.Join(args, " ")
	result, err := p.Run(ctx, query, emit)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()
		if err := store.Save(context.Background(), result); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved run %s\n", result.ID)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.FinalAnswer)
	if len(result.AllSources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range result.AllSources {
			fmt.Printf("  [%d] %s\n", i+1, s.URL)
		}
	}
	return nil
}

// progressPrinter renders pipeline events as human-readable progress lines.
func progressPrinter(w *os.File) func(types.Event) {
	return func(e types.Event) {
		switch p := e.Payload.(type) {
		case types.ProgressPayload:
			fmt.Fprintf(w, "... %s\n", p.Message)
		case types.PlanPayload:
			fmt.Fprintf(w, "Plan: %d sub-questions\n", p.Total)
			for i, q := range p.SubQuestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, q)
			}
		case types.QuestionPayload:
			fmt.Fprintf(w, "[%d/%d] researching: %s\n", p.Index, p.Total, p.Question)
		case types.SourcesPayload:
			fmt.Fprintf(w, "[%d] %d sources\n", p.Index, len(p.Sources))
		case types.ErrorPayload:
			fmt.Fprintf(w, "error (%s): %s\n", p.Kind, p.Message)
		}
	}
}

func init() {
	researchCmd.Flags().Bool("json", false, "output the full result as JSON")
	researchCmd.Flags().Bool("quiet", false, "suppress progress output")
	researchCmd.Flags().Bool("save", false, "record the run in the history store")

	rootCmd.AddCommand(researchCmd)
}
