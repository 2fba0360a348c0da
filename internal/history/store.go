// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed research runs in SQLite. The pipeline
// itself is stateless; the store only records terminal results, for the
// history CLI and for operators reviewing past runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// ErrNotFound is returned when a run ID has no stored row.
var ErrNotFound = errors.New("run not found")

// Store manages the run-history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the history database at cfg.Path and creates
// the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			plan TEXT NOT NULL,
			sub_results TEXT NOT NULL,
			final_answer TEXT NOT NULL,
			all_sources TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save writes one completed run. Structured fields are stored as JSON
// columns; saving an existing ID replaces the row.
func (s *Store) Save(ctx context.Context, result *types.ResearchResult) error {
	if result.ID == "" {
		return fmt.Errorf("run has no ID")
	}

	plan, err := json.Marshal(result.Plan)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	subResults, err := json.Marshal(result.SubResults)
	if err != nil {
		return fmt.Errorf("marshaling sub-results: %w", err)
	}
	allSources, err := json.Marshal(result.AllSources)
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, query, plan, sub_results, final_answer, all_sources, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.Query, string(plan), string(subResults), result.FinalAnswer, string(allSources),
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Get loads one run by ID. A missing row returns ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*types.ResearchResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, plan, sub_results, final_answer, all_sources, started_at, completed_at
		 FROM runs WHERE id = ?`, id)

	var result types.ResearchResult
	var plan, subResults, allSources, startedAt, completedAt string
	err := row.Scan(&result.ID, &result.Query, &plan, &subResults, &result.FinalAnswer,
		&allSources, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(plan), &result.Plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if err := json.Unmarshal([]byte(subResults), &result.SubResults); err != nil {
		return nil, fmt.Errorf("parsing sub-results: %w", err)
	}
	if err := json.Unmarshal([]byte(allSources), &result.AllSources); err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}
	if result.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if result.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
		return nil, fmt.Errorf("parsing completed_at: %w", err)
	}
	return &result, nil
}

// RunSummary is one row in a history listing.
type RunSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Query        string    `json:"query" yaml:"query"`
	SubQuestions int       `json:"sub_questions" yaml:"sub_questions"`
	Sources      int       `json:"sources" yaml:"sources"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt  time.Time `json:"completed_at" yaml:"completed_at"`
}

// List returns summaries of the most recent runs, newest first. A limit of
// zero or less uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, sub_results, all_sources, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var subResults, allSources, startedAt, completedAt string
		if err := rows.Scan(&sum.ID, &sum.Query, &subResults, &allSources, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		var subs []types.SubResult
		if err := json.Unmarshal([]byte(subResults), &subs); err == nil {
			sum.SubQuestions = len(subs)
		}
		var sources []types.SourceRecord
		if err := json.Unmarshal([]byte(allSources), &sources); err == nil {
			sum.Sources = len(sources)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			sum.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
			sum.CompletedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Export loads the most recent runs in full, newest first. A limit of zero
// or less uses the store default.
func (s *Store) Export(ctx context.Context, limit int) ([]*types.ResearchResult, error) {
	summaries, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	runs := make([]*types.ResearchResult, 0, len(summaries))
	for _, sum := range summaries {
		run, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Delete removes one run. Deleting a missing ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
