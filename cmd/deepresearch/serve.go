// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/history"
	"github.com/pdiddy/deepresearch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research pipeline over HTTP",
	Long: `Serve exposes the research pipeline on an HTTP API: a synchronous
JSON endpoint and a streaming server-sent-events endpoint, both behind
basic auth. With --record, completed runs are written to the history store.

Credentials come from .secrets/basic-auth-username and
.secrets/basic-auth-password (or the server.basic_auth_* config keys).`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("record") {
		cfg.Server.RecordRuns, _ = cmd.Flags().GetBool("record")
	}

	if cfg.Server.BasicAuthUsername == "" || cfg.Server.BasicAuthPassword == "" {
		return fmt.Errorf("basic auth credentials not configured: set .secrets/basic-auth-username and .secrets/basic-auth-password")
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	var recorder server.Recorder
	if cfg.Server.RecordRuns {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()
		recorder = store
		logger.Info("recording runs", zap.String("path", cfg.History.Path))
	}

	return server.New(cfg.Server, p, recorder, logger).ListenAndServe()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("record", false, "record completed runs to the history store")

	rootCmd.AddCommand(serveCmd)
}
