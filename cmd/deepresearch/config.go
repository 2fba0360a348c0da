// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the merged configuration after applying the config file,
environment variables, secrets, and defaults. API keys and credentials
are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if cfg.Search.APIKey != "" {
			cfg.Search.APIKey = "<redacted>"
		}
		if cfg.AI.APIKey != "" {
			cfg.AI.APIKey = "<redacted>"
		}
		if cfg.Server.BasicAuthPassword != "" {
			cfg.Server.BasicAuthPassword = "<redacted>"
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		os.Stdout.Write(out)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter deepresearch.yaml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "deepresearch.yaml"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		starter := `# deepresearch configuration.
# API keys belong in .secrets/ (llm-api-key, tavily-api-key), not here.
ai:
  model: gpt-4o-mini
  base_url: https://api.openai.com/v1
search:
  max_results: 5
server:
  addr: ":8080"
  record_runs: false
history:
  path: deepresearch.db
`
		if err := os.WriteFile(path, []byte(starter), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
