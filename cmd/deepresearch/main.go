// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deepresearch CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/secrets"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys and credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deepresearch CLI.
var rootCmd = &cobra.Command{
	Use:   "deepresearch",
	Short: "Multi-agent research pipeline over web search and LLMs",
	Long: `deepresearch answers open-ended questions by decomposing them into
sub-questions, researching each one against live web search, and
synthesizing a cited final answer.

Run a query directly with "deepresearch research", expose the pipeline
over HTTP with "deepresearch serve", or browse past runs with
"deepresearch history".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deepresearch.yaml or ~/.config/deepresearch/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deepresearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deepresearch"))
		}
	}

	viper.SetEnvPrefix("DEEPRESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration from the config file,
// environment, and .secrets/, then applies defaults.
func loadConfig() types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.Search.Timeout = viper.GetDuration("search.timeout")
	cfg.Search.UserAgent = viper.GetString("search.user_agent")
	cfg.Search.MaxResults = viper.GetInt("search.max_results")
	cfg.Search.MaxRetries = viper.GetInt("search.max_retries")
	cfg.Search.APIKey = secrets.Resolve(loadedSecrets, "tavily-api-key", viper.GetString("search.api_key"), "")

	cfg.AI.Model = viper.GetString("ai.model")
	cfg.AI.BaseURL = viper.GetString("ai.base_url")
	cfg.AI.MaxRetries = viper.GetInt("ai.max_retries")
	cfg.AI.APIKey = secrets.Resolve(loadedSecrets, "llm-api-key", viper.GetString("ai.api_key"), "")

	cfg.Server.Addr = viper.GetString("server.addr")
	cfg.Server.RecordRuns = viper.GetBool("server.record_runs")
	cfg.Server.BasicAuthUsername = secrets.Resolve(loadedSecrets, "basic-auth-username", viper.GetString("server.basic_auth_username"), "")
	cfg.Server.BasicAuthPassword = secrets.Resolve(loadedSecrets, "basic-auth-password", viper.GetString("server.basic_auth_password"), "")

	cfg.History.Path = viper.GetString("history.path")
	cfg.History.MaxResults = viper.GetInt("history.max_results")

	cfg.Defaults()
	return cfg
}

// newLogger builds the process logger. Verbose runs use the development
// encoder at debug level.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
