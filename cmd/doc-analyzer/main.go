// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc-analyzer CLI. The CLI converts
// documents (PDF, Office formats, images, audio, text) to Markdown through
// the markitdown container image, optionally describing embedded PDF images
// with a vision model. Subcommands: convert, serve, cache, version.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-analyzer/internal/enhance"
	"github.com/pdiddy/doc-analyzer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// defaultAPIKey resolves the process-wide description provider key:
// the environment (after .env loading) first, then .secrets/openai-api-key.
// Per-request keys from flags or upload forms override it downstream.
func defaultAPIKey() string {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		return v
	}
	return loadedSecrets[secrets.KeyOpenAI]
}

// defaultBaseURL resolves the description provider endpoint: explicit config
// first, then .secrets/local-llm-url for a local OpenAI-compatible server,
// else the OpenAI endpoint.
func defaultBaseURL() string {
	if v := viper.GetString("enhancement.base_url"); v != "" {
		return v
	}
	if v := loadedSecrets[secrets.KeyLocalLLM]; v != "" {
		return v
	}
	return enhance.DefaultBaseURL
}

// rootCmd is the base command for the doc-analyzer CLI.
var rootCmd = &cobra.Command{
	Use:   "doc-analyzer",
	Short: "Convert documents to Markdown with optional AI image description",
	Long: `doc-analyzer extracts Markdown from documents: PDF, PPTX, DOCX, XLSX,
images, audio, HTML, CSV, JSON, XML, and plain text. Conversion runs through
the markitdown container image; embedded PDF images can additionally be
described by a vision model, with captions woven into the output.

Use "convert" for one-shot file conversion, "serve" to run the upload API
the web UI talks to, and "cache clear" to drop memoized results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env supplies OPENAI_API_KEY in local setups; absence is fine.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doc-analyzer.yaml or ~/.config/doc-analyzer/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doc-analyzer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doc-analyzer"))
		}
	}

	viper.SetEnvPrefix("DOC_ANALYZER")
	viper.AutomaticEnv()

	viper.SetDefault("enhancement.model", "gpt-4o")
	viper.SetDefault("enhancement.max_concurrent", 4)
	viper.SetDefault("cache.dir", ".cache")
	viper.SetDefault("server.addr", ":8490")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
