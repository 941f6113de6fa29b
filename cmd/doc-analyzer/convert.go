package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc-analyzer/internal/fetch"
	"github.com/pdiddy/doc-analyzer/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a document to Markdown",
	Long: `Convert transforms a single document into Markdown through the markitdown
container image. The input is a local file or, with --url, a remote
document downloaded first. With --enhance and an API key (flag,
OPENAI_API_KEY, or .secrets/openai-api-key), embedded PDF images are
described by a vision model and the captions appended as a figures section.

Conversion results are memoized by content hash; re-converting an unchanged
file returns the cached Markdown without invoking the container.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enhanceFlag, _ := cmd.Flags().GetBool("enhance")
		apiKey, _ := cmd.Flags().GetString("api-key")
		model, _ := cmd.Flags().GetString("model")
		outPath, _ := cmd.Flags().GetString("out")
		metaPath, _ := cmd.Flags().GetString("metadata-out")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		docURL, _ := cmd.Flags().GetString("url")

		if (len(args) == 0) == (docURL == "") {
			return fmt.Errorf("provide either a file argument or --url")
		}

		cfg := appConfig()

		var doc types.UploadedDocument
		if docURL != "" {
			httpClient := &http.Client{Timeout: cfg.Enhancement.Timeout}
			fetched, err := fetch.Fetch(cmd.Context(), httpClient, docURL, cfg.Enhancement.HTTPConfig, cfg.Server.MaxUploadBytes)
			if err != nil {
				return err
			}
			doc = fetched
			fmt.Fprintf(os.Stderr, "fetched %s (%d bytes)\n", doc.Name, len(doc.Data))
		} else {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}
			doc = types.UploadedDocument{Name: filepath.Base(args[0]), Data: data}
		}
		o, store, err := buildOrchestrator(cfg, os.Stderr, !noCache)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		res := o.Convert(cmd.Context(), doc, types.EnhancementConfig{
			Enabled: enhanceFlag,
			APIKey:  apiKey,
			Model:   model,
		})
		if !res.Success {
			return fmt.Errorf("conversion failed (%s): %s", res.ErrorKind, res.Error)
		}

		output := addFrontmatter(res)
		if outPath != "" {
			if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
		} else {
			fmt.Print(output)
		}

		if metaPath != "" {
			raw, err := yaml.Marshal(res.Metadata)
			if err != nil {
				return fmt.Errorf("encoding metadata: %w", err)
			}
			if err := os.WriteFile(metaPath, raw, 0o644); err != nil {
				return fmt.Errorf("writing metadata: %w", err)
			}
		}
		return nil
	},
}

// addFrontmatter prefixes the converted Markdown with a YAML frontmatter
// block carrying the conversion metadata.
func addFrontmatter(res types.ConversionResult) string {
	fm := map[string]any{
		"source":       res.Metadata.Filename,
		"converted_at": res.Metadata.ConvertedAt.Format(time.RFC3339),
		"enhanced":     res.Enhanced,
	}
	if res.Metadata.Title != "" {
		fm["title"] = res.Metadata.Title
	}
	if res.Metadata.PageCount > 0 {
		fm["pages"] = res.Metadata.PageCount
	}

	raw, err := yaml.Marshal(fm)
	if err != nil {
		return res.Content
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(raw)
	b.WriteString("---\n\n")
	b.WriteString(res.Content)
	return b.String()
}

func init() {
	convertCmd.Flags().Bool("enhance", false, "describe embedded PDF images with a vision model")
	convertCmd.Flags().String("api-key", "", "description provider API key (overrides env and .secrets/)")
	convertCmd.Flags().String("model", "", "vision model identifier (default gpt-4o)")
	convertCmd.Flags().String("out", "", "write Markdown to this file instead of stdout")
	convertCmd.Flags().String("metadata-out", "", "write conversion metadata as YAML to this file")
	convertCmd.Flags().Bool("no-cache", false, "bypass the result cache")
	convertCmd.Flags().String("url", "", "download the document from this URL instead of a local file")

	rootCmd.AddCommand(convertCmd)
}
