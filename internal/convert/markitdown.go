// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/doc-analyzer/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// Environment keys the markitdown image reads for its own image description.
const (
	envProviderKey = "OPENAI_API_KEY"
	envLLMModel    = "MARKITDOWN_LLM_MODEL"
)

// MarkitdownConverter converts documents by piping them through the
// markitdown container image. It depends on a container.Runtime (docker or
// podman) injected at construction time. The staged file's extension is
// forwarded as a hint so the image's detectors key off the right format.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the markitdown image
// exists locally before returning.
func NewMarkitdownConverter(rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Convert reads the document at path, pipes it through the markitdown
// container, and returns the resulting Markdown. An unsupported extension is
// declined before the container runs; parse failures reported by the image
// are classified as corrupt input.
func (m *MarkitdownConverter) Convert(ctx context.Context, path string, opts Options) (Result, error) {
	ext := filepath.Ext(path)
	if !Supported(ext) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.ToLower(ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening document %s: %w", path, err)
	}
	defer f.Close()

	var args []string
	if ext != "" {
		args = append(args, "-x", strings.ToLower(ext))
	}

	var env []string
	if opts.EnableEnhancement && opts.APIKey != "" {
		env = append(env, envProviderKey+"="+opts.APIKey)
		if opts.Model != "" {
			env = append(env, envLLMModel+"="+opts.Model)
		}
	}

	var out, errOut bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, args, env, f, &out, &errOut); err != nil {
		return Result{}, fmt.Errorf("converting %s with markitdown: %w", path, classify(err, errOut.String()))
	}

	if out.Len() == 0 {
		return Result{}, fmt.Errorf("%w for %s", ErrEmptyOutput, path)
	}

	md := out.String()
	return Result{Markdown: md, Title: TitleFromMarkdown(md)}, nil
}

// classify maps markitdown stderr output onto the sentinel errors. The image
// prints the Python exception class name on failure.
func classify(err error, stderr string) error {
	switch {
	case strings.Contains(stderr, "UnsupportedFormatException"):
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, firstLine(stderr))
	case strings.Contains(stderr, "FileConversionException"),
		strings.Contains(stderr, "MissingDependencyException"):
		return fmt.Errorf("%w: %s", ErrCorruptInput, firstLine(stderr))
	case stderr != "":
		return fmt.Errorf("%v: %s", err, firstLine(stderr))
	default:
		return err
	}
}

// firstLine trims stderr to its first non-empty line for error messages.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
