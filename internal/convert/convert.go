// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements document-to-Markdown conversion with pluggable
// backends. The backend owns format detection and parsing; callers hand it a
// path and receive Markdown or a classified error.
package convert

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for failure classification. Backends wrap these so callers
// can match with errors.Is without depending on backend internals.
var (
	// ErrUnsupportedFormat means the backend declines the input type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptInput means the extension was recognized but the bytes
	// could not be parsed.
	ErrCorruptInput = errors.New("corrupt input")

	// ErrEmptyOutput means the backend ran but produced no content.
	ErrEmptyOutput = errors.New("conversion produced empty output")
)

// Options carries per-call conversion settings. Enhancement credentials are
// forwarded to the backend's own image description when enabled; the backend
// ignores them otherwise.
type Options struct {
	// EnableEnhancement asks the backend to describe embedded images.
	EnableEnhancement bool

	// APIKey authenticates the description provider.
	APIKey string

	// Model is the vision model identifier.
	Model string
}

// Result is the output of one conversion.
type Result struct {
	// Markdown is the extracted content.
	Markdown string

	// Title is the document title when one could be determined.
	Title string
}

// Converter transforms a staged document file into Markdown. Different
// backends (markitdown container, native extractors) implement this
// interface.
type Converter interface {
	// Convert reads the document at path and returns the Markdown content.
	// Failures wrap ErrUnsupportedFormat or ErrCorruptInput when the cause
	// is known.
	Convert(ctx context.Context, path string, opts Options) (Result, error)
}

// supportedExtensions is the set of file suffixes the markitdown backend
// accepts, matching the formats the upload surface advertises.
var supportedExtensions = map[string]bool{
	".pdf": true, ".pptx": true, ".docx": true, ".xlsx": true,
	".jpg": true, ".jpeg": true, ".png": true,
	".mp3": true, ".wav": true,
	".html": true, ".htm": true,
	".csv": true, ".json": true, ".xml": true,
	".txt": true, ".md": true,
}

// Supported reports whether ext (with leading dot, any case) is an accepted
// input suffix. An empty extension is treated as supported: detection is
// delegated to the backend's own sniffing.
func Supported(ext string) bool {
	if ext == "" {
		return true
	}
	return supportedExtensions[strings.ToLower(ext)]
}

// TitleFromMarkdown returns the text of the first level-1 heading, or "".
func TitleFromMarkdown(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
