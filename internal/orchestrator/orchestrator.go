// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator stages uploaded bytes into a temporary file, runs the
// conversion backend against it, optionally weaves in AI figure
// descriptions, and guarantees the staged file is gone when the call
// returns. All failures come back in-band as a failed ConversionResult;
// no error escapes Convert.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/doc-analyzer/internal/cache"
	"github.com/pdiddy/doc-analyzer/internal/convert"
	"github.com/pdiddy/doc-analyzer/internal/enhance"
	"github.com/pdiddy/doc-analyzer/internal/pdf"
	"github.com/pdiddy/doc-analyzer/pkg/types"
)

// ResultCache is the slice of the cache store the orchestrator needs.
// A nil cache disables result caching.
type ResultCache interface {
	Get(hash string, enhanced bool) (content string, pageCount int, ok bool, err error)
	Put(hash string, enhanced bool, filename, content string, pageCount int) error
}

// FigureEnhancer describes embedded PDF images and weaves the captions into
// converted Markdown. A nil enhancer disables the PDF figure flow.
type FigureEnhancer interface {
	EnhancePDF(ctx context.Context, pdfPath, baseMarkdown string, creds enhance.Credentials, w io.Writer) (markdown string, figures int, err error)
}

// Config wires an Orchestrator.
type Config struct {
	// Converter performs the document-to-Markdown conversion. Required.
	Converter convert.Converter

	// Enhancer handles PDF figure description. Optional.
	Enhancer FigureEnhancer

	// Cache stores results by content hash. Optional.
	Cache ResultCache

	// TempDir is where uploads are staged. Empty selects os.TempDir().
	TempDir string

	// Defaults supplies the process-wide enhancement key and model,
	// overridden per request.
	Defaults types.EnhancementDefaults

	// Log receives progress lines and cleanup warnings. Nil discards them.
	Log io.Writer
}

// Orchestrator runs conversions. Each Convert call is self-contained; a
// single Orchestrator is safe for concurrent use.
type Orchestrator struct {
	converter convert.Converter
	enhancer  FigureEnhancer
	cache     ResultCache
	tempDir   string
	defaults  types.EnhancementDefaults
	logw      io.Writer
}

// New creates an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	logw := cfg.Log
	if logw == nil {
		logw = io.Discard
	}
	return &Orchestrator{
		converter: cfg.Converter,
		enhancer:  cfg.Enhancer,
		cache:     cfg.Cache,
		tempDir:   cfg.TempDir,
		defaults:  cfg.Defaults,
		logw:      logw,
	}
}

// Convert stages the document, converts it, and returns the result. The
// staged file is removed on every exit path, including converter errors,
// context cancellation, and panics from the conversion plumbing. Failures
// never surface as Go errors; they are classified into the result.
func (o *Orchestrator) Convert(ctx context.Context, doc types.UploadedDocument, cfg types.EnhancementConfig) (res types.ConversionResult) {
	meta := types.ResultMetadata{
		Filename:     doc.Name,
		SizeBytes:    int64(len(doc.Data)),
		DetectedType: strings.ToLower(filepath.Ext(doc.Name)),
	}

	// pdfcpu and the container plumbing can panic on malformed input;
	// a panic must not escape past the conversion boundary.
	defer func() {
		if r := recover(); r != nil {
			res = failure(meta, types.ErrorConversionFailed, fmt.Sprintf("conversion panicked: %v", r))
		}
	}()

	if len(doc.Data) == 0 {
		return failure(meta, types.ErrorStaging, "document has no content")
	}

	// Per-request key overrides the process-wide default. Enhancement
	// without any key available is skipped, not failed.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = o.defaults.APIKey
	}
	model := cfg.Model
	if model == "" {
		model = o.defaults.Model
	}
	enhanceEnabled := cfg.Enabled && apiKey != ""
	if cfg.Enabled && !enhanceEnabled {
		fmt.Fprintln(o.logw, "enhancement requested but no API key available, skipping")
	}

	hash := cache.Key(doc.Data)
	if o.cache != nil {
		if content, pageCount, ok, err := o.cache.Get(hash, enhanceEnabled); err != nil {
			fmt.Fprintf(o.logw, "warning: cache lookup failed: %v\n", err)
		} else if ok {
			fmt.Fprintf(o.logw, "cache hit: %s\n", doc.Name)
			meta.Title = convert.TitleFromMarkdown(content)
			meta.PageCount = pageCount
			meta.ConvertedAt = time.Now().UTC()
			return types.ConversionResult{
				Success:  true,
				Content:  content,
				Metadata: meta,
				Enhanced: enhanceEnabled,
				CacheHit: true,
			}
		}
	}

	path, err := o.stage(doc)
	if err != nil {
		return failure(meta, types.ErrorStaging, fmt.Sprintf("staging upload: %v", err))
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			fmt.Fprintf(o.logw, "warning: removing staged file %s: %v\n", path, rmErr)
		}
	}()

	result, err := o.converter.Convert(ctx, path, convert.Options{
		EnableEnhancement: enhanceEnabled,
		APIKey:            apiKey,
		Model:             model,
	})
	if err != nil {
		kind, msg := classify(err)
		return failure(meta, kind, msg)
	}

	content := result.Markdown
	meta.Title = result.Title
	if meta.Title == "" {
		meta.Title = convert.TitleFromMarkdown(content)
	}

	enhanced := false
	if enhanceEnabled && meta.DetectedType == ".pdf" && o.enhancer != nil {
		creds := enhance.Credentials{APIKey: apiKey, Model: model, BaseURL: o.defaults.BaseURL}
		md, figures, err := o.enhancer.EnhancePDF(ctx, path, content, creds, o.logw)
		if err != nil {
			kind, msg := classify(err)
			return failure(meta, kind, msg)
		}
		content = md
		enhanced = figures > 0
	}

	if meta.DetectedType == ".pdf" {
		if n, err := pdf.PageCount(path); err == nil {
			meta.PageCount = n
		}
	}

	meta.ConvertedAt = time.Now().UTC()

	if o.cache != nil {
		if err := o.cache.Put(hash, enhanceEnabled, doc.Name, content, meta.PageCount); err != nil {
			fmt.Fprintf(o.logw, "warning: cache store failed: %v\n", err)
		}
	}

	return types.ConversionResult{
		Success:  true,
		Content:  content,
		Metadata: meta,
		Enhanced: enhanced,
	}
}

// stage writes the document bytes to a uniquely named file in the staging
// directory, preserving the original extension case for suffix-sensitive
// detectors. The file is fully written and closed before the path is
// returned, so no reader can observe a partial write.
func (o *Orchestrator) stage(doc types.UploadedDocument) (string, error) {
	dir := o.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, uuid.NewString()+filepath.Ext(doc.Name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating staged file: %w", err)
	}

	if _, err := f.Write(doc.Data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing staged file: %w", err)
	}

	return path, nil
}

// classify maps an error from conversion or enhancement onto the result
// taxonomy.
func classify(err error) (types.ErrorKind, string) {
	switch {
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return types.ErrorUnsupportedFormat, err.Error()
	case errors.Is(err, convert.ErrCorruptInput), errors.Is(err, pdf.ErrInvalidPDF):
		return types.ErrorCorruptInput, err.Error()
	case errors.Is(err, enhance.ErrProvider):
		return types.ErrorEnhancementProvider, err.Error()
	default:
		return types.ErrorConversionFailed, err.Error()
	}
}

func failure(meta types.ResultMetadata, kind types.ErrorKind, msg string) types.ConversionResult {
	return types.ConversionResult{
		Metadata:  meta,
		ErrorKind: kind,
		Error:     msg,
	}
}
