// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ErrorKind classifies a conversion failure for callers that need to react
// differently to different failure modes (retry without enhancement, reject
// the file, surface a disk problem).
type ErrorKind string

const (
	// ErrorStaging means the uploaded bytes could not be written to a
	// temporary file (disk full, permissions).
	ErrorStaging ErrorKind = "staging"

	// ErrorUnsupportedFormat means the converter declined the input type.
	ErrorUnsupportedFormat ErrorKind = "unsupported_format"

	// ErrorCorruptInput means the converter recognized the extension but
	// could not parse the bytes.
	ErrorCorruptInput ErrorKind = "corrupt_input"

	// ErrorEnhancementProvider means the AI description call failed
	// (auth, quota, network).
	ErrorEnhancementProvider ErrorKind = "enhancement_provider"

	// ErrorConversionFailed is the catch-all when the underlying cause
	// is unknown.
	ErrorConversionFailed ErrorKind = "conversion_failed"
)

// UploadedDocument is one uploaded file: raw bytes plus the name the client
// declared for them. The orchestrator borrows it for the duration of a single
// conversion and holds no reference afterwards.
type UploadedDocument struct {
	// Name is the original filename including extension. Format detection
	// in the converter keys off the suffix, so it should be preserved as
	// the client sent it.
	Name string `json:"name" yaml:"name"`

	// Data is the raw file content.
	Data []byte `json:"-" yaml:"-"`

	// ContentType is the MIME type declared by the client, if any. It is
	// recorded in the result metadata but not trusted for detection.
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

// EnhancementConfig controls optional AI image description for one
// conversion. It is pure per-call configuration; a zero value means
// no enhancement.
type EnhancementConfig struct {
	// Enabled requests image description. Without an APIKey (and no
	// process-wide default threaded in by the caller) enhancement is
	// skipped rather than failing the conversion.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// APIKey authenticates against the description provider. A
	// per-request key overrides any process-wide default.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the vision model identifier (e.g. "gpt-4o"). Empty selects
	// the provider default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// ResultMetadata is what the document-information surface shows about a
// completed conversion.
type ResultMetadata struct {
	// Filename is the original upload name.
	Filename string `json:"filename" yaml:"filename"`

	// SizeBytes is the length of the uploaded content.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// DetectedType is the lowercased extension the converter keyed off
	// (e.g. ".pdf"), or empty when the name carried none.
	DetectedType string `json:"detected_type,omitempty" yaml:"detected_type,omitempty"`

	// Title is the document title when the converter surfaces one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// PageCount is the number of pages for paginated formats, 0 otherwise.
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`

	// ConvertedAt is when the conversion completed.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}

// ConversionResult is the outcome of one Convert call. Failures are carried
// in-band: Success is false and ErrorKind/Error describe what went wrong.
// The orchestrator never lets a raw error escape past this type.
type ConversionResult struct {
	// Success reports whether extracted content is available.
	Success bool `json:"success" yaml:"success"`

	// Content is the extracted Markdown. Empty on failure.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Metadata describes the input and the conversion.
	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`

	// Enhanced reports whether AI figure descriptions were woven into
	// Content.
	Enhanced bool `json:"enhanced,omitempty" yaml:"enhanced,omitempty"`

	// CacheHit reports that Content was served from the result cache
	// without invoking the converter.
	CacheHit bool `json:"cache_hit,omitempty" yaml:"cache_hit,omitempty"`

	// ErrorKind classifies the failure when Success is false.
	ErrorKind ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`

	// Error is a human-readable failure message when Success is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
