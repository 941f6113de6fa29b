// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that call out to the
// network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "doc-analyzer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ConversionBackend identifies the document conversion tool.
type ConversionBackend string

const (
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for document conversion.
type ConversionConfig struct {
	// Backend selects the conversion tool. Only markitdown is implemented.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// TempDir is the directory used to stage uploaded bytes before
	// conversion. Empty selects the OS default temp directory.
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
}

// EnhancementDefaults holds process-wide defaults for AI image description,
// read once at startup and threaded through; per-request values override them.
type EnhancementDefaults struct {
	HTTPConfig `yaml:",inline"`

	// Model is the default vision model identifier.
	Model string `json:"model" yaml:"model"`

	// BaseURL is the OpenAI-compatible API root. Empty selects the OpenAI
	// endpoint; a local server URL (e.g. "http://127.0.0.1:1234/v1")
	// selects a local LLM.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the default provider key, typically sourced from the
	// environment or .secrets/. Requests may carry their own.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxConcurrent bounds simultaneous description calls for one
	// document (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

// CacheConfig holds settings for the conversion result cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default ".cache").
	Dir string `json:"dir" yaml:"dir"`
}

// ServerConfig holds settings for the HTTP upload API.
type ServerConfig struct {
	// Addr is the listen address (default ":8490").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes bounds the accepted upload size (default 64 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Conversion  ConversionConfig    `json:"conversion" yaml:"conversion"`
	Enhancement EnhancementDefaults `json:"enhancement" yaml:"enhancement"`
	Cache       CacheConfig         `json:"cache" yaml:"cache"`
	Server      ServerConfig        `json:"server" yaml:"server"`
}
