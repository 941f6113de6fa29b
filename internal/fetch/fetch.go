// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads a remote document into memory so it can be
// converted like an uploaded one. Downloads are size-bounded; the body is
// never spooled to disk, staging happens later in the conversion pipeline.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/pdiddy/doc-analyzer/pkg/types"
)

// DefaultMaxBytes bounds a fetched document when no limit is configured.
const DefaultMaxBytes int64 = 64 << 20

// Fetch downloads the document at rawURL and returns it as an uploaded
// document. The filename comes from the Content-Disposition header when
// present, falling back to the final URL path segment. Bodies larger than
// maxBytes are rejected rather than truncated.
func Fetch(ctx context.Context, client *http.Client, rawURL string, cfg types.HTTPConfig, maxBytes int64) (types.UploadedDocument, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.UploadedDocument{}, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.UploadedDocument{}, fmt.Errorf("fetching document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.UploadedDocument{}, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	if resp.ContentLength > maxBytes {
		return types.UploadedDocument{}, fmt.Errorf("document is %d bytes, limit is %d", resp.ContentLength, maxBytes)
	}

	// Read one byte past the limit to distinguish at-limit from over-limit.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return types.UploadedDocument{}, fmt.Errorf("reading document body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return types.UploadedDocument{}, fmt.Errorf("document exceeds %d byte limit", maxBytes)
	}
	if len(data) == 0 {
		return types.UploadedDocument{}, fmt.Errorf("empty response from %s", rawURL)
	}

	name := filename(resp, rawURL)
	if name == "" {
		return types.UploadedDocument{}, fmt.Errorf("cannot derive a filename from %s", rawURL)
	}

	return types.UploadedDocument{
		Name:        name,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// filename derives the document name: Content-Disposition when the server
// sends one, otherwise the last path segment of the request URL (after
// redirects).
func filename(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := path.Base(params["filename"]); fn != "." && fn != "/" && fn != "" {
				return fn
			}
		}
	}

	u := resp.Request.URL
	if u == nil {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		u = parsed
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
