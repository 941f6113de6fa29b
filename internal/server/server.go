// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion orchestrator over HTTP for the
// upload UI: one multipart conversion endpoint, a cache-clear admin
// endpoint, and a health check. Responses are JSON; conversion failures
// come back as a structured result body, never as a bare 5xx.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/doc-analyzer/pkg/types"
)

const defaultMaxUploadBytes = 64 << 20 // 64 MiB

// Converter is the slice of the orchestrator the server needs.
type Converter interface {
	Convert(ctx context.Context, doc types.UploadedDocument, cfg types.EnhancementConfig) types.ConversionResult
}

// CacheAdmin is the administrative slice of the cache store.
type CacheAdmin interface {
	Clear() error
	Len() (int, error)
}

// Server routes HTTP requests to the orchestrator.
type Server struct {
	converter Converter
	cache     CacheAdmin
	maxUpload int64
	logw      io.Writer
}

// New creates a Server. cache may be nil when no cache is configured; the
// admin endpoint then reports nothing to clear.
func New(cfg types.ServerConfig, conv Converter, cache CacheAdmin, logw io.Writer) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	if logw == nil {
		logw = io.Discard
	}
	return &Server{
		converter: conv,
		cache:     cache,
		maxUpload: maxUpload,
		logw:      logw,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert", s.handleConvert)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// handleConvert accepts a multipart upload ("file" part, optional "enhance",
// "api_key", and "model" fields) and returns the conversion result. The
// result is 200 whether the conversion succeeded or failed; the Success
// field carries the outcome. Only malformed requests get 4xx.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" part`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload")
		return
	}

	doc := types.UploadedDocument{
		Name:        header.Filename,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}
	cfg := types.EnhancementConfig{
		Enabled: r.FormValue("enhance") == "true" || r.FormValue("enhance") == "1",
		APIKey:  r.FormValue("api_key"),
		Model:   r.FormValue("model"),
	}

	fmt.Fprintf(s.logw, "convert: %s (%d bytes, enhance=%v)\n", doc.Name, len(data), cfg.Enabled)

	res := s.converter.Convert(r.Context(), doc, cfg)
	writeJSON(w, http.StatusOK, res)
}

// handleCacheClear wipes the result cache. It never fails for an empty
// cache; only a storage error yields a 500.
func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cleared": false, "reason": "no cache configured"})
		return
	}

	removed, err := s.cache.Len()
	if err != nil {
		removed = 0
	}
	if err := s.cache.Clear(); err != nil {
		fmt.Fprintf(s.logw, "warning: cache clear failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "clearing cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true, "removed": removed})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
