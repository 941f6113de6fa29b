package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/doc-analyzer/internal/cache"
	"github.com/pdiddy/doc-analyzer/internal/container"
	"github.com/pdiddy/doc-analyzer/internal/convert"
	"github.com/pdiddy/doc-analyzer/internal/enhance"
	"github.com/pdiddy/doc-analyzer/internal/orchestrator"
	"github.com/pdiddy/doc-analyzer/pkg/types"
)

// appConfig materializes the resolved configuration from viper.
func appConfig() types.AppConfig {
	return types.AppConfig{
		Conversion: types.ConversionConfig{
			Backend: types.BackendMarkitdown,
			TempDir: viper.GetString("conversion.temp_dir"),
		},
		Enhancement: types.EnhancementDefaults{
			HTTPConfig: types.HTTPConfig{
				Timeout:   90 * time.Second,
				UserAgent: "doc-analyzer/" + version,
			},
			Model:         viper.GetString("enhancement.model"),
			BaseURL:       defaultBaseURL(),
			APIKey:        defaultAPIKey(),
			MaxConcurrent: viper.GetInt("enhancement.max_concurrent"),
		},
		Cache: types.CacheConfig{
			Dir: viper.GetString("cache.dir"),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			MaxUploadBytes: viper.GetInt64("server.max_upload_bytes"),
		},
	}
}

// buildOrchestrator wires the conversion pipeline: container runtime,
// markitdown converter, figure enhancer, and (optionally) the result cache.
// The returned store is nil when withCache is false; otherwise the caller
// owns closing it.
func buildOrchestrator(cfg types.AppConfig, w io.Writer, withCache bool) (*orchestrator.Orchestrator, *cache.Store, error) {
	runtime, err := container.DetectRuntime()
	if err != nil {
		return nil, nil, fmt.Errorf("detecting container runtime: %w", err)
	}
	fmt.Fprintf(w, "using container runtime: %s\n", runtime.Name())

	converter, err := convert.NewMarkitdownConverter(runtime)
	if err != nil {
		return nil, nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Enhancement.Timeout}
	enhancer := enhance.NewEnhancer(httpClient, cfg.Enhancement.MaxConcurrent)

	// A nil interface value disables caching; assigning a nil *cache.Store
	// directly would produce a typed non-nil interface.
	var store *cache.Store
	var rc orchestrator.ResultCache
	if withCache {
		store, err = cache.Open(cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("opening result cache: %w", err)
		}
		rc = store
	}

	o := orchestrator.New(orchestrator.Config{
		Converter: converter,
		Enhancer:  enhancer,
		Cache:     rc,
		TempDir:   cfg.Conversion.TempDir,
		Defaults:  cfg.Enhancement,
		Log:       w,
	})
	return o, store, nil
}
