package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc-analyzer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document conversion HTTP API",
	Long: `Serve starts the upload API: POST /api/convert accepts a multipart form
with a "file" part plus optional "enhance", "api_key", and "model" fields,
and returns the conversion result as JSON. POST /api/cache/clear drops
memoized results and GET /api/health reports liveness.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		cfg := appConfig()
		if addr != "" {
			cfg.Server.Addr = addr
		}

		o, store, err := buildOrchestrator(cfg, os.Stderr, !noCache)
		if err != nil {
			return err
		}

		var admin server.CacheAdmin
		if store != nil {
			defer store.Close()
			admin = store
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.New(cfg.Server, o, admin, os.Stderr).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.Server.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		fmt.Fprintln(os.Stderr, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8490)")
	serveCmd.Flags().Bool("no-cache", false, "disable the result cache")

	rootCmd.AddCommand(serveCmd)
}
