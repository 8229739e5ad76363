package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/internal/presentation/tui"
	httpAdapter "github.com/aretw0/questscribe/pkg/adapters/http"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the configured document over a JSON API. Every mutation is saved
back to the configured store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
		}
		logger := cli.NewLogger(cfg)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		streams := httpAdapter.NewStreamManager(logger)

		ws, err := cli.Open(cmd.Context(), cli.Options{
			Config:   cfg,
			Logger:   logger,
			Hooks:    []domain.LifecycleHooks{streams.Hooks()},
			Registry: reg,
			Autosave: true,
		})
		if err != nil {
			return err
		}
		defer ws.Close()

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler: httpAdapter.NewHandler(ws.Engine,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithGatherer(reg),
				httpAdapter.WithStreams(streams),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			if tui.IsTerminal(cmd.OutOrStdout()) {
				tui.PrintBanner(cmd.OutOrStdout())
			}
			logger.Info("HTTP server listening", "address", srv.Addr, "doc", ws.Doc, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-cmd.Context().Done():
			logger.Info("shutdown signal received")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("graceful shutdown did not complete", "err", err)
				_ = srv.Close()
			}
			if err := ws.Commit(ctx); err != nil {
				return err
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides http.port)")
}
