package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/presentation/tui"
	httpAdapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves server-side rendering, event triggers and per-session event streams
(SSE) over HTTP. Prometheus metrics are exposed at /metrics unless disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		logger := st.Logger

		if n, err := st.Engine.LoadAll(cmd.Context()); err != nil {
			logger.Warn("some components failed to load", "loaded", n, "err", err)
		} else {
			logger.Info("components loaded", "count", n)
		}

		if out := cmd.OutOrStdout(); tui.IsTerminal(out) {
			tui.PrintBanner(out, tendril.Version)
		}

		addr := st.Config.Server.Addr
		if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
			addr = flag
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCORS(st.Config.Server.CORS),
		}
		if st.Config.Server.Metrics {
			opts = append(opts, httpAdapter.WithMetrics(promhttp.HandlerFor(st.Registry, promhttp.HandlerOpts{})))
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(st.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr, "definitions", st.Config.Definitions)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-sigCtx.Done():
			logger.Info("shutting down", "signal", sigCtx.Signal())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
