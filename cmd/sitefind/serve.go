package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FranksOps/sitefind/internal/api"
	"github.com/FranksOps/sitefind/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP API",
		Long: `Serve starts the HTTP API on PORT and, when METRICS_PORT is set, a
Prometheus /metrics endpoint. SIGINT and SIGTERM shut both down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if logger.Enabled(cmd.Context(), slog.LevelDebug) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			p, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}
			if !p.HasCredentials() {
				logger.Warn("SCRAPERAPI_KEY is not set; searches will fail until it is configured")
			}

			srv := api.NewServer(p, api.Options{
				Port:           cfg.Port,
				AllowedOrigins: cfg.CORSAllowedOrigins,
				WriteTimeout:   cfg.UpstreamTimeout + 30*time.Second,
				Logger:         logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.ListenAndServe)

			var metricsSrv *metrics.Server
			if cfg.MetricsPort > 0 {
				metricsSrv = metrics.NewServer(cfg.MetricsPort)
				logger.Info("starting metrics server", "port", cfg.MetricsPort)
				g.Go(metricsSrv.ListenAndServe)
			}

			g.Go(func() error {
				<-gctx.Done()
				// The parent context is done; shut down on a fresh one.
				err := srv.Shutdown(context.Background())
				if metricsSrv != nil {
					err = errors.Join(err, metricsSrv.Stop(context.Background()))
				}
				return err
			})

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
