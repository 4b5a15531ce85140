package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-video-composer/internal/deps"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
	"github.com/kartoza/kartoza-video-composer/internal/remote"
	"github.com/kartoza/kartoza-video-composer/internal/sweep"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote composition service",
	Long: `Serve the composition pipeline over HTTP for orchestrators on hosts
without a local engine.

Routes:
  POST /v1/compose   run one composition
  GET  /v1/healthz   engine availability
  GET  /metrics      Prometheus metrics

Orphaned work directories are swept periodically while serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		executor, err := newLocalExecutor(ctx, cfg, logger, orchestrator.Hooks{})
		if err != nil {
			return err
		}

		checker := engineChecker(cfg)
		if missing := deps.MissingRequired(checker.Results()); len(missing) > 0 {
			logger.Warn().Str("report", deps.FormatMissing(missing)).Msg("serve: engine unavailable, compositions will be refused")
		}
		handler := remote.NewHandler(executor, checker, cfg.Timeout(), logger)

		addr := serveAddr
		if addr == "" {
			addr = ":" + cfg.Port
		}
		server := remote.NewServer(addr, handler.Router(), cfg.Timeout())

		go sweep.Run(ctx, cfg.TempDir, cfg.SweepMaxAge(), cfg.SweepInterval(), logger)

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", server.Addr()).Msg("serve: listening")
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Msg("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()+10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: :$PORT)")
}
