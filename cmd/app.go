package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/config"
	"github.com/kartoza/kartoza-video-composer/internal/deps"
	"github.com/kartoza/kartoza-video-composer/internal/fetch"
	"github.com/kartoza/kartoza-video-composer/internal/logging"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
	"github.com/kartoza/kartoza-video-composer/internal/publish"
	"github.com/kartoza/kartoza-video-composer/internal/remote"
)

// loadRuntime reads configuration and builds the logger every command shares
func loadRuntime() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		_ = godotenv.Load(".env", ".env.local")
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel)
	return cfg, logger, nil
}

// newPublisher builds the configured artifact publisher
func newPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (publish.Publisher, error) {
	switch cfg.Storage.Backend {
	case config.StorageGCS:
		return publish.NewGCSPublisher(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, logger)
	default:
		pub, err := publish.NewFilePublisher(cfg.Storage.Path, cfg.Storage.PublicBaseURL, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("dir", pub.BasePath()).Msg("publish: writing artifacts to local directory")
		return pub, nil
	}
}

// newLocalExecutor wires fetch, compose and publish for in-process runs
func newLocalExecutor(ctx context.Context, cfg *config.Config, logger zerolog.Logger, hooks orchestrator.Hooks) (*orchestrator.LocalExecutor, error) {
	pub, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &orchestrator.LocalExecutor{
		TempRoot:    cfg.TempDir,
		Margin:      cfg.Margin,
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Fetcher:     fetch.New(nil, logger),
		Publisher:   pub,
		Logger:      logger,
		Hooks:       hooks,
	}, nil
}

// engineChecker checks for the local engine binaries
func engineChecker(cfg *config.Config) deps.BinaryChecker {
	return deps.BinaryChecker{FFmpegPath: cfg.FFmpegPath, FFprobePath: cfg.FFprobePath}
}

// newOrchestrator picks remote execution when a remote URL is configured
// and local execution otherwise
func newOrchestrator(ctx context.Context, cfg *config.Config, logger zerolog.Logger, hooks orchestrator.Hooks) (*orchestrator.Orchestrator, error) {
	opts := []orchestrator.Option{
		orchestrator.WithTimeout(cfg.Timeout()),
		orchestrator.WithHooks(hooks),
	}

	if cfg.RemoteURL != "" {
		client := remote.NewClient(cfg.RemoteURL, nil, logger)
		logger.Debug().Str("remote", cfg.RemoteURL).Msg("compose: using remote execution")
		return orchestrator.New(client, client, logger, opts...), nil
	}

	executor, err := newLocalExecutor(ctx, cfg, logger, hooks)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(engineChecker(cfg), executor, logger, opts...), nil
}
