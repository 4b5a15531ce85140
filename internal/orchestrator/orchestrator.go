package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/deps"
	"github.com/kartoza/kartoza-video-composer/internal/metrics"
	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// Orchestrator sequences one composition and owns the fallback policy:
// any stage failure hands back the untouched base video.
type Orchestrator struct {
	engine   deps.EngineChecker
	executor Executor
	logger   zerolog.Logger
	timeout  time.Duration
	hooks    Hooks
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout bounds the fetch, compose and publish stages together
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithHooks registers stage notifications for the checking and terminal states
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// New creates an Orchestrator. Local and remote deployments differ only in
// the engine checker and executor passed here.
func New(engine deps.EngineChecker, executor Executor, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:   engine,
		executor: executor,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ComposePersonalizedVideo produces a personalized video for req.
// It always returns a result; internal failures become a successful result
// pointing at the base video. Only a request whose base video URL is itself
// unusable comes back with Success false, since there is nothing to fall
// back to.
func (o *Orchestrator) ComposePersonalizedVideo(ctx context.Context, req models.CompositionRequest) models.CompositionResult {
	req = req.WithDefaults()

	metrics.CompositionsInFlight.Inc()
	defer metrics.CompositionsInFlight.Dec()

	if err := req.ValidateBaseVideo(); err != nil {
		o.logger.Error().Err(err).Msg("orchestrator: rejecting request without a usable base video")
		metrics.CompositionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return models.Failed(models.StageCheckingEngine, err)
	}

	// CheckingEngine
	o.hooks.stage(models.StageCheckingEngine)
	if !o.engine.Available(ctx) {
		return o.fallback(req, models.StageCheckingEngine, &EngineUnavailableError{})
	}

	if err := req.Validate(); err != nil {
		return o.fallback(req, models.StageCheckingEngine, err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	// Fetching, Composing, Publishing and CleaningUp run in the executor
	outputURL, err := o.executor.Execute(ctx, req)
	if err != nil {
		stage := models.StageComposing
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		return o.fallback(req, stage, err)
	}

	o.hooks.stage(models.StageDone)
	metrics.CompositionsTotal.WithLabelValues(metrics.OutcomeComposed).Inc()
	return models.Succeeded(outputURL, req.DurationSeconds)
}

// fallback is the single transition into the base video result
func (o *Orchestrator) fallback(req models.CompositionRequest, stage models.Stage, err error) models.CompositionResult {
	var engineErr *EngineUnavailableError
	if errors.As(err, &engineErr) {
		o.logger.Info().
			Str("owner", req.OwnerScopeID).
			Msg("orchestrator: engine unavailable, returning base video")
	} else {
		o.logger.Warn().
			Err(err).
			Str("stage", string(stage)).
			Str("owner", req.OwnerScopeID).
			Msg("orchestrator: composition failed, returning base video")
	}

	metrics.CompositionsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
	metrics.FallbacksTotal.WithLabelValues(string(stage)).Inc()
	o.hooks.stage(models.StageDone)

	return models.FellBack(req.BaseVideoURL, req.DurationSeconds, stage, err)
}
