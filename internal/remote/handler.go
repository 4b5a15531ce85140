package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/deps"
	"github.com/kartoza/kartoza-video-composer/internal/metrics"
	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
)

// Routes served by the adapter
const (
	ComposePath = "/v1/compose"
	HealthPath  = "/v1/healthz"
	MetricsPath = "/metrics"
)

// maxPayloadBytes bounds the request body; payloads are a handful of URLs
const maxPayloadBytes = 1 << 20

// Handler runs compositions on behalf of remote orchestrators. Each
// invocation works in its own directory under the executor's temp root and
// never outlives the configured timeout.
type Handler struct {
	executor orchestrator.Executor
	engine   deps.EngineChecker
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewHandler creates the adapter handler
func NewHandler(executor orchestrator.Executor, engine deps.EngineChecker, timeout time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{executor: executor, engine: engine, timeout: timeout, logger: logger}
}

// Router builds the chi router with the adapter routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(requestMetrics)

	r.Post(ComposePath, h.compose)
	r.Get(HealthPath, h.health)
	r.Method(http.MethodGet, MetricsPath, promhttp.Handler())
	return r
}

type healthResponse struct {
	Status string `json:"status"`
	Engine bool   `json:"engine"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Available(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Engine: false})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Engine: true})
}

// compose answers 400 for payloads it cannot use and 200 for everything
// else; pipeline failures travel as success=false in the body
func (h *Handler) compose(w http.ResponseWriter, r *http.Request) {
	var req models.CompositionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Failed(models.StageCheckingEngine, fmt.Errorf("invalid payload: %w", err)))
		return
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Failed(models.StageCheckingEngine, err))
		return
	}

	logger := h.logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("owner", req.OwnerScopeID).
		Logger()

	if !h.engine.Available(r.Context()) {
		logger.Warn().Msg("remote: engine unavailable")
		writeJSON(w, http.StatusOK, models.Failed(models.StageCheckingEngine, &orchestrator.EngineUnavailableError{}))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	outputURL, err := h.executor.Execute(ctx, req)
	if err != nil {
		stage := models.StageComposing
		var stageErr *orchestrator.StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		logger.Warn().Err(err).Str("stage", string(stage)).Msg("remote: composition failed")
		metrics.CompositionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		writeJSON(w, http.StatusOK, models.Failed(stage, err))
		return
	}

	logger.Info().Str("url", outputURL).Dur("took", time.Since(start)).Msg("remote: composition published")
	metrics.CompositionsTotal.WithLabelValues(metrics.OutcomeComposed).Inc()
	writeJSON(w, http.StatusOK, models.Succeeded(outputURL, req.DurationSeconds))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Info().Msgf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

// requestMetrics records request counts by route pattern to keep label
// cardinality bounded
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == MetricsPath {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
