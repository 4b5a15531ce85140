package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
)

// healthTimeout bounds the engine probe against the adapter
const healthTimeout = 5 * time.Second

// Client invokes a remote adapter. It satisfies both orchestrator.Executor
// and deps.EngineChecker, so a remote deployment plugs into the same
// orchestrator as a local one.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a client for the adapter at baseURL. A nil httpClient
// uses a client without a timeout; callers bound requests through the context.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Available reports whether the adapter answers its health check with a
// working engine. The check is bounded by ctx and healthTimeout.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Msg("remote: health check failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK && health.Engine
}

// Execute posts the request to the adapter and returns the published URL
func (c *Client) Execute(ctx context.Context, req models.CompositionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &orchestrator.StageError{Stage: models.StageCheckingEngine, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ComposePath, bytes.NewReader(body))
	if err != nil {
		return "", &orchestrator.StageError{Stage: models.StageCheckingEngine, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &orchestrator.StageError{Stage: models.StageComposing, Err: fmt.Errorf("remote invocation failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return "", &orchestrator.StageError{Stage: models.StageComposing, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var result models.CompositionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &orchestrator.StageError{
			Stage: models.StageComposing,
			Err:   fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err),
		}
	}

	if !result.Success {
		stage := result.Stage
		if stage == "" {
			stage = models.StageComposing
		}
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("remote composition failed with status %d", resp.StatusCode)
		}
		return "", &orchestrator.StageError{Stage: stage, Err: errors.New(msg)}
	}
	if result.OutputURL == "" {
		return "", &orchestrator.StageError{Stage: models.StagePublishing, Err: errors.New("remote returned no output URL")}
	}

	return result.OutputURL, nil
}
