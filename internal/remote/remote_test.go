package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kartoza/kartoza-video-composer/internal/deps"
	"github.com/kartoza/kartoza-video-composer/internal/fetch"
	"github.com/kartoza/kartoza-video-composer/internal/models"
	"github.com/kartoza/kartoza-video-composer/internal/orchestrator"
)

type executorFunc func(ctx context.Context, req models.CompositionRequest) (string, error)

func (f executorFunc) Execute(ctx context.Context, req models.CompositionRequest) (string, error) {
	return f(ctx, req)
}

const validPayload = `{"baseVideoURL":"https://x/talking.mp4","backgroundURL":"https://x/shot.png","position":"top-left","size":240,"durationSeconds":12,"ownerScopeID":"u1"}`

func newTestServer(t *testing.T, exec orchestrator.Executor, engine bool) *httptest.Server {
	t.Helper()
	h := NewHandler(exec, deps.StaticChecker(engine), time.Minute, zerolog.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postCompose(t *testing.T, srv *httptest.Server, payload string) (int, models.CompositionResult) {
	t.Helper()
	resp, err := http.Post(srv.URL+ComposePath, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var res models.CompositionResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, res
}

func TestHandler_ComposeSuccess(t *testing.T) {
	var got models.CompositionRequest
	exec := executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		got = req
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected the handler to impose a deadline")
		}
		return "https://storage.googleapis.com/b/composed/u1/1-abc.mp4", nil
	})
	srv := newTestServer(t, exec, true)

	status, res := postCompose(t, srv, validPayload)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !res.Success || res.OutputURL != "https://storage.googleapis.com/b/composed/u1/1-abc.mp4" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.DurationSeconds != 12 {
		t.Errorf("expected duration 12, got %v", res.DurationSeconds)
	}
	if got.Position != models.PositionTopLeft || got.Size != 240 || got.OwnerScopeID != "u1" {
		t.Errorf("request not passed through: %+v", got)
	}
}

func TestHandler_PipelineFailureIsStructured(t *testing.T) {
	exec := executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		return "", &orchestrator.StageError{Stage: models.StageFetching, Err: &fetch.DownloadError{URL: req.BackgroundURL, StatusCode: 404}}
	})
	srv := newTestServer(t, exec, true)

	status, res := postCompose(t, srv, validPayload)

	if status != http.StatusOK {
		t.Errorf("pipeline failures should answer 200, got %d", status)
	}
	if res.Success {
		t.Error("expected success=false")
	}
	if res.Stage != models.StageFetching || !strings.Contains(res.Error, "404") {
		t.Errorf("unexpected failure payload %+v", res)
	}
}

func TestHandler_BadPayload(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		t.Error("executor should not run")
		return "", nil
	}), true)

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{oops"},
		{"missing background", `{"baseVideoURL":"https://x/a.mp4"}`},
		{"negative size", `{"baseVideoURL":"https://x/a.mp4","backgroundURL":"https://x/b.png","size":-3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := postCompose(t, srv, tt.payload)
			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if res.Success || res.Error == "" {
				t.Errorf("expected structured error, got %+v", res)
			}
		})
	}
}

func TestHandler_EngineUnavailable(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		t.Error("executor should not run without an engine")
		return "", nil
	}), false)

	status, res := postCompose(t, srv, validPayload)
	if status != http.StatusOK || res.Success || res.Stage != models.StageCheckingEngine {
		t.Errorf("unexpected response %d %+v", status, res)
	}
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		engine bool
		status int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		srv := newTestServer(t, executorFunc(nil), tt.engine)
		resp, err := http.Get(srv.URL + HealthPath)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("engine=%v: expected %d, got %d", tt.engine, tt.status, resp.StatusCode)
		}
	}
}

func TestHandler_Metrics(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		return "https://cdn/x.mp4", nil
	}), true)
	postCompose(t, srv, validPayload)

	resp, err := http.Get(srv.URL + MetricsPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	if !strings.Contains(body, "composer_http_requests_total") {
		t.Error("expected HTTP request counter in metrics output")
	}
	if !strings.Contains(body, `path="/v1/compose"`) {
		t.Error("expected route pattern label")
	}
}

func TestClient_Execute(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		return "https://cdn/" + req.OwnerScopeID + ".mp4", nil
	}), true)
	client := NewClient(srv.URL+"/", nil, zerolog.Nop())

	url, err := client.Execute(context.Background(), models.CompositionRequest{
		BaseVideoURL:  "https://x/talking.mp4",
		BackgroundURL: "https://x/shot.png",
		OwnerScopeID:  "u9",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if url != "https://cdn/u9.mp4" {
		t.Errorf("unexpected url %s", url)
	}
	if !client.Available(context.Background()) {
		t.Error("expected the adapter to report an engine")
	}
}

func TestClient_ExecuteFailureCarriesStage(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		return "", &orchestrator.StageError{Stage: models.StagePublishing, Err: errors.New("bucket unreachable")}
	}), true)
	client := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := client.Execute(context.Background(), models.CompositionRequest{
		BaseVideoURL:  "https://x/talking.mp4",
		BackgroundURL: "https://x/shot.png",
	})

	var stageErr *orchestrator.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != models.StagePublishing || !strings.Contains(stageErr.Error(), "bucket unreachable") {
		t.Errorf("unexpected error %v", stageErr)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, nil, zerolog.Nop())

	if client.Available(context.Background()) {
		t.Error("closed server should not report an engine")
	}
	if _, err := client.Execute(context.Background(), models.CompositionRequest{}); err == nil {
		t.Error("expected an error")
	}
}

func TestClient_AvailableHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	client := NewClient(srv.URL, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if client.Available(ctx) {
		t.Error("a cancelled health check should report no engine")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Errorf("health check ignored cancellation, took %s", took)
	}
}

func TestClient_NonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()
	client := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := client.Execute(context.Background(), models.CompositionRequest{})
	if err == nil || !strings.Contains(err.Error(), "504") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestOrchestratorOverRemote(t *testing.T) {
	srv := newTestServer(t, executorFunc(func(ctx context.Context, req models.CompositionRequest) (string, error) {
		return "", &orchestrator.StageError{Stage: models.StageComposing, Err: errors.New("encoder crashed")}
	}), true)
	client := NewClient(srv.URL, nil, zerolog.Nop())
	o := orchestrator.New(client, client, zerolog.Nop())

	res := o.ComposePersonalizedVideo(context.Background(), models.CompositionRequest{
		BaseVideoURL:  "https://x/talking.mp4",
		BackgroundURL: "https://x/shot.png",
	})

	if !res.Success || !res.Fallback || res.OutputURL != "https://x/talking.mp4" {
		t.Errorf("expected base video fallback, got %+v", res)
	}
	if res.Stage != models.StageComposing {
		t.Errorf("expected remote stage to carry through, got %q", res.Stage)
	}
}
