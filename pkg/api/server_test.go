package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/services"
)

type stubSpecs struct{}

func (stubSpecs) AgentSpecs() map[string]domain.AgentSpec {
	agents := map[string]domain.AgentSpec{}
	for _, role := range []string{
		services.RoleWriter, services.RoleReviewer,
		services.RoleFormatter, services.RoleImageGenerator,
	} {
		agents[role] = domain.AgentSpec{
			Role:      role,
			Goal:      "work on {topic}",
			Backstory: "an expert",
		}
	}
	return agents
}

func (stubSpecs) TaskSpecs() map[string]domain.TaskSpec {
	tasks := map[string]domain.TaskSpec{}
	for _, name := range []string{
		services.TaskWriteDraft, services.TaskReviewDraft,
		services.TaskFormatPost, services.TaskGenerateImages,
	} {
		tasks[name] = domain.TaskSpec{
			Description:    name + " about {topic}",
			ExpectedOutput: "the finished " + name,
		}
	}
	return tasks
}

type stubLLM struct{}

func (stubLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, services.TaskFormatPost) {
		return `{"blog": "post body", "twitter": "tweet"}`, nil
	}
	return "generated text", nil
}

type stubTool struct{}

func (stubTool) Run(_ context.Context, _ string) string {
	return "Image generated successfully at: /generated_images/a.webp"
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	registry := services.NewJobRegistry(logger)
	bus := services.NewEventBus(logger)
	bridge := services.NewProgressBridge(logger, registry, bus)
	scheduler := services.NewJobScheduler(logger, services.SchedulerConfig{MaxConcurrentJobs: 2})

	generator := services.NewGenerationService(
		logger, registry, bridge, scheduler, bus,
		stubSpecs{},
		func() (domain.LLMProvider, error) { return stubLLM{}, nil },
		stubTool{},
		nil,
	)
	generator.SetOutputDir(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bridge.Run(ctx)
	go generator.Run(ctx)

	srv := httptest.NewServer(NewServer(logger, generator, registry, bus).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func startGeneration(t *testing.T, srv *httptest.Server, body string) startResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/generation/start", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var started startResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	return started
}

func getJob(t *testing.T, srv *httptest.Server, id string) (int, domain.Job) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/generation/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	var job domain.Job
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	}
	return resp.StatusCode, job
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_StartRequiresTopic(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/generation/start", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SubmitThenPollUntilComplete(t *testing.T) {
	srv := newTestServer(t)

	started := startGeneration(t, srv, `{"topic": "AI safety", "tone": "formal"}`)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, "pending", started.Status)

	require.Eventually(t, func() bool {
		code, job := getJob(t, srv, started.ID)
		return code == http.StatusOK && job.Status == domain.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	_, job := getJob(t, srv, started.ID)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "formal", job.Settings.Tone)
	require.NotNil(t, job.Result)
	assert.Equal(t, "generated text", job.Result.BlogDraft)
	assert.Equal(t, "post body", job.Result.FormattedPost["blog"])
}

func TestServer_GetUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	code, _ := getJob(t, srv, "does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_ListIncludesSubmittedJobs(t *testing.T) {
	srv := newTestServer(t)

	started := startGeneration(t, srv, `{"topic": "cats"}`)

	resp, err := http.Get(srv.URL + "/api/generation/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.NotEmpty(t, jobs)

	found := false
	for _, job := range jobs {
		if string(job.ID) == started.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestServer_EventsStreamSendsConnectedFirst(t *testing.T) {
	srv := newTestServer(t)

	started := startGeneration(t, srv, `{"topic": "cats", "generate_images": false}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/generation/%s/events", srv.URL, started.ID), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected", strings.TrimSpace(line))
}

func TestServer_EventsForUnknownJob(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/generation/nope/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
