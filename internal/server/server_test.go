package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/orchestrator"
	"churn-feature-lab/internal/pipeline"
	"churn-feature-lab/internal/storage/memory"
)

func newFixtureServer(t *testing.T) *Server {
	t.Helper()
	clients := memory.NewClientStore()
	prices := memory.NewPriceStore()
	require.NoError(t, pipeline.LoadFixtures(context.Background(), clients, prices))

	reg := prometheus.NewRegistry()
	orch := orchestrator.New(orchestrator.Options{ClientStore: clients, PriceStore: prices})
	return New(orch, Options{
		Metrics:  observability.NewMetrics("test", reg),
		Gatherer: reg,
	})
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_BeforeFirstRun(t *testing.T) {
	s := newFixtureServer(t)

	rec := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)

	rec = do(t, s, http.MethodGet, "/api/v1/churn/channel_sales")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "no_run", body.Code)
	assert.Equal(t, "Service Unavailable", body.Error)
}

func TestServer_RunAndQuery(t *testing.T) {
	s := newFixtureServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[RunResponse](t, rec)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 5, run.Clients)
	assert.Equal(t, 3, run.Tables)
	assert.Equal(t, 3, run.Warnings)

	rec = do(t, s, http.MethodGet, "/health")
	assert.Equal(t, run.RunID, decode[HealthResponse](t, rec).LastRunID)

	rec = do(t, s, http.MethodGet, "/api/v1/churn")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[TableListResponse](t, rec)
	assert.Equal(t, []string{"channel_sales", "has_gas", "origin_up"}, list.Computed)
	assert.Contains(t, list.Attributes, "nb_prod_act")

	rec = do(t, s, http.MethodGet, "/api/v1/churn/channel_sales")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[TableResponse](t, rec)
	assert.Equal(t, []int{0, 1}, table.Outcomes)
	assert.Nil(t, table.SortedBy)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "X", table.Rows[0].Category)
	assert.Equal(t, []float64{50, 50}, table.Rows[0].Percentages)

	rec = do(t, s, http.MethodGet, "/api/v1/quality")
	require.Equal(t, http.StatusOK, rec.Code)
	quality := decode[QualityResponse](t, rec)
	assert.Equal(t, run.RunID, quality.RunID)
	assert.Equal(t, 1, quality.Counts["NO_PRICE_HISTORY"])
	assert.Len(t, quality.Warnings, 3)
}

func TestServer_TableSortAndErrors(t *testing.T) {
	s := newFixtureServer(t)
	_, err := s.TriggerRun(context.Background())
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/api/v1/churn/channel_sales?sort_by=0")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[TableResponse](t, rec)
	require.NotNil(t, table.SortedBy)
	assert.Equal(t, "Z", table.Rows[0].Category)

	// Attributes outside the configured set are computed on demand.
	rec = do(t, s, http.MethodGet, "/api/v1/churn/nb_prod_act")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nb_prod_act", decode[TableResponse](t, rec).Attribute)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/v1/churn/favourite_colour", http.StatusNotFound, "unknown_attribute"},
		{"/api/v1/churn/channel_sales?sort_by=abc", http.StatusBadRequest, "invalid_sort_by"},
		{"/api/v1/churn/channel_sales?sort_by=7", http.StatusBadRequest, "unknown_outcome"},
		{"/api/v1/nothing", http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(context.Context) (*orchestrator.RunResult, error) {
	close(b.started)
	<-b.release
	return &orchestrator.RunResult{RunID: "blocked"}, nil
}

func TestServer_ConcurrentRunConflict(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := New(runner, Options{})

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(t, s, http.MethodPost, "/api/v1/runs")
	}()
	<-runner.started

	rec := do(t, s, http.MethodPost, "/api/v1/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "run_in_progress", decode[ErrorResponse](t, rec).Code)

	close(runner.release)
	first := <-done
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "blocked", s.Latest().RunID)
}

type failingRunner struct{}

func (failingRunner) Run(context.Context) (*orchestrator.RunResult, error) {
	return nil, errors.New("stage 1 (load): connection refused")
}

func TestServer_RunFailure(t *testing.T) {
	s := New(failingRunner{}, Options{})

	rec := do(t, s, http.MethodPost, "/api/v1/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "run_failed", body.Code)
	assert.Contains(t, body.Message, "stage 1 (load)")
	assert.Nil(t, s.Latest())
}

func TestServer_Metrics(t *testing.T) {
	s := newFixtureServer(t)
	do(t, s, http.MethodGet, "/health")

	rec := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_http_requests_total{code="OK",route="/health"} 1`), rec.Body.String())
}
