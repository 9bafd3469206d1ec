package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/metrics"
	"churn-feature-lab/internal/orchestrator"
	"churn-feature-lab/internal/storage"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string     `json:"status"`
	LastRunID string     `json:"last_run_id,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// TableListResponse is the body of GET /api/v1/churn.
type TableListResponse struct {
	RunID      string   `json:"run_id"`
	Computed   []string `json:"computed"`
	Attributes []string `json:"attributes"`
}

// TableResponse is one churn table.
type TableResponse struct {
	Attribute string        `json:"attribute"`
	Outcomes  []int         `json:"outcomes"`
	SortedBy  *int          `json:"sorted_by"`
	Rows      []RowResponse `json:"rows"`
}

// RowResponse is one category row of a churn table.
type RowResponse struct {
	Category    string    `json:"category"`
	Counts      []int     `json:"counts"`
	Percentages []float64 `json:"percentages"`
	Total       int       `json:"total"`
}

// WarningResponse is one data quality warning.
type WarningResponse struct {
	Kind     string `json:"kind"`
	ClientID string `json:"client_id"`
	Column   string `json:"column,omitempty"`
	Value    string `json:"value,omitempty"`
	Message  string `json:"message,omitempty"`
}

// QualityResponse is the body of GET /api/v1/quality.
type QualityResponse struct {
	RunID    string            `json:"run_id"`
	Counts   map[string]int    `json:"counts"`
	Warnings []WarningResponse `json:"warnings"`
	Notes    []string          `json:"notes"`
}

// RunResponse summarizes one pipeline run.
type RunResponse struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Clients    int       `json:"clients"`
	Prices     int       `json:"prices"`
	Tables     int       `json:"tables"`
	Warnings   int       `json:"warnings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if latest := s.Latest(); latest != nil {
		resp.LastRunID = latest.RunID
		finished := latest.FinishedAt
		resp.LastRunAt = &finished
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.requireRun(w, r)
	if !ok {
		return
	}

	tables, err := latest.TableStore.GetAll(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	computed := make([]string, len(tables))
	for i, t := range tables {
		computed[i] = t.Attribute
	}
	render.JSON(w, r, TableListResponse{
		RunID:      latest.RunID,
		Computed:   computed,
		Attributes: metrics.Attributes(),
	})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.requireRun(w, r)
	if !ok {
		return
	}

	attribute := chi.URLParam(r, "attribute")
	if !metrics.IsAttribute(attribute) {
		writeError(w, r, http.StatusNotFound, "unknown_attribute",
			fmt.Sprintf("attribute %q has no churn table", attribute))
		return
	}

	var sortBy *int
	if raw := r.URL.Query().Get("sort_by"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_sort_by",
				fmt.Sprintf("sort_by must be an integer outcome, got %q", raw))
			return
		}
		sortBy = &v
	}

	table, err := latest.TableStore.GetByAttribute(r.Context(), attribute)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		table = nil
	case err != nil:
		s.internalError(w, r, err)
		return
	}

	if table == nil || !sameSort(table.SortedBy, sortBy) {
		aggregator := metrics.NewAggregator(latest.EnhancedStore, latest.TableStore)
		table, err = aggregator.ComputeTable(r.Context(), attribute, metrics.TableOptions{SortByOutcome: sortBy})
		switch {
		case errors.Is(err, metrics.ErrUnknownOutcome):
			writeError(w, r, http.StatusBadRequest, "unknown_outcome", err.Error())
			return
		case errors.Is(err, metrics.ErrNoObservations):
			writeError(w, r, http.StatusNotFound, "no_observations", err.Error())
			return
		case err != nil:
			s.internalError(w, r, err)
			return
		}
	}

	render.JSON(w, r, newTableResponse(table))
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.requireRun(w, r)
	if !ok {
		return
	}

	resp := QualityResponse{
		RunID:    latest.RunID,
		Counts:   make(map[string]int, len(domain.WarningKinds)),
		Warnings: make([]WarningResponse, 0, len(latest.Warnings)),
		Notes:    latest.Notes,
	}
	if resp.Notes == nil {
		resp.Notes = []string{}
	}
	for _, k := range domain.WarningKinds {
		resp.Counts[string(k)] = 0
	}
	for _, wn := range latest.Warnings {
		resp.Counts[string(wn.Kind)]++
		resp.Warnings = append(resp.Warnings, WarningResponse{
			Kind:     string(wn.Kind),
			ClientID: wn.ClientID,
			Column:   wn.Column,
			Value:    wn.Value,
			Message:  wn.Message,
		})
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.TriggerRun(r.Context())
	switch {
	case errors.Is(err, ErrRunInProgress):
		writeError(w, r, http.StatusConflict, "run_in_progress", err.Error())
		return
	case err != nil:
		s.logger.Error("pipeline run failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newRunResponse(result))
}

// requireRun writes 503 when no run has completed yet.
func (s *Server) requireRun(w http.ResponseWriter, r *http.Request) (*orchestrator.RunResult, bool) {
	latest := s.Latest()
	if latest == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no_run", "no pipeline run has completed yet")
		return nil, false
	}
	return latest, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
}

func sameSort(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func newTableResponse(t *domain.ChurnAggregateTable) TableResponse {
	rows := make([]RowResponse, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = RowResponse{
			Category:    row.Category,
			Counts:      row.Counts,
			Percentages: row.Percentages,
			Total:       row.Total,
		}
	}
	return TableResponse{
		Attribute: t.Attribute,
		Outcomes:  t.Outcomes,
		SortedBy:  t.SortedBy,
		Rows:      rows,
	}
}

func newRunResponse(r *orchestrator.RunResult) RunResponse {
	return RunResponse{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Clients:    r.ClientsLoaded,
		Prices:     r.PricesLoaded,
		Tables:     len(r.Tables),
		Warnings:   len(r.Warnings),
	}
}
