package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scenario-cloud/internal/audit"
	"scenario-cloud/internal/auth"
	"scenario-cloud/internal/engine/application"
	"scenario-cloud/internal/engine/domain"
	enginepostgres "scenario-cloud/internal/engine/infrastructure/postgres"
	"scenario-cloud/internal/observability/metrics"
)

// RunService executes engine runs.
type RunService interface {
	Run(ctx context.Context, req application.RunRequest) (*application.RunResult, error)
}

// RunStore reads persisted runs and their facts.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*enginepostgres.RunSummary, error)
	ListFacts(ctx context.Context, runID string, filter enginepostgres.FactFilter) ([]domain.Fact, error)
}

// RunCompletedNotifier is told about persisted runs.
type RunCompletedNotifier interface {
	NotifyRunCompleted(runID string, scenarioID int64, factCount int)
}

// Handler provides the scenario engine APIs.
type Handler struct {
	service     RunService
	store       RunStore
	notifier    RunCompletedNotifier
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs a handler. The notifier and audit logger may be nil.
func NewHandler(service RunService, store RunStore, notifier RunCompletedNotifier, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil || store == nil {
		return nil, errors.New("engine handler: nil dependency")
	}
	return &Handler{service: service, store: store, notifier: notifier, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP routes engine endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/scenarios/") && strings.HasSuffix(r.URL.Path, "/run") && r.Method == http.MethodPost:
		h.handleRun(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/runs/"):
		h.handleRunResource(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type runRequestBody struct {
	Categories   []string               `json:"categories"`
	Options      application.RunOptions `json:"options"`
	Persist      bool                   `json:"persist"`
	IncludeFacts bool                   `json:"include_facts"`
}

type factPayload struct {
	SheetCode string `json:"sheet_code"`
	Category  string `json:"category"`
	Period    string `json:"period"`
	Series    string `json:"series"`
	Value     string `json:"value"`
}

type runResponseBody struct {
	RunID             string        `json:"run_id,omitempty"`
	ScenarioID        int64         `json:"scenario_id"`
	Categories        []string      `json:"categories"`
	FactCount         int           `json:"fact_count"`
	Persisted         bool          `json:"persisted"`
	RiseAndFall       bool          `json:"rise_and_fall"`
	RiseAndFallLocked bool          `json:"rise_and_fall_locked"`
	Notes             []string      `json:"notes,omitempty"`
	Facts             []factPayload `json:"facts,omitempty"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/scenarios/")
	idToken := strings.TrimSuffix(rest, "/run")
	scenarioID, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil || scenarioID <= 0 {
		http.Error(w, "invalid scenario id", http.StatusBadRequest)
		return
	}

	var body runRequestBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	result, err := h.service.Run(r.Context(), application.RunRequest{
		ScenarioID:   scenarioID,
		Categories:   body.Categories,
		Options:      body.Options,
		Persist:      body.Persist,
		IncludeFacts: body.IncludeFacts,
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	if result.Persisted && h.notifier != nil {
		h.notifier.NotifyRunCompleted(result.RunID, result.ScenarioID, result.FactCount)
	}
	h.logAudit(r, result.ScenarioID, result.RunID, "scenario.run", map[string]any{
		"persisted":  result.Persisted,
		"fact_count": result.FactCount,
		"categories": categoryTokens(result.Categories),
	})

	resp := runResponseBody{
		RunID:             result.RunID,
		ScenarioID:        result.ScenarioID,
		Categories:        categoryTokens(result.Categories),
		FactCount:         result.FactCount,
		Persisted:         result.Persisted,
		RiseAndFall:       result.RiseAndFall,
		RiseAndFallLocked: result.RiseAndFallLocked,
		Notes:             result.Notes,
		Facts:             factPayloads(result.Facts),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrScenarioNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrNoCategories),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidHorizon):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case strings.Contains(err.Error(), "rise_and_fall"), strings.Contains(err.Error(), "rebate_basis"):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		if h.logger != nil {
			h.logger.Printf("engine run failed: %v", err)
		}
		http.Error(w, "engine run failed", http.StatusInternalServerError)
	}
}

// handleRunResource serves /api/v1/runs/{id}, /api/v1/runs/{id}/facts and
// /api/v1/runs/{id}/export.{csv,xlsx,pdf}.
func (h *Handler) handleRunResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.SplitN(rest, "/", 2)
	runID := parts[0]
	if runID == "" {
		http.Error(w, "run id required", http.StatusBadRequest)
		return
	}

	run, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "load run failed", http.StatusInternalServerError)
		return
	}

	if len(parts) == 1 {
		h.writeRunSummary(w, run)
		return
	}
	switch parts[1] {
	case "facts":
		h.handleFacts(w, r, run)
	case "export.csv":
		h.handleExport(w, r, run, "csv")
	case "export.xlsx":
		h.handleExport(w, r, run, "xlsx")
	case "export.pdf":
		h.handleExport(w, r, run, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) writeRunSummary(w http.ResponseWriter, run *enginepostgres.RunSummary) {
	resp := map[string]any{
		"run_id":      run.ID,
		"scenario_id": run.ScenarioID,
		"started_at":  run.StartedAt.Format(time.RFC3339),
		"options":     json.RawMessage(run.Options),
	}
	if run.FinishedAt != nil {
		resp["finished_at"] = run.FinishedAt.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleFacts(w http.ResponseWriter, r *http.Request, run *enginepostgres.RunSummary) {
	filter := enginepostgres.FactFilter{
		SheetCode: r.URL.Query().Get("sheet"),
		Category:  r.URL.Query().Get("category"),
		Series:    r.URL.Query().Get("series"),
	}
	facts, err := h.store.ListFacts(r.Context(), run.ID, filter)
	if err != nil {
		http.Error(w, "query facts failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"run_id": run.ID,
		"facts":  factPayloads(facts),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, run *enginepostgres.RunSummary, format string) {
	started := time.Now()
	facts, err := h.store.ListFacts(r.Context(), run.ID, enginepostgres.FactFilter{})
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, "query facts failed", http.StatusInternalServerError)
		return
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case "csv":
		payload, err = BuildRunCSV(run, facts)
		contentType = "text/csv"
	case "xlsx":
		payload, err = BuildRunXLSX(run, facts)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = BuildRunPDF(run, facts)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		if h.logger != nil {
			h.logger.Printf("run export failed: run=%s format=%s err=%v", run.ID, format, err)
		}
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(started))
	h.logAudit(r, run.ScenarioID, run.ID, "run.export", map[string]any{"format": format})
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="run-`+run.ID+`.`+format+`"`)
	_, _ = w.Write(payload)
}

func (h *Handler) logAudit(r *http.Request, scenarioID int64, runID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "engine_run",
		ResourceID:   runID,
		ScenarioID:   scenarioID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func categoryTokens(categories []domain.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func factPayloads(facts []domain.Fact) []factPayload {
	if len(facts) == 0 {
		return nil
	}
	out := make([]factPayload, len(facts))
	for i, f := range facts {
		out[i] = factPayload{
			SheetCode: f.SheetCode,
			Category:  string(f.Category),
			Period:    f.Period.String(),
			Series:    string(f.Series),
			Value:     f.Value.String(),
		}
	}
	return out
}
