package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scenario-cloud/internal/engine/domain"
	"scenario-cloud/internal/observability/metrics"
)

// ScenarioRepository loads run input headers.
type ScenarioRepository interface {
	Get(ctx context.Context, id int64) (*domain.Scenario, error)
}

// BOQRepository lists active BOQ lines for a scenario.
type BOQRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.BOQLineItem, error)
}

// ServiceRepository lists active service agreements.
type ServiceRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.ServiceAgreement, error)
}

// PolicyRepository lists active escalation policies with their components.
type PolicyRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.EscalationPolicy, error)
}

// IndexRepository loads full index series for the requested codes.
type IndexRepository interface {
	LoadSeries(ctx context.Context, codes []string) (*domain.IndexTable, error)
}

// RebateRepository lists active rebates with tiers and lumps.
type RebateRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.RebateDefinition, error)
}

// FxRepository lists a scenario's FX rate windows.
type FxRepository interface {
	ListRates(ctx context.Context, scenarioID int64) ([]domain.FxRate, error)
}

// TaxRepository lists active tax rules.
type TaxRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.TaxRule, error)
}

// CapexRepository lists active CAPEX assets.
type CapexRepository interface {
	ListActive(ctx context.Context, scenarioID int64) ([]domain.CapexAsset, error)
}

// FactStore persists a run and its facts atomically: the run row, every fact,
// and the finish timestamp commit together or not at all.
type FactStore interface {
	SaveRun(ctx context.Context, run domain.EngineRun, facts []domain.Fact) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Repositories bundles the read-side collaborators of the engine.
type Repositories struct {
	Scenarios ScenarioRepository
	BOQ       BOQRepository
	Services  ServiceRepository
	Policies  PolicyRepository
	Index     IndexRepository
	Rebates   RebateRepository
	Fx        FxRepository
	Tax       TaxRepository
	Capex     CapexRepository
}

// RunRequest is one engine invocation.
type RunRequest struct {
	ScenarioID   int64
	Categories   []string
	Options      RunOptions
	Persist      bool
	IncludeFacts bool
}

// RunOptions mirrors the caller-facing overlay toggles. RiseAndFall accepts
// "on", "off" or "" (auto).
type RunOptions struct {
	RiseAndFall  string `json:"rise_and_fall,omitempty"`
	FxApply      bool   `json:"fx_apply"`
	TaxApply     bool   `json:"tax_apply"`
	RebatesApply bool   `json:"rebates_apply"`
	TwcApply     bool   `json:"twc_apply"`
	RebateBasis  string `json:"rebate_basis,omitempty"`
}

// RunResult is the outcome of one engine invocation.
type RunResult struct {
	RunID             string
	ScenarioID        int64
	Categories        []domain.Category
	FactCount         int
	Persisted         bool
	RiseAndFall       bool
	RiseAndFallLocked bool
	Notes             []string
	Facts             []domain.Fact
}

// Service orchestrates the load-compute-persist pipeline.
type Service struct {
	repos  Repositories
	facts  FactStore
	clock  Clock
	logger *log.Logger
}

// NewService constructs the engine application service.
func NewService(repos Repositories, facts FactStore, clock Clock, logger *log.Logger) (*Service, error) {
	if repos.Scenarios == nil {
		return nil, errors.New("engine service: nil scenario repository")
	}
	if repos.BOQ == nil || repos.Services == nil || repos.Capex == nil {
		return nil, errors.New("engine service: nil input repository")
	}
	if repos.Policies == nil || repos.Index == nil || repos.Rebates == nil || repos.Fx == nil || repos.Tax == nil {
		return nil, errors.New("engine service: nil overlay repository")
	}
	if facts == nil {
		return nil, errors.New("engine service: nil fact store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repos: repos, facts: facts, clock: clock, logger: logger}, nil
}

// Run executes the engine for one scenario: load all inputs, compute the
// enabled categories, and persist the facts under a new run when requested.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	started := s.clock.Now()
	result, err := s.run(ctx, req, started)

	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveEngineRun(outcome, s.clock.Now().Sub(started))
	return result, err
}

func (s *Service) run(ctx context.Context, req RunRequest, started time.Time) (*RunResult, error) {
	categories, err := parseCategories(req.Categories)
	if err != nil {
		return nil, err
	}
	opts, err := parseOptions(req.Options)
	if err != nil {
		return nil, err
	}

	inputs, err := s.loadInputs(ctx, req.ScenarioID)
	if err != nil {
		return nil, err
	}

	computed, err := domain.Compute(*inputs, categories, opts)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		ScenarioID:        req.ScenarioID,
		Categories:        categories,
		FactCount:         len(computed.Facts),
		RiseAndFall:       computed.RiseAndFall,
		RiseAndFallLocked: computed.RiseAndFallLocked,
		Notes:             computed.Notes,
	}
	if req.IncludeFacts {
		result.Facts = computed.Facts
	}
	if !req.Persist {
		return result, nil
	}

	run := domain.EngineRun{
		ID:         uuid.NewString(),
		ScenarioID: req.ScenarioID,
		StartedAt:  started,
		FinishedAt: s.clock.Now(),
	}
	run.OptionsJSON, err = optionsSnapshot(categories, req.Options, computed)
	if err != nil {
		return nil, fmt.Errorf("engine run options snapshot: %w", err)
	}

	facts := make([]domain.Fact, len(computed.Facts))
	for i, f := range computed.Facts {
		f.RunID = run.ID
		facts[i] = f
	}
	if err := s.facts.SaveRun(ctx, run, facts); err != nil {
		return nil, fmt.Errorf("persist run %s: %w", run.ID, err)
	}
	metrics.AddFactsPersisted(len(facts))
	if s.logger != nil {
		s.logger.Printf("engine run persisted: run=%s scenario=%d facts=%d", run.ID, req.ScenarioID, len(facts))
	}

	result.RunID = run.ID
	result.Persisted = true
	return result, nil
}

func (s *Service) loadInputs(ctx context.Context, scenarioID int64) (*domain.Inputs, error) {
	scenario, err := s.repos.Scenarios.Get(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	inputs := domain.Inputs{Scenario: *scenario}
	if inputs.BOQ, err = s.repos.BOQ.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load boq lines: %w", err)
	}
	if inputs.Services, err = s.repos.Services.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load service agreements: %w", err)
	}
	if inputs.Policies, err = s.repos.Policies.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load escalation policies: %w", err)
	}
	if inputs.Index, err = s.repos.Index.LoadSeries(ctx, indexCodes(inputs.Policies)); err != nil {
		return nil, fmt.Errorf("load index series: %w", err)
	}
	if inputs.Rebates, err = s.repos.Rebates.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load rebates: %w", err)
	}
	if inputs.FxRates, err = s.repos.Fx.ListRates(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load fx rates: %w", err)
	}
	if inputs.TaxRules, err = s.repos.Tax.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load tax rules: %w", err)
	}
	if inputs.Capex, err = s.repos.Capex.ListActive(ctx, scenarioID); err != nil {
		return nil, fmt.Errorf("load capex assets: %w", err)
	}
	return &inputs, nil
}

func indexCodes(policies []domain.EscalationPolicy) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, p := range policies {
		if !p.Active || p.Method != domain.EscalationIndex {
			continue
		}
		for _, comp := range p.Components {
			if comp.SeriesCode == "" || seen[comp.SeriesCode] {
				continue
			}
			seen[comp.SeriesCode] = true
			codes = append(codes, comp.SeriesCode)
		}
	}
	return codes
}

// parseCategories maps request tokens to categories; an empty request means
// every category.
func parseCategories(tokens []string) ([]domain.Category, error) {
	if len(tokens) == 0 {
		return []domain.Category{
			domain.CategoryAN,
			domain.CategoryEM,
			domain.CategoryIE,
			domain.CategoryServices,
			domain.CategoryCapex,
		}, nil
	}
	out := make([]domain.Category, 0, len(tokens))
	for _, token := range tokens {
		cat := domain.Category(token)
		if !cat.IsValid() {
			return nil, fmt.Errorf("category %q: %w", token, domain.ErrUnknownCategory)
		}
		out = append(out, cat)
	}
	return out, nil
}

func parseOptions(req RunOptions) (domain.Options, error) {
	opts := domain.Options{
		FxApply:      req.FxApply,
		TaxApply:     req.TaxApply,
		RebatesApply: req.RebatesApply,
		TwcApply:     req.TwcApply,
		RebateBasis:  domain.RebateModeMonthly,
	}
	switch req.RiseAndFall {
	case "", "auto":
	case "on":
		on := true
		opts.RiseAndFall = &on
	case "off":
		off := false
		opts.RiseAndFall = &off
	default:
		return opts, fmt.Errorf("rise_and_fall %q: expected on, off or auto", req.RiseAndFall)
	}
	switch req.RebateBasis {
	case "", string(domain.RebateModeMonthly):
	case string(domain.RebateModeYTD):
		opts.RebateBasis = domain.RebateModeYTD
	default:
		return opts, fmt.Errorf("rebate_basis %q: expected monthly or ytd", req.RebateBasis)
	}
	return opts, nil
}

// optionsSnapshot freezes the effective request onto the run row.
func optionsSnapshot(categories []domain.Category, opts RunOptions, computed *domain.Result) ([]byte, error) {
	snapshot := struct {
		Categories        []domain.Category `json:"categories"`
		Options           RunOptions        `json:"options"`
		RiseAndFall       bool              `json:"rise_and_fall_effective"`
		RiseAndFallLocked bool              `json:"rise_and_fall_locked"`
	}{
		Categories:        categories,
		Options:           opts,
		RiseAndFall:       computed.RiseAndFall,
		RiseAndFallLocked: computed.RiseAndFallLocked,
	}
	return json.Marshal(snapshot)
}
