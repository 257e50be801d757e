package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one engine business category.
type Category string

const (
	CategoryAN       Category = "AN"
	CategoryEM       Category = "EM"
	CategoryIE       Category = "IE"
	CategoryServices Category = "Services"
	CategoryCapex    Category = "CAPEX"
)

// BOQCategories are the categories driven directly by BOQ line items.
var BOQCategories = []Category{CategoryAN, CategoryEM, CategoryIE}

// IsValid reports whether the category is one of the engine's set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryAN, CategoryEM, CategoryIE, CategoryServices, CategoryCapex:
		return true
	default:
		return false
	}
}

// Frequency is a line item accrual frequency.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyMonthly Frequency = "monthly"
)

// Scenario is the immutable run input header.
type Scenario struct {
	ID               int64
	Start            YM
	Months           int
	BaseCurrency     string
	DefaultRewardPct decimal.Decimal
	DSODays          int
}

// BOQLineItem is one priced/costed deliverable line.
type BOQLineItem struct {
	ID        int64
	Category  Category
	ProductID *int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	UnitCOGS  decimal.Decimal
	Frequency Frequency
	Start     YM // zero = scenario start
	Months    int
	Active    bool
}

// ServiceAgreement feeds the Services category cost series.
type ServiceAgreement struct {
	ID       int64
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	Currency string
	Start    YM // zero = scenario start
	Months   int
	Active   bool
}

// EscalationMethod selects how a policy builds its multiplier.
type EscalationMethod string

const (
	EscalationFixed EscalationMethod = "fixed"
	EscalationIndex EscalationMethod = "index"
)

// EscalationFrequency governs how often the multiplier may move.
type EscalationFrequency string

const (
	EscalationAnnual  EscalationFrequency = "annual"
	EscalationMonthly EscalationFrequency = "monthly"
)

// IndexComponent is one weighted member of an index basket policy.
type IndexComponent struct {
	SeriesCode string
	WeightPct  decimal.Decimal
	BaseValue  *decimal.Decimal // nil = use index value at the policy base period
}

// EscalationPolicy is one Rise & Fall policy scoped to ALL or a category.
type EscalationPolicy struct {
	ID           int64
	Scope        string // "ALL" or a category token
	Method       EscalationMethod
	FixedPct     decimal.Decimal // annual percent for method=fixed
	StepPerMonth int
	Base         YM // zero = scenario start
	Frequency    EscalationFrequency
	Components   []IndexComponent
	Active       bool
}

// AppliesTo reports whether the policy scope covers the category.
func (p EscalationPolicy) AppliesTo(category Category) bool {
	switch normalizeScope(p.Scope) {
	case "ALL":
		return true
	case "SERVICES":
		return category == CategoryServices
	case string(CategoryAN):
		return category == CategoryAN
	case string(CategoryEM):
		return category == CategoryEM
	case string(CategoryIE):
		return category == CategoryIE
	case string(CategoryCapex):
		return category == CategoryCapex
	default:
		return false
	}
}

// RebateScope selects which revenue basis a rebate applies to.
type RebateScope string

const (
	RebateScopeAll      RebateScope = "all"
	RebateScopeBOQ      RebateScope = "boq"
	RebateScopeProduct  RebateScope = "product"
	RebateScopeServices RebateScope = "services"
)

// RebateKind selects the rebate computation.
type RebateKind string

const (
	RebatePercent     RebateKind = "percent"
	RebateTierPercent RebateKind = "tier_percent"
	RebateLumpSum     RebateKind = "lump_sum"
)

// RebateTier maps a [min, max) basis band to a percent. A nil Max is the
// unbounded catch-all band.
type RebateTier struct {
	Min     decimal.Decimal
	Max     *decimal.Decimal
	Percent decimal.Decimal
}

// RebateLump is a fixed amount posted at a specific month.
type RebateLump struct {
	Period YM
	Amount decimal.Decimal
}

// RebateDefinition is one contra-revenue agreement.
type RebateDefinition struct {
	ID          int64
	Name        string
	Scope       RebateScope
	Kind        RebateKind
	Basis       string // only "revenue" participates in the current release
	ProductID   *int64
	ValidFrom   YM // zero = open
	ValidTo     YM // zero = open
	PayMonthLag int
	Tiers       []RebateTier
	Lumps       []RebateLump
	Active      bool
}

// InWindow reports whether the rebate is valid for the given month.
func (r RebateDefinition) InWindow(p YM) bool {
	if !r.ValidFrom.IsZero() && p.Before(r.ValidFrom) {
		return false
	}
	if !r.ValidTo.IsZero() && p.After(r.ValidTo) {
		return false
	}
	return true
}

// DepreciationMethod selects how a CAPEX asset is depreciated.
type DepreciationMethod string

const (
	DeprStraightLine DepreciationMethod = "straight_line"
)

// RewardSpread selects how CAPEX reward revenue is distributed over the term.
type RewardSpread string

const (
	RewardSpreadEven      RewardSpread = "even"
	RewardSpreadFollowBOQ RewardSpread = "follow_boq"
	RewardSpreadCustom    RewardSpread = "custom"
)

// CapexAsset is one capital expenditure with depreciation and reward inputs.
type CapexAsset struct {
	ID              int64
	Amount          decimal.Decimal
	ServiceStart    YM // zero = scenario start
	UsefulLifeM     int
	DeprMethod      DepreciationMethod
	SalvageValue    decimal.Decimal
	RewardEnabled   bool
	RewardPct       *decimal.Decimal // nil = scenario default
	RewardSpread    RewardSpread
	LinkedBOQItemID *int64
	TermOverrideM   int
	Active          bool
}

// FxRate converts a currency amount to the scenario base currency within a
// validity window. Zero bounds are open-ended.
type FxRate struct {
	Currency   string
	From       YM
	To         YM
	RateToBase decimal.Decimal
}

// TaxRule adds non-inclusive tax on a matching expense series.
type TaxRule struct {
	RatePct   decimal.Decimal
	Inclusive bool
	From      YM
	To        YM
	AppliesTo string // "services" or empty for unscoped
	Active    bool
}

// EngineRun is one immutable execution of the engine for a scenario.
type EngineRun struct {
	ID          string
	ScenarioID  int64
	StartedAt   time.Time
	FinishedAt  time.Time
	OptionsJSON []byte
}

// Inputs bundles every persisted input the engine reads, loaded up front so
// computation is pure (load, compute, persist).
type Inputs struct {
	Scenario Scenario
	BOQ      []BOQLineItem
	Services []ServiceAgreement
	Policies []EscalationPolicy
	Index    *IndexTable
	Rebates  []RebateDefinition
	FxRates  []FxRate
	TaxRules []TaxRule
	Capex    []CapexAsset
}

func normalizeScope(scope string) string {
	scope = strings.ToUpper(strings.TrimSpace(scope))
	if scope == "" {
		return "ALL"
	}
	return scope
}
