package domain

import "time"

// ModifierKind is the closed set of pricing modifier variants. Evaluation is
// a switch over the kind, never free-form property inspection.
type ModifierKind string

const (
	ModifierKindDeviceAge     ModifierKind = "device_age"
	ModifierKindBrand         ModifierKind = "brand"
	ModifierKindComplexity    ModifierKind = "complexity"
	ModifierKindServiceOption ModifierKind = "service_option"
	ModifierKindBulk          ModifierKind = "bulk"
	ModifierKindDemand        ModifierKind = "demand"
)

// RuleKind says how a rule's value adjusts the running price.
type RuleKind string

const (
	RuleKindFixedAmount RuleKind = "fixed_amount" // value is pence, added
	RuleKindPercentage  RuleKind = "percentage"   // value is percent of running total
	RuleKindMultiplier  RuleKind = "multiplier"   // running total is multiplied by value
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RuleConditions is the structured match predicate of a pricing rule. Empty
// fields match anything; a rule with all fields set is an exact-match rule.
type RuleConditions struct {
	Category    DeviceCategory `yaml:"category,omitempty" json:"category,omitempty"`
	Brand       string         `yaml:"brand,omitempty" json:"brand,omitempty"`
	RepairType  string         `yaml:"repair_type,omitempty" json:"repair_type,omitempty"`
	MinAgeYears *int           `yaml:"min_age_years,omitempty" json:"min_age_years,omitempty"`
	MaxAgeYears *int           `yaml:"max_age_years,omitempty" json:"max_age_years,omitempty"`
}

// PricingRule is read-only configuration. Reloading rules swaps a whole
// snapshot; it never mutates estimates already produced.
type PricingRule struct {
	Name       string         `yaml:"name" json:"name"`
	Modifier   ModifierKind   `yaml:"modifier" json:"modifier"`
	Conditions RuleConditions `yaml:"conditions" json:"conditions"`
	Kind       RuleKind       `yaml:"kind" json:"kind"`
	Value      float64        `yaml:"value" json:"value"`
	Priority   int            `yaml:"priority" json:"priority"`
	ValidFrom  *time.Time     `yaml:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil *time.Time     `yaml:"valid_until,omitempty" json:"valid_until,omitempty"`
}

// AppliedModifier records one adjustment inside an estimate, in application
// order, with the pence delta it contributed.
type AppliedModifier struct {
	Name       string       `json:"name"`
	Modifier   ModifierKind `json:"modifier"`
	Kind       RuleKind     `json:"kind"`
	Value      float64      `json:"value"`
	DeltaPence int64        `json:"delta_pence"`
}

// PriceEstimate is immutable once produced. A re-quote always builds a fresh
// estimate instead of mutating an old one.
type PriceEstimate struct {
	BasePricePence           int64             `json:"base_price_pence"`
	Modifiers                []AppliedModifier `json:"modifiers"`
	FinalPricePence          int64             `json:"final_price_pence"`
	Confidence               Confidence        `json:"confidence"`
	WarrantyMonths           int               `json:"warranty_months"`
	EstimatedDurationMinutes int               `json:"estimated_duration_minutes"`
}
