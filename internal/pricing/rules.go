package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"revivatech-backend/internal/domain"
)

// Complexity is the labor-difficulty level of a repair type.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExpert   Complexity = "expert"
)

// complexityMultipliers maps difficulty to its labor multiplier.
var complexityMultipliers = map[Complexity]float64{
	ComplexitySimple:   1.0,
	ComplexityModerate: 1.15,
	ComplexityComplex:  1.35,
	ComplexityExpert:   1.6,
}

// RepairTypeSpec is the configured base price range and repair metadata for
// one repair type. An empty Category is the category-level fallback entry.
type RepairTypeSpec struct {
	Name            string                `yaml:"name"`
	Category        domain.DeviceCategory `yaml:"category,omitempty"`
	MinPricePence   int64                 `yaml:"min_price_pence"`
	MaxPricePence   int64                 `yaml:"max_price_pence"`
	Complexity      Complexity            `yaml:"complexity"`
	WarrantyMonths  int                   `yaml:"warranty_months"`
	DurationMinutes int                   `yaml:"duration_minutes"`
}

// RuleSet is an immutable, validated pricing configuration snapshot. Reload
// swaps the whole snapshot atomically; in-flight calculations keep reading
// the snapshot they started with.
type RuleSet struct {
	DataRecoveryFeePence int64
	repairTypes          []RepairTypeSpec
	rules                []domain.PricingRule
}

type ruleFile struct {
	DataRecoveryFeePence int64                `yaml:"data_recovery_fee_pence"`
	RepairTypes          []RepairTypeSpec     `yaml:"repair_types"`
	Rules                []domain.PricingRule `yaml:"rules"`
}

// LoadRuleSet reads and validates a pricing rule file. Malformed rules are
// fatal here, never at calculation time.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing rules file: %w", err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet parses and validates a YAML rule document.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &domain.ConfigurationError{Section: "pricing", Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return NewRuleSet(f.RepairTypes, f.Rules, f.DataRecoveryFeePence)
}

// NewRuleSet validates the given specs and rules and builds a snapshot.
func NewRuleSet(repairTypes []RepairTypeSpec, rules []domain.PricingRule, dataRecoveryFeePence int64) (*RuleSet, error) {
	if len(repairTypes) == 0 {
		return nil, &domain.ConfigurationError{Section: "pricing.repair_types", Reason: "at least one repair type is required"}
	}
	for _, rt := range repairTypes {
		if rt.Name == "" {
			return nil, &domain.ConfigurationError{Section: "pricing.repair_types", Reason: "repair type name is required"}
		}
		if rt.MinPricePence <= 0 || rt.MaxPricePence < rt.MinPricePence {
			return nil, &domain.ConfigurationError{
				Section: "pricing.repair_types",
				Reason:  fmt.Sprintf("%s: price range [%d, %d] is invalid", rt.Name, rt.MinPricePence, rt.MaxPricePence),
			}
		}
		if _, ok := complexityMultipliers[rt.Complexity]; !ok {
			return nil, &domain.ConfigurationError{
				Section: "pricing.repair_types",
				Reason:  fmt.Sprintf("%s: unknown complexity %q", rt.Name, rt.Complexity),
			}
		}
	}

	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, err
		}
	}

	// Stable priority order, lower first. Sorting once at load keeps the
	// calculation path allocation-free and deterministic.
	sorted := make([]domain.PricingRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	if dataRecoveryFeePence == 0 {
		dataRecoveryFeePence = 6000 // £60 flat fee
	}

	return &RuleSet{
		DataRecoveryFeePence: dataRecoveryFeePence,
		repairTypes:          repairTypes,
		rules:                sorted,
	}, nil
}

func validateRule(r domain.PricingRule) error {
	if r.Name == "" {
		return &domain.ConfigurationError{Section: "pricing.rules", Reason: "rule name is required"}
	}
	switch r.Modifier {
	case domain.ModifierKindDeviceAge, domain.ModifierKindBrand, domain.ModifierKindComplexity,
		domain.ModifierKindServiceOption, domain.ModifierKindBulk, domain.ModifierKindDemand:
	default:
		return &domain.ConfigurationError{
			Section: "pricing.rules",
			Reason:  fmt.Sprintf("%s: unknown modifier %q", r.Name, r.Modifier),
		}
	}
	switch r.Kind {
	case domain.RuleKindFixedAmount, domain.RuleKindPercentage:
	case domain.RuleKindMultiplier:
		if r.Value <= 0 {
			return &domain.ConfigurationError{
				Section: "pricing.rules",
				Reason:  fmt.Sprintf("%s: multiplier value must be positive, got %v", r.Name, r.Value),
			}
		}
	default:
		return &domain.ConfigurationError{
			Section: "pricing.rules",
			Reason:  fmt.Sprintf("%s: unknown kind %q", r.Name, r.Kind),
		}
	}
	c := r.Conditions
	if c.MinAgeYears != nil && *c.MinAgeYears < 0 {
		return &domain.ConfigurationError{
			Section: "pricing.rules",
			Reason:  fmt.Sprintf("%s: min_age_years must be non-negative", r.Name),
		}
	}
	if c.MinAgeYears != nil && c.MaxAgeYears != nil && *c.MaxAgeYears < *c.MinAgeYears {
		return &domain.ConfigurationError{
			Section: "pricing.rules",
			Reason:  fmt.Sprintf("%s: age window [%d, %d] is inverted", r.Name, *c.MinAgeYears, *c.MaxAgeYears),
		}
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidUntil.Before(*r.ValidFrom) {
		return &domain.ConfigurationError{
			Section: "pricing.rules",
			Reason:  fmt.Sprintf("%s: valid_until precedes valid_from", r.Name),
		}
	}
	return nil
}

// RepairType resolves the spec for a repair type and device category. An
// exact category entry wins; a category-less entry serves as fallback. The
// bool result reports whether the match was exact.
func (rs *RuleSet) RepairType(name string, category domain.DeviceCategory) (*RepairTypeSpec, bool, error) {
	var fallback *RepairTypeSpec
	for i := range rs.repairTypes {
		rt := &rs.repairTypes[i]
		if !strings.EqualFold(rt.Name, name) {
			continue
		}
		if rt.Category == category {
			return rt, true, nil
		}
		if rt.Category == "" && fallback == nil {
			fallback = rt
		}
	}
	if fallback != nil {
		return fallback, false, nil
	}
	return nil, false, &domain.ValidationError{Field: "repair_type", Reason: fmt.Sprintf("unknown repair type %q", name)}
}

// Rules returns all rules in priority order.
func (rs *RuleSet) Rules() []domain.PricingRule {
	return rs.rules
}
