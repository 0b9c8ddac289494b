package pricing

import (
	"strings"
	"sync/atomic"
	"time"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/utils"
)

// QuoteContext carries the quote-time inputs beyond the device and repair
// type. Calculate is deterministic over (device, repairType, QuoteContext);
// the quote time is an explicit input, never read from the wall clock.
type QuoteContext struct {
	Options      domain.ServiceOptions
	DemandFactor float64
	At           time.Time
}

// Engine computes price estimates from the active rule snapshot. The
// snapshot is swapped atomically on reload so concurrent calculations never
// observe a partially-updated rule set.
type Engine struct {
	snapshot      atomic.Pointer[RuleSet]
	minMultiplier float64
	maxMultiplier float64
}

// NewEngine creates an engine with an initial validated rule set and the
// configured demand-multiplier clamp band.
func NewEngine(rs *RuleSet, minMultiplier, maxMultiplier float64) *Engine {
	e := &Engine{
		minMultiplier: minMultiplier,
		maxMultiplier: maxMultiplier,
	}
	e.snapshot.Store(rs)
	return e
}

// Reload swaps in a new rule snapshot. Estimates already produced are
// immutable and unaffected.
func (e *Engine) Reload(rs *RuleSet) {
	e.snapshot.Store(rs)
}

// RuleSet returns the current snapshot.
func (e *Engine) RuleSet() *RuleSet {
	return e.snapshot.Load()
}

// Calculate produces a price estimate for the given device and repair type.
// Modifiers are applied in a fixed order: device age, brand, complexity,
// service options, bulk quantity, demand. Identical inputs always yield an
// identical estimate.
func (e *Engine) Calculate(device domain.Device, repairType string, q QuoteContext) (*domain.PriceEstimate, error) {
	rs := e.snapshot.Load()

	spec, exactSpec, err := rs.RepairType(repairType, device.Category)
	if err != nil {
		return nil, err
	}
	if device.AgeYears < 0 {
		return nil, &domain.ValidationError{Field: "device.age_years", Reason: "must be non-negative"}
	}
	if q.Options.Quantity < 0 {
		return nil, &domain.ValidationError{Field: "options.quantity", Reason: "must be non-negative"}
	}

	base := float64(spec.MinPricePence+spec.MaxPricePence) / 2.0
	running := base

	var applied []domain.AppliedModifier
	apply := func(m domain.AppliedModifier, next float64) {
		m.DeltaPence = utils.BankersRoundPence(next) - utils.BankersRoundPence(running)
		applied = append(applied, m)
		running = next
	}

	deviceSpecific := false
	fallbackMatched := false

	// 1. Device-age rules. 2. Brand rules. Rule order within each slot is
	// the load-time priority order.
	for _, kind := range []domain.ModifierKind{domain.ModifierKindDeviceAge, domain.ModifierKindBrand} {
		for _, r := range rs.Rules() {
			if r.Modifier != kind || !ruleMatches(r, device, repairType, q.At) {
				continue
			}
			if r.Conditions.Brand != "" || r.Conditions.MinAgeYears != nil || r.Conditions.MaxAgeYears != nil {
				deviceSpecific = true
			} else {
				fallbackMatched = true
			}
			apply(domain.AppliedModifier{
				Name:     r.Name,
				Modifier: r.Modifier,
				Kind:     r.Kind,
				Value:    r.Value,
			}, adjust(running, r.Kind, r.Value))
		}
	}

	// 3. Complexity-level multiplier from the repair spec.
	cm := complexityMultipliers[spec.Complexity]
	if cm != 1.0 {
		apply(domain.AppliedModifier{
			Name:     "complexity_" + string(spec.Complexity),
			Modifier: domain.ModifierKindComplexity,
			Kind:     domain.RuleKindMultiplier,
			Value:    cm,
		}, running*cm)
	}

	// 4. Service-option surcharges.
	if q.Options.Express {
		apply(domain.AppliedModifier{
			Name:     "express_service",
			Modifier: domain.ModifierKindServiceOption,
			Kind:     domain.RuleKindPercentage,
			Value:    50,
		}, running*1.5)
	}
	if q.Options.PremiumParts {
		apply(domain.AppliedModifier{
			Name:     "premium_parts",
			Modifier: domain.ModifierKindServiceOption,
			Kind:     domain.RuleKindPercentage,
			Value:    25,
		}, running*1.25)
	}
	if q.Options.DataRecovery {
		fee := float64(rs.DataRecoveryFeePence)
		apply(domain.AppliedModifier{
			Name:     "data_recovery",
			Modifier: domain.ModifierKindServiceOption,
			Kind:     domain.RuleKindFixedAmount,
			Value:    fee,
		}, running+fee)
	}

	// 5. Quantity and bulk discount. The estimate covers the whole job, so
	// the unit price is scaled first and the discount applied to the total.
	qty := q.Options.Quantity
	if qty > 1 {
		running = running * float64(qty)
		discount := bulkDiscountPercent(qty)
		if discount > 0 {
			apply(domain.AppliedModifier{
				Name:     "bulk_discount",
				Modifier: domain.ModifierKindBulk,
				Kind:     domain.RuleKindPercentage,
				Value:    -discount,
			}, running*(1-discount/100))
		}
	}

	// 6. Demand/seasonal multiplier, clamped to the configured band.
	if q.DemandFactor != 0 {
		dm := utils.ClampMultiplier(q.DemandFactor, e.minMultiplier, e.maxMultiplier)
		if dm != 1.0 {
			apply(domain.AppliedModifier{
				Name:     "demand",
				Modifier: domain.ModifierKindDemand,
				Kind:     domain.RuleKindMultiplier,
				Value:    dm,
			}, running*dm)
		}
	}

	confidence := domain.ConfidenceHigh
	switch {
	case !deviceSpecific:
		confidence = domain.ConfidenceLow
	case fallbackMatched || !exactSpec:
		confidence = domain.ConfidenceMedium
	}

	return &domain.PriceEstimate{
		BasePricePence:           utils.BankersRoundPence(base),
		Modifiers:                applied,
		FinalPricePence:          utils.BankersRoundPence(running),
		Confidence:               confidence,
		WarrantyMonths:           spec.WarrantyMonths,
		EstimatedDurationMinutes: spec.DurationMinutes,
	}, nil
}

// adjust applies one rule value to the running total.
func adjust(running float64, kind domain.RuleKind, value float64) float64 {
	switch kind {
	case domain.RuleKindFixedAmount:
		return running + value
	case domain.RuleKindPercentage:
		return running + running*value/100
	case domain.RuleKindMultiplier:
		return running * value
	default:
		return running
	}
}

// bulkDiscountPercent returns the quantity discount tier.
func bulkDiscountPercent(qty int) float64 {
	switch {
	case qty >= 5:
		return 10
	case qty >= 2:
		return 5
	default:
		return 0
	}
}

// ruleMatches evaluates a rule's structured conditions against the device
// and repair type at the given quote time.
func ruleMatches(r domain.PricingRule, device domain.Device, repairType string, at time.Time) bool {
	c := r.Conditions
	if c.Category != "" && c.Category != device.Category {
		return false
	}
	if c.Brand != "" && !strings.EqualFold(c.Brand, device.Brand) {
		return false
	}
	if c.RepairType != "" && !strings.EqualFold(c.RepairType, repairType) {
		return false
	}
	if c.MinAgeYears != nil && device.AgeYears < *c.MinAgeYears {
		return false
	}
	if c.MaxAgeYears != nil && device.AgeYears > *c.MaxAgeYears {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return false
	}
	return true
}
