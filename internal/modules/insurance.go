package modules

import (
	"fmt"

	"movequote/internal/quote"
)

// Insurance tariffs and thresholds.
const (
	insuranceMinPremium    = 45.0
	insuranceRate          = 0.008
	insuranceAutoThreshold = 20000.0
	highValueThreshold     = 50000.0
	highValueSurchargeRate = 0.002
)

// InsurancePremium prices ad valorem coverage. It activates either on
// explicit selection or automatically above the declared-value
// threshold.
type InsurancePremium struct{ base }

func NewInsurancePremium() *InsurancePremium {
	return &InsurancePremium{quoting(ModInsurance, 250)}
}

func (m *InsurancePremium) Applicable(ctx *quote.Context) bool {
	return ctx.Input.Services[ServiceInsurance] ||
		ctx.Input.DeclaredValue > insuranceAutoThreshold
}

func (m *InsurancePremium) Apply(ctx *quote.Context) error {
	premium := ctx.Input.DeclaredValue * insuranceRate
	if premium < insuranceMinPremium {
		premium = insuranceMinPremium
	}
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryInsurance,
		Label:    "ad valorem coverage",
		Amount:   premium,
	})
	ctx.Output.InsuranceNotes = append(ctx.Output.InsuranceNotes, quote.InsuranceNote{
		Module: m.id,
		Note:   fmt.Sprintf("declared value covered up to %.0f", ctx.Input.DeclaredValue),
	})
	return nil
}

// HighValueSurcharge adds a post-margin surcharge for very high
// declared values. Depends on the insurance premium so its late
// applicability check sees the coverage already priced.
type HighValueSurcharge struct{ base }

func NewHighValueSurcharge() *HighValueSurcharge {
	return &HighValueSurcharge{quoting(ModHighValue, 260, ModInsurance)}
}

func (m *HighValueSurcharge) Applicable(ctx *quote.Context) bool {
	return ctx.Input.DeclaredValue > highValueThreshold
}

func (m *HighValueSurcharge) Apply(ctx *quote.Context) error {
	ctx.Output.Adjustments = append(ctx.Output.Adjustments, quote.Adjustment{
		Module: m.id,
		Label:  "high-value handling",
		Amount: ctx.Input.DeclaredValue * highValueSurchargeRate,
		Type:   quote.AdjustmentSurcharge,
		Reason: "declared value above reinforced-handling threshold",
	})
	ctx.Output.InsuranceNotes = append(ctx.Output.InsuranceNotes, quote.InsuranceNote{
		Module: m.id,
		Note:   "reinforced handling protocol applies",
	})
	return nil
}

// FragileHandling prices protective handling for fragile inventories.
type FragileHandling struct{ base }

func NewFragileHandling() *FragileHandling {
	return &FragileHandling{quoting(ModFragile, 270)}
}

func (m *FragileHandling) Applicable(ctx *quote.Context) bool {
	return ctx.Input.HasFragileItems
}

func (m *FragileHandling) Apply(ctx *quote.Context) error {
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "fragile item handling",
		Amount:   fragileHandlingFee,
	})
	ctx.Output.RiskContributions = append(ctx.Output.RiskContributions, quote.RiskContribution{
		Module: m.id,
		Label:  "fragile inventory",
		Points: 10,
	})
	return nil
}
