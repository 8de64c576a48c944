package modules

import (
	"time"

	"movequote/internal/quote"
)

const (
	legalWarningValue  = 30000.0
	legalCriticalValue = 100000.0
)

// RiskAssessment aggregates situational risk on top of the per-module
// contributions already recorded.
type RiskAssessment struct{ base }

func NewRiskAssessment() *RiskAssessment {
	return &RiskAssessment{quoting(ModRiskAssessment, 300)}
}

func (m *RiskAssessment) Apply(ctx *quote.Context) error {
	if n := ctx.Input.ConstraintCount(); n > 0 {
		ctx.Output.RiskContributions = append(ctx.Output.RiskContributions, quote.RiskContribution{
			Module: m.id,
			Label:  "access constraints",
			Points: float64(n) * 8,
		})
	}
	if ctx.Input.DistanceKm > 300 {
		ctx.Output.RiskContributions = append(ctx.Output.RiskContributions, quote.RiskContribution{
			Module: m.id,
			Label:  "long haul",
			Points: 10,
		})
	}
	if ctx.Input.DeclaredVolumeM3 > 50 {
		ctx.Output.RiskContributions = append(ctx.Output.RiskContributions, quote.RiskContribution{
			Module: m.id,
			Label:  "large volume",
			Points: 8,
		})
	}
	return nil
}

// LegalCompliance records compliance consequences of the declared value
// and the notice period.
type LegalCompliance struct{ base }

func NewLegalCompliance() *LegalCompliance {
	return &LegalCompliance{quoting(ModLegalCompliance, 310)}
}

func (m *LegalCompliance) Apply(ctx *quote.Context) error {
	switch {
	case ctx.Input.DeclaredValue > legalCriticalValue:
		ctx.Output.LegalImpacts = append(ctx.Output.LegalImpacts, quote.LegalImpact{
			Module:   m.id,
			Label:    "notarised inventory and value declaration required",
			Severity: quote.LegalCritical,
		})
	case ctx.Input.DeclaredValue > legalWarningValue:
		ctx.Output.LegalImpacts = append(ctx.Output.LegalImpacts, quote.LegalImpact{
			Module:   m.id,
			Label:    "itemised value declaration recommended",
			Severity: quote.LegalWarning,
		})
	}
	if !ctx.Input.ServiceDate.IsZero() && time.Until(ctx.Input.ServiceDate) < 7*24*time.Hour {
		ctx.Output.LegalImpacts = append(ctx.Output.LegalImpacts, quote.LegalImpact{
			Module:   m.id,
			Label:    "short-notice booking, cancellation terms apply",
			Severity: quote.LegalInfo,
		})
	}
	return nil
}

// CrossSell proposes services the client has not selected.
type CrossSell struct{ base }

func NewCrossSell() *CrossSell {
	return &CrossSell{quoting(ModCrossSell, 320)}
}

func (m *CrossSell) Apply(ctx *quote.Context) error {
	if ctx.Input.HasFragileItems && !ctx.Input.Services[ServicePacking] {
		ctx.Output.CrossSellProposals = append(ctx.Output.CrossSellProposals, quote.CrossSellProposal{
			Module:  m.id,
			Service: ServicePacking,
			Reason:  "fragile items travel safer with professional packing",
		})
	}
	if ctx.Input.StorageMonths > 0 && !ctx.Input.Services[ServiceStorage] {
		ctx.Output.CrossSellProposals = append(ctx.Output.CrossSellProposals, quote.CrossSellProposal{
			Module:  m.id,
			Service: ServiceStorage,
			Reason:  "storage period declared but storage not selected",
		})
	}
	if ctx.Input.AreaM2 > 60 && !ctx.Input.Services[ServiceCleaning] {
		ctx.Output.CrossSellProposals = append(ctx.Output.CrossSellProposals, quote.CrossSellProposal{
			Module:  m.id,
			Service: ServiceCleaning,
			Reason:  "end-of-tenancy cleaning often required for this home size",
		})
	}
	return nil
}

// DepositSchedule runs at contract time and flags the deposit terms.
type DepositSchedule struct{ base }

func NewDepositSchedule() *DepositSchedule {
	return &DepositSchedule{base{
		id:       ModDepositSchedule,
		priority: 410,
		phase:    quote.PhaseContract,
	}}
}

func (m *DepositSchedule) Apply(ctx *quote.Context) error {
	ctx.Output.AddFlag(m.id, "deposit 30% due at signing")
	ctx.Output.Requirements = append(ctx.Output.Requirements, quote.Requirement{
		Module: m.id,
		Label:  "signed quote and deposit before crew dispatch",
	})
	return nil
}
