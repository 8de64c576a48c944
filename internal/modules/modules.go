// Package modules ships the concrete pricing modules: the base-cost
// whitelist (normalization through labor baseline) plus the optional
// service, insurance and compliance units derived per scenario.
package modules

import "movequote/internal/quote"

// Optional-module ids. The base-cost whitelist ids live in the quote
// package next to the whitelist itself.
const (
	ModPackingService  quote.ModuleID = "packing-service"
	ModDismantling     quote.ModuleID = "dismantling-service"
	ModStorageService  quote.ModuleID = "storage-service"
	ModCleaningService quote.ModuleID = "cleaning-service"
	ModPianoTransport  quote.ModuleID = "piano-transport"
	ModCrewScaling     quote.ModuleID = "crew-scaling"
	ModInsurance       quote.ModuleID = "insurance-premium"
	ModHighValue       quote.ModuleID = "high-value-surcharge"
	ModFragile         quote.ModuleID = "fragile-handling"
	ModRiskAssessment  quote.ModuleID = "risk-assessment"
	ModLegalCompliance quote.ModuleID = "legal-compliance"
	ModCrossSell       quote.ModuleID = "cross-sell"
	ModDepositSchedule quote.ModuleID = "deposit-schedule"
)

// Service selection keys interpreted from Input.Services.
const (
	ServicePacking     = "packing"
	ServiceDismantling = "dismantling"
	ServiceStorage     = "storage"
	ServiceCleaning    = "cleaning"
	ServiceInsurance   = "insurance"
)

// base carries the descriptor fields common to every module.
type base struct {
	id       quote.ModuleID
	priority int
	phase    quote.Phase
	deps     []quote.ModuleID
}

func (b base) ID() quote.ModuleID             { return b.id }
func (b base) Priority() int                  { return b.priority }
func (b base) Phase() quote.Phase             { return b.phase }
func (b base) Dependencies() []quote.ModuleID { return b.deps }

func quoting(id quote.ModuleID, priority int, deps ...quote.ModuleID) base {
	return base{id: id, priority: priority, phase: quote.PhaseQuoting, deps: deps}
}

// RegisterAll registers the full module set. Panics on duplicate ids;
// call once at startup.
func RegisterAll(reg *quote.Registry) {
	reg.MustRegister(
		NewDateValidation(),
		NewNormalization(),
		NewVolumeEstimation(),
		NewDistanceCalculation(),
		NewTransportCost(),
		NewAccessConstraints(),
		NewMonteCharge(),
		NewFloorPenalty(),
		NewVehicleSelection(),
		NewLaborBaseline(),
		NewCrewScaling(),
		NewPackingService(),
		NewDismantlingService(),
		NewStorageService(),
		NewCleaningService(),
		NewPianoTransport(),
		NewInsurancePremium(),
		NewHighValueSurcharge(),
		NewFragileHandling(),
		NewRiskAssessment(),
		NewLegalCompliance(),
		NewCrossSell(),
		NewDepositSchedule(),
	)
}

// NewRegistry builds a registry with the full module set registered and
// validated against the base-cost whitelist.
func NewRegistry() (*quote.Registry, error) {
	reg := quote.NewRegistry()
	RegisterAll(reg)
	if err := reg.Validate(quote.BaseCostModules); err != nil {
		return nil, err
	}
	return reg, nil
}
