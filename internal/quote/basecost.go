package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Well-known module ids. The base-cost whitelist below is the fixed set
// of scenario-independent operational cost modules; registries are
// validated against it at startup.
const (
	ModDateValidation    ModuleID = "date-validation"
	ModNormalization     ModuleID = "normalization"
	ModVolumeEstimate    ModuleID = "volume-estimation"
	ModDistanceCalc      ModuleID = "distance-calculation"
	ModTransportCost     ModuleID = "transport-cost"
	ModAccessConstraints ModuleID = "access-constraints"
	ModMonteCharge       ModuleID = "monte-charge"
	ModFloorPenalty      ModuleID = "floor-penalty"
	ModVehicleSelection  ModuleID = "vehicle-selection"
	ModLaborBaseline     ModuleID = "labor-baseline"
)

// BaseCostModules is the whitelist of modules whose cost contributions
// are real and scenario-independent.
var BaseCostModules = []ModuleID{
	ModNormalization,
	ModVolumeEstimate,
	ModDistanceCalc,
	ModTransportCost,
	ModAccessConstraints,
	ModMonteCharge,
	ModFloorPenalty,
	ModVehicleSelection,
	ModLaborBaseline,
}

// laborVariableModules still execute during a base-cost run (they
// populate shared derived fields) but their cost contributions are
// excluded from the returned total: crew-size-dependent labor is
// recomputed per scenario downstream.
var laborVariableModules = []ModuleID{ModLaborBaseline}

// BaseCostBreakdown splits the base cost by category.
type BaseCostBreakdown struct {
	Volume    float64 `json:"volume"`
	Distance  float64 `json:"distance"`
	Transport float64 `json:"transport"`
	Labor     float64 `json:"labor"`
}

// BaseCostResult is the output of a restricted base-cost run. Context
// must be forwarded verbatim to the scenario generator.
type BaseCostResult struct {
	BaseCost  float64           `json:"base_cost"`
	Context   *Context          `json:"context"`
	Breakdown BaseCostBreakdown `json:"breakdown"`
	Activated []ModuleID        `json:"activated_modules"`
	Warnings  []string          `json:"warnings,omitempty"`
	Report    *RunReport        `json:"-"`
}

// BaseCostScheduler runs only the fixed whitelist of scenario-independent
// cost modules and reports a cost figure excluding per-scenario-variable
// labor contributions.
type BaseCostScheduler struct {
	pipeline *Pipeline
	reg      *Registry
}

// NewBaseCostScheduler creates the restricted scheduler.
func NewBaseCostScheduler(reg *Registry) *BaseCostScheduler {
	return &BaseCostScheduler{pipeline: NewPipeline(reg), reg: reg}
}

// WithPipeline substitutes a configured pipeline (logger etc).
func (s *BaseCostScheduler) WithPipeline(p *Pipeline) *BaseCostScheduler {
	s.pipeline = p
	return s
}

// Compute executes the whitelist against the context and totals the
// scenario-independent cost lines. A whitelisted module missing from the
// registry is reported as a warning, not an error.
func (s *BaseCostScheduler) Compute(ctx *Context) (*BaseCostResult, error) {
	result := &BaseCostResult{Context: ctx}

	enabled := make([]ModuleID, 0, len(BaseCostModules))
	for _, id := range BaseCostModules {
		if _, ok := s.reg.Get(id); !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("base-cost module %q is not registered", id))
			continue
		}
		enabled = append(enabled, id)
	}

	report, err := s.pipeline.Run(ctx, RunOptions{
		Phase:   PhaseQuoting,
		Enabled: enabled,
	})
	if err != nil {
		return nil, err
	}
	result.Report = report
	result.Activated = append([]ModuleID(nil), ctx.Output.ActivatedModules...)

	whitelist := idSet(BaseCostModules)
	excluded := idSet(laborVariableModules)

	total := decimal.Zero
	var volume, distance, transport, labor decimal.Decimal
	for _, line := range ctx.Output.Costs {
		if !whitelist[line.Module] {
			continue
		}
		amt := decimal.NewFromFloat(line.Amount)
		switch line.Category {
		case CategoryVolume:
			volume = volume.Add(amt)
		case CategoryDistance:
			distance = distance.Add(amt)
		case CategoryTransport:
			transport = transport.Add(amt)
		case CategoryLabor:
			labor = labor.Add(amt)
		}
		if excluded[line.Module] {
			continue
		}
		total = total.Add(amt)
	}

	result.BaseCost = round2(total)
	result.Breakdown = BaseCostBreakdown{
		Volume:    round2(volume),
		Distance:  round2(distance),
		Transport: round2(transport),
		Labor:     round2(labor),
	}
	return result, nil
}
