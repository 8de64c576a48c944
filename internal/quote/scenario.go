package quote

import (
	"github.com/shopspring/decimal"
)

// metaClientServices is the context metadata key holding the caller's
// raw cross-sell selections while scenarios run with fixed compositions.
const metaClientServices = "client_services"

// Overrides is the partial input record a scenario applies on top of the
// shared base context. Nil pointer fields leave the input untouched;
// Services entries are merged key by key and always win.
//
// Only fields that scenario modules actually read are overridable.
// Physical facts of the move (volume, distance, floors, addresses) are
// consumed by the base-cost whitelist, which scenarios skip: overriding
// them here would desynchronize the derived fields already seeded from
// the shared base run.
type Overrides struct {
	Services        map[string]bool `json:"services,omitempty" yaml:"services,omitempty"`
	DeclaredValue   *float64        `json:"declared_value,omitempty" yaml:"declared_value,omitempty"`
	StorageMonths   *int            `json:"storage_months,omitempty" yaml:"storage_months,omitempty"`
	HasFragileItems *bool           `json:"has_fragile_items,omitempty" yaml:"has_fragile_items,omitempty"`
}

// apply shallow-merges the overrides onto an input record.
func (o Overrides) apply(in *Input) {
	if len(o.Services) > 0 {
		if in.Services == nil {
			in.Services = make(map[string]bool, len(o.Services))
		}
		for k, v := range o.Services {
			in.Services[k] = v
		}
	}
	if o.DeclaredValue != nil {
		in.DeclaredValue = *o.DeclaredValue
	}
	if o.StorageMonths != nil {
		in.StorageMonths = *o.StorageMonths
	}
	if o.HasFragileItems != nil {
		in.HasFragileItems = *o.HasFragileItems
	}
}

// Scenario is a static, never-mutated configuration producing one priced
// variant of the same underlying request.
type Scenario struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	EnabledModules  []ModuleID `json:"enabled_modules,omitempty" yaml:"enabled_modules,omitempty"`
	DisabledModules []ModuleID `json:"disabled_modules,omitempty" yaml:"disabled_modules,omitempty"`

	Overrides  Overrides `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	MarginRate float64   `json:"margin_rate" yaml:"margin_rate"`
	Tags       []string  `json:"tags,omitempty" yaml:"tags,omitempty"`

	// UseClientSelection restores the caller's raw cross-sell selections
	// instead of the scenario's fixed composition.
	UseClientSelection bool `json:"use_client_selection" yaml:"use_client_selection"`
}

// PricedScenario is one priced variant of the request.
type PricedScenario struct {
	ScenarioID      string     `json:"scenario_id"`
	Label           string     `json:"label"`
	FinalPrice      float64    `json:"final_price"`
	BasePrice       float64    `json:"base_price"`
	AdditionalCosts float64    `json:"additional_costs"`
	MarginRate      float64    `json:"margin_rate"`
	Tags            []string   `json:"tags,omitempty"`
	Output          *Output    `json:"output"`
	Report          *RunReport `json:"-"`
}

// Generator derives priced scenarios from a shared base-cost computation
// without re-running the scenario-independent modules.
type Generator struct {
	pipeline *Pipeline
}

// NewGenerator creates a generator over a registry.
func NewGenerator(reg *Registry) *Generator {
	return &Generator{pipeline: NewPipeline(reg)}
}

// WithPipeline substitutes a configured pipeline (logger etc).
func (g *Generator) WithPipeline(p *Pipeline) *Generator {
	g.pipeline = p
	return g
}

// Generate prices each scenario against the shared base context.
// Scenario outputs are mutually independent: every scenario works on an
// owned deep copy of the base context, and evaluation order does not
// affect individual results.
func (g *Generator) Generate(base *BaseCostResult, scenarios []Scenario) ([]PricedScenario, error) {
	results := make([]PricedScenario, 0, len(scenarios))
	whitelist := idSet(BaseCostModules)

	for _, sc := range scenarios {
		ctx, err := g.runScenario(base, sc, whitelist)
		if err != nil {
			return nil, err
		}
		results = append(results, *ctx)
	}
	return results, nil
}

func (g *Generator) runScenario(base *BaseCostResult, sc Scenario, whitelist map[ModuleID]bool) (*PricedScenario, error) {
	// Owned copy of the shared context; the derived output sub-record is
	// re-seeded as its own clone so scenarios never alias each other.
	ctx := base.Context.Clone()

	// Stash the caller's raw cross-sell selections, then zero the input
	// flags so catalogue selections cannot leak into scenarios that
	// define their own fixed composition.
	stash := make(map[string]bool, len(ctx.Input.Services))
	for k, v := range ctx.Input.Services {
		stash[k] = v
	}
	ctx.Meta[metaClientServices] = stash
	ctx.Input.Services = make(map[string]bool)

	if sc.UseClientSelection {
		for k, v := range stash {
			ctx.Input.Services[k] = v
		}
	}

	// Overrides win, applied after the client-selection restore so a
	// client-selection scenario's own overrides still take precedence.
	sc.Overrides.apply(&ctx.Input)

	report, err := g.pipeline.Run(ctx, RunOptions{
		Phase:      PhaseQuoting,
		Skip:       BaseCostModules,
		Enabled:    sc.EnabledModules,
		Disabled:   sc.DisabledModules,
		MarginRate: sc.MarginRate,
	})
	if err != nil {
		return nil, err
	}

	// Additional cost: everything the scenario added on top of the
	// shared base computation.
	additional := decimal.Zero
	for _, line := range ctx.Output.Costs {
		if whitelist[line.Module] {
			continue
		}
		additional = additional.Add(decimal.NewFromFloat(line.Amount))
	}

	// The generic aggregator only sums costs present in this context,
	// which excludes the external baseCost, so price is computed here
	// from the supplied base figure and written back onto the context.
	baseCost := decimal.NewFromFloat(base.BaseCost)
	basePrice := baseCost.Add(additional)
	finalPrice := basePrice.Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(sc.MarginRate)))

	ctx.Output.BasePrice = round2(basePrice)
	ctx.Output.FinalPrice = round2(finalPrice)
	ctx.Output.MarginRate = sc.MarginRate

	return &PricedScenario{
		ScenarioID:      sc.ID,
		Label:           sc.Label,
		FinalPrice:      ctx.Output.FinalPrice,
		BasePrice:       ctx.Output.BasePrice,
		AdditionalCosts: round2(additional),
		MarginRate:      sc.MarginRate,
		Tags:            sc.Tags,
		Output:          ctx.Output,
		Report:          report,
	}, nil
}
