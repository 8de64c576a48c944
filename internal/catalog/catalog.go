// Package catalog ships the scenario catalogue: six reference
// archetypes plus optional loading from a YAML file. Scenarios are
// static configuration, constructed once and never mutated.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"movequote/internal/modules"
	"movequote/internal/quote"
)

// Default returns the six reference archetypes. The engine is agnostic
// to their count or identity; these mirror the recommendation
// archetypes so prices and scores join by id.
func Default() []quote.Scenario {
	on := func(services ...string) map[string]bool {
		m := make(map[string]bool, len(services))
		for _, s := range services {
			m[s] = true
		}
		return m
	}

	return []quote.Scenario{
		{
			ID:          "budget",
			Label:       "Budget",
			Description: "Bare transport, client packs and carries boxes",
			DisabledModules: []quote.ModuleID{
				modules.ModInsurance,
				modules.ModHighValue,
			},
			MarginRate: 0.20,
			Tags:       []string{"eco", "self-service"},
		},
		{
			ID:          "standard",
			Label:       "Standard",
			Description: "Transport with furniture dismantling and reassembly",
			Overrides: quote.Overrides{
				Services: on(modules.ServiceDismantling),
			},
			MarginRate: 0.30,
			Tags:       []string{"recommended-default"},
		},
		{
			ID:          "comfort",
			Label:       "Comfort",
			Description: "Full packing, dismantling and end-of-tenancy cleaning",
			Overrides: quote.Overrides{
				Services: on(modules.ServicePacking, modules.ServiceDismantling, modules.ServiceCleaning),
			},
			MarginRate: 0.35,
			Tags:       []string{"full-service"},
		},
		{
			ID:          "security-plus",
			Label:       "Security Plus",
			Description: "Standard move with extended ad valorem coverage",
			Overrides: quote.Overrides{
				Services: on(modules.ServiceDismantling, modules.ServiceInsurance),
			},
			MarginRate: 0.32,
			Tags:       []string{"insured"},
		},
		{
			ID:          "premium",
			Label:       "Premium",
			Description: "Everything handled: packing, dismantling, cleaning and coverage",
			Overrides: quote.Overrides{
				Services: on(modules.ServicePacking, modules.ServiceDismantling,
					modules.ServiceCleaning, modules.ServiceInsurance),
			},
			MarginRate: 0.40,
			Tags:       []string{"full-service", "insured"},
		},
		{
			ID:                 "flexible",
			Label:              "Flexible",
			Description:        "Exactly the services the client selected",
			MarginRate:         0.38,
			Tags:               []string{"custom"},
			UseClientSelection: true,
		},
	}
}

// Load reads a scenario catalogue from a YAML file.
func Load(path string) ([]quote.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	var scenarios []quote.Scenario
	if err := yaml.Unmarshal(raw, &scenarios); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	for i, sc := range scenarios {
		if sc.ID == "" {
			return nil, fmt.Errorf("catalogue entry %d has no id", i)
		}
		if sc.MarginRate < 0 || sc.MarginRate > 1 {
			return nil, fmt.Errorf("scenario %q margin rate %v out of range", sc.ID, sc.MarginRate)
		}
	}
	return scenarios, nil
}
