package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"movequote/internal/catalog"
	"movequote/internal/quote"
)

// With an empty registry no module adds costs, so every archetype prices
// to baseCost x (1 + margin) and the six margins are directly visible.
func TestDefaultCatalogueMargins(t *testing.T) {
	base := &quote.BaseCostResult{
		BaseCost: 500,
		Context:  quote.NewContext(quote.Input{ServiceType: "residential"}),
	}

	gen := quote.NewGenerator(quote.NewRegistry())
	priced, err := gen.Generate(base, catalog.Default())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := map[string]float64{
		"budget":        600,
		"standard":      650,
		"comfort":       675,
		"security-plus": 660,
		"premium":       700,
		"flexible":      690,
	}
	if len(priced) != len(want) {
		t.Fatalf("got %d scenarios, want %d", len(priced), len(want))
	}
	for _, p := range priced {
		expected, ok := want[p.ScenarioID]
		if !ok {
			t.Fatalf("unexpected scenario %q", p.ScenarioID)
		}
		if p.FinalPrice != expected {
			t.Errorf("%s: final price = %v, want %v", p.ScenarioID, p.FinalPrice, expected)
		}
		if p.BasePrice != 500 {
			t.Errorf("%s: base price = %v, want 500", p.ScenarioID, p.BasePrice)
		}
	}
}

func TestDefaultCatalogueShape(t *testing.T) {
	scenarios := catalog.Default()
	if len(scenarios) != 6 {
		t.Fatalf("got %d scenarios, want 6", len(scenarios))
	}
	seen := make(map[string]bool)
	for _, sc := range scenarios {
		if seen[sc.ID] {
			t.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
		if sc.MarginRate <= 0 || sc.MarginRate >= 1 {
			t.Errorf("%s: margin rate %v out of range", sc.ID, sc.MarginRate)
		}
	}
	var flexible *quote.Scenario
	for i := range scenarios {
		if scenarios[i].ID == "flexible" {
			flexible = &scenarios[i]
		}
	}
	if flexible == nil || !flexible.UseClientSelection {
		t.Fatal("flexible archetype must use the client selection")
	}
}

func TestLoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	doc := `- id: lean
  label: Lean
  margin_rate: 0.25
  disabled_modules: [insurance-premium]
- id: custom
  label: Custom
  margin_rate: 0.31
  use_client_selection: true
  overrides:
    services:
      packing: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	scenarios, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(scenarios))
	}
	if scenarios[0].ID != "lean" || scenarios[0].MarginRate != 0.25 {
		t.Errorf("first scenario = %+v", scenarios[0])
	}
	if len(scenarios[0].DisabledModules) != 1 || scenarios[0].DisabledModules[0] != quote.ModuleID("insurance-premium") {
		t.Errorf("disabled modules = %v", scenarios[0].DisabledModules)
	}
	if !scenarios[1].UseClientSelection {
		t.Error("use_client_selection not parsed")
	}
	if !scenarios[1].Overrides.Services["packing"] {
		t.Error("override services not parsed")
	}
}

func TestLoadCatalogueRejectsBadMargin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	doc := "- id: broken\n  label: Broken\n  margin_rate: 1.5\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Load(path); err == nil {
		t.Fatal("expected margin range error")
	}
}

func TestLoadCatalogueRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	if err := os.WriteFile(path, []byte("- label: Anonymous\n  margin_rate: 0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Load(path); err == nil {
		t.Fatal("expected missing-id error")
	}
}
