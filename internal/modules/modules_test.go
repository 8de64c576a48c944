package modules

import (
	"strings"
	"testing"
	"time"

	"movequote/internal/quote"
)

func futureDate() time.Time {
	return time.Now().Add(30 * 24 * time.Hour).Truncate(24 * time.Hour)
}

func testInput() quote.Input {
	return quote.Input{
		ServiceType:      "residential",
		Region:           "ile-de-france",
		ServiceDate:      futureDate(),
		PickupAddress:    "12 rue de la Pompe, Paris",
		DeliveryAddress:  "4 avenue Foch, Lyon",
		DeclaredVolumeM3: 30,
		DistanceKm:       120,
		RoomCount:        4,
		AreaM2:           85,
	}
}

func mustRegistry(t *testing.T) *quote.Registry {
	t.Helper()
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func runQuoting(t *testing.T, in quote.Input) *quote.Context {
	t.Helper()
	ctx := quote.NewContext(in)
	if _, err := quote.NewPipeline(mustRegistry(t)).Run(ctx, quote.RunOptions{
		Phase:      quote.PhaseQuoting,
		MarginRate: 0.30,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return ctx
}

func TestNewRegistryCoversWhitelist(t *testing.T) {
	reg := mustRegistry(t)
	for _, id := range quote.BaseCostModules {
		if _, ok := reg.Get(id); !ok {
			t.Errorf("whitelisted module %q not registered", id)
		}
	}
	if _, ok := reg.Get(quote.ModDateValidation); !ok {
		t.Error("date validation not registered")
	}
}

func TestBaseCostRealisticRun(t *testing.T) {
	ctx := quote.NewContext(testInput())
	result, err := quote.NewBaseCostScheduler(mustRegistry(t)).Compute(ctx)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if got := ctx.Output.Volume(); got != 30 {
		t.Errorf("volume = %v, want declared 30", got)
	}
	if got := ctx.Output.Distance(); got != 120 {
		t.Errorf("distance = %v, want 120", got)
	}
	if !ctx.Output.Has(quote.FieldWorkers) || !ctx.Output.Has(quote.FieldDuration) {
		t.Error("labor baseline did not derive crew fields")
	}
	if result.Breakdown.Labor <= 0 {
		t.Fatal("labor breakdown should be populated")
	}

	// Crew cost is reported in the breakdown but never in the total.
	sum := result.Breakdown.Volume + result.Breakdown.Distance + result.Breakdown.Transport
	if diff := result.BaseCost - sum; diff > 0.011 || diff < -0.011 {
		t.Errorf("base cost %v should equal non-labor breakdown sum %v", result.BaseCost, sum)
	}
	if result.BaseCost <= 0 {
		t.Error("base cost should be positive")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestDateValidationAbortsRun(t *testing.T) {
	in := testInput()
	in.ServiceDate = time.Now().Add(-48 * time.Hour)
	ctx := quote.NewContext(in)
	if _, err := quote.NewBaseCostScheduler(mustRegistry(t)).Compute(ctx); err == nil {
		t.Fatal("expected critical failure for past service date")
	}

	in.ServiceDate = time.Time{}
	if _, err := quote.NewBaseCostScheduler(mustRegistry(t)).Compute(quote.NewContext(in)); err == nil {
		t.Fatal("expected critical failure for missing service date")
	}
}

func TestNormalizationCarryDistance(t *testing.T) {
	cases := []struct {
		name             string
		pickup, delivery float64
		wantLongCarry    bool
	}{
		{"defaults stay under free allowance", 0, 0, false},
		{"adapter figures win over defaults", 45, 0, true},
		{"both sides provided", 12, 5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := testInput()
			in.PickupCarryDistanceM = tc.pickup
			in.DeliveryCarryDistanceM = tc.delivery
			ctx := runQuoting(t, in)

			found := false
			for _, line := range ctx.Output.Costs {
				if line.Module == quote.ModAccessConstraints && strings.Contains(line.Label, "long carry") {
					found = true
				}
			}
			if found != tc.wantLongCarry {
				t.Errorf("long carry line = %v, want %v", found, tc.wantLongCarry)
			}
		})
	}
}

func TestMonteChargeSuppressesFloorPenalty(t *testing.T) {
	in := testInput()
	in.PickupFloor = 5
	in.PickupHasElevator = false
	ctx := runQuoting(t, in)

	if !activated(ctx, quote.ModMonteCharge) {
		t.Fatal("monte-charge should activate for floor 5 without elevator")
	}
	if activated(ctx, quote.ModFloorPenalty) {
		t.Fatal("floor penalty must not run once the lift is booked")
	}
	if !ctx.Output.HasFlag("monte-charge") {
		t.Error("monte-charge flag missing")
	}
}

func TestFloorPenaltyWithoutLift(t *testing.T) {
	in := testInput()
	in.PickupFloor = 2
	in.PickupHasElevator = false
	ctx := runQuoting(t, in)

	if activated(ctx, quote.ModMonteCharge) {
		t.Fatal("monte-charge should not activate below floor 4")
	}
	if !activated(ctx, quote.ModFloorPenalty) {
		t.Fatal("floor penalty should run for stair floors")
	}
	want := 30 * floorRatePerM3 * 2
	for _, line := range ctx.Output.Costs {
		if line.Module == quote.ModFloorPenalty && line.Amount != want {
			t.Errorf("stair carry = %v, want %v", line.Amount, want)
		}
	}
}

func TestInsuranceActivation(t *testing.T) {
	t.Run("auto above threshold", func(t *testing.T) {
		in := testInput()
		in.DeclaredValue = 25000
		ctx := runQuoting(t, in)
		if !activated(ctx, ModInsurance) {
			t.Fatal("insurance should auto-activate above the declared-value threshold")
		}
		if activated(ctx, ModHighValue) {
			t.Error("high-value surcharge should stay inactive at 25000")
		}
		for _, line := range ctx.Output.Costs {
			if line.Module == ModInsurance && line.Amount != 200 {
				t.Errorf("premium = %v, want 200", line.Amount)
			}
		}
	})

	t.Run("explicit selection", func(t *testing.T) {
		in := testInput()
		in.DeclaredValue = 3000
		in.Services = map[string]bool{ServiceInsurance: true}
		ctx := runQuoting(t, in)
		if !activated(ctx, ModInsurance) {
			t.Fatal("selected insurance should activate")
		}
		for _, line := range ctx.Output.Costs {
			if line.Module == ModInsurance && line.Amount != insuranceMinPremium {
				t.Errorf("premium = %v, want floor %v", line.Amount, insuranceMinPremium)
			}
		}
	})

	t.Run("inactive otherwise", func(t *testing.T) {
		in := testInput()
		in.DeclaredValue = 3000
		ctx := runQuoting(t, in)
		if activated(ctx, ModInsurance) {
			t.Fatal("insurance should stay inactive")
		}
	})
}

func TestHighValueTriggersLegalReview(t *testing.T) {
	in := testInput()
	in.DeclaredValue = 120000
	ctx := runQuoting(t, in)

	if !activated(ctx, ModHighValue) {
		t.Fatal("high-value surcharge should activate above 50000")
	}
	var surcharge float64
	for _, adj := range ctx.Output.Adjustments {
		if adj.Module == ModHighValue {
			surcharge = adj.Amount
		}
	}
	if surcharge != 240 {
		t.Errorf("surcharge = %v, want 240", surcharge)
	}

	critical := false
	for _, li := range ctx.Output.LegalImpacts {
		if li.Severity == quote.LegalCritical {
			critical = true
		}
	}
	if !critical {
		t.Error("declared value above 100000 should record a critical legal impact")
	}
	if !ctx.Output.ManualReview {
		t.Error("critical legal impact should force manual review")
	}
}

func TestCrossSellProposals(t *testing.T) {
	in := testInput()
	in.HasFragileItems = true
	in.StorageMonths = 2
	in.AreaM2 = 95
	ctx := runQuoting(t, in)

	got := make(map[string]bool)
	for _, p := range ctx.Output.CrossSellProposals {
		got[p.Service] = true
	}
	for _, svc := range []string{ServicePacking, ServiceStorage, ServiceCleaning} {
		if !got[svc] {
			t.Errorf("missing cross-sell proposal for %s", svc)
		}
	}

	// Selected services are never proposed back.
	in.Services = map[string]bool{ServicePacking: true, ServiceStorage: true, ServiceCleaning: true}
	ctx = runQuoting(t, in)
	if len(ctx.Output.CrossSellProposals) != 0 {
		t.Errorf("proposals for already-selected services: %v", ctx.Output.CrossSellProposals)
	}
}

func TestPianoTransport(t *testing.T) {
	in := testInput()
	in.HasPiano = true
	in.PickupFloor = 2
	in.PickupHasElevator = false
	ctx := runQuoting(t, in)

	want := pianoBaseFee + 2*pianoFloorFee
	found := false
	for _, line := range ctx.Output.Costs {
		if line.Module == ModPianoTransport {
			found = true
			if line.Amount != want {
				t.Errorf("piano cost = %v, want %v", line.Amount, want)
			}
		}
	}
	if !found {
		t.Fatal("piano transport line missing")
	}
	if ctx.Output.RiskScore < 15 {
		t.Errorf("risk score %v should include the piano contribution", ctx.Output.RiskScore)
	}
}

func TestDepositScheduleRunsAtContractPhase(t *testing.T) {
	ctx := quote.NewContext(testInput())
	pipe := quote.NewPipeline(mustRegistry(t))

	if _, err := pipe.Run(ctx, quote.RunOptions{Phase: quote.PhaseQuoting}); err != nil {
		t.Fatalf("quoting run: %v", err)
	}
	if activated(ctx, ModDepositSchedule) {
		t.Fatal("deposit schedule must not run during quoting")
	}

	if _, err := pipe.Run(ctx, quote.RunOptions{Phase: quote.PhaseContract}); err != nil {
		t.Fatalf("contract run: %v", err)
	}
	if !activated(ctx, ModDepositSchedule) {
		t.Fatal("deposit schedule should run at contract phase")
	}
}

func activated(ctx *quote.Context, id quote.ModuleID) bool {
	for _, m := range ctx.Output.ActivatedModules {
		if m == id {
			return true
		}
	}
	return false
}
