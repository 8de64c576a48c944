package modules

import (
	"fmt"
	"math"

	"movequote/internal/quote"
)

// Tariff constants for the scenario-independent cost baseline.
const (
	materialRatePerM3   = 4.5
	fuelRatePerKm       = 1.15
	carrierBaseFee      = 120.0
	carrierRatePerKm    = 1.9
	carrierRatePerM3    = 6.5
	narrowStreetFee     = 80.0
	noParkingFee        = 110.0
	carryRatePerM       = 3.5
	carryFreeMeters     = 20.0
	furnitureLiftFee    = 260.0
	floorRatePerM3      = 1.6
	vehicleDailyRate    = 95.0
	vehicleCapacityM3   = 18.0
	laborHourlyRate     = 38.0
	defaultVolumeM3     = 15.0
	defaultDistanceKm   = 25.0
	defaultCarryM       = 10.0
)

// metaCarryDistance holds the effective total carry distance in meters,
// derived once by normalization and read by access-constraints.
const metaCarryDistance = "effective_carry_m"

// Normalization derives the effective access figures shared by the
// downstream base-cost modules. Adapter-provided carry distances always
// win over the module default.
type Normalization struct{ base }

func NewNormalization() *Normalization {
	return &Normalization{quoting(quote.ModNormalization, 20)}
}

func (m *Normalization) Apply(ctx *quote.Context) error {
	carry := 0.0
	if d := ctx.Input.PickupCarryDistanceM; d > 0 {
		carry += d
	} else {
		carry += defaultCarryM
	}
	if d := ctx.Input.DeliveryCarryDistanceM; d > 0 {
		carry += d
	} else {
		carry += defaultCarryM
	}
	ctx.Meta[metaCarryDistance] = carry
	return nil
}

// VolumeEstimation sets the derived volume from the declared figure,
// the floor area or the room count, in that order.
type VolumeEstimation struct{ base }

func NewVolumeEstimation() *VolumeEstimation {
	return &VolumeEstimation{quoting(quote.ModVolumeEstimate, 30)}
}

func (m *VolumeEstimation) Apply(ctx *quote.Context) error {
	v := defaultVolumeM3
	switch {
	case ctx.Input.DeclaredVolumeM3 > 0:
		v = ctx.Input.DeclaredVolumeM3
	case ctx.Input.AreaM2 > 0:
		v = ctx.Input.AreaM2 * 0.35
	case ctx.Input.RoomCount > 0:
		v = float64(ctx.Input.RoomCount) * 12
	}
	ctx.Output.SetVolume(v)
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryVolume,
		Label:    "packing materials baseline",
		Amount:   v * materialRatePerM3,
	})
	return nil
}

// DistanceCalculation sets the derived distance and prices fuel.
type DistanceCalculation struct{ base }

func NewDistanceCalculation() *DistanceCalculation {
	return &DistanceCalculation{quoting(quote.ModDistanceCalc, 40)}
}

func (m *DistanceCalculation) Apply(ctx *quote.Context) error {
	d := ctx.Input.DistanceKm
	if d <= 0 {
		d = defaultDistanceKm
	}
	ctx.Output.SetDistance(d)
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryDistance,
		Label:    "fuel and tolls",
		Amount:   d * fuelRatePerKm,
	})
	return nil
}

// TransportCost prices the carrier baseline from volume and distance.
type TransportCost struct{ base }

func NewTransportCost() *TransportCost {
	return &TransportCost{quoting(quote.ModTransportCost, 50)}
}

func (m *TransportCost) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldVolume, quote.FieldDistance}
}

func (m *TransportCost) Apply(ctx *quote.Context) error {
	cost := carrierBaseFee +
		ctx.Output.Distance()*carrierRatePerKm +
		ctx.Output.Volume()*carrierRatePerM3
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryTransport,
		Label:    "carrier base",
		Amount:   cost,
	})
	return nil
}

// AccessConstraints surcharges difficult street access and long carries.
type AccessConstraints struct{ base }

func NewAccessConstraints() *AccessConstraints {
	return &AccessConstraints{quoting(quote.ModAccessConstraints, 60)}
}

func (m *AccessConstraints) Apply(ctx *quote.Context) error {
	if ctx.Input.NarrowStreet {
		ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
			Module:   m.id,
			Category: quote.CategoryTransport,
			Label:    "narrow street handling",
			Amount:   narrowStreetFee,
		})
	}
	if ctx.Input.NoParking {
		ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
			Module:   m.id,
			Category: quote.CategoryTransport,
			Label:    "no-parking zone handling",
			Amount:   noParkingFee,
		})
		ctx.Output.Requirements = append(ctx.Output.Requirements, quote.Requirement{
			Module: m.id,
			Label:  "parking permit",
		})
	}
	if carry, ok := ctx.Meta[metaCarryDistance].(float64); ok && carry > carryFreeMeters {
		ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
			Module:   m.id,
			Category: quote.CategoryTransport,
			Label:    "long carry",
			Amount:   (carry - carryFreeMeters) * carryRatePerM,
			Metadata: map[string]string{"carry_m": fmt.Sprintf("%.0f", carry)},
		})
	}
	return nil
}

// MonteCharge books a furniture lift for high floors without elevator.
type MonteCharge struct{ base }

func NewMonteCharge() *MonteCharge {
	return &MonteCharge{quoting(quote.ModMonteCharge, 70)}
}

func (m *MonteCharge) Applicable(ctx *quote.Context) bool {
	return (ctx.Input.PickupFloor >= 4 && !ctx.Input.PickupHasElevator) ||
		(ctx.Input.DeliveryFloor >= 4 && !ctx.Input.DeliveryHasElevator)
}

func (m *MonteCharge) Apply(ctx *quote.Context) error {
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryTransport,
		Label:    "furniture lift",
		Amount:   furnitureLiftFee,
	})
	ctx.Output.Requirements = append(ctx.Output.Requirements, quote.Requirement{
		Module: m.id,
		Label:  "furniture lift booking",
	})
	ctx.Output.AddFlag(m.id, "monte-charge")
	return nil
}

// FloorPenalty prices stair carrying when no lift has been booked. It
// depends on volume estimation and checks the monte-charge flag late,
// after its dependency chain ran.
type FloorPenalty struct{ base }

func NewFloorPenalty() *FloorPenalty {
	return &FloorPenalty{quoting(quote.ModFloorPenalty, 80, quote.ModVolumeEstimate)}
}

func (m *FloorPenalty) Applicable(ctx *quote.Context) bool {
	if ctx.Output.HasFlag("monte-charge") {
		return false
	}
	return stairFloors(ctx.Input) > 0
}

func (m *FloorPenalty) Apply(ctx *quote.Context) error {
	floors := stairFloors(ctx.Input)
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryTransport,
		Label:    "stair carry",
		Amount:   ctx.Output.Volume() * floorRatePerM3 * float64(floors),
	})
	return nil
}

// stairFloors counts the floors carried by stairs, capped at 3 per side.
func stairFloors(in quote.Input) int {
	n := 0
	if in.PickupFloor > 0 && !in.PickupHasElevator {
		n += min(in.PickupFloor, 3)
	}
	if in.DeliveryFloor > 0 && !in.DeliveryHasElevator {
		n += min(in.DeliveryFloor, 3)
	}
	return n
}

// VehicleSelection sizes the fleet from the derived volume.
type VehicleSelection struct{ base }

func NewVehicleSelection() *VehicleSelection {
	return &VehicleSelection{quoting(quote.ModVehicleSelection, 90)}
}

func (m *VehicleSelection) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldVolume}
}

func (m *VehicleSelection) Apply(ctx *quote.Context) error {
	n := int(math.Ceil(ctx.Output.Volume() / vehicleCapacityM3))
	if n < 1 {
		n = 1
	}
	ctx.Output.SetVehicles(n)
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryTransport,
		Label:    "vehicle",
		Amount:   float64(n) * vehicleDailyRate,
	})
	return nil
}

// LaborBaseline derives crew size and duration and prices the crew. Its
// cost contribution is excluded from the base-cost total because crew
// composition varies per scenario.
type LaborBaseline struct{ base }

func NewLaborBaseline() *LaborBaseline {
	return &LaborBaseline{quoting(quote.ModLaborBaseline, 110)}
}

func (m *LaborBaseline) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldVolume, quote.FieldDistance}
}

func (m *LaborBaseline) Apply(ctx *quote.Context) error {
	v := ctx.Output.Volume()
	workers := 2 + int(v/15)
	if ctx.Input.ConstraintCount() >= 2 {
		workers++
	}
	if workers > 6 {
		workers = 6
	}
	ctx.Output.SetWorkers(workers)

	duration := v/(float64(workers)*2.2) + ctx.Output.Distance()/70
	if duration < 2 {
		duration = 2
	}
	ctx.Output.SetDuration(duration)

	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryLabor,
		Label:    "crew baseline",
		Amount:   float64(workers) * duration * laborHourlyRate,
	})
	return nil
}

// CrewScaling reprices the crew per scenario: the baseline duration
// grows with every optional service the scenario carries. The base-cost
// whitelist does not enable it, so its contribution always lands in the
// scenario's additional costs.
type CrewScaling struct{ base }

func NewCrewScaling() *CrewScaling {
	return &CrewScaling{quoting(ModCrewScaling, 190)}
}

func (m *CrewScaling) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldWorkers, quote.FieldDuration}
}

func (m *CrewScaling) Apply(ctx *quote.Context) error {
	duration := ctx.Output.Duration() + 0.4*float64(ctx.Input.ServiceCount())
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryLabor,
		Label:    "crew",
		Amount:   float64(ctx.Output.CrewSize()) * duration * laborHourlyRate,
	})
	return nil
}
