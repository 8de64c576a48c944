package modules

import "movequote/internal/quote"

// Optional-service tariffs.
const (
	packingRatePerM3   = 11.0
	dismantlingPerRoom = 48.0
	dismantlingMinFee  = 120.0
	storageRatePerM3   = 8.5
	cleaningRatePerM2  = 2.6
	cleaningMinFee     = 110.0
	pianoBaseFee       = 280.0
	pianoFloorFee      = 40.0
	fragileHandlingFee = 85.0
)

// PackingService prices full packing when selected.
type PackingService struct{ base }

func NewPackingService() *PackingService {
	return &PackingService{quoting(ModPackingService, 200)}
}

func (m *PackingService) Applicable(ctx *quote.Context) bool {
	return ctx.Input.Services[ServicePacking]
}

func (m *PackingService) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldVolume}
}

func (m *PackingService) Apply(ctx *quote.Context) error {
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "full packing",
		Amount:   ctx.Output.Volume() * packingRatePerM3,
	})
	return nil
}

// DismantlingService prices furniture dismantling and reassembly.
type DismantlingService struct{ base }

func NewDismantlingService() *DismantlingService {
	return &DismantlingService{quoting(ModDismantling, 210)}
}

func (m *DismantlingService) Applicable(ctx *quote.Context) bool {
	return ctx.Input.Services[ServiceDismantling]
}

func (m *DismantlingService) Apply(ctx *quote.Context) error {
	cost := float64(ctx.Input.RoomCount) * dismantlingPerRoom
	if cost < dismantlingMinFee {
		cost = dismantlingMinFee
	}
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "dismantling and reassembly",
		Amount:   cost,
	})
	return nil
}

// StorageService prices temporary storage by volume and month.
type StorageService struct{ base }

func NewStorageService() *StorageService {
	return &StorageService{quoting(ModStorageService, 220)}
}

func (m *StorageService) Applicable(ctx *quote.Context) bool {
	return ctx.Input.Services[ServiceStorage]
}

func (m *StorageService) Requires() []quote.DerivedField {
	return []quote.DerivedField{quote.FieldVolume}
}

func (m *StorageService) Apply(ctx *quote.Context) error {
	months := ctx.Input.StorageMonths
	if months < 1 {
		months = 1
	}
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "storage",
		Amount:   ctx.Output.Volume() * storageRatePerM3 * float64(months),
	})
	return nil
}

// CleaningService prices end-of-tenancy cleaning.
type CleaningService struct{ base }

func NewCleaningService() *CleaningService {
	return &CleaningService{quoting(ModCleaningService, 230)}
}

func (m *CleaningService) Applicable(ctx *quote.Context) bool {
	return ctx.Input.Services[ServiceCleaning]
}

func (m *CleaningService) Apply(ctx *quote.Context) error {
	cost := ctx.Input.AreaM2 * cleaningRatePerM2
	if cost < cleaningMinFee {
		cost = cleaningMinFee
	}
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "end-of-tenancy cleaning",
		Amount:   cost,
	})
	return nil
}

// PianoTransport prices piano handling and raises its risk share.
type PianoTransport struct{ base }

func NewPianoTransport() *PianoTransport {
	return &PianoTransport{quoting(ModPianoTransport, 240)}
}

func (m *PianoTransport) Applicable(ctx *quote.Context) bool {
	return ctx.Input.HasPiano
}

func (m *PianoTransport) Apply(ctx *quote.Context) error {
	ctx.Output.Costs = append(ctx.Output.Costs, quote.CostLine{
		Module:   m.id,
		Category: quote.CategoryService,
		Label:    "piano transport",
		Amount:   pianoBaseFee + float64(stairFloors(ctx.Input))*pianoFloorFee,
	})
	ctx.Output.RiskContributions = append(ctx.Output.RiskContributions, quote.RiskContribution{
		Module: m.id,
		Label:  "piano handling",
		Points: 15,
	})
	ctx.Output.Requirements = append(ctx.Output.Requirements, quote.Requirement{
		Module: m.id,
		Label:  "piano board and straps",
	})
	return nil
}
