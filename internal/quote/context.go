// Package quote provides the pricing computation core: the shared
// computation context, the module contract, the full and restricted
// schedulers and the incremental multi-scenario generator.
package quote

import "time"

// CostCategory classifies a cost line for breakdown reporting.
type CostCategory string

const (
	CategoryVolume    CostCategory = "volume"
	CategoryDistance  CostCategory = "distance"
	CategoryTransport CostCategory = "transport"
	CategoryLabor     CostCategory = "labor"
	CategoryService   CostCategory = "service"
	CategoryInsurance CostCategory = "insurance"
)

// AdjustmentType classifies a post-margin price delta.
type AdjustmentType string

const (
	AdjustmentSurcharge AdjustmentType = "surcharge"
	AdjustmentDiscount  AdjustmentType = "discount"
)

// LegalSeverity grades a legal impact entry.
type LegalSeverity string

const (
	LegalInfo     LegalSeverity = "info"
	LegalWarning  LegalSeverity = "warning"
	LegalCritical LegalSeverity = "critical"
)

// Input is the canonical input record produced by the boundary adapter.
// It is immutable for the duration of a pipeline run: modules read it but
// never write it. The scheduler itself treats it as opaque.
type Input struct {
	ServiceType string    `json:"service_type"`
	Region      string    `json:"region"`
	ServiceDate time.Time `json:"service_date"`

	PickupAddress   string `json:"pickup_address"`
	DeliveryAddress string `json:"delivery_address"`

	PickupFloor            int     `json:"pickup_floor"`
	DeliveryFloor          int     `json:"delivery_floor"`
	PickupHasElevator      bool    `json:"pickup_has_elevator"`
	DeliveryHasElevator    bool    `json:"delivery_has_elevator"`
	PickupCarryDistanceM   float64 `json:"pickup_carry_distance_m"`
	DeliveryCarryDistanceM float64 `json:"delivery_carry_distance_m"`

	AreaM2           float64 `json:"area_m2"`
	RoomCount        int     `json:"room_count"`
	DeclaredVolumeM3 float64 `json:"declared_volume_m3"`
	DistanceKm       float64 `json:"distance_km"`
	DeclaredValue    float64 `json:"declared_value"`
	StorageMonths    int     `json:"storage_months"`

	HasPiano          bool `json:"has_piano"`
	HasFragileItems   bool `json:"has_fragile_items"`
	HasHighValueItems bool `json:"has_high_value_items"`

	NarrowStreet bool `json:"narrow_street"`
	NoParking    bool `json:"no_parking"`

	// Optional / cross-sell service selections (packing, dismantling,
	// storage, cleaning, insurance). Interpreted by the service modules,
	// stashed and re-applied per scenario by the generator.
	Services map[string]bool `json:"services,omitempty"`
}

// Clone returns an owned deep copy of the input.
func (in Input) Clone() Input {
	out := in
	if in.Services != nil {
		out.Services = make(map[string]bool, len(in.Services))
		for k, v := range in.Services {
			out.Services[k] = v
		}
	}
	return out
}

// ConstraintCount counts active access constraints, used by risk scoring
// and by the secured-price fingerprint.
func (in Input) ConstraintCount() int {
	n := 0
	if in.NarrowStreet {
		n++
	}
	if in.NoParking {
		n++
	}
	if in.PickupFloor > 0 && !in.PickupHasElevator {
		n++
	}
	if in.DeliveryFloor > 0 && !in.DeliveryHasElevator {
		n++
	}
	return n
}

// ServiceCount counts selected optional services.
func (in Input) ServiceCount() int {
	n := 0
	for _, on := range in.Services {
		if on {
			n++
		}
	}
	return n
}

// CostLine is one append-only cost entry. A module may append entries but
// never edits or removes another module's entries.
type CostLine struct {
	Module   ModuleID          `json:"module"`
	Category CostCategory      `json:"category"`
	Label    string            `json:"label"`
	Amount   float64           `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Adjustment is a signed post-margin delta.
type Adjustment struct {
	Module ModuleID       `json:"module"`
	Label  string         `json:"label"`
	Amount float64        `json:"amount"`
	Type   AdjustmentType `json:"type"`
	Reason string         `json:"reason,omitempty"`
}

// RiskContribution feeds the capped risk score.
type RiskContribution struct {
	Module ModuleID `json:"module"`
	Label  string   `json:"label"`
	Points float64  `json:"points"`
}

// Requirement is an operational precondition surfaced to dispatch.
type Requirement struct {
	Module ModuleID `json:"module"`
	Label  string   `json:"label"`
}

// LegalImpact records a compliance consequence of the request.
type LegalImpact struct {
	Module   ModuleID      `json:"module"`
	Label    string        `json:"label"`
	Severity LegalSeverity `json:"severity"`
}

// CrossSellProposal suggests an optional service the client did not select.
type CrossSellProposal struct {
	Module  ModuleID `json:"module"`
	Service string   `json:"service"`
	Reason  string   `json:"reason"`
}

// InsuranceNote carries coverage remarks for the quote document.
type InsuranceNote struct {
	Module ModuleID `json:"module"`
	Note   string   `json:"note"`
}

// OperationalFlag marks execution-time conditions (lift booked, permit
// needed, manual review).
type OperationalFlag struct {
	Module ModuleID `json:"module"`
	Flag   string   `json:"flag"`
}

// Output is the derived record populated monotonically by modules.
// List fields are append-only; scalar fields are write-once via the Set*
// methods, which refuse to overwrite a value set by an earlier module.
type Output struct {
	Costs              []CostLine          `json:"costs"`
	Adjustments        []Adjustment        `json:"adjustments"`
	RiskContributions  []RiskContribution  `json:"risk_contributions"`
	Requirements       []Requirement       `json:"requirements"`
	LegalImpacts       []LegalImpact       `json:"legal_impacts"`
	CrossSellProposals []CrossSellProposal `json:"cross_sell_proposals"`
	InsuranceNotes     []InsuranceNote     `json:"insurance_notes"`
	OperationalFlags   []OperationalFlag   `json:"operational_flags"`

	// ActivatedModules is the single source of truth for "did X run",
	// used by dependency checks and for tracing.
	ActivatedModules []ModuleID `json:"activated_modules"`

	VolumeM3      *float64 `json:"volume_m3,omitempty"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	Workers       *int     `json:"workers,omitempty"`
	Vehicles      *int     `json:"vehicles,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`

	RiskScore    float64 `json:"risk_score"`
	ManualReview bool    `json:"manual_review"`

	TotalCosts       float64 `json:"total_costs"`
	BasePrice        float64 `json:"base_price"`
	TotalAdjustments float64 `json:"total_adjustments"`
	FinalPrice       float64 `json:"final_price"`
	MarginRate       float64 `json:"margin_rate"`
}

// NewOutput returns an empty output record.
func NewOutput() *Output {
	return &Output{
		Costs:            make([]CostLine, 0),
		Adjustments:      make([]Adjustment, 0),
		ActivatedModules: make([]ModuleID, 0),
	}
}

// DerivedField names a write-once scalar for generic prerequisite checks.
type DerivedField string

const (
	FieldVolume   DerivedField = "volume_m3"
	FieldDistance DerivedField = "distance_km"
	FieldWorkers  DerivedField = "workers"
	FieldVehicles DerivedField = "vehicles"
	FieldDuration DerivedField = "duration_hours"
)

// Has reports whether a derived scalar has been set.
func (o *Output) Has(f DerivedField) bool {
	switch f {
	case FieldVolume:
		return o.VolumeM3 != nil
	case FieldDistance:
		return o.DistanceKm != nil
	case FieldWorkers:
		return o.Workers != nil
	case FieldVehicles:
		return o.Vehicles != nil
	case FieldDuration:
		return o.DurationHours != nil
	}
	return false
}

// SetVolume sets the derived volume once. Returns false if already set.
func (o *Output) SetVolume(v float64) bool {
	if o.VolumeM3 != nil {
		return false
	}
	o.VolumeM3 = &v
	return true
}

// SetDistance sets the derived distance once. Returns false if already set.
func (o *Output) SetDistance(v float64) bool {
	if o.DistanceKm != nil {
		return false
	}
	o.DistanceKm = &v
	return true
}

// SetWorkers sets the crew size once. Returns false if already set.
func (o *Output) SetWorkers(n int) bool {
	if o.Workers != nil {
		return false
	}
	o.Workers = &n
	return true
}

// SetVehicles sets the vehicle count once. Returns false if already set.
func (o *Output) SetVehicles(n int) bool {
	if o.Vehicles != nil {
		return false
	}
	o.Vehicles = &n
	return true
}

// SetDuration sets the estimated duration once. Returns false if already set.
func (o *Output) SetDuration(h float64) bool {
	if o.DurationHours != nil {
		return false
	}
	o.DurationHours = &h
	return true
}

// Volume returns the derived volume or 0 when unset.
func (o *Output) Volume() float64 {
	if o.VolumeM3 == nil {
		return 0
	}
	return *o.VolumeM3
}

// Distance returns the derived distance or 0 when unset.
func (o *Output) Distance() float64 {
	if o.DistanceKm == nil {
		return 0
	}
	return *o.DistanceKm
}

// CrewSize returns the derived worker count or 0 when unset.
func (o *Output) CrewSize() int {
	if o.Workers == nil {
		return 0
	}
	return *o.Workers
}

// Duration returns the derived duration or 0 when unset.
func (o *Output) Duration() float64 {
	if o.DurationHours == nil {
		return 0
	}
	return *o.DurationHours
}

// Activated reports whether a module id is present in the activation ledger.
func (o *Output) Activated(id ModuleID) bool {
	for _, m := range o.ActivatedModules {
		if m == id {
			return true
		}
	}
	return false
}

// Activate appends a module id to the activation ledger. Idempotent.
func (o *Output) Activate(id ModuleID) {
	if !o.Activated(id) {
		o.ActivatedModules = append(o.ActivatedModules, id)
	}
}

// AddFlag appends an operational flag. Idempotent per (module, flag).
func (o *Output) AddFlag(id ModuleID, flag string) {
	for _, f := range o.OperationalFlags {
		if f.Module == id && f.Flag == flag {
			return
		}
	}
	o.OperationalFlags = append(o.OperationalFlags, OperationalFlag{Module: id, Flag: flag})
}

// HasFlag reports whether any module has raised the given flag.
func (o *Output) HasFlag(flag string) bool {
	for _, f := range o.OperationalFlags {
		if f.Flag == flag {
			return true
		}
	}
	return false
}

// Clone returns an owned deep copy of the output record.
func (o *Output) Clone() *Output {
	c := *o
	c.Costs = append([]CostLine(nil), o.Costs...)
	for i, line := range c.Costs {
		if line.Metadata != nil {
			md := make(map[string]string, len(line.Metadata))
			for k, v := range line.Metadata {
				md[k] = v
			}
			c.Costs[i].Metadata = md
		}
	}
	c.Adjustments = append([]Adjustment(nil), o.Adjustments...)
	c.RiskContributions = append([]RiskContribution(nil), o.RiskContributions...)
	c.Requirements = append([]Requirement(nil), o.Requirements...)
	c.LegalImpacts = append([]LegalImpact(nil), o.LegalImpacts...)
	c.CrossSellProposals = append([]CrossSellProposal(nil), o.CrossSellProposals...)
	c.InsuranceNotes = append([]InsuranceNote(nil), o.InsuranceNotes...)
	c.OperationalFlags = append([]OperationalFlag(nil), o.OperationalFlags...)
	c.ActivatedModules = append([]ModuleID(nil), o.ActivatedModules...)
	c.VolumeM3 = clonePtr(o.VolumeM3)
	c.DistanceKm = clonePtr(o.DistanceKm)
	c.Workers = clonePtr(o.Workers)
	c.Vehicles = clonePtr(o.Vehicles)
	c.DurationHours = clonePtr(o.DurationHours)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Context is the record threaded through the pipeline: the immutable
// input, the accumulated output and free-form metadata for
// scheduler-level bookkeeping (scenario stashes, trace ids).
type Context struct {
	Input  Input          `json:"input"`
	Output *Output        `json:"output"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// NewContext wraps an input record with an empty output.
func NewContext(in Input) *Context {
	return &Context{Input: in, Output: NewOutput(), Meta: make(map[string]any)}
}

// Clone returns an owned deep copy of the context. Metadata values of
// type map[string]bool (service stashes) are copied; other values are
// treated as immutable.
func (c *Context) Clone() *Context {
	out := &Context{
		Input:  c.Input.Clone(),
		Output: c.Output.Clone(),
	}
	out.Meta = make(map[string]any, len(c.Meta))
	for k, v := range c.Meta {
		if m, ok := v.(map[string]bool); ok {
			mc := make(map[string]bool, len(m))
			for mk, mv := range m {
				mc[mk] = mv
			}
			out.Meta[k] = mc
			continue
		}
		out.Meta[k] = v
	}
	return out
}
