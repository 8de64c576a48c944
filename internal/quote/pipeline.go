package quote

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	perrors "movequote/pkg/errors"
)

// RunOptions controls a single scheduler invocation.
type RunOptions struct {
	// Phase selects the temporal partition to execute. Zero value means
	// PhaseQuoting.
	Phase Phase

	// Skip lists modules treated as already computed (incremental mode).
	// Skipped modules satisfy dependency checks but are not executed.
	Skip []ModuleID

	// Enabled, when non-empty, restricts execution to the listed modules
	// plus essential ones. Disabled always wins over Enabled.
	Enabled  []ModuleID
	Disabled []ModuleID

	MarginRate float64
}

// SkipRecord explains why a module did not execute. Diagnostics only,
// never surfaced as a failure.
type SkipRecord struct {
	Module ModuleID `json:"module"`
	Reason string   `json:"reason"`
}

// ModuleFailure records a recoverable module error.
type ModuleFailure struct {
	Module ModuleID `json:"module"`
	Error  string   `json:"error"`
}

// RunReport is the per-run execution trace.
type RunReport struct {
	Executed  []ModuleID      `json:"executed"`
	Skips     []SkipRecord    `json:"skips"`
	Failures  []ModuleFailure `json:"failures"`
	Aggregate Aggregate       `json:"aggregate"`
}

// Pipeline is the full-mode scheduler. Stateless and re-entrant: the
// registry is shared read-only, all per-run state lives on the context.
type Pipeline struct {
	reg *Registry
	log zerolog.Logger
}

// NewPipeline creates a scheduler over a registry.
func NewPipeline(reg *Registry) *Pipeline {
	return &Pipeline{reg: reg, log: zerolog.Nop()}
}

// WithLogger attaches a logger for recoverable-failure reporting.
func (p *Pipeline) WithLogger(log zerolog.Logger) *Pipeline {
	p.log = log
	return p
}

// Run filters, orders and executes the registered modules against the
// context, then finalizes risk and price. The context is mutated in
// place; every module sees the same context object.
//
// An error from a module in the critical priority sub-range aborts the
// run. Any other module error is logged and treated as a skip.
func (p *Pipeline) Run(ctx *Context, opts RunOptions) (*RunReport, error) {
	if opts.Phase == "" {
		opts.Phase = PhaseQuoting
	}
	report := &RunReport{
		Executed: make([]ModuleID, 0),
		Skips:    make([]SkipRecord, 0),
		Failures: make([]ModuleFailure, 0),
	}

	skip := idSet(opts.Skip)
	disabled := idSet(opts.Disabled)
	enabled := idSet(opts.Enabled)

	candidates := make([]Module, 0, p.reg.Len())
	for _, m := range p.reg.All() {
		if m.Phase() != opts.Phase {
			continue
		}
		if skip[m.ID()] {
			continue
		}
		if disabled[m.ID()] {
			continue
		}
		if len(enabled) > 0 && !enabled[m.ID()] && !isEssential(m) {
			continue
		}
		// Modules without dependencies are filtered on applicability up
		// front; dependent modules get a late-bound check inside the
		// execution loop so they can see their dependencies' output.
		if len(m.Dependencies()) == 0 {
			if c, ok := m.(Conditional); ok && !c.Applicable(ctx) {
				continue
			}
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority() < candidates[j].Priority()
	})

	for _, m := range candidates {
		id := m.ID()

		if unmet := p.unmetDependency(m, ctx, skip); unmet != "" {
			report.Skips = append(report.Skips, SkipRecord{Module: id, Reason: unmet})
			continue
		}
		if missing := missingPrerequisite(m, ctx); missing != "" {
			report.Skips = append(report.Skips, SkipRecord{Module: id, Reason: missing})
			continue
		}
		if len(m.Dependencies()) > 0 {
			if c, ok := m.(Conditional); ok && !c.Applicable(ctx) {
				report.Skips = append(report.Skips, SkipRecord{Module: id, Reason: "not applicable"})
				continue
			}
		}

		if err := m.Apply(ctx); err != nil {
			if m.Priority() < CriticalPriorityMax {
				return report, perrors.Critical(string(id), err)
			}
			p.log.Warn().Str("module", string(id)).Err(err).Msg("module failed, skipping")
			report.Failures = append(report.Failures, ModuleFailure{Module: id, Error: err.Error()})
			continue
		}

		// Defensive idempotent append: well-behaved modules do not
		// register themselves, but double appends must not corrupt the
		// dependency ledger.
		ctx.Output.Activate(id)
		report.Executed = append(report.Executed, id)
	}

	p.finalize(ctx, opts.MarginRate, report)
	return report, nil
}

func (p *Pipeline) unmetDependency(m Module, ctx *Context, skip map[ModuleID]bool) string {
	for _, dep := range m.Dependencies() {
		if !ctx.Output.Activated(dep) && !skip[dep] {
			return fmt.Sprintf("dependency %q not satisfied", dep)
		}
	}
	return ""
}

func missingPrerequisite(m Module, ctx *Context) string {
	pre, ok := m.(Prerequisites)
	if !ok {
		return ""
	}
	for _, f := range pre.Requires() {
		if !ctx.Output.Has(f) {
			return fmt.Sprintf("derived field %q not set", f)
		}
	}
	return ""
}

// finalize caps the risk score, raises the manual-review flag and stores
// the aggregated price on the context.
func (p *Pipeline) finalize(ctx *Context, marginRate float64, report *RunReport) {
	risk := 0.0
	for _, rc := range ctx.Output.RiskContributions {
		risk += rc.Points
	}
	if risk > 100 {
		risk = 100
	}
	ctx.Output.RiskScore = risk

	critical := false
	for _, li := range ctx.Output.LegalImpacts {
		if li.Severity == LegalCritical {
			critical = true
			break
		}
	}
	if risk > 70 || critical {
		ctx.Output.ManualReview = true
	}

	agg := AggregatePrice(ctx.Output, marginRate)
	ctx.Output.TotalCosts = agg.TotalCosts
	ctx.Output.BasePrice = agg.BasePrice
	ctx.Output.TotalAdjustments = agg.TotalAdjustments
	ctx.Output.FinalPrice = agg.FinalPrice
	ctx.Output.MarginRate = marginRate
	report.Aggregate = agg
}

func idSet(ids []ModuleID) map[ModuleID]bool {
	s := make(map[ModuleID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}
