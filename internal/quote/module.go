package quote

import (
	"fmt"

	perrors "movequote/pkg/errors"
)

// ModuleID uniquely identifies a pricing module.
type ModuleID string

// Phase partitions modules into temporally disjoint groups. A run only
// ever executes modules of one phase.
type Phase string

const (
	PhaseQuoting    Phase = "quoting"
	PhaseContract   Phase = "contract"
	PhaseFulfilment Phase = "fulfilment"
)

// CriticalPriorityMax bounds the critical sub-range: an error from a
// module whose priority is below this value aborts the whole run.
const CriticalPriorityMax = 100

// Module is the unit of pricing logic. Apply must be a pure function of
// the context it receives except for additive writes to the output
// record: it never touches input fields and never rewrites a scalar set
// by a lower-priority module.
type Module interface {
	ID() ModuleID
	Priority() int
	Phase() Phase
	Dependencies() []ModuleID
	Apply(*Context) error
}

// Conditional is implemented by modules with business applicability.
// Required for any module with a non-empty dependency list; modules
// implementing neither are always-run.
type Conditional interface {
	Applicable(*Context) bool
}

// Prerequisites is implemented by modules that must not run before a
// derived scalar exists, checked generically by the scheduler.
type Prerequisites interface {
	Requires() []DerivedField
}

// EssentialModule marks modules that bypass enable-list constraints
// (validation and other must-run units).
type EssentialModule interface {
	Essential() bool
}

func isEssential(m Module) bool {
	e, ok := m.(EssentialModule)
	return ok && e.Essential()
}

// Registry is the closed module registry shared read-only across runs.
// Registration order is preserved so priority ties stay stable.
type Registry struct {
	modules map[ModuleID]Module
	order   []ModuleID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[ModuleID]Module)}
}

// Register adds a module. Duplicate ids are a configuration error.
func (r *Registry) Register(m Module) error {
	id := m.ID()
	if _, ok := r.modules[id]; ok {
		return fmt.Errorf("module %q already registered", id)
	}
	r.modules[id] = m
	r.order = append(r.order, id)
	return nil
}

// MustRegister registers modules and panics on duplicates. Intended for
// static registration at startup.
func (r *Registry) MustRegister(ms ...Module) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a module by id.
func (r *Registry) Get(id ModuleID) (Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

// All returns modules in registration order.
func (r *Registry) All() []Module {
	out := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.order) }

// Validate checks that every required module id is registered and that
// declared dependencies resolve. Run at startup so configuration gaps
// surface before any request is served.
func (r *Registry) Validate(required []ModuleID) error {
	for _, id := range required {
		if _, ok := r.modules[id]; !ok {
			return perrors.MissingModule(string(id))
		}
	}
	for _, id := range r.order {
		for _, dep := range r.modules[id].Dependencies() {
			if _, ok := r.modules[dep]; !ok {
				return fmt.Errorf("module %q depends on unregistered module %q", id, dep)
			}
		}
	}
	return nil
}
