package modules

import (
	"errors"
	"time"

	"movequote/internal/quote"
)

// DateValidation rejects unparsable or past service dates. It sits in
// the critical priority sub-range, so a failure aborts the whole run.
type DateValidation struct {
	base
	now func() time.Time
}

// NewDateValidation creates the validator.
func NewDateValidation() *DateValidation {
	return &DateValidation{
		base: quoting(quote.ModDateValidation, 10),
		now:  time.Now,
	}
}

// Essential lets the validator bypass enable-list constraints: it must
// run even in restricted base-cost mode.
func (m *DateValidation) Essential() bool { return true }

func (m *DateValidation) Apply(ctx *quote.Context) error {
	date := ctx.Input.ServiceDate
	if date.IsZero() {
		return errors.New("service date is required")
	}
	today := m.now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return errors.New("service date is in the past")
	}
	return nil
}
