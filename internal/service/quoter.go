// Package service orchestrates the two-step quote flow: base-cost
// computation, incremental scenario generation, comparison and price
// securing.
package service

import (
	"errors"

	"github.com/rs/zerolog"

	"movequote/internal/catalog"
	"movequote/internal/quote"
	"movequote/internal/recommend"
	"movequote/internal/secure"
	"movequote/pkg/api"
	perrors "movequote/pkg/errors"
)

// Quoter wires the schedulers, the catalogue and the signer. Stateless
// across requests; safe for concurrent use.
type Quoter struct {
	reg       *quote.Registry
	baseCost  *quote.BaseCostScheduler
	generator *quote.Generator
	signer    *secure.Signer
	scenarios []quote.Scenario
	log       zerolog.Logger
}

// NewQuoter builds a quoter over a validated registry.
func NewQuoter(reg *quote.Registry, signer *secure.Signer, log zerolog.Logger) *Quoter {
	pipeline := quote.NewPipeline(reg).WithLogger(log)
	return &Quoter{
		reg:       reg,
		baseCost:  quote.NewBaseCostScheduler(reg).WithPipeline(pipeline),
		generator: quote.NewGenerator(reg).WithPipeline(pipeline),
		signer:    signer,
		scenarios: catalog.Default(),
		log:       log,
	}
}

// WithScenarios replaces the default catalogue.
func (q *Quoter) WithScenarios(scenarios []quote.Scenario) *Quoter {
	q.scenarios = scenarios
	return q
}

// BaseQuote is Step A: compute the scenario-independent base cost and
// the shared context.
func (q *Quoter) BaseQuote(in quote.Input) (*api.BaseQuoteResponse, error) {
	if err := api.ValidateForQuoting(in); err != nil {
		return nil, err
	}
	result, err := q.baseCost.Compute(quote.NewContext(in))
	if err != nil {
		return nil, err
	}
	return &api.BaseQuoteResponse{
		BaseCost:  result.BaseCost,
		Context:   result.Context,
		Breakdown: result.Breakdown,
		Activated: result.Activated,
		Warnings:  result.Warnings,
	}, nil
}

// ScenarioQuote is Step B: derive priced scenarios from a Step A result
// without re-running the shared modules.
func (q *Quoter) ScenarioQuote(req api.ScenarioQuoteRequest) (*api.ScenarioQuoteResponse, error) {
	if req.Context == nil {
		return nil, perrors.InvalidInput("context from step A is required")
	}
	if req.Context.Output == nil {
		return nil, perrors.InvalidInput("context is missing its output record")
	}
	if req.BaseCost == nil {
		return nil, &perrors.QuoteError{
			Code:     perrors.ErrCodeMissingBaseCost,
			Message:  "base_cost is required",
			Severity: perrors.SeverityError,
		}
	}

	base := &quote.BaseCostResult{
		BaseCost: *req.BaseCost,
		Context:  req.Context,
	}

	// A failed or stale signature is never an error for the caller: the
	// base cost is simply recomputed from the forwarded context.
	if req.SecuredPrice != nil {
		if err := q.signer.Verify(*req.SecuredPrice); err != nil {
			rej := classifySignatureError(err)
			q.log.Warn().Str("code", rej.Code).Err(err).
				Msg("secured price rejected, recomputing base cost")
			recomputed, err := q.baseCost.Compute(quote.NewContext(req.Context.Input))
			if err != nil {
				return nil, err
			}
			base = recomputed
		}
	}

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = q.scenarios
	}

	priced, err := q.generator.Generate(base, scenarios)
	if err != nil {
		return nil, err
	}

	rec := recommend.Recommend(base.Context.Input)

	resp := &api.ScenarioQuoteResponse{
		Scenarios:      make([]api.ScenarioEntry, 0, len(priced)),
		Comparison:     compare(priced, rec),
		Recommendation: rec,
	}
	prices := make(map[string]float64, len(priced))
	for _, p := range priced {
		resp.Scenarios = append(resp.Scenarios, api.ScenarioEntry{
			ScenarioID:      p.ScenarioID,
			Label:           p.Label,
			FinalPrice:      p.FinalPrice,
			BasePrice:       p.BasePrice,
			AdditionalCosts: p.AdditionalCosts,
			MarginRate:      p.MarginRate,
			Tags:            p.Tags,
			FullOutput:      p.Output,
		})
		prices[p.ScenarioID] = p.FinalPrice
	}

	sp := q.signer.Sign(prices, fingerprint(base.Context))
	resp.SecuredPrice = &sp
	return resp, nil
}

// classifySignatureError maps a verification failure onto the error
// taxonomy: staleness and tampering carry distinct codes.
func classifySignatureError(err error) *perrors.QuoteError {
	if errors.Is(err, secure.ErrStale) {
		return perrors.SignatureStale(err)
	}
	return perrors.SignatureInvalid(err)
}

// compare builds the summary over the priced list, joining the
// recommendation by archetype id.
func compare(priced []quote.PricedScenario, rec recommend.Recommendation) api.Comparison {
	if len(priced) == 0 {
		return api.Comparison{}
	}
	cheapest, dearest := priced[0], priced[0]
	sum := 0.0
	for _, p := range priced {
		if p.FinalPrice < cheapest.FinalPrice {
			cheapest = p
		}
		if p.FinalPrice > dearest.FinalPrice {
			dearest = p
		}
		sum += p.FinalPrice
	}

	recommended := rec.Best.Archetype
	found := false
	for _, s := range rec.Ranking {
		for _, p := range priced {
			if p.ScenarioID == s.Archetype {
				recommended = s.Archetype
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		recommended = cheapest.ScenarioID
	}

	return api.Comparison{
		CheapestID:      cheapest.ScenarioID,
		MostExpensiveID: dearest.ScenarioID,
		RecommendedID:   recommended,
		PriceRange:      dearest.FinalPrice - cheapest.FinalPrice,
		AveragePrice:    sum / float64(len(priced)),
	}
}

// fingerprint summarizes the computation inputs for tamper detection.
func fingerprint(ctx *quote.Context) secure.Fingerprint {
	return secure.Fingerprint{
		ServiceType:     ctx.Input.ServiceType,
		Workers:         ctx.Output.CrewSize(),
		DurationHours:   ctx.Output.Duration(),
		DistanceKm:      ctx.Output.Distance(),
		ConstraintCount: ctx.Input.ConstraintCount(),
		ServiceCount:    ctx.Input.ServiceCount(),
	}
}
