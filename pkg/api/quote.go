// Package api defines the quote boundary contracts: the raw input
// adapter, the two-step request/response shapes and the comparison
// summary joined with the recommendation engine.
package api

import (
	"movequote/internal/quote"
	"movequote/internal/recommend"
	"movequote/internal/secure"
)

// BaseQuoteRequest is the Step A input: a raw input record as received
// from the client form. Numeric and boolean fields may arrive as
// strings; the adapter coerces them.
type BaseQuoteRequest struct {
	Input map[string]any `json:"input"`
}

// BaseQuoteResponse is the Step A output. Context must be forwarded
// verbatim to Step B.
type BaseQuoteResponse struct {
	BaseCost  float64                 `json:"base_cost"`
	Context   *quote.Context          `json:"context"`
	Breakdown quote.BaseCostBreakdown `json:"breakdown"`
	Activated []quote.ModuleID        `json:"activated_modules"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// ScenarioQuoteRequest is the Step B input. BaseCost is required;
// Scenarios defaults to the shipped catalogue when empty. An optional
// secured price is verified and, on failure, ignored in favour of full
// recomputation.
type ScenarioQuoteRequest struct {
	BaseCost     *float64             `json:"base_cost"`
	Context      *quote.Context       `json:"context"`
	Scenarios    []quote.Scenario     `json:"scenarios,omitempty"`
	SecuredPrice *secure.SecuredPrice `json:"secured_price,omitempty"`
}

// ScenarioEntry is one priced scenario in the Step B output.
type ScenarioEntry struct {
	ScenarioID      string        `json:"scenario_id"`
	Label           string        `json:"label"`
	FinalPrice      float64       `json:"final_price"`
	BasePrice       float64       `json:"base_price"`
	AdditionalCosts float64       `json:"additional_costs"`
	MarginRate      float64       `json:"margin_rate"`
	Tags            []string      `json:"tags,omitempty"`
	FullOutput      *quote.Output `json:"full_output"`
}

// Comparison summarizes the priced scenario list.
type Comparison struct {
	CheapestID      string  `json:"cheapest_id"`
	MostExpensiveID string  `json:"most_expensive_id"`
	RecommendedID   string  `json:"recommended_id"`
	PriceRange      float64 `json:"price_range"`
	AveragePrice    float64 `json:"average_price"`
}

// ScenarioQuoteResponse is the Step B output.
type ScenarioQuoteResponse struct {
	Scenarios      []ScenarioEntry          `json:"scenarios"`
	Comparison     Comparison               `json:"comparison"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	SecuredPrice   *secure.SecuredPrice     `json:"secured_price,omitempty"`
}

// ErrorResponse is the structured error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
