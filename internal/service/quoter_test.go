package service

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"movequote/internal/modules"
	"movequote/internal/quote"
	"movequote/internal/secure"
	"movequote/pkg/api"
	perrors "movequote/pkg/errors"
)

func newQuoter(t *testing.T) *Quoter {
	t.Helper()
	reg, err := modules.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewQuoter(reg, secure.NewSigner([]byte("test-secret")), zerolog.Nop())
}

func quoteInput() quote.Input {
	return quote.Input{
		ServiceType:      "residential",
		Region:           "ile-de-france",
		ServiceDate:      time.Now().Add(30 * 24 * time.Hour).Truncate(24 * time.Hour),
		PickupAddress:    "12 rue de la Pompe, Paris",
		DeliveryAddress:  "4 avenue Foch, Lyon",
		DeclaredVolumeM3: 30,
		DistanceKm:       120,
		RoomCount:        4,
		AreaM2:           85,
		Services:         map[string]bool{modules.ServicePacking: true},
	}
}

func TestTwoStepFlow(t *testing.T) {
	q := newQuoter(t)

	base, err := q.BaseQuote(quoteInput())
	if err != nil {
		t.Fatalf("BaseQuote: %v", err)
	}
	if base.BaseCost <= 0 {
		t.Fatalf("base cost = %v, want positive", base.BaseCost)
	}
	if base.Context == nil {
		t.Fatal("base quote must return the shared context")
	}

	resp, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost: &base.BaseCost,
		Context:  base.Context,
	})
	if err != nil {
		t.Fatalf("ScenarioQuote: %v", err)
	}
	if len(resp.Scenarios) != 6 {
		t.Fatalf("got %d scenarios, want the 6 default archetypes", len(resp.Scenarios))
	}

	// Every scenario must honour finalPrice = (baseCost + additional) x (1 + margin).
	for _, sc := range resp.Scenarios {
		want := round2((base.BaseCost + sc.AdditionalCosts) * (1 + sc.MarginRate))
		if math.Abs(sc.FinalPrice-want) > 0.011 {
			t.Errorf("%s: final price = %v, want %v", sc.ScenarioID, sc.FinalPrice, want)
		}
		if sc.AdditionalCosts < 0 {
			t.Errorf("%s: negative additional costs %v", sc.ScenarioID, sc.AdditionalCosts)
		}
	}

	if resp.SecuredPrice == nil {
		t.Fatal("scenario quote must carry a secured price")
	}
	if len(resp.SecuredPrice.Prices) != 6 {
		t.Errorf("secured price covers %d scenarios, want 6", len(resp.SecuredPrice.Prices))
	}
	if resp.Recommendation.Best.Archetype == "" {
		t.Error("recommendation missing")
	}
}

func TestScenarioQuoteComparisonInvariants(t *testing.T) {
	q := newQuoter(t)
	base, err := q.BaseQuote(quoteInput())
	if err != nil {
		t.Fatalf("BaseQuote: %v", err)
	}
	resp, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost: &base.BaseCost,
		Context:  base.Context,
	})
	if err != nil {
		t.Fatalf("ScenarioQuote: %v", err)
	}

	prices := make(map[string]float64)
	lo, hi, sum := math.MaxFloat64, -math.MaxFloat64, 0.0
	for _, sc := range resp.Scenarios {
		prices[sc.ScenarioID] = sc.FinalPrice
		lo = math.Min(lo, sc.FinalPrice)
		hi = math.Max(hi, sc.FinalPrice)
		sum += sc.FinalPrice
	}

	c := resp.Comparison
	if prices[c.CheapestID] != lo {
		t.Errorf("cheapest %s = %v, want %v", c.CheapestID, prices[c.CheapestID], lo)
	}
	if prices[c.MostExpensiveID] != hi {
		t.Errorf("most expensive %s = %v, want %v", c.MostExpensiveID, prices[c.MostExpensiveID], hi)
	}
	if math.Abs(c.PriceRange-(hi-lo)) > 1e-9 {
		t.Errorf("price range = %v, want %v", c.PriceRange, hi-lo)
	}
	if math.Abs(c.AveragePrice-sum/float64(len(resp.Scenarios))) > 1e-9 {
		t.Errorf("average = %v", c.AveragePrice)
	}
	if _, ok := prices[c.RecommendedID]; !ok {
		t.Errorf("recommended id %s not among priced scenarios", c.RecommendedID)
	}
}

func TestScenarioQuoteRequiresBaseCost(t *testing.T) {
	q := newQuoter(t)
	ctx := quote.NewContext(quoteInput())

	_, err := q.ScenarioQuote(api.ScenarioQuoteRequest{Context: ctx})
	var qe *perrors.QuoteError
	if !errors.As(err, &qe) || qe.Code != perrors.ErrCodeMissingBaseCost {
		t.Fatalf("error = %v, want %s", err, perrors.ErrCodeMissingBaseCost)
	}
}

func TestScenarioQuoteRejectsContextWithoutOutput(t *testing.T) {
	q := newQuoter(t)
	baseCost := 500.0

	// A forwarded context whose JSON lacks the output record decodes
	// with a nil Output; it must be rejected at the boundary, not
	// scheduled.
	var ctx quote.Context
	if err := json.Unmarshal([]byte(`{"input":{"service_type":"residential","region":"idf"}}`), &ctx); err != nil {
		t.Fatal(err)
	}

	_, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost: &baseCost,
		Context:  &ctx,
	})
	var qe *perrors.QuoteError
	if !errors.As(err, &qe) || qe.Code != perrors.ErrCodeInvalidInput {
		t.Fatalf("error = %v, want %s", err, perrors.ErrCodeInvalidInput)
	}
}

func TestClassifySignatureError(t *testing.T) {
	stale := classifySignatureError(secure.ErrStale)
	if stale.Code != perrors.ErrCodeSignatureStale {
		t.Errorf("stale code = %s, want %s", stale.Code, perrors.ErrCodeSignatureStale)
	}
	invalid := classifySignatureError(secure.ErrInvalidSignature)
	if invalid.Code != perrors.ErrCodeSignatureInvalid {
		t.Errorf("invalid code = %s, want %s", invalid.Code, perrors.ErrCodeSignatureInvalid)
	}
	if !stale.Recoverable || !invalid.Recoverable {
		t.Error("signature rejections must be recoverable")
	}
}

func TestScenarioQuoteRequiresContext(t *testing.T) {
	q := newQuoter(t)
	baseCost := 500.0
	if _, err := q.ScenarioQuote(api.ScenarioQuoteRequest{BaseCost: &baseCost}); err == nil {
		t.Fatal("expected error for missing context")
	}
}

func TestBaseQuoteRejectsIncompleteInput(t *testing.T) {
	q := newQuoter(t)
	in := quoteInput()
	in.PickupAddress = ""
	if _, err := q.BaseQuote(in); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestInvalidSecuredPriceTriggersRecomputation(t *testing.T) {
	q := newQuoter(t)
	base, err := q.BaseQuote(quoteInput())
	if err != nil {
		t.Fatalf("BaseQuote: %v", err)
	}

	// Tampered base cost plus a signature from a foreign secret: the
	// figure must be recomputed, not trusted.
	foreign := secure.NewSigner([]byte("other-secret")).Sign(
		map[string]float64{"budget": 1}, secure.Fingerprint{})
	bogus := 1.0

	resp, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost:     &bogus,
		Context:      base.Context,
		SecuredPrice: &foreign,
	})
	if err != nil {
		t.Fatalf("ScenarioQuote: %v", err)
	}

	honest, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost: &base.BaseCost,
		Context:  base.Context,
	})
	if err != nil {
		t.Fatalf("ScenarioQuote: %v", err)
	}

	for i, sc := range resp.Scenarios {
		if math.Abs(sc.FinalPrice-honest.Scenarios[i].FinalPrice) > 0.011 {
			t.Errorf("%s: recomputed price %v differs from honest run %v",
				sc.ScenarioID, sc.FinalPrice, honest.Scenarios[i].FinalPrice)
		}
	}
}

func TestScenarioQuoteCustomScenarios(t *testing.T) {
	q := newQuoter(t)
	base, err := q.BaseQuote(quoteInput())
	if err != nil {
		t.Fatalf("BaseQuote: %v", err)
	}

	resp, err := q.ScenarioQuote(api.ScenarioQuoteRequest{
		BaseCost: &base.BaseCost,
		Context:  base.Context,
		Scenarios: []quote.Scenario{
			{ID: "lean", Label: "Lean", MarginRate: 0.25},
		},
	})
	if err != nil {
		t.Fatalf("ScenarioQuote: %v", err)
	}
	if len(resp.Scenarios) != 1 || resp.Scenarios[0].ScenarioID != "lean" {
		t.Fatalf("custom scenario list not honoured: %+v", resp.Scenarios)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
