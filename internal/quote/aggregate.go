package quote

import "github.com/shopspring/decimal"

// Aggregate is the priced summary of an output record.
type Aggregate struct {
	TotalCosts        float64                    `json:"total_costs"`
	BasePrice         float64                    `json:"base_price"`
	TotalAdjustments  float64                    `json:"total_adjustments"`
	FinalPrice        float64                    `json:"final_price"`
	CostsByCategory   map[CostCategory]float64   `json:"costs_by_category"`
	AdjustmentsByType map[AdjustmentType]float64 `json:"adjustments_by_type"`
}

// AggregatePrice turns a populated output record and a margin rate into
// price figures. Summation uses full decimal precision; monetary values
// are rounded to 2 decimals only at this boundary.
func AggregatePrice(out *Output, marginRate float64) Aggregate {
	total := decimal.Zero
	byCategory := make(map[CostCategory]decimal.Decimal)
	for _, line := range out.Costs {
		amt := decimal.NewFromFloat(line.Amount)
		total = total.Add(amt)
		byCategory[line.Category] = byCategory[line.Category].Add(amt)
	}

	margin := decimal.NewFromFloat(1).Add(decimal.NewFromFloat(marginRate))
	basePrice := total.Mul(margin)

	adjTotal := decimal.Zero
	byType := make(map[AdjustmentType]decimal.Decimal)
	for _, adj := range out.Adjustments {
		amt := decimal.NewFromFloat(adj.Amount)
		if adj.Type == AdjustmentDiscount {
			amt = amt.Neg()
		}
		adjTotal = adjTotal.Add(amt)
		byType[adj.Type] = byType[adj.Type].Add(amt)
	}

	finalPrice := basePrice.Add(adjTotal)

	agg := Aggregate{
		TotalCosts:        round2(total),
		BasePrice:         round2(basePrice),
		TotalAdjustments:  round2(adjTotal),
		FinalPrice:        round2(finalPrice),
		CostsByCategory:   make(map[CostCategory]float64, len(byCategory)),
		AdjustmentsByType: make(map[AdjustmentType]float64, len(byType)),
	}
	for cat, d := range byCategory {
		agg.CostsByCategory[cat] = round2(d)
	}
	for t, d := range byType {
		agg.AdjustmentsByType[t] = round2(d)
	}
	return agg
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
