// Package recommend scores fixed scenario archetypes against the raw
// input record and explains the ranking. It is a pure classifier,
// independent of the pricing pipeline; its output is joined to priced
// scenarios by archetype id.
package recommend

import (
	"sort"

	"movequote/internal/quote"
	"movequote/pkg/confidence"
)

// Archetype ids, matching the shipped scenario catalogue.
const (
	ArchetypeBudget       = "budget"
	ArchetypeStandard     = "standard"
	ArchetypeComfort      = "comfort"
	ArchetypeSecurityPlus = "security-plus"
	ArchetypePremium      = "premium"
	ArchetypeFlexible     = "flexible"
)

// AlternativeThreshold is the minimum runner-up score for it to be
// surfaced as an alternative.
const AlternativeThreshold = 60.0

// Score is one archetype's scored result with its explanation.
type Score struct {
	Archetype  string           `json:"archetype"`
	Score      float64          `json:"score"`
	Reasons    []string         `json:"reasons,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	Confidence confidence.Level `json:"confidence"`
}

// Recommendation is the ranked outcome.
type Recommendation struct {
	Best        Score   `json:"best"`
	Alternative *Score  `json:"alternative,omitempty"`
	Ranking     []Score `json:"ranking"`
}

type scorer struct {
	score    float64
	reasons  []string
	warnings []string
}

func (s *scorer) add(delta float64, reason string) {
	s.score += delta
	s.reasons = append(s.reasons, reason)
}

func (s *scorer) warn(delta float64, warning string) {
	s.score += delta
	s.warnings = append(s.warnings, warning)
}

func (s *scorer) result(archetype string) Score {
	net := confidence.Net(len(s.reasons), len(s.warnings))
	return Score{
		Archetype:  archetype,
		Score:      confidence.ClampScore(s.score),
		Reasons:    s.reasons,
		Warnings:   s.warnings,
		Confidence: confidence.Bucket(net),
	}
}

// Recommend scores every archetype independently and ranks them. For a
// fixed input the result is fully deterministic.
func Recommend(in quote.Input) Recommendation {
	ranking := []Score{
		scoreBudget(in),
		scoreStandard(in),
		scoreComfort(in),
		scoreSecurityPlus(in),
		scorePremium(in),
		scoreFlexible(in),
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})

	rec := Recommendation{Best: ranking[0], Ranking: ranking}
	if len(ranking) > 1 && ranking[1].Score > AlternativeThreshold {
		alt := ranking[1]
		rec.Alternative = &alt
	}
	return rec
}

func scoreBudget(in quote.Input) Score {
	s := &scorer{score: 50}
	if in.DeclaredVolumeM3 > 0 && in.DeclaredVolumeM3 <= 20 {
		s.add(20, "small volume suits a no-frills move")
	}
	if in.DistanceKm > 0 && in.DistanceKm <= 50 {
		s.add(10, "short distance keeps transport simple")
	}
	if noAccessConstraints(in) {
		s.add(10, "easy access on both sides")
	}
	if in.HasFragileItems || in.HasPiano {
		s.warn(-20, "fragile or special items need more than a budget crew")
	}
	if in.DeclaredValue > 30000 {
		s.warn(-15, "declared value too high for minimal coverage")
	}
	return s.result(ArchetypeBudget)
}

func scoreStandard(in quote.Input) Score {
	s := &scorer{score: 60}
	if in.DeclaredVolumeM3 > 20 && in.DeclaredVolumeM3 <= 45 {
		s.add(15, "mid-size volume fits the standard crew")
	}
	if in.RoomCount >= 2 && in.RoomCount <= 4 {
		s.add(10, "typical household size")
	}
	if in.HasPiano {
		s.warn(-10, "piano transport needs a specialised option")
	}
	if in.DeclaredValue > 60000 {
		s.warn(-10, "high declared value deserves extra coverage")
	}
	return s.result(ArchetypeStandard)
}

func scoreComfort(in quote.Input) Score {
	s := &scorer{score: 45}
	if in.DeclaredVolumeM3 > 35 {
		s.add(15, "large volume benefits from full packing support")
	}
	if in.AreaM2 > 90 {
		s.add(10, "large home, packing saves significant time")
	}
	if floorWithoutElevator(in) {
		s.add(10, "stairs make assisted packing and carrying worthwhile")
	}
	if in.HasFragileItems {
		s.add(15, "fragile items favour professional packing")
	}
	if in.DeclaredVolumeM3 > 0 && in.DeclaredVolumeM3 <= 15 {
		s.warn(-10, "small volume rarely justifies the comfort package")
	}
	return s.result(ArchetypeComfort)
}

func scoreSecurityPlus(in quote.Input) Score {
	s := &scorer{score: 40}
	if in.DeclaredValue > 30000 {
		s.add(20, "declared value warrants extended insurance")
	}
	if in.HasHighValueItems {
		s.add(20, "high-value items need reinforced coverage")
	}
	if in.HasFragileItems {
		s.add(10, "fragile items covered by premium handling")
	}
	if in.DeclaredValue > 0 && in.DeclaredValue < 10000 {
		s.warn(-15, "low declared value makes extra coverage redundant")
	}
	return s.result(ArchetypeSecurityPlus)
}

func scorePremium(in quote.Input) Score {
	s := &scorer{score: 35}
	if in.DeclaredVolumeM3 > 50 {
		s.add(20, "very large move, full service recommended")
	}
	if in.DeclaredValue > 80000 {
		s.add(15, "high declared value matches the premium tier")
	}
	if in.HasPiano {
		s.add(15, "piano handling is included in premium")
	}
	if in.DistanceKm > 300 {
		s.add(10, "long distance favours a fully managed move")
	}
	if in.DeclaredVolumeM3 > 0 && in.DeclaredVolumeM3 <= 20 {
		s.warn(-15, "premium tier is oversized for a small move")
	}
	return s.result(ArchetypePremium)
}

func scoreFlexible(in quote.Input) Score {
	s := &scorer{score: 40}
	if in.ServiceCount() > 0 {
		s.add(20, "client already picked specific services")
	}
	if in.ServiceCount() >= 3 {
		s.add(10, "rich custom selection, keep it as chosen")
	}
	if in.ServiceCount() == 0 {
		s.warn(-10, "no explicit selection to build on")
	}
	return s.result(ArchetypeFlexible)
}

func noAccessConstraints(in quote.Input) bool {
	return in.ConstraintCount() == 0
}

func floorWithoutElevator(in quote.Input) bool {
	return (in.PickupFloor > 0 && !in.PickupHasElevator) ||
		(in.DeliveryFloor > 0 && !in.DeliveryHasElevator)
}
