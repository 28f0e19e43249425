package matching

// DistanceTier awards Points when the distance is at most MaxKM.
type DistanceTier struct {
	MaxKM  float64
	Points float64
}

// GapTier awards Points to same-day slots that miss each other by at most
// MaxGapHours.
type GapTier struct {
	MaxGapHours int
	Points      float64
}

// ScoringConfig defines weights, breakpoints and thresholds for pairing a
// request listing with an offer listing.
type ScoringConfig struct {
	SkillPoints    float64
	ActivityPoints float64
	MaxScore       float64

	// DistanceTiers must be sorted by MaxKM ascending.
	DistanceTiers []DistanceTier
	FarPoints     float64

	MaxTimePoints        float64
	PointsPerOverlapHour float64
	// GapTiers must be sorted by MaxGapHours ascending.
	GapTiers          []GapTier
	SameDayFarPoints  float64
	AdjacentDayPoints float64

	FallbackDistanceKM float64
	MinScore           float64
	MaxResults         int
}

// DefaultScoringConfig is the 40/25/25/10 composite.
var DefaultScoringConfig = ScoringConfig{
	SkillPoints:    40,
	ActivityPoints: 10,
	MaxScore:       100,

	DistanceTiers: []DistanceTier{
		{MaxKM: 10, Points: 25},
		{MaxKM: 25, Points: 20},
		{MaxKM: 50, Points: 15},
		{MaxKM: 100, Points: 10},
	},
	FarPoints: 5,

	MaxTimePoints:        25,
	PointsPerOverlapHour: 10,
	GapTiers: []GapTier{
		{MaxGapHours: 1, Points: 15},
		{MaxGapHours: 2, Points: 10},
		{MaxGapHours: 4, Points: 7},
	},
	SameDayFarPoints:  3,
	AdjacentDayPoints: 5,

	FallbackDistanceKM: 50,
	MinScore:           30,
	MaxResults:         20,
}

// LocationPoints maps a distance to its location sub-score. Distance only
// de-weights a pairing, it never disqualifies one.
func (c ScoringConfig) LocationPoints(km float64) float64 {
	for _, tier := range c.DistanceTiers {
		if km <= tier.MaxKM {
			return tier.Points
		}
	}
	return c.FarPoints
}

const (
	qualityExcellentAt = 80
	qualityGoodAt      = 60
)

// Quality labels a composite score for display.
func (c ScoringConfig) Quality(total float64) string {
	switch {
	case total >= qualityExcellentAt:
		return "Excellent match with high compatibility"
	case total >= qualityGoodAt:
		return "Good match"
	default:
		return "Fair match"
	}
}
