package matching

import (
	"context"
	"math"
)

// DistanceLookup measures the distance between two location strings.
type DistanceLookup interface {
	Resolve(ctx context.Context, a, b string) Distance
}

// Profile is the part of a listing that scoring looks at.
type Profile struct {
	Skill    string
	Slots    []TimeSlot
	Location string
}

// Breakdown is a composite score with its components and the facts used to
// compute them.
type Breakdown struct {
	Skill    float64         `json:"skill"`
	Location float64         `json:"location"`
	Time     float64         `json:"time"`
	Activity float64         `json:"activity"`
	Total    float64         `json:"total"`
	Distance Distance        `json:"distance"`
	Overlaps []OverlapWindow `json:"overlaps,omitempty"`
	TimeNote string          `json:"time_note"`
}

// Scorer computes composite scores for request/offer pairs.
type Scorer struct {
	config    ScoringConfig
	distances DistanceLookup
}

// NewScorer creates a scorer using the given weights and distance lookup.
func NewScorer(config ScoringConfig, distances DistanceLookup) *Scorer {
	return &Scorer{config: config, distances: distances}
}

// Config returns the weights the scorer was built with.
func (s *Scorer) Config() ScoringConfig {
	return s.config
}

// Score rates how well an offer serves a request. The result is the same
// with the arguments swapped.
func (s *Scorer) Score(ctx context.Context, request, offer Profile) Breakdown {
	var b Breakdown

	if request.Skill == offer.Skill {
		b.Skill = s.config.SkillPoints
	}

	b.Distance = s.distances.Resolve(ctx, request.Location, offer.Location)
	b.Location = s.config.LocationPoints(b.Distance.KM)

	b.Time = s.config.TimeCompatibility(request.Slots, offer.Slots)
	b.TimeNote = s.config.ExplainTime(request.Slots, offer.Slots)
	b.Overlaps = OverlapSlots(request.Slots, offer.Slots)

	b.Activity = s.config.ActivityPoints

	total := b.Skill + b.Location + b.Time + b.Activity
	b.Total = math.Max(0, math.Min(total, s.config.MaxScore))
	return b
}
